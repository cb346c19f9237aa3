// Package businesstime pins every displayed and queried timestamp to the
// business timezone, a fixed UTC-5 offset with no daylight saving.
package businesstime

import (
	"errors"
	"fmt"
	"time"
)

const (
	// Offset is the business timezone offset from UTC.
	Offset = -5 * time.Hour

	DateLayout    = "2006-01-02"
	erpLayout     = "2006-01-02 15:04:05"
	displayLayout = "02/01/2006"
)

// Zone is the business timezone. Fixed, so the host timezone never leaks in.
var Zone = time.FixedZone("PET", int(Offset/time.Second))

var (
	ErrUnknownMode = errors.New("unknown period mode")
	ErrInvalidDate = errors.New("invalid date, expected YYYY-MM-DD")
)

type Mode string

const (
	ModeToday  Mode = "today"
	ModeMonth  Mode = "month"
	ModeYear   Mode = "year"
	ModeCustom Mode = "custom"
)

// PeriodParams carries the inputs a mode needs. Month is 0-indexed
// (0 = January) and only read by ModeMonth; Start/End only by ModeCustom.
type PeriodParams struct {
	Year  int
	Month int
	Start string
	End   string
}

// Period is an inclusive range of business-day keys.
type Period struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func (p Period) Label() string {
	return p.Start + " to " + p.End
}

// BusinessToday returns now rendered in the business frame. Its wall clock is
// the UTC wall clock plus Offset, whatever the host's local zone is.
func BusinessToday(now time.Time) time.Time {
	return now.UTC().In(Zone)
}

// DateKey formats t as YYYY-MM-DD in the business frame.
func DateKey(t time.Time) string {
	return t.In(Zone).Format(DateLayout)
}

func FormatDisplayDate(t time.Time) string {
	return t.In(Zone).Format(displayLayout)
}

// PeriodBounds resolves a filter mode to its inclusive date keys. Custom
// ranges are returned as given; a start after end just filters to nothing.
func PeriodBounds(mode Mode, p PeriodParams, now time.Time) (Period, error) {
	today := BusinessToday(now)
	switch mode {
	case ModeToday:
		key := DateKey(today)
		return Period{Start: key, End: key}, nil
	case ModeMonth:
		if p.Month < 0 || p.Month > 11 {
			return Period{}, fmt.Errorf("month %d out of range 0-11", p.Month)
		}
		first := time.Date(p.Year, time.Month(p.Month+1), 1, 0, 0, 0, 0, Zone)
		last := first.AddDate(0, 1, -1)
		return Period{Start: DateKey(first), End: DateKey(last)}, nil
	case ModeYear:
		first := time.Date(p.Year, time.January, 1, 0, 0, 0, 0, Zone)
		last := time.Date(p.Year, time.December, 31, 0, 0, 0, 0, Zone)
		return Period{Start: DateKey(first), End: DateKey(last)}, nil
	case ModeCustom:
		if _, err := ParseDateKey(p.Start); err != nil {
			return Period{}, err
		}
		if _, err := ParseDateKey(p.End); err != nil {
			return Period{}, err
		}
		return Period{Start: p.Start, End: p.End}, nil
	default:
		return Period{}, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
}

// CurrentMonth is the default period: the first of this month through today.
func CurrentMonth(now time.Time) Period {
	today := BusinessToday(now)
	first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, Zone)
	return Period{Start: DateKey(first), End: DateKey(today)}
}

func ParseDateKey(key string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, key, Zone)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, key)
	}
	return t, nil
}

// QueryWindow returns the ERP filter bounds for a period. The ERP stores UTC,
// so local 00:00:00 on Start is "{Start} 05:00:00" and local 23:59:59 on End
// is "{End+1} 04:59:59". A "{End} 04:59:59" bound would drop End's business
// day and leave a single-day period with an empty window.
func QueryWindow(p Period) (from string, to string, err error) {
	start, err := ParseDateKey(p.Start)
	if err != nil {
		return "", "", err
	}
	end, err := ParseDateKey(p.End)
	if err != nil {
		return "", "", err
	}
	endOfDay := end.Add(24*time.Hour - time.Second)
	return start.UTC().Format(erpLayout), endOfDay.UTC().Format(erpLayout), nil
}

// ParseERPTimestamp reads an ERP "YYYY-MM-DD HH:MM:SS" value as UTC and
// returns it in the business frame for display.
func ParseERPTimestamp(raw string) (time.Time, error) {
	t, err := time.ParseInLocation(erpLayout, raw, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return t.In(Zone), nil
}

// InRange compares date keys lexically, which matches calendar order for
// zero-padded YYYY-MM-DD.
func InRange(key string, start string, end string) bool {
	return key >= start && key <= end
}
