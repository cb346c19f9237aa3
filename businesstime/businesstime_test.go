package businesstime

import (
	"errors"
	"testing"
	"time"
)

func TestPeriodBounds(t *testing.T) {
	now := time.Date(2024, 3, 15, 3, 0, 0, 0, time.UTC) // 2024-03-14 22:00 local
	cases := []struct {
		name   string
		mode   Mode
		params PeriodParams
		start  string
		end    string
	}{
		{"today uses business day", ModeToday, PeriodParams{}, "2024-03-14", "2024-03-14"},
		{"leap february", ModeMonth, PeriodParams{Year: 2024, Month: 1}, "2024-02-01", "2024-02-29"},
		{"plain february", ModeMonth, PeriodParams{Year: 2023, Month: 1}, "2023-02-01", "2023-02-28"},
		{"december", ModeMonth, PeriodParams{Year: 2024, Month: 11}, "2024-12-01", "2024-12-31"},
		{"year", ModeYear, PeriodParams{Year: 2025}, "2025-01-01", "2025-12-31"},
		{"custom reversed kept as is", ModeCustom, PeriodParams{Start: "2024-05-10", End: "2024-05-01"}, "2024-05-10", "2024-05-01"},
	}
	for _, tc := range cases {
		p, err := PeriodBounds(tc.mode, tc.params, now)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if p.Start != tc.start || p.End != tc.end {
			t.Fatalf("%s: expected %s..%s, got %s..%s", tc.name, tc.start, tc.end, p.Start, p.End)
		}
	}
}

func TestPeriodBoundsErrors(t *testing.T) {
	now := time.Now()
	if _, err := PeriodBounds("week", PeriodParams{}, now); !errors.Is(err, ErrUnknownMode) {
		t.Fatalf("expected ErrUnknownMode, got %v", err)
	}
	if _, err := PeriodBounds(ModeCustom, PeriodParams{Start: "2024-13-01", End: "2024-12-01"}, now); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
	if _, err := PeriodBounds(ModeMonth, PeriodParams{Year: 2024, Month: 12}, now); err == nil {
		t.Fatalf("expected error for month 12")
	}
}

func TestQueryWindowShiftsForward(t *testing.T) {
	from, to, err := QueryWindow(Period{Start: "2024-03-01", End: "2024-03-31"})
	if err != nil {
		t.Fatalf("QueryWindow error: %v", err)
	}
	if from != "2024-03-01 05:00:00" {
		t.Fatalf("expected start boundary 2024-03-01 05:00:00, got %s", from)
	}
	if to != "2024-04-01 04:59:59" {
		t.Fatalf("expected end boundary 2024-04-01 04:59:59, got %s", to)
	}

	// a single business day spans 24 hours of UTC
	from, to, err = QueryWindow(Period{Start: "2024-03-15", End: "2024-03-15"})
	if err != nil {
		t.Fatalf("QueryWindow error: %v", err)
	}
	if from != "2024-03-15 05:00:00" || to != "2024-03-16 04:59:59" {
		t.Fatalf("expected single-day window 2024-03-15 05:00:00..2024-03-16 04:59:59, got %s..%s", from, to)
	}
}

func TestParseERPTimestampAndKeys(t *testing.T) {
	ts, err := ParseERPTimestamp("2024-03-15 03:30:00")
	if err != nil {
		t.Fatalf("ParseERPTimestamp error: %v", err)
	}
	if got := DateKey(ts); got != "2024-03-14" {
		t.Fatalf("expected business day 2024-03-14, got %s", got)
	}
	if got := FormatDisplayDate(ts); got != "14/03/2024" {
		t.Fatalf("expected 14/03/2024, got %s", got)
	}
	if ts.Hour() != 22 || ts.Minute() != 30 {
		t.Fatalf("expected 22:30 local, got %s", ts.Format(time.Kitchen))
	}
	if _, err := ParseERPTimestamp("2024-03-15T03:30:00Z"); err == nil {
		t.Fatalf("expected error for ISO layout")
	}
}

func TestBusinessTodayIgnoresHostZone(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	now := time.Date(2024, 1, 1, 8, 0, 0, 0, tokyo) // 2023-12-31 23:00 UTC
	today := BusinessToday(now)
	if DateKey(today) != "2023-12-31" || today.Hour() != 18 {
		t.Fatalf("expected 2023-12-31 18:00 business time, got %s", today)
	}
}

func TestInRange(t *testing.T) {
	if !InRange("2024-02-29", "2024-02-01", "2024-02-29") {
		t.Fatalf("expected inclusive end")
	}
	if InRange("2024-03-01", "2024-02-01", "2024-02-29") {
		t.Fatalf("expected out of range")
	}
	if InRange("2024-05-05", "2024-05-10", "2024-05-01") {
		t.Fatalf("reversed range must match nothing")
	}
}
