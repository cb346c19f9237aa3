package workflow

import (
	"sync"
	"time"

	"github.com/gaorsystempe-cpu/operacionesFeet/businesstime"
	"github.com/gaorsystempe-cpu/operacionesFeet/models"
	"github.com/gaorsystempe-cpu/operacionesFeet/models/reports"
)

type Status string

const (
	StatusIdle           Status = "idle"
	StatusAuthenticating Status = "authenticating"
	StatusFetchingOrders Status = "fetching_orders"
	StatusLoadingLines   Status = "loading_lines"
	StatusSyncingCosts   Status = "syncing_costs"
	StatusComputing      Status = "computing"
	StatusDone           Status = "done"
	StatusNoData         Status = "no_data"
	StatusError          Status = "error"
)

var progressMessages = map[Status]string{
	StatusIdle:           "",
	StatusAuthenticating: "Authenticating...",
	StatusFetchingOrders: "Fetching sales...",
	StatusLoadingLines:   "Loading lines...",
	StatusSyncingCosts:   "Syncing costs...",
	StatusComputing:      "Computing tax and profitability...",
	StatusDone:           "Data reconciled",
	StatusNoData:         "No sales",
	StatusError:          "Error",
}

func (s Status) Message() string {
	return progressMessages[s]
}

// Snapshot is a read-only view of the store. Sales is shared with the store
// and must not be modified.
type Snapshot struct {
	Sales      []models.ReconciledSale `json:"-"`
	Period     businesstime.Period     `json:"period"`
	Requested  businesstime.Period     `json:"requested"`
	Status     Status                  `json:"status"`
	Progress   string                  `json:"progress"`
	Err        string                  `json:"error,omitempty"`
	Loading    bool                    `json:"loading"`
	FetchedAt  time.Time               `json:"fetchedAt"`
	Generation uint64                  `json:"generation"`
	Count      int                     `json:"count"`
}

// Store holds the current reconciled set. A fetch takes a generation from
// Begin; Progress, Commit and Fail only apply while that generation is the
// newest one issued, so an older run finishing late never overwrites a newer
// request.
type Store struct {
	mu     sync.RWMutex
	issued uint64
	snap   Snapshot
}

func NewStore() *Store {
	return &Store{snap: Snapshot{Status: StatusIdle}}
}

// Begin registers a new fetch for period. The committed set stays visible
// until the fetch commits.
func (s *Store) Begin(period businesstime.Period) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	s.snap.Requested = period
	s.snap.Loading = true
	s.snap.Err = ""
	s.setStatus(StatusAuthenticating)
	return s.issued
}

func (s *Store) Progress(gen uint64, status Status) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.issued {
		return false
	}
	s.setStatus(status)
	return true
}

// Commit replaces the set in one step. status is StatusDone or StatusNoData.
func (s *Store) Commit(gen uint64, period businesstime.Period, sales []models.ReconciledSale, status Status, at time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.issued {
		return false
	}
	if sales == nil {
		sales = []models.ReconciledSale{}
	}
	s.snap.Sales = sales
	s.snap.Count = len(sales)
	s.snap.Period = period
	s.snap.FetchedAt = at
	s.snap.Generation = gen
	s.snap.Loading = false
	s.snap.Err = ""
	s.setStatus(status)
	return true
}

// Fail records err and leaves the committed set untouched.
func (s *Store) Fail(gen uint64, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.issued {
		return false
	}
	s.snap.Loading = false
	s.snap.Err = err.Error()
	s.setStatus(StatusError)
	return true
}

func (s *Store) setStatus(status Status) {
	s.snap.Status = status
	s.snap.Progress = status.Message()
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

func (s *Store) StatsFor(pred reports.Predicate) reports.Stats {
	return reports.Summarize(reports.Filter(s.Snapshot().Sales, pred))
}

func (s *Store) LinesFor(pred reports.Predicate) []models.ReconciledSale {
	return reports.Filter(s.Snapshot().Sales, pred)
}

// ExportRange builds the workbook for the committed sales whose business day
// falls in [start, end].
func (s *Store) ExportRange(start string, end string, label string) reports.Workbook {
	if label == "" {
		label = businesstime.Period{Start: start, End: end}.Label()
	}
	return reports.BuildWorkbook(s.LinesFor(reports.InDateRange(start, end)), label)
}
