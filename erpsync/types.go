package erpsync

import (
	"github.com/gaorsystempe-cpu/operacionesFeet/businesstime"
	"github.com/gaorsystempe-cpu/operacionesFeet/models"
	"github.com/gaorsystempe-cpu/operacionesFeet/models/reports"
	"github.com/gaorsystempe-cpu/operacionesFeet/workflow"
	"github.com/shopspring/decimal"
)

// SyncRequest selects the period to reconcile. An empty mode means the
// current month so far.
type SyncRequest struct {
	Mode  string `json:"mode" validate:"omitempty,oneof=today month year custom"`
	Year  int    `json:"year" validate:"omitempty,min=2000,max=2100"`
	Month *int   `json:"month" validate:"omitempty,min=0,max=11"`
	Start string `json:"start" validate:"omitempty,datetime=2006-01-02"`
	End   string `json:"end" validate:"omitempty,datetime=2006-01-02"`
}

// RangeQuery is the shared filter of stats, lines and export.
type RangeQuery struct {
	Branch string `form:"branch"`
	From   string `form:"from" validate:"omitempty,datetime=2006-01-02"`
	To     string `form:"to" validate:"omitempty,datetime=2006-01-02"`
}

// ExportQuery defaults to the committed period when From/To are empty.
type ExportQuery struct {
	From   string `form:"from" validate:"omitempty,datetime=2006-01-02"`
	To     string `form:"to" validate:"omitempty,datetime=2006-01-02"`
	Label  string `form:"label" validate:"max=120"`
	Upload bool   `form:"upload"`
}

type StatusResponse struct {
	workflow.Snapshot
	Session *workflow.Session `json:"session,omitempty"`
}

type StatsResponse struct {
	reports.Stats
	AverageTicket decimal.Decimal     `json:"averageTicket"`
	Range         businesstime.Period `json:"range"`
	Branch        string              `json:"branch,omitempty"`
}

type LinesResponse struct {
	Lines []models.ReconciledSale `json:"lines"`
	Count int                     `json:"count"`
	Range businesstime.Period     `json:"range"`
}

type UploadResponse struct {
	Bucket string `json:"bucket"`
	Object string `json:"object"`
}

type PubSubPushEnvelope struct {
	Message struct {
		Data []byte `json:"data"`
		ID   string `json:"messageId"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}
