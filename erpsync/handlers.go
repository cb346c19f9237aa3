// Package erpsync exposes the reconciliation over HTTP.
package erpsync

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gaorsystempe-cpu/operacionesFeet/branch"
	"github.com/gaorsystempe-cpu/operacionesFeet/businesstime"
	"github.com/gaorsystempe-cpu/operacionesFeet/config"
	"github.com/gaorsystempe-cpu/operacionesFeet/models/reports"
	"github.com/gaorsystempe-cpu/operacionesFeet/odoo"
	"github.com/gaorsystempe-cpu/operacionesFeet/utils"
	"github.com/gaorsystempe-cpu/operacionesFeet/workflow"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const (
	minDateKey   = "0000-01-01"
	maxDateKey   = "9999-12-31"
	exportPrefix = "exports/"
)

// Uploader stores a finished export.
type Uploader func(ctx context.Context, bucket string, object string, contentType string, content io.Reader) error

type Handlers struct {
	Pipeline *workflow.Pipeline
	Sessions SessionSource
	Upload   Uploader
	Bucket   string
	Logger   *logrus.Logger
	Now      func() time.Time

	flights singleflight.Group
}

func NewHandlers(pipeline *workflow.Pipeline, sessions SessionSource) *Handlers {
	return &Handlers{
		Pipeline: pipeline,
		Sessions: sessions,
		Upload:   utils.UploadExport,
		Bucket:   config.EnvString("EXPORT_BUCKET", ""),
		Logger:   config.GetLogger(),
		Now:      time.Now,
	}
}

// Register mounts the API under /api/reconcile and the push trigger under
// /pubsub. guard runs in front of the API routes only.
func (h *Handlers) Register(r gin.IRouter, guard ...gin.HandlerFunc) {
	api := r.Group("/api/reconcile", guard...)
	api.POST("/sync", h.SyncHandler())
	api.GET("/status", h.StatusHandler())
	api.GET("/stats", h.StatsHandler())
	api.GET("/lines", h.LinesHandler())
	api.GET("/export", h.ExportHandler())
	r.POST("/pubsub/reconcile-sync", h.PubSubPushHandler())
}

func (h *Handlers) SyncHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SyncRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		if err := utils.ValidateStruct(req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "fields": utils.ProcessValidationErrors(err)})
			return
		}
		period, err := h.resolvePeriod(req)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx := utils.SetTriggerInContext(c.Request.Context(), "http")
		if strings.EqualFold(c.Query("async"), "true") {
			go func() {
				_ = h.runSync(context.WithoutCancel(ctx), period)
			}()
			c.JSON(http.StatusAccepted, h.status())
			return
		}

		if err := h.runSync(ctx, period); err != nil {
			c.JSON(statusForError(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, h.status())
	}
}

func (h *Handlers) StatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, h.status())
	}
}

func (h *Handlers) StatsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		q, pred, ok := h.bindRange(c)
		if !ok {
			return
		}
		st := h.Pipeline.Store.StatsFor(pred)
		c.JSON(http.StatusOK, StatsResponse{
			Stats:         st,
			AverageTicket: reports.AverageTicket(st).Round(2),
			Range:         businesstime.Period{Start: q.From, End: q.To},
			Branch:        q.Branch,
		})
	}
}

func (h *Handlers) LinesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		q, pred, ok := h.bindRange(c)
		if !ok {
			return
		}
		lines := h.Pipeline.Store.LinesFor(pred)
		c.JSON(http.StatusOK, LinesResponse{
			Lines: lines,
			Count: len(lines),
			Range: businesstime.Period{Start: q.From, End: q.To},
		})
	}
}

func (h *Handlers) ExportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var q ExportQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		if err := utils.ValidateStruct(q); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "fields": utils.ProcessValidationErrors(err)})
			return
		}
		snap := h.Pipeline.Store.Snapshot()
		if snap.Generation == 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "no reconciled data loaded yet"})
			return
		}
		if q.From == "" {
			q.From = snap.Period.Start
		}
		if q.To == "" {
			q.To = snap.Period.End
		}

		wb := h.Pipeline.Store.ExportRange(q.From, q.To, q.Label)
		var buf bytes.Buffer
		if err := reports.WriteExcel(wb, &buf); err != nil {
			config.LogError(h.logger(), "handlers.go", "ExportHandler", "WriteExcel", q, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not build export"})
			return
		}
		filename := reports.ExportFilename(q.From, q.To)

		if !q.Upload {
			c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
			c.Data(http.StatusOK, reports.ContentTypeXLSX, buf.Bytes())
			return
		}

		if h.Bucket == "" || h.Upload == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": utils.ErrNoExportBucket.Error()})
			return
		}
		object := exportPrefix + utils.GenerateUniqueFilename() + "_" + filename
		if err := h.Upload(c.Request.Context(), h.Bucket, object, reports.ContentTypeXLSX, &buf); err != nil {
			config.LogError(h.logger(), "handlers.go", "ExportHandler", "Upload", object, err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "could not upload export"})
			return
		}
		c.JSON(http.StatusOK, UploadResponse{Bucket: h.Bucket, Object: object})
	}
}

// runSync joins an in-flight sync for the same period or starts one. The
// shared run is not tied to any single caller's context; each caller still
// stops waiting when its own context ends.
func (h *Handlers) runSync(ctx context.Context, period businesstime.Period) error {
	resultChan := h.flights.DoChan(period.Label(), func() (any, error) {
		return nil, h.fetch(context.WithoutCancel(ctx), period)
	})
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-resultChan:
		if res.Shared {
			h.logger().WithField("period", period.Label()).Debug("joined in-flight reconcile")
		}
		return res.Err
	}
}

// fetch logs in when needed and runs one fetch. A failed run drops the
// cached session so the next one authenticates again.
func (h *Handlers) fetch(ctx context.Context, period businesstime.Period) error {
	sess, err := h.Sessions.Session(ctx)
	if err != nil {
		config.LogError(h.logger(), "handlers.go", "fetch", "Session", period, err)
		return err
	}
	if err := h.Pipeline.Fetch(ctx, sess, period); err != nil {
		if errors.Is(err, workflow.ErrRemote) {
			h.Sessions.Reset()
		}
		return err
	}
	return nil
}

func (h *Handlers) resolvePeriod(req SyncRequest) (businesstime.Period, error) {
	now := h.now()
	if req.Mode == "" {
		return businesstime.CurrentMonth(now), nil
	}
	today := businesstime.BusinessToday(now)
	p := businesstime.PeriodParams{
		Year:  req.Year,
		Month: int(today.Month()) - 1,
		Start: req.Start,
		End:   req.End,
	}
	if p.Year == 0 {
		p.Year = today.Year()
	}
	if req.Month != nil {
		p.Month = *req.Month
	}
	return businesstime.PeriodBounds(businesstime.Mode(req.Mode), p, now)
}

// bindRange reads branch/from/to and writes a 400 itself when they are bad.
func (h *Handlers) bindRange(c *gin.Context) (RangeQuery, reports.Predicate, bool) {
	var q RangeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return q, nil, false
	}
	if err := utils.ValidateStruct(q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "fields": utils.ProcessValidationErrors(err)})
		return q, nil, false
	}

	preds := []reports.Predicate{}
	if q.Branch != "" {
		cat, ok := branch.Parse(q.Branch)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown branch " + q.Branch})
			return q, nil, false
		}
		preds = append(preds, reports.ByBranch(cat))
	}
	if q.From != "" || q.To != "" {
		from, to := q.From, q.To
		if from == "" {
			from = minDateKey
		}
		if to == "" {
			to = maxDateKey
		}
		preds = append(preds, reports.InDateRange(from, to))
	}
	return q, reports.And(preds...), true
}

func (h *Handlers) status() StatusResponse {
	return StatusResponse{Snapshot: h.Pipeline.Store.Snapshot(), Session: h.Sessions.Current()}
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, workflow.ErrNoSession):
		return http.StatusServiceUnavailable
	case odoo.IsAccessDenied(err):
		return http.StatusUnauthorized
	case errors.Is(err, businesstime.ErrInvalidDate), errors.Is(err, businesstime.ErrUnknownMode):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

func (h *Handlers) logger() *logrus.Logger {
	if h.Logger == nil {
		return config.GetLogger()
	}
	return h.Logger
}

func (h *Handlers) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}
