package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/gaorsystempe-cpu/operacionesFeet/businesstime"
	"github.com/gaorsystempe-cpu/operacionesFeet/config"
	"github.com/gaorsystempe-cpu/operacionesFeet/costing"
	"github.com/gaorsystempe-cpu/operacionesFeet/models"
	"github.com/gaorsystempe-cpu/operacionesFeet/odoo"
	"github.com/gaorsystempe-cpu/operacionesFeet/reconcile"
	"github.com/gaorsystempe-cpu/operacionesFeet/utils"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	ModelOrder     = "pos.order"
	ModelOrderLine = "pos.order.line"
	ModelProduct   = "product.product"
	ModelTemplate  = "product.template"

	defaultLockTTL = 5 * time.Minute
)

// OrderStates are the point-of-sale states that count as a completed sale.
var OrderStates = []string{"paid", "done", "invoiced"}

var tracer = otel.Tracer("operacionesFeet/workflow")

type Pipeline struct {
	Connect Connector
	Store   *Store
	Logger  *logrus.Logger
	// Locks is read at the start of every run; when it yields a client the
	// run holds lock:reconcile:<company>.
	Locks   func() *redislock.Client
	LockTTL time.Duration
	Limit   int
	Now     func() time.Time
}

func NewPipeline(connect Connector, store *Store, limit int) *Pipeline {
	return &Pipeline{
		Connect: connect,
		Store:   store,
		Logger:  config.GetLogger(),
		Locks:   config.GetRedisLock,
		Limit:   limit,
		Now:     time.Now,
	}
}

// Fetch runs one full reconciliation for period and commits the result. On
// any ERP failure the previous set stays in place and the error is recorded.
func (p *Pipeline) Fetch(ctx context.Context, sess *Session, period businesstime.Period) error {
	if !sess.Valid() {
		return ErrNoSession
	}
	from, to, err := businesstime.QueryWindow(period)
	if err != nil {
		return err
	}

	ctx, span := tracer.Start(ctx, "reconcile.fetch", trace.WithAttributes(
		attribute.String("period.start", period.Start),
		attribute.String("period.end", period.End),
		attribute.Int64("company.id", sess.CompanyID),
	))
	defer span.End()

	gen := p.Store.Begin(period)
	fields := logrus.Fields{
		"generation": gen,
		"start":      period.Start,
		"end":        period.End,
		"company_id": sess.CompanyID,
	}
	if cid, ok := utils.GetCorrelationIdFromContext(ctx); ok {
		fields["correlation_id"] = cid
	}
	if trigger, ok := utils.GetTriggerFromContext(ctx); ok {
		fields["trigger"] = trigger
	}
	logger := p.logger().WithFields(fields)

	release := p.obtainLock(ctx, sess.CompanyID, logger)
	defer release()

	sales, status, err := p.run(ctx, gen, sess, from, to)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrRemote, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		config.LogError(p.logger(), "pipeline.go", "Fetch", "reconcile run", period, err)
		if !p.Store.Fail(gen, err) {
			logger.Info("stale reconcile run failed; newer run owns the store")
		}
		return err
	}

	if !p.Store.Commit(gen, period, sales, status, p.now()) {
		logger.Info("discarding stale reconcile result")
		return nil
	}
	span.SetAttributes(attribute.Int("sales.count", len(sales)))
	logger.WithField("count", len(sales)).Info("reconcile committed")
	return nil
}

func (p *Pipeline) run(ctx context.Context, gen uint64, sess *Session, from string, to string) ([]models.ReconciledSale, Status, error) {
	erp, err := p.Connect(*sess)
	if err != nil {
		return nil, "", err
	}

	p.Store.Progress(gen, StatusFetchingOrders)
	domain := odoo.Domain{
		odoo.Where("state", "in", OrderStates),
		odoo.Where("date_order", ">=", from),
		odoo.Where("date_order", "<=", to),
	}
	if sess.CompanyID > 0 {
		domain = domain.And(odoo.Where("company_id", "=", sess.CompanyID))
	}
	var orders []models.RawOrder
	opts := odoo.Options{Order: "date_order desc", Limit: p.Limit}
	if err := searchRead(ctx, erp, ModelOrder, domain, models.OrderFields, opts, &orders); err != nil {
		return nil, "", err
	}
	if len(orders) == 0 {
		return nil, StatusNoData, nil
	}

	p.Store.Progress(gen, StatusLoadingLines)
	var lines []models.RawLine
	if lineIDs := collectLineIDs(orders); len(lineIDs) > 0 {
		domain := odoo.Domain{odoo.Where("id", "in", lineIDs)}
		if err := searchRead(ctx, erp, ModelOrderLine, domain, models.LineFields, odoo.Options{}, &lines); err != nil {
			return nil, "", err
		}
	}

	p.Store.Progress(gen, StatusSyncingCosts)
	costs, err := costing.Resolve(ctx, lines, productSource{erp: erp, companyID: sess.CompanyID})
	if err != nil {
		return nil, "", err
	}

	p.Store.Progress(gen, StatusComputing)
	return reconcile.Reconcile(orders, lines, costs, sess.CompanyName), StatusDone, nil
}

func collectLineIDs(orders []models.RawOrder) []int64 {
	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.LineIDs...)
	}
	return ids
}

// obtainLock is best effort: without redis, or when another replica holds the
// lock, the run proceeds unlocked.
func (p *Pipeline) obtainLock(ctx context.Context, companyID int64, logger *logrus.Entry) func() {
	if p.Locks == nil {
		return func() {}
	}
	locker := p.Locks()
	if locker == nil {
		return func() {}
	}
	ttl := p.LockTTL
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	key := fmt.Sprintf("lock:reconcile:%d", companyID)
	lock, err := locker.Obtain(ctx, key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		logger.Warn("could not obtain reconcile lock; proceeding without redis lock")
		return func() {}
	} else if err != nil {
		logger.Warn("error obtaining reconcile lock; proceeding without redis lock: " + err.Error())
		return func() {}
	}
	return func() {
		if releaseErr := lock.Release(context.WithoutCancel(ctx)); releaseErr != nil {
			logger.Warn("failed to release reconcile lock: " + releaseErr.Error())
		}
	}
}

func (p *Pipeline) logger() *logrus.Logger {
	if p.Logger == nil {
		return config.GetLogger()
	}
	return p.Logger
}

func (p *Pipeline) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

// searchRead wraps one ERP round-trip in a span.
func searchRead(ctx context.Context, erp SearchReader, model string, domain odoo.Domain, fields []string, opts odoo.Options, out any) error {
	ctx, span := tracer.Start(ctx, "odoo.search_read", trace.WithAttributes(attribute.String("odoo.model", model)))
	defer span.End()
	if err := erp.SearchRead(ctx, model, domain, fields, opts, out); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// productSource feeds the cost resolver from the ERP, scoped to the session's
// company so per-company costs are returned.
type productSource struct {
	erp       SearchReader
	companyID int64
}

func (s productSource) options() odoo.Options {
	if s.companyID <= 0 {
		return odoo.Options{}
	}
	return odoo.Options{Context: map[string]any{"company_id": s.companyID}}
}

func (s productSource) Products(ctx context.Context, ids []int64) ([]models.RawProduct, error) {
	var out []models.RawProduct
	err := searchRead(ctx, s.erp, ModelProduct, odoo.Domain{odoo.Where("id", "in", ids)}, models.ProductFields, s.options(), &out)
	return out, err
}

func (s productSource) Templates(ctx context.Context, ids []int64) ([]models.RawTemplate, error) {
	var out []models.RawTemplate
	err := searchRead(ctx, s.erp, ModelTemplate, odoo.Domain{odoo.Where("id", "in", ids)}, models.TemplateFields, s.options(), &out)
	return out, err
}
