package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/upsync/internal/domain"
	"github.com/MrSnakeDoc/upsync/internal/logger"
	"github.com/MrSnakeDoc/upsync/internal/metrics"
)

// Options tunes failure handling of a run.
type Options struct {
	// FailFast aborts the run on the first failed product.
	FailFast bool
	// LinkageFatal turns a linkage failure after create into a failed item.
	LinkageFatal bool
}

// Engine reconciles upstream products into one shop: create, update or skip per product,
// one upstream page at a time. Calls are strictly sequential.
type Engine struct {
	source  Source
	history HistoryAppender
	opts    Options
	logger  logger.Logger
	now     func() time.Time
	newID   func() string
}

// NewEngine creates a new reconciliation engine
func NewEngine(source Source, history HistoryAppender, opts Options, log logger.Logger) *Engine {
	return &Engine{
		source:  source,
		history: history,
		opts:    opts,
		logger:  log.Named("sync"),
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// errFailFast stops page iteration after a failed item.
type errFailFast struct{ err error }

func (e *errFailFast) Error() string { return e.err.Error() }
func (e *errFailFast) Unwrap() error { return e.err }

// run holds the state of one Run call.
type run struct {
	target      Target
	report      *domain.RunReport
	lookup      map[string]domain.TargetProduct
	collections *CollectionAssigner
	identity    *IdentityResolver
	logger      logger.Logger
}

// Run syncs every upstream product of businessCode into target.
//
// The report is always returned, also on error, and lists what was written before the
// failure. Page fetch failures and cancellation end the run with ErrSyncAborted.
func (e *Engine) Run(ctx context.Context, target Target, businessCode string) (*domain.RunReport, error) {
	report := &domain.RunReport{
		RunID:        e.newID(),
		BusinessCode: businessCode,
		Items:        []domain.ItemResult{},
		Products:     []domain.TargetProduct{},
	}
	if businessCode == "" {
		return report, domain.NewOpError(domain.ErrConfigMissing, "sync", "", errors.New("no business code"))
	}

	start := e.now()
	log := e.logger.With(logger.String("run_id", report.RunID), logger.String("business_code", businessCode))
	log.Info("sync started")

	existing, err := target.ListProducts(ctx)
	if err != nil {
		metrics.SyncRuns.WithLabelValues("aborted").Inc()
		log.Error("sync aborted before the first page", logger.Error(err))
		return report, domain.NewOpError(domain.ErrSyncAborted, "sync", businessCode, err)
	}

	r := &run{
		target:      target,
		report:      report,
		lookup:      indexByTitle(existing),
		collections: NewCollectionAssigner(target),
		identity:    NewIdentityResolver(target),
		logger:      log,
	}

	err = e.source.Each(ctx, businessCode, func(page domain.Page) error {
		report.Pages++
		report.Rejected = append(report.Rejected, page.Rejected...)

		for _, ext := range page.Products {
			if err := ctx.Err(); err != nil {
				return err
			}

			item := e.reconcile(ctx, r, page.Number, ext)
			report.Items = append(report.Items, item)
			metrics.SyncItems.WithLabelValues(string(item.Action)).Inc()

			if item.Action == domain.ActionFailed && e.opts.FailFast {
				return &errFailFast{err: fmt.Errorf("product %s: %s", ext.Code, item.Error)}
			}
		}
		return nil
	})

	elapsed := e.now().Sub(start)
	metrics.SyncDuration.Observe(elapsed.Seconds())

	fields := []logger.Field{
		logger.Int("pages", report.Pages),
		logger.Int("created", report.Count(domain.ActionCreated)),
		logger.Int("updated", report.Count(domain.ActionUpdated)),
		logger.Int("skipped", report.Count(domain.ActionSkipped)),
		logger.Int("failed", report.Count(domain.ActionFailed)),
		logger.Int("rejected", len(report.Rejected)),
		logger.Duration("duration", elapsed),
	}

	if err != nil {
		metrics.SyncRuns.WithLabelValues("aborted").Inc()
		log.Error("sync aborted", append(fields, logger.Error(err))...)
		return report, domain.NewOpError(domain.ErrSyncAborted, "sync", businessCode, err)
	}

	metrics.SyncRuns.WithLabelValues("ok").Inc()
	log.Info("sync finished", fields...)
	return report, nil
}

func (e *Engine) reconcile(ctx context.Context, r *run, page int, ext domain.ExternalProduct) domain.ItemResult {
	item := domain.ItemResult{Code: ext.Code, Label: ext.Label, Page: page}

	found, ok := r.lookup[ext.Label]
	switch {
	case !ok:
		e.create(ctx, r, ext, &item)
	case NeedsUpdate(found, ext):
		e.update(ctx, r, found, ext, &item)
	default:
		item.Action = domain.ActionSkipped
		item.ProductID = found.ID
		r.logger.Debug("product unchanged, skipping",
			logger.String("code", ext.Code),
			logger.Int64("product_id", found.ID))
	}
	return item
}

func (e *Engine) create(ctx context.Context, r *run, ext domain.ExternalProduct, item *domain.ItemResult) {
	created, err := r.target.CreateProduct(ctx, BuildCreatePayload(ext))
	if err != nil {
		item.Action = domain.ActionFailed
		item.Error = err.Error()
		r.logger.Warn("failed to create product", logger.String("code", ext.Code), logger.Error(err))
		return
	}
	if created.Title == "" {
		created.Title = ext.Label
	}

	item.Action = domain.ActionCreated
	item.ProductID = created.ID
	r.lookup[ext.Label] = created

	if ext.CategoryName != "" {
		if err := e.assignCollection(ctx, r, ext.CategoryName, created.ID); err != nil {
			item.CollectionError = err.Error()
			r.logger.Warn("failed to assign collection",
				logger.String("code", ext.Code),
				logger.String("collection", ext.CategoryName),
				logger.Error(err))
		}
	}

	if _, _, err := r.identity.Link(ctx, created.ID, ext.Code); err != nil {
		r.logger.Warn("failed to link product identity",
			logger.String("code", ext.Code),
			logger.Int64("product_id", created.ID),
			logger.Error(err))
		if e.opts.LinkageFatal {
			item.Action = domain.ActionFailed
			item.Error = err.Error()
		} else {
			item.LinkError = err.Error()
		}
	}

	r.report.Products = append(r.report.Products, created)
	e.record(ctx, r, item)
	r.logger.Info("product created", logger.String("code", ext.Code), logger.Int64("product_id", created.ID))
}

func (e *Engine) update(ctx context.Context, r *run, found domain.TargetProduct, ext domain.ExternalProduct, item *domain.ItemResult) {
	item.ProductID = found.ID

	updated, err := r.target.UpdateProduct(ctx, BuildUpdatePayload(found.ID, ext))
	if err != nil {
		item.Action = domain.ActionFailed
		item.Error = err.Error()
		r.logger.Warn("failed to update product",
			logger.String("code", ext.Code),
			logger.Int64("product_id", found.ID),
			logger.Error(err))
		return
	}
	if updated.ID == 0 {
		updated.ID = found.ID
	}
	if updated.Title == "" {
		updated.Title = ext.Label
	}

	item.Action = domain.ActionUpdated
	r.lookup[ext.Label] = updated
	r.report.Products = append(r.report.Products, updated)
	e.record(ctx, r, item)
	r.logger.Info("product updated", logger.String("code", ext.Code), logger.Int64("product_id", found.ID))
}

func (e *Engine) assignCollection(ctx context.Context, r *run, title string, productID int64) error {
	col, err := r.collections.EnsureCollection(ctx, title)
	if err != nil {
		return err
	}
	_, err = r.collections.AssignMembership(ctx, col.ID, productID)
	return err
}

// record appends the products written so far in this run as one snapshot.
func (e *Engine) record(ctx context.Context, r *run, item *domain.ItemResult) {
	products := make([]domain.TargetProduct, len(r.report.Products))
	copy(products, r.report.Products)

	_, err := e.history.Append(ctx, r.report.BusinessCode, domain.SyncSnapshot{
		BusinessCode: r.report.BusinessCode,
		RunID:        r.report.RunID,
		Kind:         domain.SnapshotSync,
		RecordedAt:   e.now(),
		Products:     products,
	})
	if err != nil {
		item.HistoryError = err.Error()
		r.logger.Warn("failed to record sync snapshot", logger.String("code", item.Code), logger.Error(err))
	}
}

// indexByTitle keys products by title; the first product listed wins a shared title.
func indexByTitle(products []domain.TargetProduct) map[string]domain.TargetProduct {
	idx := make(map[string]domain.TargetProduct, len(products))
	for _, p := range products {
		if _, ok := idx[p.Title]; !ok {
			idx[p.Title] = p
		}
	}
	return idx
}
