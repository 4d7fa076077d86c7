package catalog

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/upsync/internal/domain"
	"github.com/MrSnakeDoc/upsync/internal/logger"
	"github.com/MrSnakeDoc/upsync/internal/metrics"
)

// Rollbacker writes previously recorded product bodies back to the target.
type Rollbacker struct {
	history HistoryAppender
	logger  logger.Logger
	now     func() time.Time
}

// NewRollbacker creates a new rollbacker
func NewRollbacker(history HistoryAppender, log logger.Logger) *Rollbacker {
	return &Rollbacker{
		history: history,
		logger:  log.Named("rollback"),
		now:     time.Now,
	}
}

// Rollback replays each product in order and records every applied product as a
// rollback snapshot. It stops at the first failed write: the remaining products are
// reported as not attempted and the error wraps ErrRollbackFailed.
func (rb *Rollbacker) Rollback(ctx context.Context, target ProductAPI, businessCode string, products []domain.TargetProduct) (*domain.RollbackReport, error) {
	report := &domain.RollbackReport{
		BusinessCode: businessCode,
		Items:        make([]domain.RollbackItem, len(products)),
	}
	for i, p := range products {
		report.Items[i] = domain.RollbackItem{
			ProductID: p.ID,
			Title:     p.Title,
			Status:    domain.RollbackNotAttempted,
		}
	}

	for i, p := range products {
		item := &report.Items[i]

		if err := ctx.Err(); err != nil {
			return rb.fail(report, item, p, err)
		}
		if p.ID == 0 {
			return rb.fail(report, item, p, domain.NewOpError(domain.ErrInvalidProduct, "rollback", p.Title, nil))
		}

		updated, err := target.UpdateProduct(ctx, rollbackPayload(p))
		if err != nil {
			return rb.fail(report, item, p, err)
		}
		if updated.ID == 0 {
			updated = p
		}

		item.Status = domain.RollbackApplied
		metrics.RollbackItems.WithLabelValues(string(domain.RollbackApplied)).Inc()

		key, err := rb.history.Append(ctx, businessCode, domain.SyncSnapshot{
			BusinessCode: businessCode,
			Kind:         domain.SnapshotRollback,
			RecordedAt:   rb.now(),
			Products:     []domain.TargetProduct{updated},
		})
		if err != nil {
			item.Error = err.Error()
			rb.logger.Warn("failed to record rollback snapshot",
				logger.Int64("product_id", p.ID), logger.Error(err))
		}
		item.SnapshotKey = key

		rb.logger.Info("product rolled back",
			logger.String("business_code", businessCode),
			logger.Int64("product_id", p.ID))
	}

	return report, nil
}

func (rb *Rollbacker) fail(report *domain.RollbackReport, item *domain.RollbackItem, p domain.TargetProduct, err error) (*domain.RollbackReport, error) {
	item.Status = domain.RollbackFailed
	item.Error = err.Error()
	metrics.RollbackItems.WithLabelValues(string(domain.RollbackFailed)).Inc()

	rb.logger.Error("rollback stopped",
		logger.String("business_code", report.BusinessCode),
		logger.Int64("product_id", p.ID),
		logger.Error(err))
	return report, domain.NewOpError(domain.ErrRollbackFailed, "rollback", domain.FormatID(p.ID), err)
}

// rollbackPayload keeps the fields a rollback restores and republishes the product.
func rollbackPayload(p domain.TargetProduct) domain.TargetProduct {
	return domain.TargetProduct{
		ID:          p.ID,
		Title:       p.Title,
		ProductType: p.ProductType,
		BodyHTML:    p.BodyHTML,
		Tags:        p.Tags,
		Variants:    p.Variants,
		Options:     p.Options,
		Published:   domain.Bool(true),
	}
}
