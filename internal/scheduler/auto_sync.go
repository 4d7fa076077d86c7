package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/MrSnakeDoc/upsync/internal/domain"
	"github.com/MrSnakeDoc/upsync/internal/logger"
	"github.com/MrSnakeDoc/upsync/internal/metrics"
	"github.com/MrSnakeDoc/upsync/internal/session"
)

// SessionSource lists registered shops and their offline sessions. *redis.Store implements it.
type SessionSource interface {
	ListShops(ctx context.Context) ([]string, error)
	GetSession(ctx context.Context, shop string) (session.Session, error)
}

// Syncer runs one sync for a shop. *catalog.Service implements it.
type Syncer interface {
	Sync(ctx context.Context, shop, accessToken string) (*domain.RunReport, error)
}

// AutoSyncer periodically syncs every registered shop
type AutoSyncer struct {
	sessions      SessionSource
	syncer        Syncer
	logger        logger.Logger
	interval      time.Duration
	runTimeout    time.Duration
	stopCh        chan struct{}
	manualTrigger chan struct{}
}

// NewAutoSyncer creates a new auto-sync scheduler. runTimeout bounds each shop's run (0 = none).
func NewAutoSyncer(
	sessions SessionSource,
	syncer Syncer,
	log logger.Logger,
	interval time.Duration,
	runTimeout time.Duration,
	manualTrigger chan struct{},
) *AutoSyncer {
	return &AutoSyncer{
		sessions:      sessions,
		syncer:        syncer,
		logger:        log.Named("auto-sync"),
		interval:      interval,
		runTimeout:    runTimeout,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Enabled reports whether periodic syncing is configured
func (as *AutoSyncer) Enabled() bool {
	return as.interval > 0
}

// Start begins the periodic sync loop. Unlike the reloaders it does not sync on start.
func (as *AutoSyncer) Start(ctx context.Context) error {
	if !as.Enabled() {
		as.logger.Info("auto-sync disabled")
		return nil
	}

	ticker := time.NewTicker(as.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				as.SyncAll(ctx)
			case <-as.manualTrigger:
				as.logger.Info("manual auto-sync triggered")
				as.SyncAll(ctx)
			case <-as.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the scheduler
func (as *AutoSyncer) Stop() {
	close(as.stopCh)
}

// SyncAll syncs every registered shop in turn and returns how many succeeded.
// One shop failing never stops the others.
func (as *AutoSyncer) SyncAll(ctx context.Context) int {
	shops, err := as.sessions.ListShops(ctx)
	if err != nil {
		as.logger.Error("failed to list shops", logger.Error(err))
		return 0
	}

	ok := 0
	for _, shop := range shops {
		if ctx.Err() != nil {
			return ok
		}
		if as.syncShop(ctx, shop) {
			ok++
		}
	}

	as.logger.Info("auto-sync pass completed",
		logger.Int("shops", len(shops)),
		logger.Int("succeeded", ok))
	return ok
}

func (as *AutoSyncer) syncShop(ctx context.Context, shop string) bool {
	sess, err := as.sessions.GetSession(ctx, shop)
	if err != nil {
		metrics.AutoSyncShops.WithLabelValues("error").Inc()
		as.logger.Warn("no usable session for shop",
			logger.String("shop", shop),
			logger.Error(err))
		return false
	}

	runCtx := ctx
	if as.runTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, as.runTimeout)
		defer cancel()
	}

	report, err := as.syncer.Sync(runCtx, sess.Shop, sess.AccessToken)
	switch {
	case errors.Is(err, domain.ErrRunInProgress):
		metrics.AutoSyncShops.WithLabelValues("skipped").Inc()
		as.logger.Info("sync already running, skipping shop",
			logger.String("shop", shop))
		return false
	case err != nil:
		metrics.AutoSyncShops.WithLabelValues("error").Inc()
		as.logger.Error("auto-sync failed",
			logger.String("shop", shop),
			logger.Error(err))
		return false
	}

	metrics.AutoSyncShops.WithLabelValues("ok").Inc()
	as.logger.Info("auto-sync completed",
		logger.String("shop", shop),
		logger.String("run_id", report.RunID),
		logger.Int("created", report.Count(domain.ActionCreated)),
		logger.Int("updated", report.Count(domain.ActionUpdated)))
	return true
}
