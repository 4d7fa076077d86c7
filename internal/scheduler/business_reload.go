package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/upsync/internal/business"
	"github.com/MrSnakeDoc/upsync/internal/logger"
	"github.com/MrSnakeDoc/upsync/internal/metrics"
)

// BusinessReloader handles periodic reloading of the business directory
type BusinessReloader struct {
	loader        *business.Loader
	dir           *business.Directory
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	manualTrigger chan struct{}
}

// NewBusinessReloader creates a new business directory reloader
func NewBusinessReloader(
	directoryFile string,
	dir *business.Directory,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *BusinessReloader {
	return &BusinessReloader{
		loader:        business.NewLoader(directoryFile),
		dir:           dir,
		logger:        log.Named("business-reload"),
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start loads the directory once, then reloads it on every tick or manual trigger
func (br *BusinessReloader) Start(ctx context.Context) error {
	if err := br.Reload(ctx); err != nil {
		return fmt.Errorf("initial reload failed: %w", err)
	}

	ticker := time.NewTicker(br.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := br.Reload(ctx); err != nil {
					br.logger.Error("failed to reload business directory",
						logger.Error(err))
				}
			case <-br.manualTrigger:
				br.logger.Info("manual reload triggered")
				if err := br.Reload(ctx); err != nil {
					br.logger.Error("failed to reload business directory",
						logger.Error(err))
				}
			case <-br.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the reloader
func (br *BusinessReloader) Stop() {
	close(br.stopCh)
}

// Reload parses the directory file and swaps it in.
// A failed load keeps the previous table.
func (br *BusinessReloader) Reload(_ context.Context) error {
	codes, err := br.loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load business directory: %w", err)
	}

	br.dir.Replace(codes)
	metrics.DirectoryEntries.Set(float64(len(codes)))

	br.logger.Info("business directory loaded",
		logger.Int("count", len(codes)))
	return nil
}
