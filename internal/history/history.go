package history

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/MrSnakeDoc/upsync/internal/domain"
	"github.com/MrSnakeDoc/upsync/internal/logger"
	"github.com/MrSnakeDoc/upsync/internal/metrics"
)

// Log is an append-only, per-business snapshot log. Keys returned by Append increase
// monotonically within a business and ReadAll returns entries in append order.
type Log interface {
	Append(ctx context.Context, businessCode string, s domain.SyncSnapshot) (string, error)
	ReadAll(ctx context.Context, businessCode string) ([]domain.SyncSnapshot, error)
	Ping(ctx context.Context) error
	Backend() string
}

// Service records and reads sync history.
type Service struct {
	log    Log
	logger logger.Logger
	now    func() time.Time
}

// NewService creates a new history service
func NewService(log Log, l logger.Logger) *Service {
	return &Service{
		log:    log,
		logger: l.Named("history"),
		now:    time.Now,
	}
}

// Append records one snapshot and returns its key.
func (s *Service) Append(ctx context.Context, businessCode string, snap domain.SyncSnapshot) (string, error) {
	snap.BusinessCode = businessCode
	if snap.Kind == "" {
		snap.Kind = domain.SnapshotSync
	}
	if snap.RecordedAt.IsZero() {
		snap.RecordedAt = s.now()
	}
	if snap.Products == nil {
		snap.Products = []domain.TargetProduct{}
	}

	key, err := s.log.Append(ctx, businessCode, snap)
	if err != nil {
		metrics.HistoryAppends.WithLabelValues(string(snap.Kind), "error").Inc()
		return "", err
	}
	metrics.HistoryAppends.WithLabelValues(string(snap.Kind), "ok").Inc()

	s.logger.Debug("snapshot recorded",
		logger.String("business_code", businessCode),
		logger.String("key", key),
		logger.String("kind", string(snap.Kind)),
		logger.Int("products", len(snap.Products)))
	return key, nil
}

// List returns every snapshot of a business in append order.
func (s *Service) List(ctx context.Context, businessCode string) ([]domain.SyncSnapshot, error) {
	entries, err := s.log.ReadAll(ctx, businessCode)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []domain.SyncSnapshot{}
	}
	return entries, nil
}

// Search returns the snapshots holding at least one product whose title contains query,
// case-insensitively, each trimmed to its matching products.
func (s *Service) Search(ctx context.Context, businessCode, query string) ([]domain.SyncSnapshot, error) {
	entries, err := s.List(ctx, businessCode)
	if err != nil {
		return nil, err
	}
	return Filter(entries, query), nil
}

// Ping checks the backing log.
func (s *Service) Ping(ctx context.Context) error { return s.log.Ping(ctx) }

// Backend names the backing log ("redis" or "memory").
func (s *Service) Backend() string { return s.log.Backend() }

// Filter keeps entries with a product title containing query. An empty query keeps all.
func Filter(entries []domain.SyncSnapshot, query string) []domain.SyncSnapshot {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return entries
	}

	out := make([]domain.SyncSnapshot, 0, len(entries))
	for _, e := range entries {
		var matched []domain.TargetProduct
		for _, p := range e.Products {
			if strings.Contains(strings.ToLower(p.Title), q) {
				matched = append(matched, p)
			}
		}
		if len(matched) == 0 {
			continue
		}
		e.Products = matched
		out = append(out, e)
	}
	return out
}

// SortByUpdatedDesc orders entries by their latest product update, newest first.
// Entries without product timestamps use their record time.
func SortByUpdatedDesc(entries []domain.SyncSnapshot) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].LatestUpdate().After(entries[j].LatestUpdate())
	})
}
