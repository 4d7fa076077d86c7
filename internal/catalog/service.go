package catalog

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/upsync/internal/domain"
	"github.com/MrSnakeDoc/upsync/internal/logger"
)

// DefaultLockTTL bounds how long a crashed run keeps its business locked.
const DefaultLockTTL = 30 * time.Minute

// Service is the entry point for session-scoped operations: it binds the shop, resolves
// its business and serializes writes per business.
type Service struct {
	engine     *Engine
	rollbacker *Rollbacker
	matcher    *Matcher
	targets    TargetFactory
	tenants    TenantResolver
	locks      RunLocker
	lockTTL    time.Duration
	logger     logger.Logger
}

// ServiceDeps groups the collaborators of a Service.
type ServiceDeps struct {
	Engine     *Engine
	Rollbacker *Rollbacker
	Matcher    *Matcher
	Targets    TargetFactory
	Tenants    TenantResolver
	Locks      RunLocker
	LockTTL    time.Duration
}

// NewService creates a new catalog service
func NewService(d ServiceDeps, log logger.Logger) *Service {
	ttl := d.LockTTL
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &Service{
		engine:     d.Engine,
		rollbacker: d.Rollbacker,
		matcher:    d.Matcher,
		targets:    d.Targets,
		tenants:    d.Tenants,
		locks:      d.Locks,
		lockTTL:    ttl,
		logger:     log.Named("catalog"),
	}
}

// Target returns the target bound to a shop session.
func (s *Service) Target(shop, accessToken string) Target {
	return s.targets(shop, accessToken)
}

// Tenant resolves the business of a shop.
func (s *Service) Tenant(ctx context.Context, shop, accessToken string) (domain.Tenant, error) {
	return s.tenants.Resolve(ctx, shop, s.targets(shop, accessToken))
}

// Sync runs a full sync for the shop. Only one sync or rollback runs per business at a
// time; a concurrent call fails with ErrRunInProgress.
func (s *Service) Sync(ctx context.Context, shop, accessToken string) (*domain.RunReport, error) {
	target := s.targets(shop, accessToken)
	tenant, err := s.tenants.Resolve(ctx, shop, target)
	if err != nil {
		return nil, err
	}

	release, err := s.locks.Acquire(ctx, tenant.BusinessCode, s.lockTTL)
	if err != nil {
		return nil, err
	}
	defer release()

	return s.engine.Run(ctx, target, tenant.BusinessCode)
}

// Rollback restores products of the shop from history bodies.
func (s *Service) Rollback(ctx context.Context, shop, accessToken string, products []domain.TargetProduct) (*domain.RollbackReport, error) {
	target := s.targets(shop, accessToken)
	tenant, err := s.tenants.Resolve(ctx, shop, target)
	if err != nil {
		return nil, err
	}

	release, err := s.locks.Acquire(ctx, tenant.BusinessCode, s.lockTTL)
	if err != nil {
		return nil, err
	}
	defer release()

	return s.rollbacker.Rollback(ctx, target, tenant.BusinessCode, products)
}

// Match links existing products of the shop to upstream codes.
func (s *Service) Match(ctx context.Context, shop, accessToken string, pairs []domain.MatchPair) ([]domain.MatchResult, error) {
	return s.matcher.Match(ctx, s.targets(shop, accessToken), pairs)
}
