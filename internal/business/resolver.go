package business

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/upsync/internal/catalog"
	"github.com/MrSnakeDoc/upsync/internal/domain"
	"github.com/MrSnakeDoc/upsync/internal/logger"
)

// DomainCache caches a shop's public store domain. *redis.Store implements it.
type DomainCache interface {
	GetCachedStoreDomain(ctx context.Context, shop string) (string, error)
	CacheStoreDomain(ctx context.Context, shop, storeDomain string, ttl time.Duration) error
}

// Resolver maps a shop to its tenant: shop -> store domain -> business code.
type Resolver struct {
	dir    *Directory
	cache  DomainCache
	ttl    time.Duration
	logger logger.Logger
}

// NewResolver creates a resolver. cache may be nil.
func NewResolver(dir *Directory, cache DomainCache, ttl time.Duration, log logger.Logger) *Resolver {
	return &Resolver{
		dir:    dir,
		cache:  cache,
		ttl:    ttl,
		logger: log.Named("business"),
	}
}

// Resolve implements catalog.TenantResolver.
func (r *Resolver) Resolve(ctx context.Context, shop string, api catalog.StoreAPI) (domain.Tenant, error) {
	storeDomain := r.cachedDomain(ctx, shop)
	if storeDomain == "" {
		d, err := api.StoreDomain(ctx)
		if err != nil {
			return domain.Tenant{}, err
		}
		storeDomain = d
		r.remember(ctx, shop, storeDomain)
	}

	code, ok := r.dir.Lookup(storeDomain)
	if !ok {
		return domain.Tenant{}, domain.NewOpError(domain.ErrConfigMissing, "lookup business code", storeDomain, nil)
	}

	return domain.Tenant{
		Shop:         shop,
		StoreDomain:  storeDomain,
		BusinessCode: code,
	}, nil
}

func (r *Resolver) cachedDomain(ctx context.Context, shop string) string {
	if r.cache == nil {
		return ""
	}
	d, err := r.cache.GetCachedStoreDomain(ctx, shop)
	if err != nil {
		r.logger.Warn("store domain cache read failed",
			logger.String("shop", shop),
			logger.Error(err))
		return ""
	}
	return d
}

func (r *Resolver) remember(ctx context.Context, shop, storeDomain string) {
	if r.cache == nil || storeDomain == "" {
		return
	}
	if err := r.cache.CacheStoreDomain(ctx, shop, storeDomain, r.ttl); err != nil {
		r.logger.Warn("store domain cache write failed",
			logger.String("shop", shop),
			logger.Error(err))
	}
}
