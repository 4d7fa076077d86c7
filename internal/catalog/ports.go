package catalog

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/upsync/internal/domain"
)

// ProductAPI is the product surface of the target platform.
type ProductAPI interface {
	ListProducts(ctx context.Context) ([]domain.TargetProduct, error)
	CreateProduct(ctx context.Context, p domain.TargetProduct) (domain.TargetProduct, error)
	UpdateProduct(ctx context.Context, p domain.TargetProduct) (domain.TargetProduct, error)
}

// MetafieldAPI is the metafield surface used for identity linkage.
type MetafieldAPI interface {
	ListProductMetafields(ctx context.Context, productID int64) ([]domain.Metafield, error)
	CreateMetafield(ctx context.Context, m domain.Metafield) (domain.Metafield, error)
}

// CollectionAPI is the custom collection surface.
type CollectionAPI interface {
	ListCustomCollections(ctx context.Context) ([]domain.Collection, error)
	CreateCustomCollection(ctx context.Context, title string) (domain.Collection, error)
	ListCollects(ctx context.Context, collectionID, productID int64) ([]domain.Collect, error)
	CreateCollect(ctx context.Context, collectionID, productID int64) (domain.Collect, error)
}

// StoreAPI exposes the store's public domain.
type StoreAPI interface {
	StoreDomain(ctx context.Context) (string, error)
}

// Target is everything a run needs from one shop. *shopify.Client implements it.
type Target interface {
	ProductAPI
	MetafieldAPI
	CollectionAPI
	StoreAPI
}

// TargetFactory binds a Target to a shop session.
type TargetFactory func(shop, accessToken string) Target

// Source streams upstream pages. *upstream.Client implements it.
type Source interface {
	Each(ctx context.Context, businessCode string, fn func(domain.Page) error) error
}

// HistoryAppender records snapshots. *history.Service implements it.
type HistoryAppender interface {
	Append(ctx context.Context, businessCode string, s domain.SyncSnapshot) (string, error)
}

// TenantResolver maps a shop to its business code.
type TenantResolver interface {
	Resolve(ctx context.Context, shop string, api StoreAPI) (domain.Tenant, error)
}

// RunLocker serializes runs per business code.
type RunLocker interface {
	Acquire(ctx context.Context, businessCode string, ttl time.Duration) (release func(), err error)
}
