package shopify

import (
	"context"
	"net/url"

	"github.com/MrSnakeDoc/upsync/internal/domain"
)

type collectionsEnvelope struct {
	CustomCollections []domain.Collection `json:"custom_collections"`
}

type collectionEnvelope struct {
	CustomCollection domain.Collection `json:"custom_collection"`
}

type collectsEnvelope struct {
	Collects []domain.Collect `json:"collects"`
}

type collectEnvelope struct {
	Collect domain.Collect `json:"collect"`
}

// ListCustomCollections returns every custom collection of the shop.
func (c *Client) ListCustomCollections(ctx context.Context) ([]domain.Collection, error) {
	cols, err := listAll(ctx, c, "custom_collections", nil, func(e collectionsEnvelope) []domain.Collection {
		return e.CustomCollections
	})
	if err != nil {
		return nil, domain.NewOpError(domain.ErrTargetUnavailable, "list collections", c.shop, err)
	}
	return cols, nil
}

// CreateCustomCollection creates an empty custom collection.
func (c *Client) CreateCustomCollection(ctx context.Context, title string) (domain.Collection, error) {
	var out collectionEnvelope
	if err := c.Post(ctx, "custom_collections", collectionEnvelope{CustomCollection: domain.Collection{Title: title}}, &out); err != nil {
		return domain.Collection{}, domain.NewOpError(domain.ErrWriteFailed, "create collection", title, err)
	}
	return out.CustomCollection, nil
}

// ListCollects returns the membership rows for a collection and product pair.
func (c *Client) ListCollects(ctx context.Context, collectionID, productID int64) ([]domain.Collect, error) {
	q := url.Values{}
	q.Set("collection_id", domain.FormatID(collectionID))
	q.Set("product_id", domain.FormatID(productID))

	collects, err := listAll(ctx, c, "collects", q, func(e collectsEnvelope) []domain.Collect {
		return e.Collects
	})
	if err != nil {
		return nil, domain.NewOpError(domain.ErrTargetUnavailable, "list collects", domain.FormatID(collectionID), err)
	}
	return collects, nil
}

// CreateCollect adds a product to a custom collection.
func (c *Client) CreateCollect(ctx context.Context, collectionID, productID int64) (domain.Collect, error) {
	var out collectEnvelope
	in := collectEnvelope{Collect: domain.Collect{CollectionID: collectionID, ProductID: productID}}
	if err := c.Post(ctx, "collects", in, &out); err != nil {
		return domain.Collect{}, domain.NewOpError(domain.ErrWriteFailed, "create collect", domain.FormatID(productID), err)
	}
	return out.Collect, nil
}
