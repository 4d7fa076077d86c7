package shopify

import (
	"context"

	"github.com/MrSnakeDoc/upsync/internal/domain"
)

// Shop is the subset of GET shop.json the service needs.
type Shop struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Domain          string `json:"domain"`
	MyshopifyDomain string `json:"myshopify_domain"`
}

type shopEnvelope struct {
	Shop Shop `json:"shop"`
}

// GetShop returns the shop record.
func (c *Client) GetShop(ctx context.Context) (Shop, error) {
	var out shopEnvelope
	if _, err := c.Get(ctx, "shop", nil, &out); err != nil {
		return Shop{}, domain.NewOpError(domain.ErrTargetUnavailable, "get shop", c.shop, err)
	}
	return out.Shop, nil
}

// StoreDomain returns the public domain of the store, which keys the business directory.
func (c *Client) StoreDomain(ctx context.Context) (string, error) {
	s, err := c.GetShop(ctx)
	if err != nil {
		return "", err
	}
	return s.Domain, nil
}
