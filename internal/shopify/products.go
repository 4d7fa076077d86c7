package shopify

import (
	"context"

	"github.com/MrSnakeDoc/upsync/internal/domain"
)

type productEnvelope struct {
	Product domain.TargetProduct `json:"product"`
}

// productWrite is the body of a product create or update. Title, type, body and tags are
// always sent so an empty value clears the field on Shopify. Images, options and variants
// are sent only when set, so an update without them leaves the stored ones in place.
type productWrite struct {
	ID          int64            `json:"id,omitempty"`
	Title       string           `json:"title"`
	ProductType string           `json:"product_type"`
	BodyHTML    string           `json:"body_html"`
	Tags        domain.TagList   `json:"tags"`
	Images      []domain.Image   `json:"images,omitempty"`
	Options     []domain.Option  `json:"options,omitempty"`
	Variants    []domain.Variant `json:"variants,omitempty"`
	Published   *bool            `json:"published,omitempty"`
}

type productWriteEnvelope struct {
	Product productWrite `json:"product"`
}

func newProductWrite(p domain.TargetProduct) productWriteEnvelope {
	tags := p.Tags
	if tags == nil {
		tags = domain.TagList{}
	}
	return productWriteEnvelope{Product: productWrite{
		ID:          p.ID,
		Title:       p.Title,
		ProductType: p.ProductType,
		BodyHTML:    p.BodyHTML,
		Tags:        tags,
		Images:      p.Images,
		Options:     p.Options,
		Variants:    p.Variants,
		Published:   p.Published,
	}}
}

type productsEnvelope struct {
	Products []domain.TargetProduct `json:"products"`
}

// ListProducts returns every product of the shop, all pages.
func (c *Client) ListProducts(ctx context.Context) ([]domain.TargetProduct, error) {
	products, err := listAll(ctx, c, "products", nil, func(e productsEnvelope) []domain.TargetProduct {
		return e.Products
	})
	if err != nil {
		return nil, domain.NewOpError(domain.ErrTargetUnavailable, "list products", c.shop, err)
	}
	return products, nil
}

// CreateProduct creates a product and returns it as stored by Shopify.
func (c *Client) CreateProduct(ctx context.Context, p domain.TargetProduct) (domain.TargetProduct, error) {
	var out productEnvelope
	if err := c.Post(ctx, "products", newProductWrite(p), &out); err != nil {
		return domain.TargetProduct{}, domain.NewOpError(domain.ErrWriteFailed, "create product", p.Title, err)
	}
	return out.Product, nil
}

// UpdateProduct sends p to PUT products/<id>. Empty title, type, body and tags clear
// the stored values.
func (c *Client) UpdateProduct(ctx context.Context, p domain.TargetProduct) (domain.TargetProduct, error) {
	var out productEnvelope
	if err := c.Put(ctx, "products/"+domain.FormatID(p.ID), newProductWrite(p), &out); err != nil {
		return domain.TargetProduct{}, domain.NewOpError(domain.ErrWriteFailed, "update product", domain.FormatID(p.ID), err)
	}
	return out.Product, nil
}
