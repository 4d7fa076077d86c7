package domain

import (
	"fmt"
	"strings"
)

// ExternalProduct is a product record pulled from the upstream commerce backend.
//
// It is read-only input: nothing in this service mutates it after ingestion.
type ExternalProduct struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// Code is the upstream unique identifier.
	// It is the stable key linking both systems (stored in the up_id metafield).
	Code string `json:"code"`

	// Label is the product title. Shopify products are matched on Title == Label.
	Label string `json:"label"`

	// ─────────────────────────────
	// Catalog description
	// ─────────────────────────────

	CategoryName    string   `json:"category_name"`
	SubcategoryName string   `json:"subcategory_name"`
	Description     string   `json:"product_description"`
	Price           float64  `json:"price"`
	Image           string   `json:"image,omitempty"`
	ProductImages   []string `json:"product_images,omitempty"`

	// ─────────────────────────────
	// Variants
	// ─────────────────────────────

	HasVariants bool             `json:"has_variants"`
	Variants    ExternalVariants `json:"variants"`
}

// ExternalVariants groups the variant description of a variant-bearing product.
type ExternalVariants struct {
	AllVariants     []ExternalVariant `json:"all_variants,omitempty"`
	AvailableColors []string          `json:"available_colors,omitempty"`
	AvailableSizes  []string          `json:"available_sizes,omitempty"`
}

// ExternalVariant is one upstream variant entry. Either attribute may be empty.
type ExternalVariant struct {
	ColorName string `json:"color_name,omitempty"`
	SizeName  string `json:"size_name,omitempty"`
}

// Validate checks the fields required to reconcile the product.
func (p *ExternalProduct) Validate() error {
	var missing []string
	if strings.TrimSpace(p.Code) == "" {
		missing = append(missing, "code")
	}
	if strings.TrimSpace(p.Label) == "" {
		missing = append(missing, "label")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidProduct, strings.Join(missing, ", "))
	}
	if p.Price < 0 {
		return fmt.Errorf("%w: negative price %v", ErrInvalidProduct, p.Price)
	}
	return nil
}

// ProductType is the Shopify product_type for this product.
// Subcategory wins; category is used when the subcategory is empty.
func (p *ExternalProduct) ProductType() string {
	if p.SubcategoryName != "" {
		return p.SubcategoryName
	}
	return p.CategoryName
}

// Tags returns the Shopify tags derived from the category tree.
func (p *ExternalProduct) Tags() TagList {
	tags := make(TagList, 0, 2)
	for _, t := range []string{p.CategoryName, p.SubcategoryName} {
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// ImageList returns product_images when present, otherwise the single cover image.
func (p *ExternalProduct) ImageList() []Image {
	if len(p.ProductImages) > 0 {
		images := make([]Image, 0, len(p.ProductImages))
		for _, src := range p.ProductImages {
			if src != "" {
				images = append(images, Image{Src: src})
			}
		}
		return images
	}
	if p.Image != "" {
		return []Image{{Src: p.Image}}
	}
	return []Image{}
}

// Page is one page of upstream products.
type Page struct {
	Number   int
	Products []ExternalProduct
	Rejected []RejectedRecord
	HasNext  bool
}

// RejectedRecord is an upstream record that failed ingestion validation.
type RejectedRecord struct {
	Page   int    `json:"page"`
	Index  int    `json:"index"`
	Code   string `json:"code,omitempty"`
	Reason string `json:"reason"`
}
