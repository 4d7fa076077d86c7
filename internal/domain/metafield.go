package domain

import "strconv"

// Linkage metafield shape. Every Shopify product synced or matched from upstream carries
// one metafield custom.up_id holding the upstream code.
const (
	LinkNamespace     = "custom"
	LinkKey           = "up_id"
	LinkType          = "single_line_text_field"
	LinkOwnerResource = "product"
)

// Metafield is a key/value annotation attached to a Shopify resource.
type Metafield struct {
	ID            int64  `json:"id,omitempty"`
	Namespace     string `json:"namespace"`
	Key           string `json:"key"`
	Value         string `json:"value"`
	Type          string `json:"type,omitempty"`
	OwnerID       int64  `json:"owner_id,omitempty"`
	OwnerResource string `json:"owner_resource,omitempty"`
}

// NewLinkMetafield builds the linkage metafield for a product and an upstream code.
func NewLinkMetafield(productID int64, code string) Metafield {
	return Metafield{
		Namespace:     LinkNamespace,
		Key:           LinkKey,
		Value:         code,
		Type:          LinkType,
		OwnerID:       productID,
		OwnerResource: LinkOwnerResource,
	}
}

// Collection is a Shopify custom collection.
type Collection struct {
	ID    int64  `json:"id,omitempty"`
	Title string `json:"title"`
}

// Collect is a single product membership in a custom collection.
type Collect struct {
	ID           int64 `json:"id,omitempty"`
	CollectionID int64 `json:"collection_id"`
	ProductID    int64 `json:"product_id"`
}

// FormatID renders a Shopify numeric id for logs and paths.
func FormatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
