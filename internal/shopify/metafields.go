package shopify

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/MrSnakeDoc/upsync/internal/domain"
)

// metafieldRecord keeps value raw: Shopify returns numbers and JSON objects unquoted for
// typed metafields.
type metafieldRecord struct {
	ID            int64           `json:"id,omitempty"`
	Namespace     string          `json:"namespace"`
	Key           string          `json:"key"`
	Value         json.RawMessage `json:"value"`
	Type          string          `json:"type,omitempty"`
	OwnerID       int64           `json:"owner_id,omitempty"`
	OwnerResource string          `json:"owner_resource,omitempty"`
}

func (r metafieldRecord) toDomain() domain.Metafield {
	return domain.Metafield{
		ID:            r.ID,
		Namespace:     r.Namespace,
		Key:           r.Key,
		Value:         rawString(r.Value),
		Type:          r.Type,
		OwnerID:       r.OwnerID,
		OwnerResource: r.OwnerResource,
	}
}

func rawString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

type metafieldsEnvelope struct {
	Metafields []metafieldRecord `json:"metafields"`
}

type metafieldEnvelope struct {
	Metafield domain.Metafield `json:"metafield"`
}

type metafieldRecordEnvelope struct {
	Metafield metafieldRecord `json:"metafield"`
}

// ListProductMetafields returns every metafield attached to a product.
func (c *Client) ListProductMetafields(ctx context.Context, productID int64) ([]domain.Metafield, error) {
	records, err := listAll(ctx, c, "products/"+domain.FormatID(productID)+"/metafields", nil,
		func(e metafieldsEnvelope) []metafieldRecord { return e.Metafields })
	if err != nil {
		return nil, domain.NewOpError(domain.ErrTargetUnavailable, "list metafields", domain.FormatID(productID), err)
	}

	out := make([]domain.Metafield, 0, len(records))
	for _, r := range records {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// CreateMetafield creates a metafield through the top-level metafields endpoint.
func (c *Client) CreateMetafield(ctx context.Context, m domain.Metafield) (domain.Metafield, error) {
	var out metafieldRecordEnvelope
	if err := c.Post(ctx, "metafields", metafieldEnvelope{Metafield: m}, &out); err != nil {
		return domain.Metafield{}, domain.NewOpError(domain.ErrLinkageWriteFailed, "create metafield", domain.FormatID(m.OwnerID), err)
	}
	return out.Metafield.toDomain(), nil
}
