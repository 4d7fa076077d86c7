package catalog

import (
	"context"

	"github.com/MrSnakeDoc/upsync/internal/domain"
)

// IdentityResolver links a target product to its upstream code through the
// custom.up_id metafield.
type IdentityResolver struct {
	api MetafieldAPI
}

// NewIdentityResolver creates a new identity resolver
func NewIdentityResolver(api MetafieldAPI) *IdentityResolver {
	return &IdentityResolver{api: api}
}

// Link returns the id of the first metafield of the product whose value equals code,
// creating the linkage metafield when none does. created reports whether a write happened.
func (r *IdentityResolver) Link(ctx context.Context, productID int64, code string) (metafieldID int64, created bool, err error) {
	ref := domain.FormatID(productID) + "=" + code

	// A failed read keeps the kind reported by the api (target unavailable).
	existing, err := r.api.ListProductMetafields(ctx, productID)
	if err != nil {
		return 0, false, err
	}
	for _, m := range existing {
		if m.Value == code {
			return m.ID, false, nil
		}
	}

	m, err := r.api.CreateMetafield(ctx, domain.NewLinkMetafield(productID, code))
	if err != nil {
		return 0, false, domain.NewOpError(domain.ErrLinkageWriteFailed, "create metafield", ref, err)
	}
	return m.ID, true, nil
}
