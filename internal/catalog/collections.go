package catalog

import (
	"context"

	"github.com/MrSnakeDoc/upsync/internal/domain"
)

// CollectionAssigner puts products into the custom collection named after their
// category. It lists collections once and caches what it creates, so it is scoped to a
// single run and must not be shared across goroutines.
type CollectionAssigner struct {
	api     CollectionAPI
	loaded  bool
	byTitle map[string]domain.Collection
}

// NewCollectionAssigner creates a new collection assigner
func NewCollectionAssigner(api CollectionAPI) *CollectionAssigner {
	return &CollectionAssigner{api: api}
}

// EnsureCollection returns the collection whose title matches exactly, creating it if
// absent. When several collections share a title the first listed wins.
func (a *CollectionAssigner) EnsureCollection(ctx context.Context, title string) (domain.Collection, error) {
	if err := a.load(ctx); err != nil {
		return domain.Collection{}, err
	}
	if c, ok := a.byTitle[title]; ok {
		return c, nil
	}

	c, err := a.api.CreateCustomCollection(ctx, title)
	if err != nil {
		return domain.Collection{}, err
	}
	if c.Title == "" {
		c.Title = title
	}
	a.byTitle[title] = c
	return c, nil
}

// AssignMembership adds the product to the collection unless it is already a member.
// Existing members are never removed.
func (a *CollectionAssigner) AssignMembership(ctx context.Context, collectionID, productID int64) (bool, error) {
	existing, err := a.api.ListCollects(ctx, collectionID, productID)
	if err != nil {
		return false, err
	}
	for _, c := range existing {
		if c.CollectionID == collectionID && c.ProductID == productID {
			return false, nil
		}
	}

	if _, err := a.api.CreateCollect(ctx, collectionID, productID); err != nil {
		return false, err
	}
	return true, nil
}

func (a *CollectionAssigner) load(ctx context.Context) error {
	if a.loaded {
		return nil
	}
	cols, err := a.api.ListCustomCollections(ctx)
	if err != nil {
		return err
	}
	a.byTitle = make(map[string]domain.Collection, len(cols))
	for _, c := range cols {
		if _, ok := a.byTitle[c.Title]; !ok {
			a.byTitle[c.Title] = c
		}
	}
	a.loaded = true
	return nil
}
