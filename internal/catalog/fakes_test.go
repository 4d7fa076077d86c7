package catalog

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/MrSnakeDoc/upsync/internal/domain"
)

var errBoom = errors.New("boom")

// fakeTarget is an in-memory shop.
type fakeTarget struct {
	mu sync.Mutex

	nextID      int64
	products    []domain.TargetProduct
	metafields  map[int64][]domain.Metafield
	collections []domain.Collection
	collects    []domain.Collect
	storeDomain string

	writes          int
	collectionLists int

	failCreate         map[string]bool // by title
	failUpdate         map[int64]bool
	failMetafields     bool
	failMetafieldReads bool
	failList           bool
}

func newFakeTarget(existing ...domain.TargetProduct) *fakeTarget {
	f := &fakeTarget{
		nextID:      1000,
		metafields:  make(map[int64][]domain.Metafield),
		failCreate:  make(map[string]bool),
		failUpdate:  make(map[int64]bool),
		storeDomain: "shop.example.com",
	}
	f.products = append(f.products, existing...)
	return f
}

func (f *fakeTarget) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeTarget) ListProducts(context.Context) ([]domain.TargetProduct, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failList {
		return nil, domain.NewOpError(domain.ErrTargetUnavailable, "list products", "", errBoom)
	}
	out := make([]domain.TargetProduct, len(f.products))
	copy(out, f.products)
	return out, nil
}

func (f *fakeTarget) CreateProduct(_ context.Context, p domain.TargetProduct) (domain.TargetProduct, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate[p.Title] {
		return domain.TargetProduct{}, domain.NewOpError(domain.ErrWriteFailed, "create product", p.Title, errBoom)
	}
	f.writes++
	p.ID = f.id()
	for i := range p.Variants {
		p.Variants[i].ID = f.id()
	}
	f.products = append(f.products, p)
	return p, nil
}

// UpdateProduct replaces title, type, body and tags as the shopify client always sends
// them; images, variants, options and published change only when set.
func (f *fakeTarget) UpdateProduct(_ context.Context, p domain.TargetProduct) (domain.TargetProduct, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpdate[p.ID] {
		return domain.TargetProduct{}, domain.NewOpError(domain.ErrWriteFailed, "update product", domain.FormatID(p.ID), errBoom)
	}
	for i, existing := range f.products {
		if existing.ID != p.ID {
			continue
		}
		f.writes++
		merged := existing
		merged.Title = p.Title
		merged.ProductType = p.ProductType
		merged.BodyHTML = p.BodyHTML
		merged.Tags = p.Tags
		if p.Images != nil {
			merged.Images = p.Images
		}
		if p.Variants != nil {
			merged.Variants = p.Variants
		}
		if p.Options != nil {
			merged.Options = p.Options
		}
		if p.Published != nil {
			merged.Published = p.Published
		}
		f.products[i] = merged
		return merged, nil
	}
	return domain.TargetProduct{}, domain.NewOpError(domain.ErrWriteFailed, "update product", domain.FormatID(p.ID), errors.New("not found"))
}

func (f *fakeTarget) ListProductMetafields(_ context.Context, productID int64) ([]domain.Metafield, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failMetafieldReads {
		return nil, domain.NewOpError(domain.ErrTargetUnavailable, "list metafields", domain.FormatID(productID), errBoom)
	}
	return append([]domain.Metafield(nil), f.metafields[productID]...), nil
}

func (f *fakeTarget) CreateMetafield(_ context.Context, m domain.Metafield) (domain.Metafield, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failMetafields {
		return domain.Metafield{}, errBoom
	}
	f.writes++
	m.ID = f.id()
	f.metafields[m.OwnerID] = append(f.metafields[m.OwnerID], m)
	return m, nil
}

func (f *fakeTarget) ListCustomCollections(context.Context) ([]domain.Collection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.collectionLists++
	return append([]domain.Collection(nil), f.collections...), nil
}

func (f *fakeTarget) CreateCustomCollection(_ context.Context, title string) (domain.Collection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	c := domain.Collection{ID: f.id(), Title: title}
	f.collections = append(f.collections, c)
	return c, nil
}

func (f *fakeTarget) ListCollects(_ context.Context, collectionID, productID int64) ([]domain.Collect, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Collect
	for _, c := range f.collects {
		if c.CollectionID == collectionID && c.ProductID == productID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeTarget) CreateCollect(_ context.Context, collectionID, productID int64) (domain.Collect, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	c := domain.Collect{ID: f.id(), CollectionID: collectionID, ProductID: productID}
	f.collects = append(f.collects, c)
	return c, nil
}

func (f *fakeTarget) StoreDomain(context.Context) (string, error) {
	return f.storeDomain, nil
}

func (f *fakeTarget) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

// fakeSource serves fixed pages; failAt makes that page number fail.
type fakeSource struct {
	pages  [][]domain.ExternalProduct
	failAt int
}

func (s *fakeSource) Each(ctx context.Context, _ string, fn func(domain.Page) error) error {
	for i, products := range s.pages {
		n := i + 1
		if n == s.failAt {
			return domain.NewOpError(domain.ErrSourceUnavailable, "fetch upstream page", strconv.Itoa(n), errBoom)
		}
		if err := fn(domain.Page{Number: n, Products: products, HasNext: n < len(s.pages)}); err != nil {
			return err
		}
	}
	return nil
}

// fakeHistory records appended snapshots.
type fakeHistory struct {
	mu        sync.Mutex
	snapshots []domain.SyncSnapshot
	fail      bool
}

func (h *fakeHistory) Append(_ context.Context, businessCode string, s domain.SyncSnapshot) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.fail {
		return "", errBoom
	}
	s.Key = strconv.Itoa(len(h.snapshots) + 1)
	s.BusinessCode = businessCode
	h.snapshots = append(h.snapshots, s)
	return s.Key, nil
}

func (h *fakeHistory) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.snapshots)
}

type fakeTenants struct {
	code string
	err  error
}

func (t fakeTenants) Resolve(ctx context.Context, shop string, api StoreAPI) (domain.Tenant, error) {
	if t.err != nil {
		return domain.Tenant{}, t.err
	}
	d, _ := api.StoreDomain(ctx)
	return domain.Tenant{Shop: shop, StoreDomain: d, BusinessCode: t.code}, nil
}

type fakeLocks struct {
	mu   sync.Mutex
	held map[string]bool
}

func (l *fakeLocks) Acquire(_ context.Context, code string, _ time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held == nil {
		l.held = make(map[string]bool)
	}
	if l.held[code] {
		return nil, domain.NewOpError(domain.ErrRunInProgress, "acquire lock", code, nil)
	}
	l.held[code] = true
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, code)
	}, nil
}

func shirt(code, label string, price float64) domain.ExternalProduct {
	return domain.ExternalProduct{
		Code:            code,
		Label:           label,
		CategoryName:    "Clothing",
		SubcategoryName: "Shirts",
		Description:     "<p>" + label + "</p>",
		Price:           price,
		Image:           "https://img/" + code + ".png",
	}
}
