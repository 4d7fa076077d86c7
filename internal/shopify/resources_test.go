package shopify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/upsync/internal/domain"
)

func TestListProductsFollowsLinkHeader(t *testing.T) {
	var pageInfos []string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "250", q.Get("limit"))
		pageInfos = append(pageInfos, q.Get("page_info"))

		switch q.Get("page_info") {
		case "":
			w.Header().Set("Link", `<https://demo.myshopify.com/admin/api/2024-01/products.json?limit=250&page_info=p2>; rel="next"`)
			_, _ = w.Write([]byte(`{"products":[{"id":1,"title":"A","tags":"x, y"}]}`))
		case "p2":
			w.Header().Set("Link", `<https://demo.myshopify.com/admin/api/2024-01/products.json?limit=250&page_info=p1>; rel="previous"`)
			_, _ = w.Write([]byte(`{"products":[{"id":2,"title":"B","variants":[{"id":9,"option1":"Default Title","price":"19.99"}]}]}`))
		}
	}))

	products, err := c.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, []string{"", "p2"}, pageInfos)
	assert.Equal(t, domain.TagList{"x", "y"}, products[0].Tags)
	assert.Equal(t, "19.99", products[1].Variants[0].Price)
}

func TestNextPageInfo(t *testing.T) {
	tests := []struct {
		name string
		link string
		want string
	}{
		{"none", "", ""},
		{"next only", `<https://s/admin/api/v/products.json?page_info=abc&limit=250>; rel="next"`, "abc"},
		{"previous and next", `<https://s/x.json?page_info=prev>; rel="previous", <https://s/x.json?page_info=nxt>; rel="next"`, "nxt"},
		{"previous only", `<https://s/x.json?page_info=prev>; rel="previous"`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.link != "" {
				h.Set("Link", tt.link)
			}
			assert.Equal(t, tt.want, nextPageInfo(h))
		})
	}
}

func TestCreateProductPayload(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/admin/api/2024-01/products.json", r.URL.Path)

		body, _ := io.ReadAll(r.Body)
		var got map[string]map[string]any
		assert.NoError(t, json.Unmarshal(body, &got))
		p := got["product"]
		assert.Equal(t, "Shirt", p["title"])
		assert.Equal(t, "Clothing, Shirts", p["tags"])
		assert.Equal(t, true, p["published"])
		variants := p["variants"].([]any)
		assert.NotContains(t, variants[0].(map[string]any), "option2")

		_, _ = w.Write([]byte(`{"product":{"id":42,"title":"Shirt"}}`))
	}))

	created, err := c.CreateProduct(context.Background(), domain.TargetProduct{
		Title:     "Shirt",
		Tags:      domain.TagList{"Clothing", "Shirts"},
		Published: domain.Bool(true),
		Variants:  []domain.Variant{{Option1: "M"}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), created.ID)
}

func TestUpdateProductPath(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/admin/api/2024-01/products/42.json", r.URL.Path)
		_, _ = w.Write([]byte(`{"product":{"id":42,"title":"New"}}`))
	}))

	updated, err := c.UpdateProduct(context.Background(), domain.TargetProduct{ID: 42, Title: "New"})
	require.NoError(t, err)
	assert.Equal(t, "New", updated.Title)
}

func TestMetafields(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/admin/api/2024-01/products/5/metafields.json":
			_, _ = w.Write([]byte(`{"metafields":[
				{"id":1,"namespace":"custom","key":"count","value":3,"type":"number_integer"},
				{"id":2,"namespace":"custom","key":"up_id","value":"P1","type":"single_line_text_field"}
			]}`))
		case r.Method == http.MethodPost && r.URL.Path == "/admin/api/2024-01/metafields.json":
			var in metafieldEnvelope
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			assert.Equal(t, domain.LinkNamespace, in.Metafield.Namespace)
			assert.Equal(t, domain.LinkKey, in.Metafield.Key)
			assert.Equal(t, domain.LinkOwnerResource, in.Metafield.OwnerResource)
			assert.Equal(t, int64(5), in.Metafield.OwnerID)
			_, _ = w.Write([]byte(`{"metafield":{"id":77,"namespace":"custom","key":"up_id","value":"P2"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	fields, err := c.ListProductMetafields(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, fields, 2)
	assert.Equal(t, "3", fields[0].Value)
	assert.Equal(t, "P1", fields[1].Value)

	created, err := c.CreateMetafield(context.Background(), domain.NewLinkMetafield(5, "P2"))
	require.NoError(t, err)
	assert.Equal(t, int64(77), created.ID)
	assert.Equal(t, "P2", created.Value)
}

func TestCreateMetafieldFailureIsLinkageKind(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))

	_, err := c.CreateMetafield(context.Background(), domain.NewLinkMetafield(5, "P2"))
	assert.True(t, errors.Is(err, domain.ErrLinkageWriteFailed))
}

func TestCollectsQuery(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/admin/api/2024-01/collects.json":
			if r.Method == http.MethodGet {
				assert.Equal(t, "3", r.URL.Query().Get("collection_id"))
				assert.Equal(t, "9", r.URL.Query().Get("product_id"))
				_, _ = w.Write([]byte(`{"collects":[]}`))
				return
			}
			_, _ = w.Write([]byte(`{"collect":{"id":1,"collection_id":3,"product_id":9}}`))
		case "/admin/api/2024-01/custom_collections.json":
			_, _ = w.Write([]byte(`{"custom_collection":{"id":3,"title":"Clothing"}}`))
		}
	}))

	existing, err := c.ListCollects(context.Background(), 3, 9)
	require.NoError(t, err)
	assert.Empty(t, existing)

	col, err := c.CreateCustomCollection(context.Background(), "Clothing")
	require.NoError(t, err)
	assert.Equal(t, int64(3), col.ID)

	collect, err := c.CreateCollect(context.Background(), 3, 9)
	require.NoError(t, err)
	assert.Equal(t, int64(9), collect.ProductID)
}

func TestProductWritesSendClearedFields(t *testing.T) {
	var bodies []map[string]json.RawMessage
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Product map[string]json.RawMessage `json:"product"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		bodies = append(bodies, in.Product)
		_, _ = w.Write([]byte(`{"product":{"id":7,"title":"Tee"}}`))
	}))

	// Upstream cleared description and category
	_, err := c.UpdateProduct(context.Background(), domain.TargetProduct{ID: 7, Title: "Tee"})
	require.NoError(t, err)

	// Rollback to a body that had no description and no tags
	_, err = c.UpdateProduct(context.Background(), domain.TargetProduct{
		ID:        7,
		Title:     "Tee",
		Tags:      domain.TagList{},
		Published: domain.Bool(true),
	})
	require.NoError(t, err)

	require.Len(t, bodies, 2)
	for _, b := range bodies {
		assert.JSONEq(t, `""`, string(b["body_html"]))
		assert.JSONEq(t, `""`, string(b["product_type"]))
		assert.JSONEq(t, `""`, string(b["tags"]))
		assert.NotContains(t, b, "variants")
		assert.NotContains(t, b, "options")
		assert.NotContains(t, b, "images")
	}
	assert.NotContains(t, bodies[0], "published")
	assert.JSONEq(t, `true`, string(bodies[1]["published"]))
}
