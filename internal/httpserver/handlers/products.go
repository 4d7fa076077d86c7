package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/render"

	"github.com/MrSnakeDoc/upsync/internal/domain"
	"github.com/MrSnakeDoc/upsync/internal/history"
	"github.com/MrSnakeDoc/upsync/internal/httpserver/deps"
	"github.com/MrSnakeDoc/upsync/internal/session"
)

const sortUpdatedDesc = "updated_desc"

type productsResponse struct {
	Products interface{} `json:"products"`
}

type upstreamProductsResponse struct {
	Products []domain.ExternalProduct `json:"products"`
	Rejected []domain.RejectedRecord  `json:"rejected"`
}

type rollbackRequest struct {
	Products []domain.TargetProduct `json:"products"`
}

type matchRequest struct {
	MatchedProducts []domain.MatchPair `json:"matchedProducts"`
}

type matchResponse struct {
	Results []domain.MatchResult `json:"results"`
}

// currentSession returns the request's shop session or writes a 401.
func currentSession(w http.ResponseWriter, r *http.Request, d deps.Deps) (session.Session, bool) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		writeError(w, r, d.Logger, domain.ErrUnauthorized, nil)
		return session.Session{}, false
	}
	return sess, true
}

// SyncProducts pulls every upstream product of the shop's business into the shop.
func SyncProducts(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := currentSession(w, r, d)
		if !ok {
			return
		}

		report, err := d.Catalog.Sync(r.Context(), sess.Shop, sess.AccessToken)
		if err != nil {
			var partial interface{}
			if report != nil {
				partial = report
			}
			writeError(w, r, d.Logger, err, partial)
			return
		}

		render.JSON(w, r, report)
	}
}

// ProductHistory lists the business history; ?sort=updated_desc sorts newest first.
func ProductHistory(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := currentSession(w, r, d)
		if !ok {
			return
		}
		sortBy, ok := sortParam(w, r)
		if !ok {
			return
		}

		tenant, err := d.Catalog.Tenant(r.Context(), sess.Shop, sess.AccessToken)
		if err != nil {
			writeError(w, r, d.Logger, err, nil)
			return
		}

		entries, err := d.History.List(r.Context(), tenant.BusinessCode)
		if err != nil {
			writeError(w, r, d.Logger, err, nil)
			return
		}
		if sortBy == sortUpdatedDesc {
			history.SortByUpdatedDesc(entries)
		}

		render.JSON(w, r, productsResponse{Products: entries})
	}
}

// SearchHistory filters the business history by product title (?query=).
func SearchHistory(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := currentSession(w, r, d)
		if !ok {
			return
		}
		sortBy, ok := sortParam(w, r)
		if !ok {
			return
		}

		query := strings.TrimSpace(r.URL.Query().Get("query"))
		if query == "" {
			query = strings.TrimSpace(r.URL.Query().Get("q"))
		}

		tenant, err := d.Catalog.Tenant(r.Context(), sess.Shop, sess.AccessToken)
		if err != nil {
			writeError(w, r, d.Logger, err, nil)
			return
		}

		entries, err := d.History.Search(r.Context(), tenant.BusinessCode, query)
		if err != nil {
			writeError(w, r, d.Logger, err, nil)
			return
		}
		if sortBy == sortUpdatedDesc {
			history.SortByUpdatedDesc(entries)
		}

		render.JSON(w, r, productsResponse{Products: entries})
	}
}

// RollbackProducts replays the posted product bodies onto the shop.
func RollbackProducts(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := currentSession(w, r, d)
		if !ok {
			return
		}

		var req rollbackRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			badRequest(w, r, "invalid JSON body")
			return
		}
		if len(req.Products) == 0 {
			badRequest(w, r, "products must not be empty")
			return
		}

		report, err := d.Catalog.Rollback(r.Context(), sess.Shop, sess.AccessToken, req.Products)
		if err != nil {
			var partial interface{}
			if report != nil {
				partial = report
			}
			writeError(w, r, d.Logger, err, partial)
			return
		}

		render.JSON(w, r, report)
	}
}

// MatchProducts links existing shop products to upstream codes.
func MatchProducts(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := currentSession(w, r, d)
		if !ok {
			return
		}

		var req matchRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			badRequest(w, r, "invalid JSON body")
			return
		}
		if len(req.MatchedProducts) == 0 {
			badRequest(w, r, "matchedProducts must not be empty")
			return
		}

		results, err := d.Catalog.Match(r.Context(), sess.Shop, sess.AccessToken, req.MatchedProducts)
		if err != nil {
			writeError(w, r, d.Logger, err, matchResponse{Results: results})
			return
		}

		render.JSON(w, r, matchResponse{Results: results})
	}
}

// ListShopProducts returns every product of the shop, for the matching screen.
func ListShopProducts(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := currentSession(w, r, d)
		if !ok {
			return
		}

		products, err := d.Catalog.Target(sess.Shop, sess.AccessToken).ListProducts(r.Context())
		if err != nil {
			writeError(w, r, d.Logger, err, nil)
			return
		}
		if products == nil {
			products = []domain.TargetProduct{}
		}

		render.JSON(w, r, productsResponse{Products: products})
	}
}

// ListUpstreamProducts returns every upstream product of the shop's business, with the
// records rejected at ingestion.
func ListUpstreamProducts(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := currentSession(w, r, d)
		if !ok {
			return
		}

		tenant, err := d.Catalog.Tenant(r.Context(), sess.Shop, sess.AccessToken)
		if err != nil {
			writeError(w, r, d.Logger, err, nil)
			return
		}

		products, rejected, err := d.Upstream.FetchAll(r.Context(), tenant.BusinessCode)
		if err != nil {
			writeError(w, r, d.Logger, err, nil)
			return
		}
		if products == nil {
			products = []domain.ExternalProduct{}
		}
		if rejected == nil {
			rejected = []domain.RejectedRecord{}
		}

		render.JSON(w, r, upstreamProductsResponse{Products: products, Rejected: rejected})
	}
}

func sortParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	s := r.URL.Query().Get("sort")
	if s != "" && s != sortUpdatedDesc {
		badRequest(w, r, "sort must be "+sortUpdatedDesc)
		return "", false
	}
	return s, true
}
