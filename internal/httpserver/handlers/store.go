package handlers

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/MrSnakeDoc/upsync/internal/httpserver/deps"
)

type storeResponse struct {
	Shop         string `json:"shop"`
	StoreDomain  string `json:"storeDomain"`
	BusinessCode string `json:"businessCode"`
}

// Store returns the shop's public domain and the business it syncs from.
func Store(d deps.Deps) http.HandlerFunc {
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

		render.JSON(w, r, storeResponse{
			Shop:         tenant.Shop,
			StoreDomain:  tenant.StoreDomain,
			BusinessCode: tenant.BusinessCode,
		})
	}
}
