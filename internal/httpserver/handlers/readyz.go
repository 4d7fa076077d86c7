package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/MrSnakeDoc/upsync/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready  bool              `json:"ready"`
	Checks map[string]string `json:"checks"`
}

// Readyz reports ready once redis answers, the history log answers and the business
// directory holds at least one entry.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		checks := map[string]string{}
		ready := true

		if d.RedisClient != nil {
			if err := d.RedisClient.Ping(ctx).Err(); err != nil {
				checks["redis"] = err.Error()
				ready = false
			} else {
				checks["redis"] = "ok"
			}
		}

		if err := d.History.Ping(ctx); err != nil {
			checks["history"] = err.Error()
			ready = false
		} else {
			checks["history"] = "ok"
		}

		if d.Directory == nil || d.Directory.Count() == 0 {
			checks["business_directory"] = "empty"
			ready = false
		} else {
			checks["business_directory"] = "ok"
		}

		if !ready {
			render.Status(r, http.StatusServiceUnavailable)
		}
		render.JSON(w, r, readyzResponse{Ready: ready, Checks: checks})
	}
}
