package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/MrSnakeDoc/upsync/internal/httpserver/deps"
)

type componentStatus struct {
	OK            bool   `json:"ok"`
	EntriesLoaded *int   `json:"entries_loaded,omitempty"`
	LastReload    string `json:"last_reload,omitempty"`
	Mode          string `json:"mode,omitempty"`
	Impact        string `json:"impact,omitempty"`
	Error         string `json:"error,omitempty"`
}

type infraResponse struct {
	SyncMode   string                     `json:"sync_mode"`
	Components map[string]componentStatus `json:"components"`
}

func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		components := map[string]componentStatus{
			"business_directory": checkDirectory(d),
			"redis":              checkRedis(ctx, d),
			"history":            checkHistory(ctx, d),
		}

		render.JSON(w, r, infraResponse{
			SyncMode:   determineSyncMode(components),
			Components: components,
		})
	}
}

func determineSyncMode(components map[string]componentStatus) string {
	// Without a directory no shop resolves to a business
	if dir, exists := components["business_directory"]; exists && !dir.OK {
		return "critical"
	}
	if h, exists := components["history"]; exists && !h.OK {
		return "critical"
	}

	// Redis down: sessions, locks and cache unavailable
	if redis, exists := components["redis"]; exists && !redis.OK {
		return "degraded"
	}

	return "operational"
}

func checkDirectory(d deps.Deps) componentStatus {
	if d.Directory == nil {
		return componentStatus{OK: false, Error: "not initialized"}
	}

	count := d.Directory.Count()
	lastReload := "never"
	if t := d.Directory.LastReload(); !t.IsZero() {
		lastReload = t.Format("2006-01-02 15:04:05")
	}
	return componentStatus{
		OK:            count > 0,
		EntriesLoaded: &count,
		LastReload:    lastReload,
	}
}

func checkRedis(ctx context.Context, d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "sessions-and-locks-unavailable",
			Error:  "client not initialized",
		}
	}

	if err := d.RedisClient.Ping(ctx).Err(); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "sessions-and-locks-unavailable",
			Error:  err.Error(),
		}
	}

	return componentStatus{OK: true, Mode: "optimal"}
}

func checkHistory(ctx context.Context, d deps.Deps) componentStatus {
	mode := d.History.Backend()
	if err := d.History.Ping(ctx); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   mode,
			Impact: "sync-history-and-rollback-unavailable",
			Error:  err.Error(),
		}
	}

	status := componentStatus{OK: true, Mode: mode}
	if mode == "memory" {
		status.Impact = "history-lost-on-restart"
	}
	return status
}
