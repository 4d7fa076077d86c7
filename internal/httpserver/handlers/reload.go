package handlers

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/MrSnakeDoc/upsync/internal/httpserver/deps"
	"github.com/MrSnakeDoc/upsync/internal/logger"
)

type reloadResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Reload triggers a manual reload of the business directory
func Reload(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		select {
		case d.ReloadTrigger <- struct{}{}:
			d.Logger.Info("manual business directory reload triggered via endpoint",
				logger.String("remote_ip", r.RemoteAddr))
			render.Status(r, http.StatusAccepted)
			render.JSON(w, r, reloadResponse{Status: "accepted", Message: "reload triggered"})
		default:
			d.Logger.Warn("business directory reload already in progress",
				logger.String("remote_ip", r.RemoteAddr))
			render.Status(r, http.StatusTooManyRequests)
			render.JSON(w, r, reloadResponse{Status: "busy", Message: "reload already in progress, please wait"})
		}
	}
}
