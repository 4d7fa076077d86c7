package mw

import (
	"net/http"

	"github.com/go-chi/render"
)

// writeJSONError writes the same {error, message} body the handlers use.
func writeJSONError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	render.Status(r, status)
	render.JSON(w, r, map[string]string{
		"error":   code,
		"message": message,
	})
}
