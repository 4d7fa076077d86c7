package mw

import (
	"errors"
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/upsync/internal/domain"
	"github.com/MrSnakeDoc/upsync/internal/httpserver/deps"
	"github.com/MrSnakeDoc/upsync/internal/logger"
	"github.com/MrSnakeDoc/upsync/internal/session"
)

// RequireSession authenticates App Bridge requests: the bearer session token names the
// shop, whose offline access token is loaded from the session store into the context.
func RequireSession(verifier deps.TokenVerifier, sessions deps.Sessions, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				writeJSONError(w, r, http.StatusUnauthorized, "unauthorized", "missing session token")
				return
			}

			shop, err := verifier.Verify(raw)
			if err != nil {
				log.Debug("session token rejected", logger.Error(err))
				writeJSONError(w, r, http.StatusUnauthorized, "unauthorized", "invalid session token")
				return
			}

			sess, err := sessions.GetSession(r.Context(), shop)
			if err != nil {
				if errors.Is(err, domain.ErrUnauthorized) {
					writeJSONError(w, r, http.StatusUnauthorized, "unauthorized", "shop is not installed")
					return
				}
				log.Error("session store lookup failed",
					logger.String("shop", shop),
					logger.Error(err))
				writeJSONError(w, r, http.StatusServiceUnavailable, "session_store_unavailable", "session store unavailable")
				return
			}

			noteShop(r.Context(), sess)
			next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), sess)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
