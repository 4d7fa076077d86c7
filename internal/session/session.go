package session

import (
	"context"
	"time"
)

// Session is an authenticated shop: the myshopify domain and its offline Admin API token.
type Session struct {
	Shop        string    `json:"shop"`
	AccessToken string    `json:"access_token"`
	Scope       string    `json:"scope,omitempty"`
	InstalledAt time.Time `json:"installed_at"`
}

type contextKey string

const contextKeySession contextKey = "session"

// WithSession stores the session in ctx.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, contextKeySession, s)
}

// FromContext returns the session stored by the session middleware.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(contextKeySession).(Session)
	return s, ok && s.Shop != "" && s.AccessToken != ""
}
