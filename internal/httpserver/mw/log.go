package mw

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/upsync/internal/logger"
	"github.com/MrSnakeDoc/upsync/internal/metrics"
	"github.com/MrSnakeDoc/upsync/internal/session"
)

// statusWriter captures status code and bytes written.
type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	// Ensure status is set if handler wrote body without calling WriteHeader.
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// Log returns a middleware that logs one line per HTTP request and records request metrics
// by route pattern.
func Log(loggerClient logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusWriter{ResponseWriter: w}

			// The session middleware runs deeper in the chain; it reports the shop back here.
			holder := &shopHolder{}
			r = r.WithContext(withShopHolder(r.Context(), holder))

			next.ServeHTTP(ww, r)

			status := ww.status
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start)

			route := ""
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				route = rctx.RoutePattern()
			}
			metrics.ObserveHTTP(route, r.Method, status, elapsed)

			fields := []logger.Field{
				logger.String("method", r.Method),
				logger.String("path", r.URL.Path),
				logger.String("route", route),
				logger.Int("status", status),
				logger.Int("bytes", ww.bytes),
				logger.Duration("duration", elapsed),
				logger.String("remote_ip", r.RemoteAddr),
				logger.String("user_agent", r.UserAgent()),
				logger.String("request_id", middleware.GetReqID(r.Context())),
			}
			if holder.shop != "" {
				fields = append(fields, logger.String("shop", holder.shop))
			}
			loggerClient.Info("http_request", fields...)
		})
	}
}

// shopHolder carries the authenticated shop from the session middleware up to Log.
type shopHolder struct {
	shop string
}

type ctxKey struct{}

func withShopHolder(ctx context.Context, h *shopHolder) context.Context {
	return context.WithValue(ctx, ctxKey{}, h)
}

func noteShop(ctx context.Context, s session.Session) {
	if h, ok := ctx.Value(ctxKey{}).(*shopHolder); ok {
		h.shop = s.Shop
	}
}
