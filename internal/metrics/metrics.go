package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SyncRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "upsync_sync_runs_total",
		Help: "Sync runs by outcome (ok, aborted, error).",
	}, []string{"outcome"})

	SyncItems = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "upsync_sync_items_total",
		Help: "Upstream products processed by action.",
	}, []string{"action"})

	SyncDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "upsync_sync_duration_seconds",
		Help:    "Duration of a full sync run.",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
	})

	RollbackItems = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "upsync_rollback_items_total",
		Help: "Rollback products by status.",
	}, []string{"status"})

	MatchPairs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "upsync_match_pairs_total",
		Help: "Manual match pairs by result (linked, existing, failed).",
	}, []string{"result"})

	ShopifyRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "upsync_shopify_requests_total",
		Help: "Shopify Admin API requests by method and status code.",
	}, []string{"method", "status"})

	ShopifyLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "upsync_shopify_request_duration_seconds",
		Help:    "Shopify Admin API request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	HistoryAppends = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "upsync_history_appends_total",
		Help: "History snapshot appends by kind and status.",
	}, []string{"kind", "status"})

	HistorySkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "upsync_history_skipped_entries_total",
		Help: "History entries left out of reads, by reason.",
	}, []string{"reason"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "upsync_http_requests_total",
		Help: "HTTP requests served by route pattern, method and status.",
	}, []string{"route", "method", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "upsync_http_request_duration_seconds",
		Help:    "HTTP request latency by route pattern.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	DirectoryEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "upsync_business_directory_entries",
		Help: "Store domains known to the business directory.",
	})

	AutoSyncShops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "upsync_auto_sync_shops_total",
		Help: "Shops visited by the auto-sync scheduler by result (ok, skipped, error).",
	}, []string{"result"})
)

// ObserveShopify records one Shopify request.
func ObserveShopify(method string, status int, d time.Duration) {
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	ShopifyRequests.WithLabelValues(method, code).Inc()
	ShopifyLatency.WithLabelValues(method).Observe(d.Seconds())
}

// ObserveHTTP records one served request.
func ObserveHTTP(route, method string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
