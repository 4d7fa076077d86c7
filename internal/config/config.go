package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Shopify app credentials and Admin API client
	ShopifyAPIKey     string  // app client id, also the session token audience
	ShopifyAPISecret  string  // app client secret, signs session tokens
	ShopifyAPIVersion string  // ex: "2024-01"
	ShopifyRateLimit  float64 // requests per second per shop
	ShopifyBurst      int     // burst per shop
	ShopifyMaxRetries int     // retries on 429 / 5xx

	// Upstream product source
	UpstreamBaseURL  string        // ex: "https://erp.example.com/api/v1"
	UpstreamTimeout  time.Duration // per page request
	UpstreamMaxPages int           // safety cap on pagination

	// Business directory
	BusinessFile           string        // path to the store domain -> business code file
	BusinessReloadInterval time.Duration // interval to reload the directory (default: 1h)
	StoreDomainTTL         time.Duration // cache lifetime of a shop's store domain

	// Sync behaviour
	HistoryBackend   string        // "redis" | "memory"
	AutoSyncInterval time.Duration // 0 = disabled
	SyncTimeout      time.Duration // bound on HTTP-triggered sync and rollback
	LockTTL          time.Duration // max lifetime of a per-business run lock
	FailFast         bool          // abort a run on the first failed product write
	LinkageFatal     bool          // treat a failed linkage metafield write as a failed item

	// Redis
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	AllowedHosts []string // optional, restrict access to specific Host headers
	AllowedCIDRS []string // optional, restrict /metrics and /api/infra to these networks
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
	APIRateLimit float64  // requests per second per client IP on /api (0 = unlimited)
	APIBurst     int      // burst per client IP
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("UPSYNC_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("UPSYNC_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("UPSYNC_LOG_LEVEL", "info"),
		PrettyLog: mustBool("UPSYNC_PRETTY_LOG", true),

		// Shopify
		ShopifyAPIKey:     requireEnv("UPSYNC_SHOPIFY_API_KEY"),
		ShopifyAPISecret:  requireEnv("UPSYNC_SHOPIFY_API_SECRET"),
		ShopifyAPIVersion: getenv("UPSYNC_SHOPIFY_API_VERSION", "2024-01"),
		ShopifyRateLimit:  mustFloat("UPSYNC_SHOPIFY_RATE_LIMIT", 2),
		ShopifyBurst:      getenvInt("UPSYNC_SHOPIFY_BURST", 40),
		ShopifyMaxRetries: getenvInt("UPSYNC_SHOPIFY_MAX_RETRIES", 3),

		// Upstream
		UpstreamBaseURL:  requireEnv("UPSYNC_UPSTREAM_BASE_URL"),
		UpstreamTimeout:  mustDuration("UPSYNC_UPSTREAM_TIMEOUT", 30*time.Second),
		UpstreamMaxPages: getenvInt("UPSYNC_UPSTREAM_MAX_PAGES", 10000),

		// Business directory
		BusinessFile:           getenv("UPSYNC_BUSINESS_FILE", "/app/businesses.yaml"),
		BusinessReloadInterval: mustDuration("UPSYNC_BUSINESS_RELOAD_INTERVAL", time.Hour),
		StoreDomainTTL:         mustDuration("UPSYNC_STORE_DOMAIN_TTL", 24*time.Hour),

		// Sync
		HistoryBackend:   strings.ToLower(getenv("UPSYNC_HISTORY_BACKEND", "redis")),
		AutoSyncInterval: mustDuration("UPSYNC_AUTO_SYNC_INTERVAL", 0),
		SyncTimeout:      mustDuration("UPSYNC_SYNC_TIMEOUT", 10*time.Minute),
		LockTTL:          mustDuration("UPSYNC_LOCK_TTL", 30*time.Minute),
		FailFast:         mustBool("UPSYNC_FAIL_FAST", false),
		LinkageFatal:     mustBool("UPSYNC_LINKAGE_FATAL", false),

		// Redis settings
		RedisAddr:             requireEnv("UPSYNC_REDIS_ADDR"),
		RedisUser:             getenv("UPSYNC_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("UPSYNC_REDIS_PASSWORD_REQUIRED", true),
		RedisPassword:         getenv("UPSYNC_REDIS_PASSWORD", ""),
		RedisDB:               requireEnvInt("UPSYNC_REDIS_DB"),
		RedisDT:               mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("UPSYNC_ALLOWED_HOSTS", "")),
		AllowedCIDRS: parseAllowedIPs(getenv("UPSYNC_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("UPSYNC_TRUST_PROXY", true),
		APIRateLimit: mustFloat("UPSYNC_API_RATE_LIMIT", 10),
		APIBurst:     getenvInt("UPSYNC_API_BURST", 20),
	}

	// Validate Redis password configuration
	if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: UPSYNC_REDIS_PASSWORD is required when UPSYNC_REDIS_PASSWORD_REQUIRED=true")
	}

	if cfg.HistoryBackend != "redis" && cfg.HistoryBackend != "memory" {
		panic(fmt.Sprintf("❌ FATAL: UPSYNC_HISTORY_BACKEND must be redis or memory, got %q", cfg.HistoryBackend))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	const redacted = "***REDACTED***"
	c.ShopifyAPISecret = redacted
	c.RedisPassword = redacted
	if c.RedisUser != "" {
		c.RedisUser = redacted
	}
	return c
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func requireEnvInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: Invalid integer value for %s: %s", key, v))
	}
	return i
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
