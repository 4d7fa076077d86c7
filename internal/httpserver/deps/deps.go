package deps

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/upsync/internal/business"
	"github.com/MrSnakeDoc/upsync/internal/catalog"
	"github.com/MrSnakeDoc/upsync/internal/domain"
	"github.com/MrSnakeDoc/upsync/internal/logger"
	"github.com/MrSnakeDoc/upsync/internal/session"
)

// Catalog runs session-scoped product operations. *catalog.Service implements it.
type Catalog interface {
	Target(shop, accessToken string) catalog.Target
	Tenant(ctx context.Context, shop, accessToken string) (domain.Tenant, error)
	Sync(ctx context.Context, shop, accessToken string) (*domain.RunReport, error)
	Rollback(ctx context.Context, shop, accessToken string, products []domain.TargetProduct) (*domain.RollbackReport, error)
	Match(ctx context.Context, shop, accessToken string, pairs []domain.MatchPair) ([]domain.MatchResult, error)
}

// History reads sync history. *history.Service implements it.
type History interface {
	List(ctx context.Context, businessCode string) ([]domain.SyncSnapshot, error)
	Search(ctx context.Context, businessCode, query string) ([]domain.SyncSnapshot, error)
	Ping(ctx context.Context) error
	Backend() string
}

// Upstream lists every upstream product of a business. *upstream.Client implements it.
type Upstream interface {
	FetchAll(ctx context.Context, businessCode string) ([]domain.ExternalProduct, []domain.RejectedRecord, error)
}

// Sessions looks up offline sessions. *redis.Store implements it.
type Sessions interface {
	GetSession(ctx context.Context, shop string) (session.Session, error)
}

// TokenVerifier validates App Bridge session tokens. *session.Verifier implements it.
type TokenVerifier interface {
	Verify(raw string) (string, error)
}

type Deps struct {
	Logger        logger.Logger
	StartTime     time.Time
	Version       string
	Commit        string
	BuildDate     string
	GoVersion     string
	TimeNow       func() time.Time    // for testing, defaults to time.Now
	AllowedHosts  []string            // Host headers allowed to access the server
	AllowedCIDRS  []string            // IPs allowed to access metrics, readiness and admin endpoints
	TrustProxy    bool                // true if running behind a trusted reverse proxy (e.g., cloudflared)
	APIRateLimit  float64             // requests per second per client IP on /api (0 = unlimited)
	APIBurst      int                 // burst per client IP
	SyncTimeout   time.Duration       // bound on sync and rollback requests
	RedisClient   *redis.Client       // Redis client connection (nil in memory-only setups)
	Catalog       Catalog             // sync, rollback, match, target binding
	History       History             // history reads
	Upstream      Upstream            // upstream product listing
	Sessions      Sessions            // offline session lookup
	Verifier      TokenVerifier       // session token verification
	Directory     *business.Directory // store domain -> business code
	ReloadTrigger chan struct{}       // Channel to trigger manual business directory reload
}

// Now returns the current time through TimeNow when set.
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
