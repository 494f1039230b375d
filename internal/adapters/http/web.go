package web

import (
	"net/http"
	"time"

	"seacomms/internal/adapters/email"
	"seacomms/internal/adapters/http/middleware"
	"seacomms/internal/adapters/http/perf"
	sessionAdapter "seacomms/internal/adapters/session"
	accountStore "seacomms/internal/adapters/storage/account"
	categoryStore "seacomms/internal/adapters/storage/category"
	commendationStore "seacomms/internal/adapters/storage/commendation"
	progressStore "seacomms/internal/adapters/storage/progress"
	"seacomms/internal/domain/account"
)

// Stores holds all storage dependencies.
type Stores struct {
	AccountStore      accountStore.Store
	CategoryStore     categoryStore.Store
	CommendationStore commendationStore.Store
	ProgressStore     progressStore.Store
}

// Options configures NewMux.
type Options struct {
	Sessions       *sessionAdapter.Manager
	AllowList      account.AllowList
	CSRFKey        []byte // 32 bytes
	SecureCookies  bool
	TrustedOrigins []string
	Collector      *perf.Collector // optional: nil disables request timing records
	SlowRequest    time.Duration
	RateLimit      float64 // requests per second per IP; <= 0 uses RateLimitPerSecond
	Mailer         email.Sender
	BaseURL        string
}

// Global stores instance (set by NewMux)
var stores *Stores

// Global session manager instance (set by NewMux)
var sessions *sessionAdapter.Manager

// Global admin allow-list (set by NewMux)
var allowList account.AllowList

// timeNow is the clock used by handlers; tests may replace it.
var timeNow = time.Now

// RateLimitPerSecond is the default per-IP rate limit.
var RateLimitPerSecond = 10.0

// Global perf collector (set by NewMux)
var perfCollector *perf.Collector

// Global email sender and the public base URL used in links (set by NewMux)
var (
	emailSender email.Sender
	baseURL     string
)

// NewMux wires HTTP handlers for the app.
func NewMux(s *Stores, opts Options) http.Handler {
	stores = s
	sessions = opts.Sessions
	allowList = opts.AllowList
	perfCollector = opts.Collector
	emailSender = opts.Mailer
	baseURL = opts.BaseURL
	middleware.SecureCookies = opts.SecureCookies

	mux := http.NewServeMux()
	registerRoutes(mux)

	perSecond := opts.RateLimit
	if perSecond <= 0 {
		perSecond = RateLimitPerSecond
	}
	limiter := middleware.NewRateLimiter(perSecond, int(perSecond)*2)

	// Request order: RateLimit -> Auth -> CSRF -> SecurityHeaders -> Timing -> Mux
	return middleware.Chain(mux,
		middleware.Timing(opts.Collector, opts.SlowRequest),
		middleware.SecurityHeaders,
		middleware.CSRF(opts.CSRFKey, opts.SecureCookies, opts.TrustedOrigins),
		middleware.Auth(opts.Sessions),
		middleware.RateLimit(limiter),
	)
}
