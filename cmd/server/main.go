package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	emailPkg "seacomms/internal/adapters/email"
	web "seacomms/internal/adapters/http"
	"seacomms/internal/adapters/http/perf"
	sessionAdapter "seacomms/internal/adapters/session"
	"seacomms/internal/adapters/storage"
	accountStore "seacomms/internal/adapters/storage/account"
	categoryStore "seacomms/internal/adapters/storage/category"
	commendationStore "seacomms/internal/adapters/storage/commendation"
	progressStore "seacomms/internal/adapters/storage/progress"
	"seacomms/internal/application/orchestrators"
	"seacomms/internal/config"
	"seacomms/internal/domain/account"
	sessionDomain "seacomms/internal/domain/session"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_event", "event", "load_failed", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(cfg))

	if err := run(cfg); err != nil {
		slog.Error("server_event", "event", "fatal", "error", err)
		os.Exit(1)
	}
}

// newLogger logs text in development and JSON in production.
func newLogger(cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for _, name := range cfg.GeneratedSecrets {
		slog.Warn("config_event", "event", "secret_generated", "key", name,
			"detail", "sessions and forms will not survive a restart")
	}

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := storage.MigrateDB(db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	slog.Info("storage_event", "event", "ready", "path", cfg.DBPath, "schema", storage.LatestSchemaVersion())

	// Performance instrumentation: every query and request lands in one collector
	collector := perf.NewCollector(perf.DefaultRingSize)
	timedDB := storage.NewTimedDB(db, collector, cfg.SlowQuery)

	stores := &web.Stores{
		AccountStore:      accountStore.NewSQLiteStore(timedDB),
		CategoryStore:     categoryStore.NewSQLiteStore(timedDB),
		CommendationStore: commendationStore.NewSQLiteStore(timedDB),
		ProgressStore:     progressStore.NewSQLiteStore(timedDB),
	}

	if cfg.CatalogFile != "" {
		if err := seedCatalog(ctx, cfg.CatalogFile, stores); err != nil {
			return err
		}
	}

	registry, closeRegistry, err := newRegistry(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRegistry()

	sessions := sessionAdapter.NewManager(sessionAdapter.Config{
		Registry: registry,
		Secret:   cfg.JWTSecret,
		TTL:      cfg.SessionTTL,
	})
	sub := sessions.Subscribe(logSessionEvent)
	defer sub.Unsubscribe()

	sweeper, err := sessionAdapter.NewSweeper(sessions, sessionAdapter.DefaultSweepInterval)
	if err != nil {
		return err
	}
	sweeper.Start()
	defer sweeper.Stop()

	handler := web.NewMux(stores, web.Options{
		Sessions:       sessions,
		AllowList:      account.NewAllowList(cfg.AdminEmails...),
		CSRFKey:        cfg.CSRFKey,
		SecureCookies:  cfg.IsProduction(),
		TrustedOrigins: cfg.TrustedOrigins,
		Collector:      collector,
		SlowRequest:    cfg.SlowRequest,
		RateLimit:      cfg.RateLimit,
		Mailer:         newMailer(cfg),
		BaseURL:        cfg.BaseURL,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server_event", "event", "starting", "version", version, "addr", cfg.Addr,
			"env", envName(cfg), "admins", len(cfg.AdminEmails))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("server_event", "event", "shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("server_event", "event", "stopped")
	return nil
}

func seedCatalog(ctx context.Context, path string, stores *web.Stores) error {
	cat, err := orchestrators.LoadCatalog(path)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	res, err := orchestrators.ExecuteSeedCatalog(ctx, cat, orchestrators.SeedCatalogDeps{
		CategoryStore:     stores.CategoryStore,
		CommendationStore: stores.CommendationStore,
	})
	if err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	slog.Info("catalog_event", "event", "seeded", "file", path,
		"categories", res.Categories, "commendations", res.Commendations)
	return nil
}

// newRegistry picks Redis when an address is configured, otherwise an
// in-process registry whose sessions vanish on restart.
func newRegistry(ctx context.Context, cfg config.Config) (sessionAdapter.Registry, func(), error) {
	if cfg.RedisAddr == "" {
		slog.Info("session_event", "event", "registry", "kind", "memory")
		return sessionAdapter.NewMemoryRegistry(), func() {}, nil
	}
	r := sessionAdapter.NewRedisRegistry(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := r.Ping(pingCtx); err != nil {
		r.Close()
		return nil, nil, fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr, err)
	}
	slog.Info("session_event", "event", "registry", "kind", "redis", "addr", cfg.RedisAddr)
	return r, func() { r.Close() }, nil
}

func newMailer(cfg config.Config) emailPkg.Sender {
	if cfg.ResendKey != "" {
		slog.Info("email_event", "event", "sender", "kind", "resend")
		return emailPkg.NewResendSender(cfg.ResendKey, cfg.MailFrom)
	}
	if cfg.IsProduction() {
		slog.Warn("email_event", "event", "sender", "kind", "noop", "detail", "SEACOMMS_RESEND_KEY is not set, email delivery is disabled")
	} else {
		slog.Info("email_event", "event", "sender", "kind", "noop")
	}
	return emailPkg.NewNoopSender()
}

func logSessionEvent(e sessionDomain.Event) {
	attrs := []any{"event", string(e.Kind)}
	if e.Session != nil {
		attrs = append(attrs, "account_id", e.Session.AccountID, "email", e.Session.Email)
	}
	slog.Info("session_event", attrs...)
}

func envName(cfg config.Config) string {
	if cfg.Env == "" {
		return "development"
	}
	return cfg.Env
}
