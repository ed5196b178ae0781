package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	emailPkg "routineos/internal/adapters/email"
	web "routineos/internal/adapters/http"
	"routineos/internal/adapters/http/middleware"
	"routineos/internal/adapters/realtime"
	"routineos/internal/adapters/storage"
	accountStore "routineos/internal/adapters/storage/account"
	routineStore "routineos/internal/adapters/storage/routine"
	"routineos/internal/config"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server (default)",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, dialect, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	slog.Info("database_ready", "driver", dialect, "schema", storage.LatestSchemaVersion())

	timedDB := storage.NewTimedDB(db, cfg.SlowQueryMs)
	stores := web.Stores{}
	if dialect == storage.DialectPostgres {
		stores.AccountStore = accountStore.NewPostgresStore(timedDB)
		stores.RoutineStore = routineStore.NewPostgresStore(timedDB)
	} else {
		stores.AccountStore = accountStore.NewSQLiteStore(timedDB)
		stores.RoutineStore = routineStore.NewSQLiteStore(timedDB)
	}

	notifier, closeNotifier, err := newNotifier(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeNotifier()

	server := web.NewServer(web.Options{
		BaseURL:            cfg.BaseURL,
		Location:           cfg.Location(),
		CSRFKey:            cfg.CSRFKey(),
		TokenKey:           cfg.TokenKey(),
		MagicLinkTTL:       cfg.MagicLink.TTL,
		Secure:             cfg.IsProduction(),
		RateLimitPerSecond: cfg.RateLimitPerSecond,
		SlowRequestMs:      cfg.SlowRequestMs,
	}, stores, middleware.NewSessionStore(cfg.Session.TTL), notifier, newSender(cfg))
	defer server.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// Hijacked WebSocket requests keep this context, so shutdown reaches them too.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server_starting", "version", version, "addr", cfg.Addr, "env", cfg.Env, "base_url", cfg.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("server_stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("server_stopped")
	return nil
}

// newNotifier returns the Redis notifier when an address is configured, else the in-process hub.
func newNotifier(ctx context.Context, cfg *config.Config) (realtime.Notifier, func(), error) {
	if cfg.Realtime.RedisAddr == "" {
		slog.Info("realtime_configured", "backend", "hub")
		return realtime.NewHub(), func() {}, nil
	}
	n, err := realtime.NewRedisNotifier(ctx, cfg.Realtime.RedisAddr)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("realtime_configured", "backend", "redis", "addr", cfg.Realtime.RedisAddr)
	return n, func() {
		if err := n.Close(); err != nil {
			slog.Warn("redis_close_failed", "error", err)
		}
	}, nil
}

// newSender returns Resend when a key is configured. Without one, sign-in links are only logged.
func newSender(cfg *config.Config) emailPkg.Sender {
	if cfg.Email.ResendKey != "" {
		slog.Info("email_configured", "provider", "resend")
		return emailPkg.NewResendSender(cfg.Email.ResendKey, cfg.Email.From)
	}
	if cfg.IsProduction() {
		slog.Warn("email_configured", "provider", "noop", "reason", "ROUTINE_EMAIL_RESEND_KEY is not set; sign-in links will only be logged")
	} else {
		slog.Info("email_configured", "provider", "noop")
	}
	return emailPkg.NewNoopSender()
}
