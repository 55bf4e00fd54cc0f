package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"authsvc/internal/config"
	"authsvc/internal/mailqueue"
	"authsvc/internal/observability/logging"
	"authsvc/internal/observability/metrics"
	"authsvc/internal/ratelimit"
	"authsvc/internal/service"
	impl "authsvc/internal/service/impl"
	"authsvc/internal/store"
	httpx "authsvc/internal/transport/http"
	"authsvc/pkg/db"

	"github.com/redis/go-redis/v9"
)

const shutdownGrace = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(logging.Config{
		ServiceName: "auth",
		Environment: cfg.Environment,
		Level:       cfg.LogLevel,
	})
	slog.SetDefault(logger)
	metrics.MustRegister("auth")

	if err := run(cfg); err != nil {
		logger.Error("auth service stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1) DB
	gdb, err := db.OpenGorm(ctx, db.Config{DSN: cfg.DatabaseURL, LogSQL: cfg.LogSQL})
	if err != nil {
		return err
	}
	defer func() { _ = db.Close(gdb) }()

	st := store.New(gdb)
	if err := st.Migrate(ctx); err != nil {
		return err
	}

	// 2) Services
	pw := impl.NewPasswordServiceArgon2id(impl.DefaultArgon2Params())
	ts, err := impl.NewTokenServiceHS256(impl.TokenConfig{
		Issuer:          cfg.Issuer,
		SessionTTL:      cfg.SessionTTL,
		VerificationTTL: cfg.VerificationTTL,
		SigningKey:      []byte(cfg.SigningKey),
	})
	if err != nil {
		return err
	}

	pub, err := mailqueue.NewPublisher(cfg.BrokerURL)
	if err != nil {
		return err
	}
	if c, ok := pub.(io.Closer); ok {
		defer func() { _ = c.Close() }()
	}
	mail := mailqueue.NewDispatcher(pub, mailqueue.Config{
		Queue:    cfg.EmailQueue,
		Timeout:  cfg.DispatchTimeout,
		Attempts: cfg.DispatchAttempts,
	})

	var limiter service.LoginLimiter
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return err
		}
		rdb := redis.NewClient(opts)
		defer func() { _ = rdb.Close() }()
		limiter = ratelimit.NewRedisLimiter(rdb, ratelimit.Config{
			MaxAttempts: cfg.LoginRateLimit,
			Window:      cfg.LoginRateWindow,
		})
	}

	as := impl.NewAuthServiceImpl(st.Accounts(pw), ts, mail, limiter, impl.AuthConfig{AppURL: cfg.AppURL})

	// 3) HTTP
	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: httpx.NewRouter(as, httpx.RouterConfig{
			CORSOrigins:  cfg.CORSOrigins,
			CookieSecure: cfg.CookieSecure,
			IPRateLimit:  100,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("auth service listening",
			"addr", srv.Addr,
			"issuer", cfg.Issuer,
			"broker", pub.Backend(),
			"login_limiter", limiter != nil,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down", "grace", shutdownGrace)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
