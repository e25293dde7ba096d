// Command jobtrack-server starts the JobTrack HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/jobtrack/internal/config"
	"github.com/and161185/jobtrack/internal/limiter"
	"github.com/and161185/jobtrack/internal/metrics"
	"github.com/and161185/jobtrack/internal/migrate"
	"github.com/and161185/jobtrack/internal/repository"
	"github.com/and161185/jobtrack/internal/repository/memory"
	"github.com/and161185/jobtrack/internal/repository/postgres"
	httpserver "github.com/and161185/jobtrack/internal/server/http"
	"github.com/and161185/jobtrack/internal/service"
	"github.com/and161185/jobtrack/internal/token"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

const shutdownTimeout = 5 * time.Second

func newLogger(cfg *config.Server) (*zap.Logger, error) {
	if cfg.Development() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

type stores struct {
	users repository.UserRepository
	apps  repository.ApplicationRepository
	lim   limiter.Limiter
	close func()
}

// openStores runs migrations and connects to Postgres, or falls back to
// in-memory storage when no DSN is configured.
func openStores(ctx context.Context, cfg *config.Server, log *zap.Logger) (*stores, error) {
	if cfg.DSN == "" {
		log.Warn("DATABASE_URL not set, data is kept in memory")
		db := memory.New()
		return &stores{
			users: db.Users(),
			apps:  db.Applications(),
			lim:   limiter.NewMemory(limiter.DefaultPolicy),
			close: func() {},
		}, nil
	}

	if err := migrate.Up(ctx, cfg.DSN); err != nil {
		return nil, fmt.Errorf("migrate up: %w", err)
	}
	if v, err := migrate.Version(ctx, cfg.DSN); err == nil {
		log.Info("schema ready", zap.Int64("version", v))
	}

	db, err := postgres.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &stores{
		users: postgres.NewUserRepo(db),
		apps:  postgres.NewApplicationRepo(db),
		lim:   limiter.NewPG(db.Pool, limiter.DefaultPolicy),
		close: db.Close,
	}, nil
}

// main parses configuration, prepares storage, and serves until SIGINT/SIGTERM.
func main() {
	cfg, err := config.LoadServer(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Addr),
		zap.String("basePath", cfg.BasePath),
	)

	tokens, err := token.New([]byte(cfg.JWTSecret))
	if err != nil {
		logger.Fatal("token service", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("storage", zap.Error(err))
	}
	defer st.close()

	authSvc := service.NewAuthService(st.users, tokens, st.lim)
	appSvc := service.NewApplicationService(st.apps)

	api := httpserver.New(authSvc, appSvc, tokens, metrics.New(), logger, httpserver.Options{
		BasePath:    cfg.BasePath,
		RateRPS:     cfg.RateRPS,
		RateBurst:   cfg.RateBurst,
		CORSOrigins: cfg.Origins(),
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if cfg.TLSCert != "" {
			logger.Info("listening (TLS)", zap.String("addr", cfg.Addr))
			errCh <- srv.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey)
			return
		}
		logger.Info("listening", zap.String("addr", cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("graceful shutdown timed out", zap.Error(err))
			_ = srv.Close()
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			st.close()
			os.Exit(1)
		}
	}

	logger.Info("shutdown complete")
}
