package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"pet-clinic-appointments/internal/adapters/auth/jwtverifier"
	"pet-clinic-appointments/internal/adapters/auth/remote"
	"pet-clinic-appointments/internal/adapters/lock/memlock"
	"pet-clinic-appointments/internal/adapters/lock/redislock"
	pg "pet-clinic-appointments/internal/adapters/storage/postgres"
	"pet-clinic-appointments/internal/config"
	"pet-clinic-appointments/internal/middleware"
	"pet-clinic-appointments/internal/platform/logger"
	"pet-clinic-appointments/internal/platform/metrics"
	"pet-clinic-appointments/internal/ports/auth"
	"pet-clinic-appointments/internal/ports/lock"
	"pet-clinic-appointments/internal/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: logger.ParseFormat(cfg.Log.Format),
		App:    cfg.Log.App,
	})

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", map[string]any{"error": err})
		os.Exit(1)
	}
}

func run(cfg config.Config, log logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	verifier, err := newVerifier(cfg.Auth)
	if err != nil {
		return err
	}
	if verifier == nil {
		log.Warn("auth in dev mode: X-Debug-User-ID headers are trusted", nil)
	}

	var db *sql.DB
	if cfg.DB.DSN != "" {
		db, err = pg.Open(cfg.DB.DSN, pg.PoolConfig{
			MaxOpenConns:    cfg.DB.MaxOpenConns,
			MaxIdleConns:    cfg.DB.MaxIdleConns,
			ConnMaxIdleTime: cfg.DB.ConnMaxIdleTime,
			ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
		})
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer db.Close()

		if cfg.DB.AutoMigrate {
			if err := pg.EnsureSchema(ctx, db); err != nil {
				return fmt.Errorf("ensure schema: %w", err)
			}
		}
		log.Info("storage: postgres", nil)
	} else {
		log.Info("storage: in-memory", nil)
	}

	var locker lock.Locker = memlock.New()
	if cfg.Redis.URL != "" {
		client, err := redislock.Open(ctx, cfg.Redis.URL)
		if err != nil {
			return err
		}
		defer client.Close()
		locker = redislock.New(client, cfg.Redis.LockTTL, log)
		log.Info("locks: redis", nil)
	}

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.RPS > 0 {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}

	handler := router.NewRouter(router.Options{
		AuthVerifier: verifier,
		DB:           db,
		Locker:       locker,
		Metrics:      metrics.New(),
		RateLimiter:  limiter,
		Logger:       log,
	})

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{"addr": srv.Addr, "auth_mode": cfg.Auth.Mode})
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

	log.Info("shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newVerifier devuelve nil en modo dev.
func newVerifier(cfg config.AuthConfig) (auth.AuthVerifier, error) {
	switch cfg.Mode {
	case config.AuthModeJWT:
		jc := jwtverifier.Config{
			Secret:   cfg.Secret,
			Issuer:   cfg.Issuer,
			Audience: cfg.Audience,
		}
		if cfg.PublicKeyFile != "" {
			pem, err := os.ReadFile(cfg.PublicKeyFile)
			if err != nil {
				return nil, fmt.Errorf("read jwt public key: %w", err)
			}
			jc.PublicKeyPEM = pem
		}
		return jwtverifier.New(jc)
	case config.AuthModeRemote:
		return remote.New(remote.Config{
			BaseURL: cfg.RemoteURL,
			APIKey:  cfg.RemoteAPIKey,
			Timeout: cfg.RemoteTimeout,
		})
	default:
		return nil, nil
	}
}
