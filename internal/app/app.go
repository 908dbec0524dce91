// Package app wires configuration, storage and services for the binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/comitanigiacomo/blocktracker-engine/internal/adapters/cache"
	"github.com/comitanigiacomo/blocktracker-engine/internal/adapters/database"
	adapterHTTP "github.com/comitanigiacomo/blocktracker-engine/internal/adapters/handler/http"
	"github.com/comitanigiacomo/blocktracker-engine/internal/adapters/repository"
	"github.com/comitanigiacomo/blocktracker-engine/internal/config"
	"github.com/comitanigiacomo/blocktracker-engine/internal/core/domain"
	"github.com/comitanigiacomo/blocktracker-engine/internal/core/services"
)

type App struct {
	Config config.Config
	DB     *sqlx.DB
	Redis  *redis.Client

	Sessions *services.SessionService
	Stats    *services.StatsService
	Badges   *services.BadgeService
	Transfer *services.TransferService
	Tokens   *services.TokenService
}

// New opens the store, connects Redis when enabled and builds the services.
// A Redis failure is logged and the app runs without cache.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	log.Printf("[DB] Opening %s store", cfg.DBDriver)

	db, err := database.Open(ctx, cfg.DBDriver, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	a := &App{Config: cfg, DB: db}

	store := repository.NewSQLSessionRepository(db)
	badgeRepo := repository.NewSQLBadgeRepository(db)

	var sessionRepo domain.SessionRepository = store

	if cfg.RedisEnabled {
		rdb, err := cache.NewRedisClient(ctx, cache.Options{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.Printf("[CACHE] Redis unavailable, running without cache: %v", err)
		} else {
			a.Redis = rdb
			sessionRepo = repository.NewCachedSessionRepository(sessionRepo, rdb)
		}
	}

	// Badge evaluation always reads the sessions from the database, never from the cache.
	a.Badges = services.NewBadgeService(nil, badgeRepo, store)
	a.Sessions = services.NewSessionService(sessionRepo, a.Badges)
	a.Stats = services.NewStatsService(sessionRepo)
	a.Transfer = services.NewTransferService(sessionRepo, badgeRepo, a.Badges)
	a.Tokens = services.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL)

	return a, nil
}

func (a *App) Router(startTime time.Time) *gin.Engine {
	return adapterHTTP.NewRouter(adapterHTTP.RouterDependencies{
		SessionHandler:  adapterHTTP.NewSessionHandler(a.Sessions),
		StatsHandler:    adapterHTTP.NewStatsHandler(a.Stats),
		BadgeHandler:    adapterHTTP.NewBadgeHandler(a.Badges),
		TransferHandler: adapterHTTP.NewTransferHandler(a.Transfer),
		TokenValidator:  a.Tokens,
		DB:              a.DB,
		Redis:           a.Redis,
		RateLimit:       a.Config.RateLimit,
		RateLimitWindow: a.Config.RateLimitWindow,
		StartTime:       startTime,
	})
}

// Serve runs the HTTP API until ctx is cancelled, then shuts down gracefully.
func (a *App) Serve(ctx context.Context) error {
	if err := a.Config.ValidateServer(); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         ":" + a.Config.Port,
		Handler:      a.Router(time.Now()),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Blocktracker engine running on http://localhost:%s", a.Config.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("Stop signal received. Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	log.Println("Server stopped gracefully.")
	return nil
}

func (a *App) Close() error {
	var errs []error
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}
