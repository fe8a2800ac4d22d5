// @title        Creator Community API
// @version      1.0
// @description  Accounts, profiles and media posts for a creator community.
// @BasePath     /
//
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
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

	"github.com/creatorspace/community-api/internal/api"
	"github.com/creatorspace/community-api/internal/api/handler"
	"github.com/creatorspace/community-api/internal/core/auth"
	"github.com/creatorspace/community-api/internal/core/ports"
	"github.com/creatorspace/community-api/internal/core/service"
	"github.com/creatorspace/community-api/internal/infrastructure/db/mongo"
	"github.com/creatorspace/community-api/internal/infrastructure/db/redis"
	"github.com/creatorspace/community-api/internal/infrastructure/queue"
	"github.com/creatorspace/community-api/internal/infrastructure/storage/local"
	"github.com/creatorspace/community-api/internal/pkg/config"
	"github.com/creatorspace/community-api/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "community-api",
	})

	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}

	// --- Storage ---
	client, db, err := mongo.Connect(ctx, mongo.Config{
		URI:        cfg.Mongo.URI,
		Database:   cfg.Mongo.Database,
		Retries:    cfg.Mongo.Retries,
		RetryDelay: cfg.Mongo.RetryDelay,
	}, logger.Component("mongo"))
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(dctx)
	}()
	if err := mongo.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	health := map[string]handler.Pinger{"mongodb": mongo.NewPinger(client)}

	var limiter ports.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		rdb, err := redis.Connect(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
			Timeout:  cfg.Redis.Timeout,
		})
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, rate limiting disabled")
		} else {
			defer rdb.Close()
			limiter = redis.NewRateLimiter(rdb)
			health["redis"] = redis.NewPinger(rdb)
		}
	}

	media, err := local.NewStore(cfg.Uploads.Dir)
	if err != nil {
		return err
	}
	cleaner := queue.NewMediaCleaner(0, media, logger.Component("media-cleaner"))
	cleaner.Start(ctx)

	// --- Services ---
	users := mongo.NewUserRepository(db)
	posts := mongo.NewPostRepository(db)

	router := api.NewRouter(api.Deps{
		Log:         logger.Component("http"),
		Development: cfg.IsDevelopment(),
		Tokens:      tokens,
		Auth: service.NewAuthService(users, auth.NewHasher(cfg.Auth.BcryptCost), tokens,
			cfg.PasswordMinLength(), logger.Component("auth")),
		Users:          service.NewUserService(users, logger.Component("users")),
		Posts:          service.NewPostService(posts, media, cleaner, cfg.Uploads.MaxBytes, logger.Component("posts")),
		Limiter:        limiter,
		Health:         health,
		Cookie:         handler.CookieOptions{Secure: cfg.HTTP.CookieSecure},
		FrontendOrigin: cfg.HTTP.FrontendOrigin,
		UploadDir:      media.Root(),
		MaxUploadBytes: cfg.Uploads.MaxBytes,
		TrustProxy:     cfg.HTTP.TrustProxy,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Str("env", cfg.Env).Msg("API server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("server listen: %w", err)
	}
	log.Info().Msg("shutting down API server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info().Msg("API server stopped gracefully")
	return nil
}
