package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/weiawesome/wes-chat-room/internal/config"
	"github.com/weiawesome/wes-chat-room/internal/directory"
	"github.com/weiawesome/wes-chat-room/internal/events"
	"github.com/weiawesome/wes-chat-room/internal/handler"
	"github.com/weiawesome/wes-chat-room/internal/identity"
	"github.com/weiawesome/wes-chat-room/internal/registry"
	"github.com/weiawesome/wes-chat-room/internal/repository"
	"github.com/weiawesome/wes-chat-room/internal/roomlog"
	"github.com/weiawesome/wes-chat-room/pkg/database"
	"github.com/weiawesome/wes-chat-room/pkg/jwt"
	pkglog "github.com/weiawesome/wes-chat-room/pkg/log"
	"github.com/weiawesome/wes-chat-room/pkg/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Initialize structured logger
	if cfg.Log.ServiceName == "" {
		cfg.Log.ServiceName = "chat-room"
	}
	pkglog.Init(cfg.Log)
	logger := pkglog.L()

	logger.Info().Str("addr", cfg.Server.Addr()).Str("db_driver", cfg.Database.Driver).Msg("starting chat-room")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Message store
	db, err := database.New(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	repo := repository.NewGormMessageRepository(db)
	if err := repo.Migrate(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate message store")
	}

	// Optional Redis: room registry and identity directory cache
	var (
		redisClient *redis.Client
		reg         registry.Registry = registry.NoopRegistry{}
		dir         directory.Directory
	)
	dir = directory.NewGormDirectory(db)

	if cfg.Redis.Address != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		pingCancel()

		if err != nil {
			logger.Warn().Err(err).Str("address", cfg.Redis.Address).Msg("redis unreachable, registry and directory cache disabled")
			redisClient.Close()
			redisClient = nil
		} else {
			reg = registry.NewRedisRegistry(redisClient, registry.Config{
				Prefix:            cfg.Redis.RegistryPrefix,
				KeyTTL:            cfg.Redis.KeyTTL,
				HeartbeatInterval: cfg.Redis.HeartbeatInterval,
			}, cfg.Server.AdvertiseAddress)
			dir = directory.NewCachedDirectory(dir, directory.NewRedisCache(redisClient, cfg.Redis.DirectoryPrefix, cfg.Redis.DirectoryTTL))
			logger.Info().Str("address", cfg.Redis.Address).Msg("redis connected")
		}
	}

	if err := reg.StartHeartbeat(ctx); err != nil {
		logger.Warn().Err(err).Msg("failed to start registry heartbeat")
	}

	// Message events
	publisher, err := events.New(cfg.Kafka)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to create kafka producer, message events disabled")
		publisher = events.NoopPublisher{}
	}

	// Client assets
	assetStore, err := storage.New(ctx, cfg.Assets.Storage())
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Assets.Driver).Msg("failed to create asset storage")
	}

	tokens, err := jwt.NewManager(cfg.Token.Secret, cfg.Token.TTL, cfg.Token.Issuer)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create token manager")
	}
	if cfg.Token.Secret == "" {
		logger.Warn().Msg("token secret not set, using a random per-process secret")
	}

	// Rooms
	rooms := roomlog.NewManager(repo, publisher, reg, cfg.Room)
	rooms.Start(ctx)

	// Handlers
	resolver := identity.NewResolver(cfg.Identity.Config, repo)
	assets := handler.NewAssetHandler(assetStore, cfg.Assets.Index)
	ws := handler.NewWSHandler(rooms, cfg.WebSocket)
	router := handler.NewRouter(handler.Handlers{
		Room: handler.NewRoomHandler(resolver, dir, ws, assets, cfg.Server.BaseURL, handler.CookieConfig{
			Name:   cfg.Identity.CookieName,
			MaxAge: cfg.Identity.CookieMaxAge,
		}),
		Token:  handler.NewTokenHandler(tokens, dir),
		API:    handler.NewAPIHandler(rooms),
		Assets: assets,
	})

	// No WriteTimeout: websocket connections are long-lived.
	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           pkglog.HTTPMiddleware(logger)(router),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", server.Addr).Msg("chat-room listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info().Msg("shutting down chat-room")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server error")
	}

	// 1. close every room and its sockets
	rooms.Stop()

	// 2. drop registry keys owned by this instance
	if err := reg.Close(); err != nil {
		logger.Warn().Err(err).Msg("failed to close registry")
	}

	// 3. flush pending message events
	if err := publisher.Close(); err != nil {
		logger.Warn().Err(err).Msg("failed to close event publisher")
	}

	if redisClient != nil {
		redisClient.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	logger.Info().Msg("chat-room stopped")
}
