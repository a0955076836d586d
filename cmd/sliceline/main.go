package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sliceline/sliceline/internal/app"
	"github.com/sliceline/sliceline/internal/auth"
	"github.com/sliceline/sliceline/internal/franchise"
	"github.com/sliceline/sliceline/internal/observability"
	"github.com/sliceline/sliceline/internal/orders"
	"github.com/sliceline/sliceline/internal/platform/db"
	"github.com/sliceline/sliceline/internal/users"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	metrics := observability.NewMetrics()

	// The pool initializes lazily on first acquire, so the bootstrap closure
	// may capture the repository assigned just below.
	var userRepo *users.PGRepository
	pool := db.New(db.Config{DSN: cfg.PGDSN, Schema: cfg.DBSchema}, logger, func(ctx context.Context, conn db.Conn, schemaExisted bool) error {
		return app.Bootstrap(ctx, conn, schemaExisted, logger, cfg, userRepo)
	})
	defer func() {
		if err := pool.CloseAll(context.Background()); err != nil {
			logger.Warn("close connections", slog.Any("error", err))
		}
	}()

	creds := auth.Credentials{}
	userRepo = users.NewRepository(pool, logger, creds)
	userService := users.NewService(userRepo)

	sessions := auth.NewSessionRegistry(pool, logger)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("redis ping", slog.Any("error", err))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
		sessions = sessions.WithCache(redisClient, cfg.SessionCacheTTL)
	}

	codec := auth.NewCodec(cfg.JWTSecret)
	authService := auth.NewService(codec, sessions, userService, metrics, logger)
	authMiddleware := auth.NewMiddleware(authService)
	authHandler := auth.NewHandler(logger, authService, userService)

	franchiseRepo := franchise.NewRepository(pool, logger)
	franchiseService := franchise.NewService(franchiseRepo)
	franchiseHandler := franchise.NewHandler(logger, franchiseService)

	orderRepo := orders.NewRepository(pool, logger, cfg.ListPerPage)
	orderService := orders.NewService(orderRepo)
	var fulfiller orders.Fulfiller
	if cfg.FactoryURL != "" {
		fulfiller = orders.NewFactoryClient(cfg.FactoryURL, cfg.FactoryAPIKey, metrics)
	}
	orderHandler := orders.NewHandler(logger, orderService, fulfiller, metrics)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		AuthMiddleware:   authMiddleware,
		AuthHandler:      authHandler,
		FranchiseHandler: franchiseHandler,
		OrderHandler:     orderHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
