package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"rentflow/auth"
	"rentflow/car"
	"rentflow/config"
	"rentflow/db"
	"rentflow/httpapi"
	"rentflow/reservation"
	"rentflow/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, cfg.JWTSecret, auth.Policies{
		RequireEmailShape:     cfg.Policies.RequireEmailShape,
		RequireStrongPassword: cfg.Policies.RequireStrongPassword,
	})
	if cfg.RedisAddr != "" {
		authService = authService.WithRevocationList(auth.NewRevocationList(cfg.RedisAddr, cfg.RedisPassword))
		logger.Info("token revocation enabled", "addr", cfg.RedisAddr)
	}

	reservationRepo := reservation.NewRepository(pool)
	ledgerService := reservation.NewService(pool, reservationRepo, reservation.Policies{
		SingleActiveReservation: cfg.Policies.SingleActiveReservation,
	})

	carRepo := car.NewRepository(pool)
	carService := car.NewService(pool, carRepo, reservationRepo, cfg.Policies.CascadeOnCarDelete)

	var images storage.ObjectStore
	if cfg.MinioEndpoint != "" {
		store, err := storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			return err
		}
		images = store
		logger.Info("image storage enabled", "endpoint", cfg.MinioEndpoint, "bucket", cfg.MinioBucket)
	}

	server := httpapi.NewServer(httpapi.Config{
		Auth:              authService,
		Cars:              carService,
		Ledger:            ledgerService,
		Images:            images,
		AllowedExtensions: cfg.AllowedImageExtensions,
		Logger:            logger,
	})

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.Router(cfg.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("shutting down")
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
