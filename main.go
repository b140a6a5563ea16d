package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"rodroyale/auth"
	"rodroyale/cache"
	"rodroyale/config"
	"rodroyale/handlers"
	"rodroyale/storage"
	"rodroyale/store"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := initStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	rdb, err := initRedis(ctx, cfg)
	if err != nil {
		return err
	}
	defer rdb.Close()

	images, err := initMinio(ctx, cfg)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	tokens := auth.NewTokens(cfg.SecretKey, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, cfg.ResetTokenTTL)
	h := handlers.New(cfg, st, cache.New(rdb, cfg.CacheTTL), images, tokens)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h.Router(reg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", srv.Addr, "prefix", cfg.APIPrefix, "environment", cfg.Environment)
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

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func initStore(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	st, err := store.Open(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := st.Migrate(ctx); err != nil {
			st.Close()
			return nil, err
		}
	}
	slog.Info("connected to mysql")
	return st, nil
}

func initRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, err
	}
	slog.Info("connected to redis", "addr", cfg.RedisAddr)
	return rdb, nil
}

func initMinio(ctx context.Context, cfg *config.Config) (*storage.MinioStore, error) {
	images, err := storage.NewMinio(cfg)
	if err != nil {
		return nil, err
	}
	if err := images.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	slog.Info("connected to minio", "endpoint", cfg.MinioEndpoint, "bucket", cfg.MinioBucket)
	return images, nil
}
