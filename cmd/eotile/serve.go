package main

import (
	"context"
	"net/http"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"eotile/internal/api"
	"eotile/internal/model"
	"eotile/internal/postgres"
	"eotile/internal/redis"
	"eotile/internal/service/storage"
	"eotile/internal/service/tile"
	"eotile/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	shutdownTimeout     = 15 * time.Second
	memoryStatsInterval = 30 * time.Second
	tileShards          = 16
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Load the tile catalog and serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.load(cmd); err != nil {
				return err
			}
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().String("port", "", "Listen address, e.g. :8080")
	_ = a.conf.BindPFlag("PORT", cmd.Flags().Lookup("port"))
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(contextOrBackground(ctx), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Init(a.cfg.DBUrl)
	if err != nil {
		return err
	}
	defer closeConnections()

	// Redis only caches rendered features; the API works without it
	var cache tile.FeatureCache
	if client, err := redis.Init(a.cfg.RedisUrl); err != nil {
		zap.S().Warnf("Redis unavailable, serving without feature cache: %v", err)
	} else {
		cache = redis.NewFootprintCache(client, a.cfg.CacheTTL)
	}

	tiles := tile.NewTileService(
		storage.NewShardedMemoryStorage[string, *model.Tile](tileShards, nil),
		postgres.NewTileRepository(db),
		cache,
	)
	if err := tiles.InitService(ctx); err != nil {
		return errors.WithMessage(err, "initialize tile service")
	}

	workersDone := worker.StartAllWorkers(ctx, tiles, a.cfg.PersistInterval)
	reportMemoryStats(ctx)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	api.SetupRouter(r, a.cfg.Port, tiles)

	srv := &http.Server{Addr: a.cfg.Port, Handler: r}
	serveErr := make(chan error, 1)
	go func() {
		zap.S().Infof("Listening on %s", a.cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		stop()
		<-workersDone
		return errors.Wrap(err, "http server")
	case <-ctx.Done():
	}

	zap.S().Info("Shutdown signal received, stopping server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.S().Errorf("Error shutting down server: %v", err)
	}

	<-workersDone
	return nil
}

func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

func reportMemoryStats(ctx context.Context) {
	ticker := time.NewTicker(memoryStatsInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				var m runtime.MemStats
				runtime.ReadMemStats(&m)
				zap.S().Debugf("Alloc = %v MiB, TotalAlloc = %v MiB, Sys = %v MiB, NumGC = %v",
					m.Alloc/1024/1024, m.TotalAlloc/1024/1024, m.Sys/1024/1024, m.NumGC)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func closeConnections() {
	if err := postgres.Close(); err != nil {
		zap.S().Errorf("Error closing PostgreSQL connection: %v", err)
	}

	if err := redis.Close(); err != nil {
		zap.S().Errorf("Error closing Redis connection: %v", err)
	}

	zap.S().Info("PostgreSQL and Redis connections closed")
}
