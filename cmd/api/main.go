package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/tableside-backend/api/controllers"
	"github.com/angelmondragon/tableside-backend/api/routes"
	"github.com/angelmondragon/tableside-backend/internal/bootstrap"
	"github.com/angelmondragon/tableside-backend/internal/cart"
	"github.com/angelmondragon/tableside-backend/internal/catalog"
	"github.com/angelmondragon/tableside-backend/internal/orders"
	"github.com/angelmondragon/tableside-backend/internal/servercalls"
	"github.com/angelmondragon/tableside-backend/internal/sessions"
	"github.com/angelmondragon/tableside-backend/pkg/config"
	"github.com/angelmondragon/tableside-backend/pkg/logger"
	"github.com/angelmondragon/tableside-backend/pkg/metrics"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	platform, err := bootstrap.Open(context.Background(), cfg, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap platform", err)
		os.Exit(1)
	}
	defer func() {
		if err := platform.Close(); err != nil {
			logg.Error(context.Background(), "error closing platform", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	orderingMetrics := metrics.NewOrderingMetrics(registry)

	deps, err := buildDependencies(cfg, logg, platform, orderingMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to build services", err)
		os.Exit(1)
	}
	deps.Metrics = promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":   cfg.App.Env,
		"addr":  addr,
		"store": cfg.Store.Backend,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-sigCtx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
	}
}

func buildDependencies(cfg *config.Config, logg *logger.Logger, platform *bootstrap.Platform, orderingMetrics *metrics.OrderingMetrics) (routes.Dependencies, error) {
	var deps routes.Dependencies

	var cartCache cart.Cache
	var throttle servercalls.Throttle
	if platform.Redis != nil {
		cache, err := cart.NewRedisCache(platform.Redis, cfg.Cart.CacheTTL)
		if err != nil {
			return deps, err
		}
		cartCache = cache
		throttle = servercalls.Throttle{
			Limiter: platform.Redis,
			Limit:   cfg.ServerCalls.Limit,
			Window:  cfg.ServerCalls.Window,
		}
		deps.Idempotency = platform.Redis
		deps.Readiness = append(deps.Readiness, controllers.ReadinessCheck{Name: "redis", Ping: platform.Redis.Ping})
	}
	if platform.DB != nil {
		deps.Readiness = append(deps.Readiness, controllers.ReadinessCheck{Name: "database", Ping: platform.DB.Ping})
	}

	var err error
	deps.Cart, err = cart.NewService(platform.Store, platform.Locker, cart.Options{
		Cache:   cartCache,
		Metrics: orderingMetrics,
		Logger:  logg,
	})
	if err != nil {
		return deps, err
	}
	deps.Orders, err = orders.NewService(platform.Store, platform.Locker, orders.Options{
		Cache:     cartCache,
		Publisher: platform.Publisher,
		Metrics:   orderingMetrics,
		Logger:    logg,
	})
	if err != nil {
		return deps, err
	}
	deps.Sessions, err = sessions.NewService(platform.Store, platform.Locker, sessions.Options{
		Publisher: platform.Publisher,
		Metrics:   orderingMetrics,
		Logger:    logg,
	})
	if err != nil {
		return deps, err
	}
	deps.Catalog, err = catalog.NewService(platform.Store, platform.VoteLocker)
	if err != nil {
		return deps, err
	}
	deps.ServerCalls, err = servercalls.NewService(platform.Store, throttle, logg)
	if err != nil {
		return deps, err
	}
	return deps, nil
}
