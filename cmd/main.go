package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/angeloszaimis/service-router/config"
	"github.com/angeloszaimis/service-router/internal/circuitbreaker"
	"github.com/angeloszaimis/service-router/internal/handler"
	"github.com/angeloszaimis/service-router/internal/healthcheck"
	"github.com/angeloszaimis/service-router/internal/httpserver"
	"github.com/angeloszaimis/service-router/internal/metrics"
	"github.com/angeloszaimis/service-router/internal/ratelimit"
	"github.com/angeloszaimis/service-router/internal/registry"
	"github.com/angeloszaimis/service-router/internal/route"
	"github.com/angeloszaimis/service-router/internal/router"
	"github.com/angeloszaimis/service-router/internal/strategy"
	"github.com/angeloszaimis/service-router/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("err", err))
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, true, cfg.Server.Environment)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	etcdClient, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Registry.Endpoints,
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		log.Error("Failed to connect to registry", slog.Any("err", err))
		os.Exit(1)
	}
	defer etcdClient.Close()

	cacheTTL, err := time.ParseDuration(cfg.Registry.CacheTTL)
	if err != nil {
		log.Error("Invalid cache TTL", slog.Any("err", err))
		os.Exit(1)
	}

	discoverer := registry.NewEtcdDiscoverer(etcdClient, cfg.Registry.Namespace, log)
	cache := registry.NewCache(discoverer, cacheTTL, log)

	collector := metrics.NewCollector(1000, log)
	collector.Start(ctx)

	checker, err := initializeHealthChecker(cfg, cache, log, collector)
	if err != nil {
		log.Error("Failed to initialize health checker", slog.Any("err", err))
		os.Exit(1)
	}
	go checker.Run(ctx)

	rt, err := initializeRouter(cfg, cache, log, collector)
	if err != nil {
		log.Error("Failed to initialize router", slog.Any("err", err))
		os.Exit(1)
	}

	gateway := handler.NewGatewayHandler(log, rt)
	admin := handler.NewAdminHandler(log, rt)

	srv, err := httpserver.New(cfg.Server.Address, setupRouter(gateway, admin))
	if err != nil {
		log.Error("Failed to create server", slog.Any("err", err))
		os.Exit(1)
	}

	srvErrCh := make(chan error, 1)

	go func() {
		srvErrCh <- srv.Start()
	}()

	log.Info("Service router started",
		slog.String("address", cfg.Server.Address),
		slog.Int("routes", len(cfg.Routes)))

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Error("Error during shutdown", slog.Any("err", err))
		}
	case err := <-srvErrCh:
		if err != nil {
			log.Error("Error starting service router", slog.Any("err", err))
			os.Exit(1)
		}
	}
}

func initializeHealthChecker(cfg *config.Config, cache *registry.Cache, log *slog.Logger, collector *metrics.Collector) (*healthcheck.Checker, error) {
	interval, err := time.ParseDuration(cfg.HealthCheck.Interval)
	if err != nil {
		return nil, err
	}

	timeout, err := time.ParseDuration(cfg.HealthCheck.Timeout)
	if err != nil {
		return nil, err
	}

	return healthcheck.New(cache, interval, timeout, cfg.HealthCheck.Path, log, collector), nil
}

func initializeRouter(cfg *config.Config, cache *registry.Cache, log *slog.Logger, collector *metrics.Collector) (*router.Router, error) {
	recoveryTimeout, err := time.ParseDuration(cfg.CircuitBreaker.RecoveryTimeout)
	if err != nil {
		return nil, err
	}

	window, err := time.ParseDuration(cfg.RateLimit.Window)
	if err != nil {
		return nil, err
	}

	table, err := buildRouteTable(cfg)
	if err != nil {
		return nil, err
	}

	breakers := circuitbreaker.NewRegistry(cfg.CircuitBreaker.FailureThreshold, recoveryTimeout)
	limiter := ratelimit.New(cfg.RateLimit.MaxRequests, window)

	return router.New(table, cache, breakers, limiter, strategy.Type(cfg.Strategy.Type), log, collector), nil
}

func buildRouteTable(cfg *config.Config) (*route.Table, error) {
	table := route.NewTable(strategy.Type(cfg.Strategy.Type))

	for _, rc := range cfg.Routes {
		var timeout time.Duration

		if rc.Timeout != "" {
			parsed, err := time.ParseDuration(rc.Timeout)
			if err != nil {
				return nil, err
			}
			timeout = parsed
		}

		rule := route.Rule{
			PathPattern:    rc.Path,
			Service:        rc.Service,
			Method:         rc.Method,
			Match:          route.MatchType(rc.Match),
			Strategy:       strategy.Type(rc.Strategy),
			Weight:         rc.Weight,
			Timeout:        timeout,
			RetryCount:     rc.RetryCount,
			CircuitBreaker: rc.CircuitBreaker,
			RateLimit:      rc.RateLimit,
			AuthRequired:   rc.AuthRequired,
			Priority:       rc.Priority,
		}

		if err := table.Add(rule); err != nil {
			return nil, err
		}
	}

	return table, nil
}
