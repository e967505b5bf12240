package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/support-dashboard/internal/api/http"
	"github.com/spec-kit/support-dashboard/internal/api/http/handlers"
	"github.com/spec-kit/support-dashboard/internal/cache"
	"github.com/spec-kit/support-dashboard/internal/cachekey"
	"github.com/spec-kit/support-dashboard/internal/config"
	"github.com/spec-kit/support-dashboard/internal/events"
	"github.com/spec-kit/support-dashboard/internal/mutation"
	"github.com/spec-kit/support-dashboard/internal/observability"
	"github.com/spec-kit/support-dashboard/internal/query"
	"github.com/spec-kit/support-dashboard/internal/retry"
	"github.com/spec-kit/support-dashboard/internal/service"
	"github.com/spec-kit/support-dashboard/internal/transport"
	"github.com/spec-kit/support-dashboard/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	metrics := observability.NewMetrics()

	client := transport.NewClient(transport.Config{
		BaseURL:         cfg.Backend.BaseURL,
		Timeout:         cfg.Backend.Timeout(),
		BreakerFailures: uint32(cfg.Backend.BreakerFailures),
		BreakerOpenFor:  cfg.Backend.BreakerOpenFor(),
	}, logger)
	api := transport.NewAPI(client)

	store := cache.NewStore(cache.Options{
		Policies:   cachePolicies(cfg.Cache),
		Dispatcher: events.NewInMemoryDispatcher(),
		Logger:     logger,
		Metrics:    metrics,
	})
	queries := query.NewRunner(store, query.Options{
		Policy:  retryPolicy(cfg.Retry, cfg.Retry.ReadAttempts),
		Logger:  logger,
		Metrics: metrics,
	})
	defer queries.Close()
	mutations := mutation.NewRunner(store, mutation.Options{
		Policy:  retryPolicy(cfg.Retry, cfg.Retry.MutationAttempts),
		Logger:  logger,
		Metrics: metrics,
	})
	services := service.New(service.Dependencies{API: api, Queries: queries, Mutations: mutations})

	janitor, err := worker.StartCacheJanitor(cfg.Cache.GCSchedule, store, logger)
	if err != nil {
		logger.Fatal("failed to start cache janitor", zap.Error(err))
	}
	defer janitor.Stop()

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:       handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, client, store),
		Tickets:      handlers.NewTicketsHandler(services.Tickets),
		Technicians:  handlers.NewTechniciansHandler(services.Technicians),
		Clients:      handlers.NewClientsHandler(services.Clients),
		Appointments: handlers.NewAppointmentsHandler(services.Appointments),
		Registry:     metrics.Registry(),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func cachePolicies(cfg config.CacheConfig) cache.PolicySet {
	freshness := func(f config.FreshnessConfig) cache.Freshness {
		return cache.Freshness{StaleAfter: f.StaleAfter(), EvictAfter: f.EvictAfter()}
	}
	return cache.PolicySet{
		Default: freshness(cfg.Default),
		Kinds: map[cachekey.Kind]cache.Freshness{
			cachekey.KindTickets:      freshness(cfg.Tickets),
			cachekey.KindClients:      freshness(cfg.Clients),
			cachekey.KindTechnicians:  freshness(cfg.Technicians),
			cachekey.KindAppointments: freshness(cfg.Appointments),
		},
		Operations: map[cachekey.Operation]cache.Freshness{
			cachekey.OpAvailable: freshness(cfg.Availability),
			cachekey.OpWorkload:  freshness(cfg.Availability),
		},
	}
}

func retryPolicy(cfg config.RetryConfig, attempts int) retry.Policy {
	return retry.Policy{
		MaxAttempts: attempts,
		BaseDelay:   cfg.BaseDelay(),
		MaxDelay:    cfg.MaxDelay(),
		Jitter:      0.2,
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
