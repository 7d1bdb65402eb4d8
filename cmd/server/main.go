package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/studioconnect/relay/internal/application/service"
	"github.com/studioconnect/relay/internal/config"
	"github.com/studioconnect/relay/internal/domain/session"
	"github.com/studioconnect/relay/internal/infrastructure/audit"
	"github.com/studioconnect/relay/internal/infrastructure/kv"
	"github.com/studioconnect/relay/internal/infrastructure/monitoring"
	"github.com/studioconnect/relay/internal/infrastructure/provider"
	"github.com/studioconnect/relay/internal/infrastructure/ratelimit"
	apphttp "github.com/studioconnect/relay/internal/interfaces/http"
	"github.com/studioconnect/relay/internal/interfaces/http/handlers"
	"github.com/studioconnect/relay/pkg/logger"
)

func main() {
	startupLogger, _ := monitoring.NewZapLogger(&config.LogConfig{Level: "info"})

	loader := config.NewLoader(startupLogger)
	cfg, err := loader.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	appLogger, err := monitoring.NewZapLogger(&cfg.Log)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracing, err := monitoring.NewTracingManager(&cfg.Tracing, appLogger)
	if err != nil {
		appLogger.Fatal(ctx, "failed to initialize tracing", err)
	}

	store, closeStore, err := buildStore(cfg, appLogger)
	if err != nil {
		appLogger.Fatal(ctx, "failed to initialize KV store", err)
	}
	defer closeStore()

	limiter, err := ratelimit.NewFixedWindowLimiter(store, &cfg.RateLimit, appLogger)
	if err != nil {
		appLogger.Fatal(ctx, "failed to initialize rate limiter", err)
	}

	// Pick up rate-limit table changes without a restart.
	loader.Watch(func(next *config.Config) {
		limiter.SetLimits(next.RateLimit.Limits)
	})

	sessions := session.NewStore(store, cfg.Session.TTLDuration(), appLogger)

	var secrets provider.SecretSource
	if cfg.Vault.Enabled {
		secrets, err = provider.NewVaultSecretSource(&cfg.Vault, appLogger)
		if err != nil {
			appLogger.Fatal(ctx, "failed to initialize vault client", err)
		}
	}
	registry := provider.NewRegistry(ctx, cfg.Providers, secrets, appLogger)
	exchanger := provider.NewClient(appLogger)

	var trail audit.Trail = audit.NewNoopTrail()
	if cfg.Audit.Enabled {
		trail = audit.NewKafkaTrail(&cfg.Audit, appLogger)
	}
	defer trail.Close()

	metrics := monitoring.NewMetrics(prometheus.DefaultRegisterer)

	oauthService := service.NewOAuthService(sessions, registry, exchanger, trail, metrics, appLogger)

	oauthHandler := handlers.NewOAuthHandler(oauthService, appLogger)
	healthHandler := handlers.NewHealthHandler(store, appLogger)
	legalHandler := handlers.NewLegalHandler()

	router := apphttp.NewRouter(cfg, appLogger, limiter, metrics, tracing, oauthHandler, healthHandler, legalHandler)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(router.Start)
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := router.Stop(shutdownCtx); err != nil {
			appLogger.Error(shutdownCtx, "HTTP server shutdown failed", err)
		}
		if err := tracing.Shutdown(shutdownCtx); err != nil {
			appLogger.Error(shutdownCtx, "tracing shutdown failed", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		appLogger.Fatal(context.Background(), "server exited", err)
	}
	appLogger.Info(context.Background(), "server stopped", logger.Fields{})
}

// buildStore selects the configured KV backend.
func buildStore(cfg *config.Config, log logger.Logger) (kv.Store, func(), error) {
	if cfg.Store.Backend == "memory" {
		log.Info(context.Background(), "using in-memory KV store", nil)
		return kv.NewMemoryStore(), func() {}, nil
	}

	client, err := kv.NewRedisClient(&cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	return kv.NewRedisStore(client), func() { _ = client.Close() }, nil
}
