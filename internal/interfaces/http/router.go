// Package http wires the coordinator's HTTP surface: the per-provider
// OAuth endpoints, health probes, metrics, and the static legal pages.
package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/studioconnect/relay/internal/config"
	"github.com/studioconnect/relay/internal/infrastructure/monitoring"
	"github.com/studioconnect/relay/internal/infrastructure/ratelimit"
	"github.com/studioconnect/relay/internal/interfaces/http/handlers"
	"github.com/studioconnect/relay/pkg/constants"
	"github.com/studioconnect/relay/pkg/logger"
)

// Router owns the gin engine and the HTTP server lifecycle.
type Router struct {
	engine        *gin.Engine
	config        *config.Config
	logger        logger.Logger
	limiter       ratelimit.Limiter
	metrics       *monitoring.Metrics
	tracing       *monitoring.TracingManager
	oauthHandler  *handlers.OAuthHandler
	healthHandler *handlers.HealthHandler
	legalHandler  *handlers.LegalHandler
	server        *http.Server
}

// NewRouter creates the router. Call SetupRoutes (or Start, which calls it)
// before serving.
func NewRouter(
	cfg *config.Config,
	log logger.Logger,
	limiter ratelimit.Limiter,
	metrics *monitoring.Metrics,
	tracing *monitoring.TracingManager,
	oauthHandler *handlers.OAuthHandler,
	healthHandler *handlers.HealthHandler,
	legalHandler *handlers.LegalHandler,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	return &Router{
		engine:        engine,
		config:        cfg,
		logger:        log,
		limiter:       limiter,
		metrics:       metrics,
		tracing:       tracing,
		oauthHandler:  oauthHandler,
		healthHandler: healthHandler,
		legalHandler:  legalHandler,
	}
}

// Engine exposes the underlying gin engine for tests.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// SetupRoutes installs the middleware chain and all routes.
func (r *Router) SetupRoutes() {
	r.engine.Use(handlers.RecoveryMiddleware(r.logger))
	r.engine.Use(handlers.RequestIDMiddleware())
	r.engine.Use(handlers.TracingMiddleware(r.tracing))
	r.engine.Use(handlers.SecurityHeadersMiddleware())
	r.engine.Use(handlers.LoggingMiddleware(r.logger, r.metrics))

	// The desktop client runs outside any browser origin, so the CORS
	// surface is deliberately wide open. No credentials are ever carried
	// on these endpoints.
	corsConfig := cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		MaxAge:        12 * time.Hour,
	}
	r.engine.Use(cors.New(corsConfig))

	// Health and observability routes, not rate limited.
	r.engine.GET("/health", r.healthHandler.Live)
	r.engine.GET("/health/ready", r.healthHandler.Ready)
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if r.config.Monitoring.PprofEnabled {
		pprof.Register(r.engine)
	}

	// Static legal pages linked from the provider app listings.
	legal := r.engine.Group("/legal")
	{
		legal.GET("/privacy", r.legalHandler.Privacy)
		legal.GET("/terms", r.legalHandler.Terms)
	}

	// Per-provider OAuth flow. Counters are shared across providers within
	// an endpoint class, so the limiter middleware hangs off the class, not
	// the route.
	enabled := r.config.RateLimit.Enabled
	provider := r.engine.Group("/:provider")
	{
		provider.POST("/init",
			handlers.RateLimitMiddleware(r.limiter, constants.EndpointInit, enabled, r.metrics, r.logger),
			r.oauthHandler.Init)
		provider.GET("/callback",
			handlers.RateLimitMiddleware(r.limiter, constants.EndpointCallback, enabled, r.metrics, r.logger),
			r.oauthHandler.Callback)
		provider.GET("/poll",
			handlers.RateLimitMiddleware(r.limiter, constants.EndpointPoll, enabled, r.metrics, r.logger),
			r.oauthHandler.Poll)
		provider.POST("/exchange",
			handlers.RateLimitMiddleware(r.limiter, constants.EndpointExchange, enabled, r.metrics, r.logger),
			r.oauthHandler.Exchange)
	}

	r.engine.HandleMethodNotAllowed = true
	r.engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{
			"error":          "method_not_allowed",
			"allowedMethods": allowedMethodsFor(c.Request.URL.Path),
		})
	})

	r.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "not_found",
			"path":  c.Request.URL.Path,
		})
	})
}

// allowedMethodsFor reports which methods a known route accepts, for the
// 405 response body. Unrecognized paths fall back to the full surface.
func allowedMethodsFor(path string) []string {
	switch {
	case strings.HasSuffix(path, "/init"), strings.HasSuffix(path, "/exchange"):
		return []string{"POST", "OPTIONS"}
	case strings.HasSuffix(path, "/callback"), strings.HasSuffix(path, "/poll"):
		return []string{"GET", "OPTIONS"}
	default:
		return []string{"GET", "POST", "OPTIONS"}
	}
}

// Start sets up routes and serves until the listener fails or Stop is
// called.
func (r *Router) Start() error {
	r.SetupRoutes()

	addr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	r.server = &http.Server{
		Addr:           addr,
		Handler:        r.engine,
		ReadTimeout:    time.Duration(r.config.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(r.config.Server.WriteTimeout) * time.Second,
		IdleTimeout:    time.Duration(r.config.Server.IdleTimeout) * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	r.logger.Info(context.Background(), "starting HTTP server", logger.Fields{"address": addr})

	if err := r.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop shuts the server down gracefully.
func (r *Router) Stop(ctx context.Context) error {
	if r.server == nil {
		return nil
	}
	r.logger.Info(ctx, "stopping HTTP server", nil)
	return r.server.Shutdown(ctx)
}
