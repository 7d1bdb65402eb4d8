package handlers

import (
	"context"
	goerrors "errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/studioconnect/relay/internal/application/dto"
	"github.com/studioconnect/relay/internal/infrastructure/monitoring"
	"github.com/studioconnect/relay/internal/infrastructure/ratelimit"
	"github.com/studioconnect/relay/pkg/constants"
	apperrors "github.com/studioconnect/relay/pkg/errors"
	"github.com/studioconnect/relay/pkg/logger"
)

// RequestIDMiddleware assigns each request a correlation id, exposed to the
// client as X-Request-ID and to loggers through the request context.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx := context.WithValue(c.Request.Context(), constants.ContextKeyRequestID, requestID)
		c.Request = c.Request.WithContext(ctx)
		c.Writer.Header().Set("X-Request-ID", requestID)
		c.Next()
	}
}

// SecurityHeadersMiddleware sets the caching and sniffing headers every
// relay response carries. Codes and tokens transit these responses, so
// nothing may be cached.
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Cache-Control", "no-store")
		c.Writer.Header().Set("X-Content-Type-Options", "nosniff")
		c.Next()
	}
}

// TracingMiddleware opens a server span per request. The span name uses the
// route template so all providers' requests to one endpoint share a name.
func TracingMiddleware(tracing *monitoring.TracingManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		ctx, span := tracing.StartSpan(c.Request.Context(), c.Request.Method+" "+route)
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// LoggingMiddleware logs each request and feeds the latency histogram.
func LoggingMiddleware(log logger.Logger, metrics *monitoring.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		metrics.RecordRequest(c.Request.Method, route, strconv.Itoa(status), latency)

		log.Info(c.Request.Context(), "request processed", logger.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"latency_ms": latency.Milliseconds(),
			"client_ip":  c.ClientIP(),
		})
	}
}

// RecoveryMiddleware converts panics into a safe generic 500. No internal
// detail reaches the client.
func RecoveryMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error(c.Request.Context(), "panic recovered", goerrors.New("panic"), logger.Fields{
					"panic": r,
					"path":  c.Request.URL.Path,
				})
				dto.SendError(c, apperrors.ErrInternal())
			}
		}()
		c.Next()
	}
}

// RateLimitMiddleware enforces one endpoint class's per-IP budget: probe
// first, reject over-budget requests with 429, and count each accepted
// request exactly once. Rejected requests are never counted.
func RateLimitMiddleware(
	limiter ratelimit.Limiter,
	class constants.EndpointClass,
	enabled bool,
	metrics *monitoring.Metrics,
	log logger.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		ip := c.ClientIP()

		result, err := limiter.Check(ctx, ip, class)
		if err != nil {
			// Fail open: admission control must not take the flow down
			// with the KV backend.
			log.Error(ctx, "rate limiter check failed", err, logger.Fields{"endpoint": string(class)})
			c.Next()
			return
		}

		c.Writer.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Writer.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))

		if !result.Allowed {
			metrics.RecordRateLimitHit(string(class))
			log.Warn(ctx, "rate limit exceeded", logger.Fields{
				"endpoint":  string(class),
				"client_ip": ip,
			})
			dto.SendError(c, apperrors.ErrRateLimited())
			return
		}

		if err := limiter.Increment(ctx, ip, class); err != nil {
			log.Error(ctx, "rate limiter increment failed", err, logger.Fields{"endpoint": string(class)})
		}
		c.Next()
	}
}
