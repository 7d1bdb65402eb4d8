// Package constants defines system-wide constants for the relay service.
package constants

import "time"

// EndpointClass identifies one of the rate-limited endpoint classes exposed
// by the OAuth coordinator. Counters are keyed per (client IP, endpoint
// class), so all providers' endpoints of the same class share one budget.
type EndpointClass string

const (
	// EndpointInit is the session pre-registration endpoint.
	EndpointInit EndpointClass = "init"

	// EndpointCallback is the provider redirect endpoint.
	EndpointCallback EndpointClass = "callback"

	// EndpointPoll is the client polling endpoint.
	EndpointPoll EndpointClass = "poll"

	// EndpointExchange is the code-for-token exchange endpoint.
	EndpointExchange EndpointClass = "exchange"
)

// EndpointClasses lists every class the HTTP surface uses. Configuration
// validation requires a limit entry for each of these.
var EndpointClasses = []EndpointClass{
	EndpointInit,
	EndpointCallback,
	EndpointPoll,
	EndpointExchange,
}

const (
	// SessionTTL bounds the lifetime of a session record. The TTL is set on
	// registration and reset on fulfillment, so a slow provider round-trip
	// does not starve the poll window.
	SessionTTL = 300 * time.Second

	// RateLimitWindow is the fixed rate-limit window length. The counter's
	// expiry clock restarts on every increment, not only on the first
	// request of a window.
	RateLimitWindow = 60 * time.Second

	// RateLimitKeyPrefix namespaces rate-limit counters in the KV store.
	RateLimitKeyPrefix = "ratelimit"
)

// ContextKey is the type for request-scoped context values.
type ContextKey string

const (
	// ContextKeyRequestID carries the per-request correlation id.
	ContextKeyRequestID ContextKey = "request_id"
)
