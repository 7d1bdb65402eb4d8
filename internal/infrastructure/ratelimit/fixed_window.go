// Package ratelimit implements the per-IP, per-endpoint-class fixed-window
// rate limiter on top of the KV store.
package ratelimit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/studioconnect/relay/internal/config"
	"github.com/studioconnect/relay/internal/infrastructure/kv"
	"github.com/studioconnect/relay/pkg/constants"
	"github.com/studioconnect/relay/pkg/logger"
)

// Counter is the admission-control state for one (client IP, endpoint class)
// pair. The limiter owns these records exclusively; no other component
// reads or writes them.
type Counter struct {
	// Count is the number of requests observed in the current window.
	Count int `json:"count"`
	// WindowStart is when the current window began.
	WindowStart time.Time `json:"window_start"`
}

// Result is the outcome of a rate-limit probe.
type Result struct {
	// Allowed reports whether the request may proceed.
	Allowed bool
	// Remaining is how many requests are left in the window after this one.
	Remaining int
	// Limit is the configured maximum for the endpoint class.
	Limit int
}

// Limiter is the admission-control interface the HTTP layer consumes.
// Callers must Check before doing any work, reject when not allowed, and
// Increment exactly once per accepted request.
type Limiter interface {
	Check(ctx context.Context, ip string, class constants.EndpointClass) (Result, error)
	Increment(ctx context.Context, ip string, class constants.EndpointClass) error
}

// FixedWindowLimiter counts requests in fixed windows whose counters expire
// via store TTL instead of rolling over. The TTL is restarted on every
// increment, so the effective window can stretch beyond its nominal length
// under sustained traffic. That is a deliberate simplification kept for
// compatibility, not a sliding window and not a defect.
type FixedWindowLimiter struct {
	store  kv.Store
	window time.Duration
	log    logger.Logger

	mu     sync.RWMutex
	limits map[constants.EndpointClass]int
}

// NewFixedWindowLimiter builds a limiter from the configured limit table.
// Every endpoint class in use must have a positive limit; config validation
// enforces this before the limiter is constructed.
func NewFixedWindowLimiter(store kv.Store, cfg *config.RateLimitConfig, log logger.Logger) (*FixedWindowLimiter, error) {
	limits := make(map[constants.EndpointClass]int, len(constants.EndpointClasses))
	for _, class := range constants.EndpointClasses {
		limit, ok := cfg.Limits[string(class)]
		if !ok || limit <= 0 {
			return nil, fmt.Errorf("no rate limit configured for endpoint class %q", class)
		}
		limits[class] = limit
	}

	window := cfg.WindowDuration()
	if window <= 0 {
		window = constants.RateLimitWindow
	}

	return &FixedWindowLimiter{
		store:  store,
		window: window,
		limits: limits,
		log:    log.WithComponent("ratelimit"),
	}, nil
}

// Check is a read-only probe: it reports whether the next request fits in
// the current window without incrementing anything. An absent counter means
// a fresh window with the full budget minus the request being admitted.
func (l *FixedWindowLimiter) Check(ctx context.Context, ip string, class constants.EndpointClass) (Result, error) {
	limit := l.limitFor(class)
	key := l.buildKey(ip, class)

	value, ok, err := l.store.Get(ctx, key)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return Result{Allowed: true, Remaining: limit - 1, Limit: limit}, nil
	}

	var counter Counter
	if err := json.Unmarshal([]byte(value), &counter); err != nil {
		return Result{}, fmt.Errorf("corrupt rate-limit counter at %s: %w", key, err)
	}

	remaining := limit - counter.Count - 1
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   counter.Count < limit,
		Remaining: remaining,
		Limit:     limit,
	}, nil
}

// Increment records one accepted request. The read-modify-write is not
// atomic: a concurrent burst can transiently exceed the nominal limit. The
// limiter is best-effort abuse deterrence, not a hard cap.
func (l *FixedWindowLimiter) Increment(ctx context.Context, ip string, class constants.EndpointClass) error {
	key := l.buildKey(ip, class)

	counter := Counter{WindowStart: time.Now().UTC()}
	value, ok, err := l.store.Get(ctx, key)
	if err != nil {
		return err
	}
	if ok {
		if err := json.Unmarshal([]byte(value), &counter); err != nil {
			l.log.Warn(ctx, "resetting corrupt rate-limit counter", logger.Fields{"key": key})
			counter = Counter{WindowStart: time.Now().UTC()}
		}
	}
	counter.Count++

	data, err := json.Marshal(counter)
	if err != nil {
		return err
	}
	return l.store.Set(ctx, key, string(data), l.window)
}

// SetLimits swaps in a new limit table, used by config hot-reload. Classes
// missing from the new table keep their current limit.
func (l *FixedWindowLimiter) SetLimits(limits map[string]int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, class := range constants.EndpointClasses {
		if limit, ok := limits[string(class)]; ok && limit > 0 {
			l.limits[class] = limit
		}
	}
}

func (l *FixedWindowLimiter) limitFor(class constants.EndpointClass) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.limits[class]
}

func (l *FixedWindowLimiter) buildKey(ip string, class constants.EndpointClass) string {
	return fmt.Sprintf("%s:%s:%s", constants.RateLimitKeyPrefix, ip, class)
}
