// Package audit records security-relevant session lifecycle events. The
// trail is best-effort: a failed write is logged, never surfaced to the
// request that produced it.
package audit

import (
	"context"
	"time"
)

// Actions recorded on the trail.
const (
	ActionSessionRegistered = "session_registered"
	ActionSessionFulfilled  = "session_fulfilled"
	ActionSessionConsumed   = "session_consumed"
	ActionExchangeSucceeded = "exchange_succeeded"
	ActionExchangeFailed    = "exchange_failed"
)

// Event is one audit record. It carries the session id and the client IP
// but never the authorization code or any token material.
type Event struct {
	Action    string    `json:"action"`
	Provider  string    `json:"provider"`
	SessionID string    `json:"session_id,omitempty"`
	ClientIP  string    `json:"client_ip,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Trail is the audit sink.
type Trail interface {
	Record(ctx context.Context, event Event)
	Close() error
}

type noopTrail struct{}

// NewNoopTrail returns a trail that discards everything, for deployments
// without an audit pipeline.
func NewNoopTrail() Trail {
	return &noopTrail{}
}

func (noopTrail) Record(ctx context.Context, event Event) {}
func (noopTrail) Close() error                            { return nil }
