// Package models defines the domain types of the OAuth handoff relay.
package models

import (
	"regexp"
	"time"
)

// Provider identifies a third-party OAuth provider.
type Provider string

const (
	// ProviderSlack is the Slack OAuth v2 provider.
	ProviderSlack Provider = "slack"

	// ProviderDiscord is the Discord OAuth provider.
	ProviderDiscord Provider = "discord"
)

// SessionStatus is the stored state of a session record. Expiry is not a
// stored status: an absent record is interpreted as expired, which covers
// "never existed", "TTL elapsed" and "already consumed" alike.
type SessionStatus string

const (
	// SessionStatusPending means the session is registered but no
	// authorization code has arrived yet.
	SessionStatusPending SessionStatus = "pending"

	// SessionStatusFulfilled means the provider callback delivered a code.
	SessionStatusFulfilled SessionStatus = "fulfilled"
)

// PollStatus is the terminal answer the poll endpoint gives the client.
type PollStatus string

const (
	// PollStatusSuccess carries the authorization code, exactly once.
	PollStatusSuccess PollStatus = "success"

	// PollStatusPending tells the client to keep polling.
	PollStatusPending PollStatus = "pending"

	// PollStatusExpired is terminal: the session is gone.
	PollStatusExpired PollStatus = "expired"
)

// Session is one in-flight OAuth handoff, stored in the KV backend under
// "{provider}:{sessionId}". The session id itself is part of the key, not
// the record.
type Session struct {
	// Provider scopes the session; ids need not be unique across providers.
	Provider Provider `json:"provider"`

	// Code is the authorization code from the provider. Empty until the
	// callback fulfills the session.
	Code string `json:"code,omitempty"`

	// State is the CSRF state parameter echoed by the provider redirect.
	State string `json:"state,omitempty"`

	// CreatedAt is when this record was written.
	CreatedAt time.Time `json:"created_at"`

	// ClientIP is recorded for the audit trail only. It is never used for
	// authorization decisions.
	ClientIP string `json:"client_ip,omitempty"`
}

// Status derives the session state from the record: a record without a code
// is pending, one with a code is fulfilled.
func (s *Session) Status() SessionStatus {
	if s.Code == "" {
		return SessionStatusPending
	}
	return SessionStatusFulfilled
}

// sessionIDPattern matches client-generated session ids: exactly 64
// lowercase hex characters (256 bits of entropy).
var sessionIDPattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

// IsValidSessionID reports whether id is a well-formed session id.
// Uppercase hex, short or long strings and non-hex characters all fail.
func IsValidSessionID(id string) bool {
	return sessionIDPattern.MatchString(id)
}
