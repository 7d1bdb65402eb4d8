// Package dto defines the request and response shapes of the relay's HTTP
// surface and the mapping from application errors to JSON error bodies.
package dto

import "github.com/studioconnect/relay/internal/domain/models"

// InitRequest is the body of POST /{provider}/init.
type InitRequest struct {
	SessionID string `json:"session_id"`
}

// InitResponse confirms a pending registration.
type InitResponse struct {
	OK        bool   `json:"ok"`
	SessionID string `json:"session_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// PollResponse is the answer of GET /{provider}/poll.
type PollResponse struct {
	Status models.PollStatus `json:"status"`
	// Code is present exactly once, on the first poll after fulfillment.
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// ExchangeRequest is the body of POST /{provider}/exchange.
type ExchangeRequest struct {
	Code        string `json:"code"`
	RedirectURI string `json:"redirect_uri"`
}

// TeamDTO identifies the workspace a token was issued for.
type TeamDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ExchangeResponse passes the provider's token response through verbatim.
// Nothing in it is persisted server-side.
type ExchangeResponse struct {
	OK          bool     `json:"ok"`
	Error       string   `json:"error,omitempty"`
	AccessToken string   `json:"access_token,omitempty"`
	TokenType   string   `json:"token_type,omitempty"`
	Scope       string   `json:"scope,omitempty"`
	BotUserID   string   `json:"bot_user_id,omitempty"`
	Team        *TeamDTO `json:"team,omitempty"`
}
