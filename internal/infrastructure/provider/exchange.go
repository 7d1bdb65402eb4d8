package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/studioconnect/relay/pkg/logger"
)

// Team identifies the workspace a token was issued for.
type Team struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AuthedUser carries the user-scoped part of a Slack OAuth response.
type AuthedUser struct {
	ID          string `json:"id"`
	Scope       string `json:"scope,omitempty"`
	AccessToken string `json:"access_token,omitempty"`
	TokenType   string `json:"token_type,omitempty"`
}

// TokenResponse is the provider's answer to a code-for-token exchange,
// shaped after Slack's oauth.v2.access. Fields are passed through to the
// client verbatim and never persisted.
type TokenResponse struct {
	OK          bool        `json:"ok"`
	Error       string      `json:"error,omitempty"`
	AccessToken string      `json:"access_token,omitempty"`
	TokenType   string      `json:"token_type,omitempty"`
	Scope       string      `json:"scope,omitempty"`
	BotUserID   string      `json:"bot_user_id,omitempty"`
	AppID       string      `json:"app_id,omitempty"`
	Team        *Team       `json:"team,omitempty"`
	AuthedUser  *AuthedUser `json:"authed_user,omitempty"`
}

// Exchanger performs the stateless server-to-server code-for-token call.
type Exchanger interface {
	Exchange(ctx context.Context, entry *Entry, code, redirectURI string) (*TokenResponse, error)
}

// Client is the HTTP Exchanger. One bounded outbound call per exchange,
// no retries.
type Client struct {
	httpClient *http.Client
	log        logger.Logger
}

// NewClient creates an exchange client with a bounded request timeout.
func NewClient(log logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log.WithComponent("exchange"),
	}
}

// Exchange posts the authorization code to the provider's token endpoint as
// a form-encoded request and decodes the JSON response. Transport and
// decode failures are returned as errors; a provider-reported failure comes
// back as a response with OK=false.
func (c *Client) Exchange(ctx context.Context, entry *Entry, code, redirectURI string) (*TokenResponse, error) {
	form := url.Values{
		"client_id":     {entry.ClientID},
		"client_secret": {entry.ClientSecret},
		"code":          {code},
		"redirect_uri":  {redirectURI},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, entry.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token endpoint request failed: %w", err)
	}
	defer resp.Body.Close()

	var tokenResp TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}

	if !tokenResp.OK {
		c.log.Warn(ctx, "provider rejected token exchange", logger.Fields{
			"provider": string(entry.Name),
			"error":    tokenResp.Error,
		})
	}
	return &tokenResp, nil
}
