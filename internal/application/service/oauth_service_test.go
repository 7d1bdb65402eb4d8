package service_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studioconnect/relay/internal/application/dto"
	"github.com/studioconnect/relay/internal/application/service"
	"github.com/studioconnect/relay/internal/config"
	"github.com/studioconnect/relay/internal/domain/models"
	"github.com/studioconnect/relay/internal/domain/session"
	"github.com/studioconnect/relay/internal/infrastructure/audit"
	"github.com/studioconnect/relay/internal/infrastructure/kv"
	"github.com/studioconnect/relay/internal/infrastructure/monitoring"
	"github.com/studioconnect/relay/internal/infrastructure/provider"
	apperrors "github.com/studioconnect/relay/pkg/errors"
	"github.com/studioconnect/relay/pkg/logger"
)

const testSessionID = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

// newService builds the coordinator on the in-memory backend with the token
// endpoint pointed at tokenURL.
func newService(t *testing.T, tokenURL string) service.OAuthService {
	t.Helper()

	log := logger.NewNoopLogger()
	sessions := session.NewStore(kv.NewMemoryStore(), 300*time.Second, log)

	providers := provider.NewRegistry(context.Background(), map[string]config.ProviderConfig{
		"slack": {
			Enabled:      true,
			ClientID:     "test-client-id",
			ClientSecret: "test-client-secret",
			TokenURL:     tokenURL,
		},
		"discord": {Enabled: false},
	}, nil, log)

	return service.NewOAuthService(
		sessions,
		providers,
		provider.NewClient(log),
		audit.NewNoopTrail(),
		monitoring.NewMetrics(prometheus.NewRegistry()),
		log,
	)
}

func requireAppError(t *testing.T, err error, code string, status int) {
	t.Helper()
	require.Error(t, err)
	appErr := apperrors.AsAppError(err)
	assert.Equal(t, code, appErr.Code)
	assert.Equal(t, status, appErr.Status)
}

func TestInit(t *testing.T) {
	svc := newService(t, "http://unused.invalid")
	ctx := context.Background()

	t.Run("valid id is registered", func(t *testing.T) {
		resp, err := svc.Init(ctx, "slack", testSessionID, "203.0.113.1")
		require.NoError(t, err)
		assert.True(t, resp.OK)
		assert.Equal(t, testSessionID, resp.SessionID)
	})

	t.Run("duplicate id is rejected", func(t *testing.T) {
		_, err := svc.Init(ctx, "slack", testSessionID, "203.0.113.1")
		requireAppError(t, err, apperrors.CodeSessionExists, http.StatusConflict)
	})

	t.Run("malformed id is rejected", func(t *testing.T) {
		for _, id := range []string{"", "short", strings.Repeat("A", 64), strings.Repeat("g", 64)} {
			_, err := svc.Init(ctx, "slack", id, "203.0.113.1")
			requireAppError(t, err, apperrors.CodeInvalidSessionID, http.StatusBadRequest)
		}
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := svc.Init(ctx, "github", testSessionID, "203.0.113.1")
		requireAppError(t, err, apperrors.CodeUnknownProvider, http.StatusNotFound)
	})

	t.Run("registered but disabled provider", func(t *testing.T) {
		_, err := svc.Init(ctx, "discord", testSessionID, "203.0.113.1")
		requireAppError(t, err, apperrors.CodeNotImplemented, http.StatusNotImplemented)
	})
}

func TestPollLifecycle(t *testing.T) {
	svc := newService(t, "http://unused.invalid")
	ctx := context.Background()

	_, err := svc.Init(ctx, "slack", testSessionID, "203.0.113.1")
	require.NoError(t, err)

	// Pending until the callback lands, and polling does not consume.
	for i := 0; i < 2; i++ {
		resp, err := svc.Poll(ctx, "slack", testSessionID)
		require.NoError(t, err)
		assert.Equal(t, models.PollStatusPending, resp.Status)
		assert.Empty(t, resp.Code)
	}

	require.NoError(t, svc.Callback(ctx, "slack", "the-auth-code", testSessionID, "198.51.100.20"))

	// First poll after fulfillment carries the code.
	resp, err := svc.Poll(ctx, "slack", testSessionID)
	require.NoError(t, err)
	assert.Equal(t, models.PollStatusSuccess, resp.Status)
	assert.Equal(t, "the-auth-code", resp.Code)

	// The record is gone. Subsequent polls answer expired.
	resp, err = svc.Poll(ctx, "slack", testSessionID)
	require.NoError(t, err)
	assert.Equal(t, models.PollStatusExpired, resp.Status)
	assert.Empty(t, resp.Code)
}

func TestPollEdgeCases(t *testing.T) {
	svc := newService(t, "http://unused.invalid")
	ctx := context.Background()

	t.Run("unknown id answers expired", func(t *testing.T) {
		resp, err := svc.Poll(ctx, "slack", testSessionID)
		require.NoError(t, err)
		assert.Equal(t, models.PollStatusExpired, resp.Status)
	})

	t.Run("malformed id answers expired", func(t *testing.T) {
		resp, err := svc.Poll(ctx, "slack", "not-a-session-id")
		require.NoError(t, err)
		assert.Equal(t, models.PollStatusExpired, resp.Status)
	})
}

func TestCallback(t *testing.T) {
	svc := newService(t, "http://unused.invalid")
	ctx := context.Background()

	t.Run("missing code", func(t *testing.T) {
		err := svc.Callback(ctx, "slack", "", testSessionID, "")
		requireAppError(t, err, apperrors.CodeInvalidRequest, http.StatusBadRequest)
	})

	t.Run("missing state", func(t *testing.T) {
		err := svc.Callback(ctx, "slack", "code", "", "")
		requireAppError(t, err, apperrors.CodeInvalidRequest, http.StatusBadRequest)
	})

	t.Run("malformed state", func(t *testing.T) {
		err := svc.Callback(ctx, "slack", "code", "not-hex", "")
		requireAppError(t, err, apperrors.CodeInvalidRequest, http.StatusBadRequest)
	})

	t.Run("fulfills without prior registration", func(t *testing.T) {
		require.NoError(t, svc.Callback(ctx, "slack", "orphan-code", testSessionID, ""))

		resp, err := svc.Poll(ctx, "slack", testSessionID)
		require.NoError(t, err)
		assert.Equal(t, models.PollStatusSuccess, resp.Status)
		assert.Equal(t, "orphan-code", resp.Code)
	})
}

func TestExchange(t *testing.T) {
	ctx := context.Background()

	t.Run("success passes the token response through", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "test-client-id", r.PostForm.Get("client_id"))
			assert.Equal(t, "test-client-secret", r.PostForm.Get("client_secret"))
			assert.Equal(t, "the-code", r.PostForm.Get("code"))
			assert.Equal(t, "https://app.example.com/callback", r.PostForm.Get("redirect_uri"))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"ok": true,
				"access_token": "xoxb-token",
				"token_type": "bot",
				"scope": "chat:write",
				"bot_user_id": "U012345",
				"team": {"id": "T012345", "name": "Example Co"}
			}`))
		}))
		defer ts.Close()

		svc := newService(t, ts.URL)
		resp, err := svc.Exchange(ctx, "slack", &dto.ExchangeRequest{
			Code:        "the-code",
			RedirectURI: "https://app.example.com/callback",
		})
		require.NoError(t, err)
		assert.True(t, resp.OK)
		assert.Equal(t, "xoxb-token", resp.AccessToken)
		assert.Equal(t, "bot", resp.TokenType)
		assert.Equal(t, "chat:write", resp.Scope)
		assert.Equal(t, "U012345", resp.BotUserID)
		require.NotNil(t, resp.Team)
		assert.Equal(t, "T012345", resp.Team.ID)
		assert.Equal(t, "Example Co", resp.Team.Name)
	})

	t.Run("provider rejection surfaces its error code verbatim", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"ok": false, "error": "invalid_code"}`))
		}))
		defer ts.Close()

		svc := newService(t, ts.URL)
		_, err := svc.Exchange(ctx, "slack", &dto.ExchangeRequest{
			Code:        "stale-code",
			RedirectURI: "https://app.example.com/callback",
		})
		requireAppError(t, err, "invalid_code", http.StatusBadRequest)
	})

	t.Run("unreachable provider is a communication error", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		ts.Close()

		svc := newService(t, ts.URL)
		_, err := svc.Exchange(ctx, "slack", &dto.ExchangeRequest{
			Code:        "the-code",
			RedirectURI: "https://app.example.com/callback",
		})
		requireAppError(t, err, apperrors.CodeCommunication, http.StatusInternalServerError)
	})

	t.Run("missing fields", func(t *testing.T) {
		svc := newService(t, "http://unused.invalid")

		_, err := svc.Exchange(ctx, "slack", &dto.ExchangeRequest{RedirectURI: "https://app.example.com/cb"})
		requireAppError(t, err, apperrors.CodeInvalidRequest, http.StatusBadRequest)

		_, err = svc.Exchange(ctx, "slack", &dto.ExchangeRequest{Code: "the-code"})
		requireAppError(t, err, apperrors.CodeInvalidRequest, http.StatusBadRequest)
	})

	t.Run("missing credentials", func(t *testing.T) {
		log := logger.NewNoopLogger()
		providers := provider.NewRegistry(ctx, map[string]config.ProviderConfig{
			"slack": {Enabled: true, TokenURL: "http://unused.invalid"},
		}, nil, log)
		svc := service.NewOAuthService(
			session.NewStore(kv.NewMemoryStore(), 300*time.Second, log),
			providers,
			provider.NewClient(log),
			audit.NewNoopTrail(),
			monitoring.NewMetrics(prometheus.NewRegistry()),
			log,
		)

		_, err := svc.Exchange(ctx, "slack", &dto.ExchangeRequest{
			Code:        "the-code",
			RedirectURI: "https://app.example.com/callback",
		})
		requireAppError(t, err, apperrors.CodeConfiguration, http.StatusInternalServerError)
	})
}
