// Package service implements the OAuth coordinator: the four operations
// that drive the session store and make up the observable handoff protocol.
package service

import (
	"context"
	stderrors "errors"

	"github.com/studioconnect/relay/internal/application/dto"
	"github.com/studioconnect/relay/internal/domain/models"
	"github.com/studioconnect/relay/internal/domain/session"
	"github.com/studioconnect/relay/internal/infrastructure/audit"
	"github.com/studioconnect/relay/internal/infrastructure/monitoring"
	"github.com/studioconnect/relay/internal/infrastructure/provider"
	"github.com/studioconnect/relay/pkg/errors"
	"github.com/studioconnect/relay/pkg/logger"
)

// OAuthService coordinates the handoff flow. Rate limiting happens in the
// HTTP layer before any of these are called.
type OAuthService interface {
	// Init pre-registers a session before the client sends the user's
	// browser to the provider.
	Init(ctx context.Context, providerName, sessionID, clientIP string) (*dto.InitResponse, error)

	// Callback fulfills a session with the authorization code delivered by
	// the provider redirect. The state parameter is the session id.
	Callback(ctx context.Context, providerName, code, state, clientIP string) error

	// Poll returns the session's terminal answer, consuming a fulfilled
	// record on first read.
	Poll(ctx context.Context, providerName, sessionID string) (*dto.PollResponse, error)

	// Exchange trades an authorization code for the provider's token
	// response. Stateless with respect to the session store.
	Exchange(ctx context.Context, providerName string, req *dto.ExchangeRequest) (*dto.ExchangeResponse, error)
}

type oauthService struct {
	sessions  session.Store
	providers *provider.Registry
	exchanger provider.Exchanger
	trail     audit.Trail
	metrics   *monitoring.Metrics
	log       logger.Logger
}

// NewOAuthService creates the coordinator.
func NewOAuthService(
	sessions session.Store,
	providers *provider.Registry,
	exchanger provider.Exchanger,
	trail audit.Trail,
	metrics *monitoring.Metrics,
	log logger.Logger,
) OAuthService {
	return &oauthService{
		sessions:  sessions,
		providers: providers,
		exchanger: exchanger,
		trail:     trail,
		metrics:   metrics,
		log:       log.WithComponent("oauth"),
	}
}

// resolve maps a path parameter to a registered, enabled provider.
func (s *oauthService) resolve(name string) (*provider.Entry, error) {
	entry, ok := s.providers.Lookup(models.Provider(name))
	if !ok {
		return nil, errors.ErrUnknownProvider(name)
	}
	if !entry.Enabled {
		return nil, errors.ErrNotImplemented(name)
	}
	return entry, nil
}

func (s *oauthService) Init(ctx context.Context, providerName, sessionID, clientIP string) (*dto.InitResponse, error) {
	entry, err := s.resolve(providerName)
	if err != nil {
		return nil, err
	}
	if !models.IsValidSessionID(sessionID) {
		return nil, errors.ErrInvalidSessionID()
	}

	if err := s.sessions.Register(ctx, entry.Name, sessionID); err != nil {
		if stderrors.Is(err, session.ErrAlreadyExists) {
			return nil, errors.ErrSessionExists()
		}
		s.log.Error(ctx, "failed to register session", err, logger.Fields{"provider": providerName})
		return nil, errors.ErrStorage(err)
	}

	s.metrics.RecordSessionTransition(providerName, "registered")
	s.trail.Record(ctx, audit.Event{
		Action:    audit.ActionSessionRegistered,
		Provider:  providerName,
		SessionID: sessionID,
		ClientIP:  clientIP,
	})

	return &dto.InitResponse{OK: true, SessionID: sessionID}, nil
}

func (s *oauthService) Callback(ctx context.Context, providerName, code, state, clientIP string) error {
	entry, err := s.resolve(providerName)
	if err != nil {
		return err
	}
	if code == "" {
		return errors.ErrInvalidRequest("missing authorization code")
	}
	if state == "" {
		return errors.ErrInvalidRequest("missing state parameter")
	}
	// The desktop client uses its session id as the OAuth state, so the
	// state both keys the session and serves as the CSRF check.
	if !models.IsValidSessionID(state) {
		return errors.ErrInvalidRequest("invalid state parameter")
	}

	// Fulfillment is deliberately permissive: it does not require a prior
	// registration, and it overwrites a pending record in place. See the
	// session store docs.
	if err := s.sessions.Fulfill(ctx, entry.Name, state, code, state, clientIP); err != nil {
		s.log.Error(ctx, "failed to fulfill session", err, logger.Fields{"provider": providerName})
		return errors.ErrStorage(err)
	}

	s.metrics.RecordSessionTransition(providerName, "fulfilled")
	s.trail.Record(ctx, audit.Event{
		Action:    audit.ActionSessionFulfilled,
		Provider:  providerName,
		SessionID: state,
		ClientIP:  clientIP,
	})

	return nil
}

func (s *oauthService) Poll(ctx context.Context, providerName, sessionID string) (*dto.PollResponse, error) {
	entry, err := s.resolve(providerName)
	if err != nil {
		return nil, err
	}

	// A malformed id can never name a live session; answer expired without
	// a store round-trip.
	if !models.IsValidSessionID(sessionID) {
		return expiredResponse(), nil
	}

	record, err := s.sessions.Consume(ctx, entry.Name, sessionID)
	if err != nil {
		s.log.Error(ctx, "failed to consume session", err, logger.Fields{"provider": providerName})
		return nil, errors.ErrStorage(err)
	}

	switch {
	case record == nil:
		s.metrics.RecordPollResult(providerName, string(models.PollStatusExpired))
		return expiredResponse(), nil

	case record.Status() == models.SessionStatusPending:
		s.metrics.RecordPollResult(providerName, string(models.PollStatusPending))
		return &dto.PollResponse{
			Status:  models.PollStatusPending,
			Message: "Authorization is not yet complete",
		}, nil

	default:
		s.metrics.RecordPollResult(providerName, string(models.PollStatusSuccess))
		s.metrics.RecordSessionTransition(providerName, "consumed")
		s.trail.Record(ctx, audit.Event{
			Action:    audit.ActionSessionConsumed,
			Provider:  providerName,
			SessionID: sessionID,
			ClientIP:  record.ClientIP,
		})
		return &dto.PollResponse{
			Status: models.PollStatusSuccess,
			Code:   record.Code,
		}, nil
	}
}

func (s *oauthService) Exchange(ctx context.Context, providerName string, req *dto.ExchangeRequest) (*dto.ExchangeResponse, error) {
	entry, err := s.resolve(providerName)
	if err != nil {
		return nil, err
	}
	if req.Code == "" {
		return nil, errors.ErrInvalidRequest("missing or invalid code")
	}
	if req.RedirectURI == "" {
		return nil, errors.ErrInvalidRequest("missing or invalid redirect_uri")
	}
	if !entry.HasCredentials() {
		s.log.Error(ctx, "provider credentials not configured", nil, logger.Fields{"provider": providerName})
		return nil, errors.ErrConfiguration("provider credentials not configured")
	}

	tokenResp, err := s.exchanger.Exchange(ctx, entry, req.Code, req.RedirectURI)
	if err != nil {
		s.metrics.RecordExchange(providerName, "communication_error")
		s.trail.Record(ctx, audit.Event{
			Action:   audit.ActionExchangeFailed,
			Provider: providerName,
			Detail:   "communication failure",
		})
		return nil, errors.ErrCommunication(providerName, err)
	}

	if !tokenResp.OK {
		providerErr := tokenResp.Error
		if providerErr == "" {
			providerErr = "token_exchange_failed"
		}
		s.metrics.RecordExchange(providerName, "rejected")
		s.trail.Record(ctx, audit.Event{
			Action:   audit.ActionExchangeFailed,
			Provider: providerName,
			Detail:   providerErr,
		})
		return nil, errors.ErrExchangeFailed(providerErr)
	}

	s.metrics.RecordExchange(providerName, "ok")
	s.trail.Record(ctx, audit.Event{
		Action:   audit.ActionExchangeSucceeded,
		Provider: providerName,
	})

	resp := &dto.ExchangeResponse{
		OK:          true,
		AccessToken: tokenResp.AccessToken,
		TokenType:   tokenResp.TokenType,
		Scope:       tokenResp.Scope,
		BotUserID:   tokenResp.BotUserID,
	}
	if tokenResp.Team != nil {
		resp.Team = &dto.TeamDTO{ID: tokenResp.Team.ID, Name: tokenResp.Team.Name}
	}
	return resp, nil
}

func expiredResponse() *dto.PollResponse {
	return &dto.PollResponse{
		Status:  models.PollStatusExpired,
		Message: "Session expired or not found",
	}
}
