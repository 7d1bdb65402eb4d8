// Package session implements the OAuth handoff session store on top of the
// KV backend. Records live under "{provider}:{sessionId}" and exist for at
// most one TTL window from their last write.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/studioconnect/relay/internal/domain/models"
	"github.com/studioconnect/relay/internal/infrastructure/kv"
	"github.com/studioconnect/relay/pkg/logger"
)

// ErrAlreadyExists reports a registration attempt for an id that already has
// a live record (pending or fulfilled).
var ErrAlreadyExists = errors.New("session already exists")

// Store drives the session lifecycle: register (pending) → fulfill
// (fulfilled, TTL reset) → consume (one-time read-and-delete). Absence from
// the store is the expired state.
type Store interface {
	// Register creates a pending record. Callers validate the id format
	// first; the store performs no validation of its own.
	Register(ctx context.Context, provider models.Provider, id string) error

	// Fulfill unconditionally overwrites the record with a fulfilled one,
	// resetting the TTL. It does not verify that a registration preceded
	// it; callers that need that guarantee must call Exists first.
	Fulfill(ctx context.Context, provider models.Provider, id, code, state, clientIP string) error

	// Consume reads the record and, only when it is fulfilled, deletes it.
	// A pending record is returned untouched. An absent record yields
	// (nil, nil).
	Consume(ctx context.Context, provider models.Provider, id string) (*models.Session, error)

	// Exists reports whether a live record is present without consuming it.
	Exists(ctx context.Context, provider models.Provider, id string) (bool, error)
}

type kvStore struct {
	store kv.Store
	ttl   time.Duration
	log   logger.Logger
}

// NewStore creates a session store with the given record TTL.
func NewStore(store kv.Store, ttl time.Duration, log logger.Logger) Store {
	return &kvStore{
		store: store,
		ttl:   ttl,
		log:   log.WithComponent("session"),
	}
}

func (s *kvStore) Register(ctx context.Context, provider models.Provider, id string) error {
	key := sessionKey(provider, id)

	// The existence check and the write are two KV round-trips, not a
	// transaction. Two concurrent registrations of one fresh id can both
	// succeed; with 256-bit client-generated ids that only happens when an
	// id is deliberately reused.
	exists, err := s.store.Exists(ctx, key)
	if err != nil {
		return err
	}
	if exists {
		return ErrAlreadyExists
	}

	record := models.Session{
		Provider:  provider,
		CreatedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(&record)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, key, string(data), s.ttl)
}

func (s *kvStore) Fulfill(ctx context.Context, provider models.Provider, id, code, state, clientIP string) error {
	record := models.Session{
		Provider:  provider,
		Code:      code,
		State:     state,
		CreatedAt: time.Now().UTC(),
		ClientIP:  clientIP,
	}
	data, err := json.Marshal(&record)
	if err != nil {
		return err
	}
	// Overwriting restarts the TTL, giving the client a full poll window
	// even when the provider round-trip ate most of the pending one.
	return s.store.Set(ctx, sessionKey(provider, id), string(data), s.ttl)
}

func (s *kvStore) Consume(ctx context.Context, provider models.Provider, id string) (*models.Session, error) {
	key := sessionKey(provider, id)

	value, ok, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var record models.Session
	if err := json.Unmarshal([]byte(value), &record); err != nil {
		return nil, fmt.Errorf("corrupt session record at %s: %w", key, err)
	}

	// Only a fulfilled record is consumed. Deleting a pending record here
	// would erase the registration while the client is still waiting.
	if record.Status() == models.SessionStatusFulfilled {
		if err := s.store.Delete(ctx, key); err != nil {
			return nil, err
		}
	}
	return &record, nil
}

func (s *kvStore) Exists(ctx context.Context, provider models.Provider, id string) (bool, error) {
	return s.store.Exists(ctx, sessionKey(provider, id))
}

func sessionKey(provider models.Provider, id string) string {
	return fmt.Sprintf("%s:%s", provider, id)
}
