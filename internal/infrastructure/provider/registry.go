// Package provider holds the registry of OAuth providers the relay fronts
// and the outbound token-exchange client.
package provider

import (
	"context"
	"sort"

	"github.com/studioconnect/relay/internal/config"
	"github.com/studioconnect/relay/internal/domain/models"
	"github.com/studioconnect/relay/pkg/logger"
)

// Entry is one configured provider.
type Entry struct {
	Name models.Provider
	// Enabled providers serve the full flow; registered-but-disabled ones
	// answer 501 on every endpoint.
	Enabled      bool
	ClientID     string
	ClientSecret string
	TokenURL     string
}

// HasCredentials reports whether client id and secret are both present.
func (e *Entry) HasCredentials() bool {
	return e.ClientID != "" && e.ClientSecret != ""
}

// SecretSource resolves provider credentials stored outside the config
// file, such as a Vault KV mount.
type SecretSource interface {
	// Credentials returns the client id and secret stored at path.
	Credentials(ctx context.Context, path string) (clientID, clientSecret string, err error)
}

// Registry maps provider names to their configuration.
type Registry struct {
	entries map[models.Provider]*Entry
}

// NewRegistry builds the registry from configuration. When a provider names
// a Vault path and a secret source is available, credentials are resolved
// through it at startup. Resolution failure for an enabled provider is
// logged but not fatal; the exchange endpoint reports configuration_error
// until credentials appear.
func NewRegistry(ctx context.Context, cfgs map[string]config.ProviderConfig, secrets SecretSource, log logger.Logger) *Registry {
	log = log.WithComponent("provider")
	entries := make(map[models.Provider]*Entry, len(cfgs))

	for name, cfg := range cfgs {
		entry := &Entry{
			Name:         models.Provider(name),
			Enabled:      cfg.Enabled,
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
		}

		if cfg.VaultPath != "" && secrets != nil {
			id, secret, err := secrets.Credentials(ctx, cfg.VaultPath)
			if err != nil {
				log.Error(ctx, "failed to resolve provider credentials from vault", err,
					logger.Fields{"provider": name, "path": cfg.VaultPath})
			} else {
				entry.ClientID = id
				entry.ClientSecret = secret
			}
		}

		entries[entry.Name] = entry
	}

	return &Registry{entries: entries}
}

// Lookup returns the entry for name, if registered.
func (r *Registry) Lookup(name models.Provider) (*Entry, bool) {
	entry, ok := r.entries[name]
	return entry, ok
}

// Names returns the registered provider names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, string(name))
	}
	sort.Strings(names)
	return names
}
