package provider

import (
	"context"
	"fmt"

	vault "github.com/hashicorp/vault/api"

	"github.com/studioconnect/relay/internal/config"
	"github.com/studioconnect/relay/pkg/logger"
)

// VaultSecretSource reads provider credentials from a Vault KV v2 mount.
// The secret at each path is expected to hold "client_id" and
// "client_secret" fields.
type VaultSecretSource struct {
	client    *vault.Client
	mountPath string
	log       logger.Logger
}

// NewVaultSecretSource creates and configures a Vault client.
func NewVaultSecretSource(cfg *config.VaultConfig, log logger.Logger) (*VaultSecretSource, error) {
	vaultConfig := vault.DefaultConfig()
	vaultConfig.Address = cfg.Address

	client, err := vault.NewClient(vaultConfig)
	if err != nil {
		return nil, err
	}
	client.SetToken(cfg.Token)

	return &VaultSecretSource{
		client:    client,
		mountPath: cfg.MountPath,
		log:       log.WithComponent("vault"),
	}, nil
}

// Credentials implements SecretSource.
func (v *VaultSecretSource) Credentials(ctx context.Context, path string) (string, string, error) {
	secret, err := v.client.KVv2(v.mountPath).Get(ctx, path)
	if err != nil {
		return "", "", fmt.Errorf("vault read %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return "", "", fmt.Errorf("no secret at %s", path)
	}

	clientID, _ := secret.Data["client_id"].(string)
	clientSecret, _ := secret.Data["client_secret"].(string)
	if clientID == "" || clientSecret == "" {
		return "", "", fmt.Errorf("secret at %s is missing client_id or client_secret", path)
	}
	return clientID, clientSecret, nil
}
