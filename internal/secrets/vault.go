package secrets

import (
	"context"
	"fmt"

	vaultapi "github.com/hashicorp/vault/api"
)

// VaultLogical defines the Vault logical backend operations used by the store
type VaultLogical interface {
	ReadWithContext(ctx context.Context, path string) (*vaultapi.Secret, error)
}

// VaultStore reads key-value secrets from HashiCorp Vault
type VaultStore struct {
	logical VaultLogical
}

// NewVaultStore creates a store backed by a Vault logical client
func NewVaultStore(logical VaultLogical) *VaultStore {
	return &VaultStore{
		logical: logical,
	}
}

// NewVaultFromEnv creates a Vault store configured from VAULT_ADDR and
// VAULT_TOKEN
func NewVaultFromEnv() (*VaultStore, error) {
	config := vaultapi.DefaultConfig()
	if config.Error != nil {
		return nil, fmt.Errorf("read vault environment: %w", config.Error)
	}

	client, err := vaultapi.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("create vault client: %w", err)
	}

	return NewVaultStore(client.Logical()), nil
}

// Get returns the fields of the secret stored under path. KV version 2
// responses are unwrapped to their data field.
func (s *VaultStore) Get(ctx context.Context, path string) (map[string]string, error) {
	secret, err := s.logical.ReadWithContext(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("read secret %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("read secret %s: %w", path, ErrNotFound)
	}

	raw := secret.Data
	if inner, ok := raw["data"].(map[string]any); ok {
		if _, versioned := raw["metadata"]; versioned {
			raw = inner
		}
	}

	data := make(map[string]string, len(raw))
	for key, value := range raw {
		switch v := value.(type) {
		case string:
			data[key] = v
		case nil:
		default:
			data[key] = fmt.Sprint(v)
		}
	}

	return data, nil
}
