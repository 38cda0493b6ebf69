// Package secrets reads key-value secrets and extracts the node SSH public key.
package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/smithy-go"
	"golang.org/x/crypto/ssh"
)

var (
	// ErrNotFound is returned when a secret does not exist
	ErrNotFound = errors.New("secret not found")

	// ErrFieldMissing is returned when a secret lacks the requested field
	ErrFieldMissing = errors.New("secret field missing")
)

// Secret backends selectable by name
const (
	BackendVault          = "vault"
	BackendSecretsManager = "secretsmanager"
)

// Store returns the key-value data stored at a path
type Store interface {
	Get(ctx context.Context, path string) (map[string]string, error)
}

// SecretsManagerClient defines the Secrets Manager operations used by the store
type SecretsManagerClient interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretsManagerStore reads JSON object secrets from AWS Secrets Manager
type SecretsManagerStore struct {
	client SecretsManagerClient
}

// NewSecretsManagerStore creates a store backed by Secrets Manager
func NewSecretsManagerStore(client SecretsManagerClient) *SecretsManagerStore {
	return &SecretsManagerStore{
		client: client,
	}
}

// NewFromConfig creates a Secrets Manager store from an AWS config
func NewFromConfig(cfg aws.Config) *SecretsManagerStore {
	return NewSecretsManagerStore(secretsmanager.NewFromConfig(cfg))
}

// Open returns the store of the named backend. The AWS config is only used by
// Secrets Manager.
func Open(backend string, cfg aws.Config) (Store, error) {
	switch backend {
	case BackendVault:
		return NewVaultFromEnv()
	case BackendSecretsManager:
		return NewFromConfig(cfg), nil
	}
	return nil, fmt.Errorf("unknown secret backend %q", backend)
}

// Get returns the fields of the secret stored under path
func (s *SecretsManagerStore) Get(ctx context.Context, path string) (map[string]string, error) {
	output, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(path),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "ResourceNotFoundException" {
			return nil, fmt.Errorf("get secret %s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("get secret %s: %w", path, err)
	}

	data := map[string]string{}
	if err := json.Unmarshal([]byte(aws.ToString(output.SecretString)), &data); err != nil {
		return nil, fmt.Errorf("decode secret %s: %w", path, err)
	}

	return data, nil
}

// PublicKey reads an SSH public key from a secret field and checks that it
// parses as an authorized key
func PublicKey(ctx context.Context, store Store, path, field string) (string, error) {
	data, err := store.Get(ctx, path)
	if err != nil {
		return "", err
	}

	key, ok := data[field]
	if !ok || strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("secret %s: %w: %s", path, ErrFieldMissing, field)
	}

	key = strings.TrimSpace(key)
	if _, _, _, _, err := ssh.ParseAuthorizedKey([]byte(key)); err != nil {
		return "", fmt.Errorf("secret %s field %s: parse public key: %w", path, field, err)
	}

	return key, nil
}
