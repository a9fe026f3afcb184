package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/vault/api"

	"github.com/architeacher/svc-pattern-queue/internal/ports"
)

const (
	authMethodToken   = "token"
	authMethodAppRole = "approle"

	appRoleLoginPath = "auth/approle/login"
)

// secretSetters maps the keys stored under the service's Vault path onto the configuration.
var secretSetters = map[string]func(cfg *ServiceConfig, value string){
	"RABBITMQ_USERNAME":     func(cfg *ServiceConfig, v string) { cfg.Queue.Username = v },
	"RABBITMQ_PASSWORD":     func(cfg *ServiceConfig, v string) { cfg.Queue.Password = v },
	"RABBITMQ_HOST":         func(cfg *ServiceConfig, v string) { cfg.Queue.Host = v },
	"RABBITMQ_VIRTUAL_HOST": func(cfg *ServiceConfig, v string) { cfg.Queue.VirtualHost = v },
}

func authenticate(ctx context.Context, repo ports.SecretsRepository, cfg SecretStorageConfig) error {
	switch strings.ToLower(cfg.AuthMethod) {
	case authMethodToken:
		if cfg.Token == "" {
			return fmt.Errorf("token is required for token auth method")
		}

		repo.SetToken(cfg.Token)

		return nil

	case authMethodAppRole:
		if cfg.RoleID == "" || cfg.SecretID == "" {
			return fmt.Errorf("role_id and secret_id are required for approle auth method")
		}

		resp, err := repo.WriteWithContext(ctx, appRoleLoginPath, map[string]any{
			"role_id":   cfg.RoleID,
			"secret_id": cfg.SecretID,
		})
		if err != nil {
			return fmt.Errorf("failed to authenticate via approle: %w", err)
		}

		if resp == nil || resp.Auth == nil {
			return fmt.Errorf("no auth info returned from Vault")
		}

		repo.SetToken(resp.Auth.ClientToken)

		return nil

	default:
		return fmt.Errorf("unsupported auth method: %s", cfg.AuthMethod)
	}
}

// readSecret reads the KV v2 secret of the service. A KV v2 read nests the
// values under "data" and the version details under "metadata".
func readSecret(ctx context.Context, repo ports.SecretsRepository, cfg SecretStorageConfig) (data, metadata map[string]any, err error) {
	path := secretPath("data", cfg.MountPath)

	secret, err := readWithRetry(ctx, repo, cfg, path)
	if err != nil {
		return nil, nil, err
	}

	if secret == nil || secret.Data == nil {
		return nil, nil, nil
	}

	data, ok := secret.Data["data"].(map[string]any)
	if !ok {
		return nil, nil, fmt.Errorf("invalid secret format at path %s, missing 'data' key", path)
	}

	metadata, _ = secret.Data["metadata"].(map[string]any)

	return data, metadata, nil
}

// readSecretMetadata reads the KV v2 metadata endpoint, which carries current_version without the values.
func readSecretMetadata(ctx context.Context, repo ports.SecretsRepository, cfg SecretStorageConfig) (map[string]any, error) {
	secret, err := readWithRetry(ctx, repo, cfg, secretPath("metadata", cfg.MountPath))
	if err != nil {
		return nil, err
	}

	if secret == nil {
		return nil, nil
	}

	return secret.Data, nil
}

func readWithRetry(ctx context.Context, repo ports.SecretsRepository, cfg SecretStorageConfig, path string) (*api.Secret, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	var (
		secret *api.Secret
		err    error
	)

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		secret, err = repo.GetSecrets(ctx, path)
		if err == nil {
			return secret, nil
		}

		if attempt == cfg.MaxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("failed to read from path %s: %w", path, ctx.Err())
		case <-time.After(time.Duration(attempt+1) * time.Second):
		}
	}

	return nil, fmt.Errorf("failed to read from path %s after %d retries: %w", path, cfg.MaxRetries, err)
}

func secretPath(kind, mountPath string) string {
	return fmt.Sprintf("apps/%s/%s", kind, mountPath)
}

// secretVersion reads current_version from the metadata endpoint or version from a data read.
func secretVersion(metadata map[string]any) (uint, error) {
	if metadata == nil {
		return 0, nil
	}

	raw, ok := metadata["current_version"]
	if !ok {
		if raw, ok = metadata["version"]; !ok {
			return 0, nil
		}
	}

	switch v := raw.(type) {
	case float64:
		return uint(v), nil
	case uint:
		return v, nil
	case json.Number:
		version, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("failed to parse version: %w", err)
		}

		return uint(version), nil
	default:
		return 0, fmt.Errorf("unexpected version type: %T", raw)
	}
}

// applySecrets copies the known non-empty string values onto cfg and exports every
// one of them to the environment, so a later Init sees the same values.
func applySecrets(cfg *ServiceConfig, data map[string]any) error {
	for key, value := range data {
		strValue, ok := value.(string)
		if !ok || strValue == "" {
			continue
		}

		if err := os.Setenv(key, strValue); err != nil {
			return fmt.Errorf("failed to set environment variable %s: %w", key, err)
		}

		if set, known := secretSetters[key]; known {
			set(cfg, strValue)
		}
	}

	return nil
}
