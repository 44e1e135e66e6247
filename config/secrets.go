package config

import (
	"context"
	"fmt"
	"os"
)

// SecretStore resolves sensitive values (API tokens, DSNs) at startup.
type SecretStore interface {
	Get(ctx context.Context, key string) (string, error)
	GetWithDefault(ctx context.Context, key, fallback string) string
}

// EnvironmentSecretStore reads secrets from process environment variables.
type EnvironmentSecretStore struct{}

func NewEnvironmentSecretStore() *EnvironmentSecretStore {
	return &EnvironmentSecretStore{}
}

func (s *EnvironmentSecretStore) Get(_ context.Context, key string) (string, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", fmt.Errorf("secret %q not set", key)
	}
	return value, nil
}

func (s *EnvironmentSecretStore) GetWithDefault(ctx context.Context, key, fallback string) string {
	value, err := s.Get(ctx, key)
	if err != nil {
		return fallback
	}
	return value
}

var _ SecretStore = (*EnvironmentSecretStore)(nil)

// LoadSecretsFromEnv overlays sensitive values from the environment secret
// store, keeping the file-loaded values as fallbacks.
func (c *Config) LoadSecretsFromEnv(ctx context.Context) error {
	store := NewEnvironmentSecretStore()
	c.Remote.Token = store.GetWithDefault(ctx, "WELLKIT_REMOTE_TOKEN", c.Remote.Token)
	c.Storage.Redis.Password = store.GetWithDefault(ctx, "WELLKIT_REDIS_PASSWORD", c.Storage.Redis.Password)
	c.Storage.SQL.DSN = store.GetWithDefault(ctx, "WELLKIT_SQL_DSN", c.Storage.SQL.DSN)
	return nil
}
