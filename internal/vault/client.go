// Package vault reads exchange API credentials from HashiCorp Vault, with a
// local fallback when Vault is disabled.
package vault

import (
	"context"
	"fmt"

	"github.com/hashicorp/vault/api"
)

// Credentials are exchange API credentials.
type Credentials struct {
	APIKey    string `json:"api_key"`
	SecretKey string `json:"secret_key"`
}

// Config configures the Vault client.
type Config struct {
	Enabled    bool   `json:"enabled"`
	Address    string `json:"address"`
	Token      string `json:"token"`
	SecretPath string `json:"secret_path"`

	// Fallback credentials used when Vault is disabled.
	FallbackAPIKey    string `json:"-"`
	FallbackSecretKey string `json:"-"`
}

// Client wraps the HashiCorp Vault client.
type Client struct {
	client *api.Client
	config Config
}

// NewClient creates a Vault client. With Vault disabled, the client serves
// the configured fallback credentials.
func NewClient(cfg Config) (*Client, error) {
	if !cfg.Enabled {
		return &Client{config: cfg}, nil
	}

	vaultConfig := api.DefaultConfig()
	vaultConfig.Address = cfg.Address

	client, err := api.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("create vault client: %w", err)
	}
	client.SetToken(cfg.Token)

	return &Client{client: client, config: cfg}, nil
}

// ExchangeCredentials returns the exchange API credentials.
func (c *Client) ExchangeCredentials(ctx context.Context) (Credentials, error) {
	if !c.config.Enabled {
		return Credentials{
			APIKey:    c.config.FallbackAPIKey,
			SecretKey: c.config.FallbackSecretKey,
		}, nil
	}

	secret, err := c.client.Logical().ReadWithContext(ctx, c.config.SecretPath)
	if err != nil {
		return Credentials{}, fmt.Errorf("read vault secret: %w", err)
	}
	if secret == nil || secret.Data == nil {
		return Credentials{}, fmt.Errorf("vault secret not found at %s", c.config.SecretPath)
	}

	// KV v2 nests the payload under "data".
	data := secret.Data
	if nested, ok := secret.Data["data"].(map[string]interface{}); ok {
		data = nested
	}

	creds := Credentials{}
	if v, ok := data["api_key"].(string); ok {
		creds.APIKey = v
	}
	if v, ok := data["secret_key"].(string); ok {
		creds.SecretKey = v
	}
	if creds.APIKey == "" {
		return Credentials{}, fmt.Errorf("vault secret at %s missing api_key", c.config.SecretPath)
	}
	return creds, nil
}
