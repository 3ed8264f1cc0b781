package config

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kevin07696/virtualmerchant/internal/adapters/ports"
	"github.com/kevin07696/virtualmerchant/internal/domain"
)

// credentialsSecret is the JSON layout of a stored merchant secret
type credentialsSecret struct {
	MerchantID string `json:"merchant_id"`
	UserID     string `json:"user_id"`
	Pin        string `json:"pin"`
}

// ParseCredentialsSecret decodes {"merchant_id","user_id","pin"}
func ParseCredentialsSecret(value string) (domain.Credentials, error) {
	var secret credentialsSecret
	if err := json.Unmarshal([]byte(value), &secret); err != nil {
		return domain.Credentials{}, fmt.Errorf("failed to parse credentials secret: %w", err)
	}

	creds := domain.Credentials{
		MerchantID: secret.MerchantID,
		UserID:     secret.UserID,
		Pin:        secret.Pin,
	}
	if err := creds.Validate(); err != nil {
		return domain.Credentials{}, err
	}
	return creds, nil
}

// ResolveCredentials returns the merchant credentials for the configured source.
// The secret manager is only consulted for non-env sources and may be nil otherwise.
func ResolveCredentials(ctx context.Context, cfg *Config, secrets ports.SecretManagerAdapter) (domain.Credentials, error) {
	var creds domain.Credentials

	if cfg.Credentials.Source == SourceEnv {
		creds = domain.Credentials{
			MerchantID: cfg.Credentials.MerchantID,
			UserID:     cfg.Credentials.UserID,
			Pin:        cfg.Credentials.Pin,
		}
		if err := creds.Validate(); err != nil {
			return domain.Credentials{}, err
		}
	} else {
		if secrets == nil {
			return domain.Credentials{}, fmt.Errorf("no secret manager for credential source %q", cfg.Credentials.Source)
		}
		secret, err := secrets.GetSecret(ctx, cfg.Credentials.SecretPath)
		if err != nil {
			return domain.Credentials{}, fmt.Errorf("failed to load credentials from %s: %w", cfg.Credentials.Source, err)
		}
		creds, err = ParseCredentialsSecret(secret.Value)
		if err != nil {
			return domain.Credentials{}, err
		}
	}

	creds.Sandbox = cfg.Gateway.Sandbox()
	return creds, nil
}
