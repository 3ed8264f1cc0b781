package config

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevin07696/virtualmerchant/internal/adapters/ports"
)

type staticSecrets struct {
	values map[string]string
}

func (s staticSecrets) GetSecret(_ context.Context, path string) (*ports.Secret, error) {
	value, ok := s.values[path]
	if !ok {
		return nil, errors.New("secret not found")
	}
	return &ports.Secret{Value: value}, nil
}

func TestParseCredentialsSecret(t *testing.T) {
	creds, err := ParseCredentialsSecret(`{"merchant_id":"000078","user_id":"webpage","pin":"ZKN0S1"}`)
	require.NoError(t, err)
	assert.Equal(t, "000078", creds.MerchantID)
	assert.Equal(t, "webpage", creds.UserID)
	assert.Equal(t, "ZKN0S1", creds.Pin)
}

func TestParseCredentialsSecret_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr string
	}{
		{"not json", "merchant_id=000078", "failed to parse"},
		{"missing pin", `{"merchant_id":"000078","user_id":"webpage"}`, "SSL_PIN"},
		{"missing merchant", `{"user_id":"webpage","pin":"ZKN0S1"}`, "MERCHANT_ID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCredentialsSecret(tt.value)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestResolveCredentials_Env(t *testing.T) {
	cfg := &Config{
		Gateway: GatewayConfig{Environment: EnvironmentSandbox},
		Credentials: CredentialsConfig{
			Source:     SourceEnv,
			MerchantID: "000078",
			UserID:     "webpage",
			Pin:        "ZKN0S1",
		},
	}

	creds, err := ResolveCredentials(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "000078", creds.MerchantID)
	assert.True(t, creds.Sandbox)
}

func TestResolveCredentials_EnvMissingPin(t *testing.T) {
	cfg := &Config{Credentials: CredentialsConfig{Source: SourceEnv, MerchantID: "000078", UserID: "webpage"}}

	_, err := ResolveCredentials(context.Background(), cfg, nil)
	assert.EqualError(t, err, "SSL_PIN must be defined")
}

func TestResolveCredentials_SecretStore(t *testing.T) {
	secrets := staticSecrets{values: map[string]string{
		"virtualmerchant/merchants/000078": `{"merchant_id":"000078","user_id":"webpage","pin":"ZKN0S1"}`,
	}}
	cfg := &Config{
		Gateway:     GatewayConfig{Environment: EnvironmentProduction},
		Credentials: CredentialsConfig{Source: SourceAWS, SecretPath: "virtualmerchant/merchants/000078"},
	}

	creds, err := ResolveCredentials(context.Background(), cfg, secrets)
	require.NoError(t, err)
	assert.Equal(t, "ZKN0S1", creds.Pin)
	assert.False(t, creds.Sandbox)

	cfg.Credentials.SecretPath = "virtualmerchant/merchants/999999"
	_, err = ResolveCredentials(context.Background(), cfg, secrets)
	assert.ErrorContains(t, err, "failed to load credentials from aws")

	_, err = ResolveCredentials(context.Background(), cfg, nil)
	assert.ErrorContains(t, err, "no secret manager")
}
