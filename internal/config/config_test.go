package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("MERCHANT_ID", "000078")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.True(t, cfg.Gateway.Sandbox())
	assert.Equal(t, 60*time.Second, cfg.Gateway.Timeout())
	assert.Equal(t, SourceEnv, cfg.Credentials.Source)
	assert.Equal(t, "000078", cfg.Credentials.MerchantID)
	assert.Equal(t, 5*time.Minute, cfg.Credentials.CacheTTL())
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.False(t, cfg.Logger.Development)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := writeConfig(t, `
gateway:
  environment: production
  timeout_seconds: 15
credentials:
  source: file
  secret_path: merchants/000078.json
  file_root: /etc/vm
logger:
  level: debug
  development: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.False(t, cfg.Gateway.Sandbox())
	assert.Equal(t, 15*time.Second, cfg.Gateway.Timeout())
	assert.Equal(t, SourceFile, cfg.Credentials.Source)
	assert.Equal(t, "merchants/000078.json", cfg.Credentials.SecretPath)
	assert.Equal(t, "/etc/vm", cfg.Credentials.FileRoot)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.True(t, cfg.Logger.Development)
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	path := writeConfig(t, `
gateway:
  timeout_seconds: 15
logger:
  level: debug
`)
	t.Setenv("VM_TIMEOUT", "30")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.Gateway.Timeout())
	assert.Equal(t, "debug", cfg.Logger.Level)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Gateway:     GatewayConfig{Environment: EnvironmentSandbox, TimeoutSeconds: 60},
			Credentials: CredentialsConfig{Source: SourceEnv},
			Logger:      LoggerConfig{Level: "info"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"env source", func(*Config) {}, ""},
		{"unknown environment", func(c *Config) { c.Gateway.Environment = "staging" }, "unknown gateway environment"},
		{"zero timeout", func(c *Config) { c.Gateway.TimeoutSeconds = 0 }, "timeout must be positive"},
		{"file without path", func(c *Config) { c.Credentials.Source = SourceFile }, "VM_SECRET_PATH"},
		{"aws without path", func(c *Config) { c.Credentials.Source = SourceAWS }, "VM_SECRET_PATH"},
		{"aws with path", func(c *Config) {
			c.Credentials.Source = SourceAWS
			c.Credentials.SecretPath = "virtualmerchant/merchants/000078"
		}, ""},
		{"vault without token", func(c *Config) {
			c.Credentials.Source = SourceVault
			c.Credentials.SecretPath = "virtualmerchant/merchants/000078"
		}, "VAULT_TOKEN"},
		{"unknown source", func(c *Config) { c.Credentials.Source = "gcp" }, "unknown credential source"},
		{"unknown level", func(c *Config) { c.Logger.Level = "trace" }, "unknown log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
