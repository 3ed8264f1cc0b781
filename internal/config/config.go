// Package config loads the client configuration from a YAML file and/or
// environment variables. Environment variables take precedence over YAML values.
package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Gateway environments
const (
	EnvironmentSandbox    = "sandbox"
	EnvironmentProduction = "production"
)

// Credential sources
const (
	SourceEnv   = "env"
	SourceFile  = "file"
	SourceAWS   = "aws"
	SourceVault = "vault"
)

// Config holds all application configuration
type Config struct {
	Gateway     GatewayConfig     `yaml:"gateway"`
	Credentials CredentialsConfig `yaml:"credentials"`
	Logger      LoggerConfig      `yaml:"logger"`
}

// GatewayConfig selects the VirtualMerchant endpoint
type GatewayConfig struct {
	Environment    string `yaml:"environment" env:"VM_ENVIRONMENT" env-default:"sandbox" env-description:"sandbox or production"`
	Endpoint       string `yaml:"endpoint" env:"VM_ENDPOINT" env-description:"override the processxml endpoint"`
	TimeoutSeconds int    `yaml:"timeout_seconds" env:"VM_TIMEOUT" env-default:"60" env-description:"request timeout in seconds"`
}

// Sandbox reports whether the demo endpoint is selected
func (g GatewayConfig) Sandbox() bool {
	return g.Environment != EnvironmentProduction
}

// Timeout returns the request timeout as a duration
func (g GatewayConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSeconds) * time.Second
}

// CredentialsConfig says where merchant credentials come from.
// With source "env" they are read directly; otherwise SecretPath names a JSON
// secret {"merchant_id","user_id","pin"} in the chosen store.
type CredentialsConfig struct {
	Source     string `yaml:"source" env:"VM_CREDENTIALS_SOURCE" env-default:"env" env-description:"env, file, aws or vault"`
	MerchantID string `yaml:"merchant_id" env:"MERCHANT_ID"`
	UserID     string `yaml:"user_id" env:"USER_ID"`
	Pin        string `yaml:"pin" env:"SSL_PIN"`
	SecretPath string `yaml:"secret_path" env:"VM_SECRET_PATH"`

	FileRoot     string `yaml:"file_root" env:"VM_SECRETS_DIR" env-default:"./secrets"`
	AWSRegion    string `yaml:"aws_region" env:"AWS_REGION" env-default:"us-east-1"`
	AWSEndpoint  string `yaml:"aws_endpoint" env:"AWS_ENDPOINT_URL"`
	VaultAddress string `yaml:"vault_address" env:"VAULT_ADDR" env-default:"http://localhost:8200"`
	VaultToken   string `yaml:"vault_token" env:"VAULT_TOKEN"`
	VaultMount   string `yaml:"vault_mount" env:"VAULT_MOUNT" env-default:"secret"`
	CacheTTLMin  int    `yaml:"cache_ttl_minutes" env:"VM_SECRET_CACHE_TTL" env-default:"5"`
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level       string `yaml:"level" env:"LOG_LEVEL" env-default:"info" env-description:"debug, info, warn, error"`
	Development bool   `yaml:"development" env:"LOG_DEVELOPMENT" env-default:"false"`
}

// Load reads configuration from path (when set) and the environment
func Load(path string) (*Config, error) {
	cfg := &Config{}

	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, cfg)
	} else {
		err = cleanenv.ReadEnv(cfg)
	}
	if err != nil {
		desc, _ := cleanenv.GetDescription(cfg, nil)
		return nil, fmt.Errorf("load config: %w; %s", err, desc)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the fields required by the selected credential source
func (c *Config) Validate() error {
	switch c.Gateway.Environment {
	case EnvironmentSandbox, EnvironmentProduction:
	default:
		return fmt.Errorf("unknown gateway environment %q", c.Gateway.Environment)
	}
	if c.Gateway.TimeoutSeconds <= 0 {
		return fmt.Errorf("gateway timeout must be positive, got %d", c.Gateway.TimeoutSeconds)
	}

	switch c.Credentials.Source {
	case SourceEnv:
		// checked when the gateway is constructed
	case SourceFile, SourceAWS:
		if c.Credentials.SecretPath == "" {
			return fmt.Errorf("VM_SECRET_PATH is required for credential source %q", c.Credentials.Source)
		}
	case SourceVault:
		if c.Credentials.SecretPath == "" {
			return fmt.Errorf("VM_SECRET_PATH is required for credential source %q", c.Credentials.Source)
		}
		if c.Credentials.VaultToken == "" {
			return fmt.Errorf("VAULT_TOKEN is required for credential source %q", c.Credentials.Source)
		}
	default:
		return fmt.Errorf("unknown credential source %q", c.Credentials.Source)
	}

	switch c.Logger.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Logger.Level)
	}
	return nil
}

// CacheTTL returns the secret cache TTL
func (c CredentialsConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMin) * time.Minute
}
