package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/kevin07696/virtualmerchant/internal/adapters/ports"
	"github.com/kevin07696/virtualmerchant/internal/adapters/secrets"
	"github.com/kevin07696/virtualmerchant/internal/config"
)

// initSecretManager returns the secret store for the configured credential source.
// Source "env" reads credentials straight from config and needs no store.
func initSecretManager(ctx context.Context, cfg *config.Config, logger *zap.Logger) ports.SecretManagerAdapter {
	creds := cfg.Credentials

	switch creds.Source {
	case config.SourceAWS:
		awsCfg := secrets.DefaultAWSSecretsManagerConfig(creds.AWSRegion)
		awsCfg.Endpoint = creds.AWSEndpoint
		awsCfg.CacheTTL = creds.CacheTTL()

		sm, err := secrets.NewAWSSecretsManagerAdapter(ctx, awsCfg, logger)
		if err != nil {
			logger.Fatal("Failed to initialize AWS Secrets Manager",
				zap.Error(err),
				zap.String("region", creds.AWSRegion),
			)
		}
		return sm

	case config.SourceVault:
		vaultCfg := secrets.DefaultVaultConfig(creds.VaultAddress)
		vaultCfg.Token = creds.VaultToken
		vaultCfg.MountPath = creds.VaultMount
		vaultCfg.CacheTTL = creds.CacheTTL()

		sm, err := secrets.NewVaultAdapter(vaultCfg, logger)
		if err != nil {
			logger.Fatal("Failed to initialize Vault",
				zap.Error(err),
				zap.String("address", creds.VaultAddress),
			)
		}
		return sm

	case config.SourceFile:
		logger.Warn("Using local file secrets - NOT for production use!",
			zap.String("root", creds.FileRoot),
		)
		return secrets.NewLocalSecretManager(creds.FileRoot, logger)

	default:
		return nil
	}
}
