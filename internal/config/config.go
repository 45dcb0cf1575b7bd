package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joeshaw/envdecode"
)

type Config interface {
	EnvConfig
	ProviderConfig
	TokenConfig
}

type EnvConfig interface {
	GetAppName() string
	GetLogLevel() string
}

type ProviderConfig interface {
	GetIssuer() string
	GetClientID() string
	GetTrustBundle() string
	GetHolderOfKeyPKCS12() string
	GetHolderOfKeyPassword() string
	GetClockTolerance() time.Duration
}

type TokenConfig interface {
	GetUsername() string
	GetPassword() string
	GetRefreshToken() bool
	GetResourceServers() []string
}

// New reads the OIDC_* environment variables. OIDC_ISSUER is required.
func New() (Config, error) {
	var vars EnvVars
	if err := envdecode.Decode(&vars); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	if vars.Issuer == "" {
		return nil, fmt.Errorf("%s is required", issuerEnvVar)
	}
	return vars, nil
}
