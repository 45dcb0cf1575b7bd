package config

import "time"

const issuerEnvVar = "OIDC_ISSUER"

// EnvVars is decoded by envdecode. Slices are semicolon separated.
type EnvVars struct {
	AppName             string        `env:"APP_NAME,default=OIDC Token"`
	LogLevel            string        `env:"LOG_LEVEL,default=info"`
	Issuer              string        `env:"OIDC_ISSUER"`
	ClientID            string        `env:"OIDC_CLIENT_ID"`
	Username            string        `env:"OIDC_USERNAME"`
	Password            string        `env:"OIDC_PASSWORD"`
	TrustBundle         string        `env:"OIDC_TRUST_BUNDLE"`
	HolderOfKeyPKCS12   string        `env:"OIDC_HOK_PKCS12"`
	HolderOfKeyPassword string        `env:"OIDC_HOK_PASSWORD"`
	ClockTolerance      time.Duration `env:"OIDC_CLOCK_TOLERANCE,default=0s"`
	RefreshToken        bool          `env:"OIDC_REFRESH,default=false"`
	ResourceServers     []string      `env:"OIDC_RESOURCE_SERVERS"`
}

var _ Config = EnvVars{}

func (e EnvVars) GetAppName() string {
	return e.AppName
}

func (e EnvVars) GetLogLevel() string {
	return e.LogLevel
}

func (e EnvVars) GetIssuer() string {
	return e.Issuer
}

func (e EnvVars) GetClientID() string {
	return e.ClientID
}

// GetTrustBundle returns the path of a PEM bundle; empty means the system roots.
func (e EnvVars) GetTrustBundle() string {
	return e.TrustBundle
}

func (e EnvVars) GetHolderOfKeyPKCS12() string {
	return e.HolderOfKeyPKCS12
}

func (e EnvVars) GetHolderOfKeyPassword() string {
	return e.HolderOfKeyPassword
}

func (e EnvVars) GetClockTolerance() time.Duration {
	return e.ClockTolerance
}

func (e EnvVars) GetUsername() string {
	return e.Username
}

func (e EnvVars) GetPassword() string {
	return e.Password
}

func (e EnvVars) GetRefreshToken() bool {
	return e.RefreshToken
}

func (e EnvVars) GetResourceServers() []string {
	return append([]string(nil), e.ResourceServers...)
}
