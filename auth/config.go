package auth

import (
	"context"
	"crypto/rsa"
	"net/url"
	"strings"
	"time"

	"github.com/jrsteele09/go-oidc-client/clients"
	"github.com/jrsteele09/go-oidc-client/metadata"
	"github.com/jrsteele09/go-oidc-client/oauth2"
	"github.com/jrsteele09/go-oidc-client/oauthmodel"
	"github.com/jrsteele09/go-oidc-client/token/jwt"
	"github.com/jrsteele09/go-oidc-client/token/keys"
	"github.com/jrsteele09/go-oidc-client/truststore"
)

// ConnectionConfig describes how to reach and trust one identity provider.
type ConnectionConfig struct {
	issuer                string
	tokenEndpoint         *url.URL
	authorizationEndpoint *url.URL
	endSessionEndpoint    *url.URL
	providerPublicKey     *rsa.PublicKey
	trustStore            *truststore.Store
}

// ConnectionOption configures a ConnectionConfig.
type ConnectionOption func(*ConnectionConfig)

// WithAuthorizationEndpoint sets the endpoint browser authentication requests are sent to.
func WithAuthorizationEndpoint(u *url.URL) ConnectionOption {
	return func(c *ConnectionConfig) {
		c.authorizationEndpoint = u
	}
}

// WithEndSessionEndpoint sets the endpoint logout requests are sent to.
func WithEndSessionEndpoint(u *url.URL) ConnectionOption {
	return func(c *ConnectionConfig) {
		c.endSessionEndpoint = u
	}
}

// WithTrustStore sets the certificates the provider's TLS certificate is verified
// against. Without it the system roots are used.
func WithTrustStore(store *truststore.Store) ConnectionOption {
	return func(c *ConnectionConfig) {
		c.trustStore = store
	}
}

// NewConnectionConfig creates a connection configuration. issuer, tokenEndpoint and
// providerPublicKey are required.
func NewConnectionConfig(issuer string, tokenEndpoint *url.URL, providerPublicKey *rsa.PublicKey, opts ...ConnectionOption) (*ConnectionConfig, error) {
	c := &ConnectionConfig{
		issuer:            issuer,
		tokenEndpoint:     tokenEndpoint,
		providerPublicKey: providerPublicKey,
	}
	for _, opt := range opts {
		opt(c)
	}

	if strings.TrimSpace(c.issuer) == "" {
		return nil, oauthmodel.ClientError("[NewConnectionConfig] issuer is required")
	}
	if c.providerPublicKey == nil {
		return nil, oauthmodel.ClientError("[NewConnectionConfig] provider public key is required")
	}
	if c.tokenEndpoint == nil {
		return nil, oauthmodel.ClientError("[NewConnectionConfig] token endpoint is required")
	}
	if err := checkEndpoint("token endpoint", c.tokenEndpoint); err != nil {
		return nil, err
	}
	if err := checkEndpoint("authorization endpoint", c.authorizationEndpoint); err != nil {
		return nil, err
	}
	if err := checkEndpoint("end session endpoint", c.endSessionEndpoint); err != nil {
		return nil, err
	}
	return c, nil
}

func checkEndpoint(name string, u *url.URL) error {
	if u != nil && (!u.IsAbs() || u.Host == "") {
		return oauthmodel.ClientError("[NewConnectionConfig] %s %q must be an absolute uri", name, u.String())
	}
	return nil
}

// NewConnectionConfigFromMetadata creates a connection configuration from discovered
// provider metadata.
func NewConnectionConfigFromMetadata(md *metadata.ProviderMetadata, providerPublicKey *rsa.PublicKey, opts ...ConnectionOption) (*ConnectionConfig, error) {
	if md == nil {
		return nil, oauthmodel.ClientError("[NewConnectionConfigFromMetadata] provider metadata is required")
	}
	base := []ConnectionOption{
		WithAuthorizationEndpoint(md.AuthorizationEndpoint),
		WithEndSessionEndpoint(md.EndSessionEndpoint),
	}
	return NewConnectionConfig(md.Issuer, md.TokenEndpoint, providerPublicKey, append(base, opts...)...)
}

func (c *ConnectionConfig) Issuer() string { return c.issuer }
func (c *ConnectionConfig) TokenEndpoint() *url.URL { return c.tokenEndpoint }
func (c *ConnectionConfig) AuthorizationEndpoint() *url.URL { return c.authorizationEndpoint }
func (c *ConnectionConfig) EndSessionEndpoint() *url.URL { return c.endSessionEndpoint }
func (c *ConnectionConfig) ProviderPublicKey() *rsa.PublicKey { return c.providerPublicKey }
func (c *ConnectionConfig) TrustStore() *truststore.Store { return c.trustStore }

// HostResolver returns the host requests should currently be sent to.
// *affinity.Resolver implements it.
type HostResolver interface {
	ResolveHost(ctx context.Context) (string, error)
}

// HighAvailabilityConfig routes every request to the affinitized domain controller.
type HighAvailabilityConfig struct {
	resolver HostResolver
}

// NewHighAvailabilityConfig creates a high availability configuration.
func NewHighAvailabilityConfig(resolver HostResolver) (*HighAvailabilityConfig, error) {
	if resolver == nil {
		return nil, oauthmodel.ClientError("[NewHighAvailabilityConfig] resolver is required")
	}
	return &HighAvailabilityConfig{resolver: resolver}, nil
}

// ClientConfig is the immutable configuration of a Client.
type ClientConfig struct {
	connection     *ConnectionConfig
	clientID       string
	authMethod     oauth2.ClientAuthenticationMethod
	holderOfKey    *keys.HolderOfKeyConfig
	ha             *HighAvailabilityConfig
	clockTolerance time.Duration
	registration   *clients.Metadata
}

// ClientOption configures a ClientConfig.
type ClientOption func(*ClientConfig)

// WithClientID sets the registered client id.
func WithClientID(id string) ClientOption {
	return func(c *ClientConfig) {
		c.clientID = id
	}
}

// WithClientAuthenticationMethod sets how the client authenticates to the token endpoint.
func WithClientAuthenticationMethod(method oauth2.ClientAuthenticationMethod) ClientOption {
	return func(c *ClientConfig) {
		c.authMethod = method
	}
}

// WithHolderOfKey makes requests holder of key, proving possession of hok's private key.
func WithHolderOfKey(hok *keys.HolderOfKeyConfig) ClientOption {
	return func(c *ClientConfig) {
		c.holderOfKey = hok
	}
}

// WithHighAvailability enables domain controller affinity for every request.
func WithHighAvailability(ha *HighAvailabilityConfig) ClientOption {
	return func(c *ClientConfig) {
		c.ha = ha
	}
}

// WithClockTolerance sets the clock skew accepted when validating access tokens.
func WithClockTolerance(d time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.clockTolerance = d
	}
}

// WithRegistration sets the registered client metadata that redirect URIs are checked against.
func WithRegistration(md *clients.Metadata) ClientOption {
	return func(c *ClientConfig) {
		c.registration = md
	}
}

// NewClientConfig creates a client configuration for connection.
func NewClientConfig(connection *ConnectionConfig, opts ...ClientOption) (*ClientConfig, error) {
	if connection == nil {
		return nil, oauthmodel.ClientError("[NewClientConfig] connection config is required")
	}
	c := &ClientConfig{
		connection: connection,
		authMethod: oauth2.ClientAuthenticationNone,
	}
	for _, opt := range opts {
		opt(c)
	}

	switch c.authMethod {
	case oauth2.ClientAuthenticationNone:
	case oauth2.ClientAuthenticationPrivateKeyJWT:
		if c.clientID == "" {
			return nil, oauthmodel.ClientError("[NewClientConfig] private_key_jwt requires a client id")
		}
		if c.holderOfKey == nil {
			return nil, oauthmodel.ClientError("[NewClientConfig] private_key_jwt requires a holder of key configuration")
		}
	default:
		return nil, oauthmodel.ClientError("[NewClientConfig] unsupported client authentication method %q", c.authMethod)
	}
	if err := jwt.ValidateClockTolerance(c.clockTolerance); err != nil {
		return nil, err
	}
	if c.registration != nil && c.registration.ID != c.clientID {
		return nil, oauthmodel.ClientError("[NewClientConfig] registration is for client %q, not %q", c.registration.ID, c.clientID)
	}
	return c, nil
}

func (c *ClientConfig) Connection() *ConnectionConfig { return c.connection }
func (c *ClientConfig) ClientID() string { return c.clientID }
func (c *ClientConfig) ClientAuthenticationMethod() oauth2.ClientAuthenticationMethod { return c.authMethod }
func (c *ClientConfig) HolderOfKey() *keys.HolderOfKeyConfig { return c.holderOfKey }
func (c *ClientConfig) ClockTolerance() time.Duration { return c.clockTolerance }
func (c *ClientConfig) Registration() *clients.Metadata { return c.registration }
