// Package auth acquires and validates OIDC tokens from an identity provider. A Client
// picks the proof of possession assertion for each request, drives the grant
// negotiation and validates the returned token set.
package auth

import (
	"context"
	"crypto/x509"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-oidc-client/affinity"
	"github.com/jrsteele09/go-oidc-client/grants"
	"github.com/jrsteele09/go-oidc-client/internal/transport"
	"github.com/jrsteele09/go-oidc-client/internal/utils"
	"github.com/jrsteele09/go-oidc-client/oauth2"
	"github.com/jrsteele09/go-oidc-client/oauthmodel"
	"github.com/jrsteele09/go-oidc-client/token"
	"github.com/jrsteele09/go-oidc-client/token/assertion"
	"github.com/jrsteele09/go-oidc-client/token/jwt"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const formContentType = "application/x-www-form-urlencoded"

// Transport sends one request to the identity provider.
type Transport interface {
	Send(ctx context.Context, method string, endpoint *url.URL, header http.Header, body []byte) (*oauth2.HTTPResponse, error)
}

// Client acquires tokens for one ClientConfig. It holds no per call state and is safe
// for concurrent use.
type Client struct {
	config    *ClientConfig
	transport Transport
	validator *jwt.Validator
	logger    zerolog.Logger
	nowFunc   func() time.Time
	maxLegs   int
}

// Option configures a Client.
type Option func(*Client)

// WithTransport replaces the TLS transport built from the connection trust store.
func WithTransport(t Transport) Option {
	return func(c *Client) {
		c.transport = t
	}
}

// WithLogger sets the client logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithNowFunc sets the clock used for assertions and token validation (primarily for testing).
func WithNowFunc(f func() time.Time) Option {
	return func(c *Client) {
		c.nowFunc = f
	}
}

// WithMaxNegotiationLegs bounds the round trips of GSS and SecurID grants.
func WithMaxNegotiationLegs(n int) Option {
	return func(c *Client) {
		c.maxLegs = n
	}
}

// New creates a client for config.
func New(config *ClientConfig, opts ...Option) (*Client, error) {
	if config == nil {
		return nil, oauthmodel.ClientError("[New] client config is required")
	}
	c := &Client{
		config:  config,
		logger:  log.Logger,
		maxLegs: grants.DefaultMaxLegs,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.transport == nil {
		t, err := transport.New(config.connection.trustStore, transport.WithLogger(c.logger))
		if err != nil {
			return nil, err
		}
		c.transport = t
	}

	validatorOpts := []jwt.ValidatorOption{jwt.WithClockTolerance(config.clockTolerance)}
	if c.nowFunc != nil {
		validatorOpts = append(validatorOpts, jwt.WithNowFunc(c.nowFunc))
	}
	validator, err := jwt.NewValidator(config.connection.providerPublicKey, config.connection.issuer, validatorOpts...)
	if err != nil {
		return nil, err
	}
	c.validator = validator
	return c, nil
}

// Config returns the client configuration.
func (c *Client) Config() *ClientConfig {
	return c.config
}

// AcquireTokens runs grant against the token endpoint and validates the returned tokens.
// Authorization code and refresh token grants must use oauthmodel.EmptyTokenSpec.
func (c *Client) AcquireTokens(ctx context.Context, grant grants.AuthorizationGrant, spec oauthmodel.TokenSpec) (*token.OIDCTokens, error) {
	if grant == nil {
		return nil, oauthmodel.ClientError("authorization grant is required")
	}
	omitScope := grants.RequiresEmptyTokenSpec(grant)
	if omitScope && !spec.IsEmpty() {
		return nil, oauthmodel.ClientError("%s grant must use an empty token spec", grant.GrantType())
	}
	if err := c.checkAssertionSupport(grant); err != nil {
		return nil, err
	}
	if err := grant.Validate(); err != nil {
		return nil, err
	}

	var scope []string
	if !omitScope {
		var err error
		if scope, err = spec.Scope(); err != nil {
			return nil, err
		}
	}

	endpoints, err := c.resolveEndpoints(ctx)
	if err != nil {
		return nil, err
	}

	correlationID := uuid.New().String()
	logger := c.logger.With().
		Str("grant_type", string(grant.GrantType())).
		Str("correlation_id", correlationID).
		Logger()

	send := func(ctx context.Context, leg grants.Leg) (*oauth2.HTTPResponse, error) {
		clientAssertion, solutionUserAssertion, err := c.proofOfPossession(endpoints.token, logger)
		if err != nil {
			return nil, err
		}
		req := &oauthmodel.TokenRequest{
			GrantType:             leg.GrantType(),
			GrantParams:           leg.Parameters(),
			Scope:                 scope,
			ClientID:              c.config.clientID,
			ClientAssertion:       clientAssertion,
			SolutionUserAssertion: solutionUserAssertion,
			CorrelationID:         correlationID,
		}
		if err := req.Validate(); err != nil {
			return nil, err
		}
		header := http.Header{"Content-Type": {formContentType}}
		return c.transport.Send(ctx, http.MethodPost, endpoints.token, header, req.Encode())
	}

	resp, err := grants.Negotiate(ctx, grant, send,
		grants.WithAudience(endpoints.token),
		grants.WithMaxLegs(c.maxLegs),
		grants.WithLogger(logger),
		grants.WithAssertionOptions(c.assertionOptions()...),
	)
	if err != nil {
		return nil, err
	}
	return c.handleTokenResponse(resp, logger)
}

// AcquireTokensByPassword uses the resource owner password grant.
func (c *Client) AcquireTokensByPassword(ctx context.Context, username, password string, spec oauthmodel.TokenSpec) (*token.OIDCTokens, error) {
	return c.AcquireTokens(ctx, &grants.PasswordCredentials{Username: username, Password: password}, spec)
}

// AcquireTokensByRefreshToken exchanges a refresh token for a new ID and access token.
func (c *Client) AcquireTokensByRefreshToken(ctx context.Context, refreshToken *token.RefreshToken) (*token.OIDCTokens, error) {
	return c.AcquireTokens(ctx, &grants.RefreshToken{Token: refreshToken}, oauthmodel.EmptyTokenSpec)
}

// AcquireTokensByAuthorizationCode exchanges an authorization code. redirectURI must be
// the one sent in the authentication request.
func (c *Client) AcquireTokensByAuthorizationCode(ctx context.Context, code string, redirectURI *url.URL) (*token.OIDCTokens, error) {
	if err := c.checkRedirectURI(redirectURI); err != nil {
		return nil, err
	}
	return c.AcquireTokens(ctx, &grants.AuthorizationCode{Code: code, RedirectURI: redirectURI}, oauthmodel.EmptyTokenSpec)
}

// AcquireTokensBySolutionUserCredentials authenticates as the holder of key solution user.
func (c *Client) AcquireTokensBySolutionUserCredentials(ctx context.Context, spec oauthmodel.TokenSpec) (*token.OIDCTokens, error) {
	return c.AcquireTokens(ctx, &grants.SolutionUserCredentials{}, spec)
}

// AcquireTokensByClientCredentials authenticates as the client itself.
func (c *Client) AcquireTokensByClientCredentials(ctx context.Context, spec oauthmodel.TokenSpec) (*token.OIDCTokens, error) {
	return c.AcquireTokens(ctx, &grants.ClientCredentials{}, spec)
}

// AcquireTokensByGSS runs a GSS ticket negotiation under a fresh context id.
func (c *Client) AcquireTokensByGSS(ctx context.Context, handler grants.GSSNegotiationHandler, spec oauthmodel.TokenSpec) (*token.OIDCTokens, error) {
	return c.AcquireTokens(ctx, &grants.GSSTicket{ContextID: uuid.New().String(), Handler: handler}, spec)
}

// AcquireTokensBySecurID authenticates with a SecurID passcode. retriever supplies the
// next passcode when the server asks for one.
func (c *Client) AcquireTokensBySecurID(ctx context.Context, username, passcode string, retriever grants.SecurIDRetriever, spec oauthmodel.TokenSpec) (*token.OIDCTokens, error) {
	return c.AcquireTokens(ctx, &grants.SecurID{Username: username, Passcode: passcode, Retriever: retriever}, spec)
}

// AcquireTokensByPersonUserCertificate authenticates with a person user certificate,
// for example from a smart card. signer signs the assertion with the certificate key.
func (c *Client) AcquireTokensByPersonUserCertificate(ctx context.Context, cert *x509.Certificate, signer assertion.PersonUserAssertionSigner, spec oauthmodel.TokenSpec) (*token.OIDCTokens, error) {
	return c.AcquireTokens(ctx, &grants.PersonUserCertificate{Certificate: cert, Signer: signer}, spec)
}

func (c *Client) checkAssertionSupport(grant grants.AuthorizationGrant) error {
	privateKeyJWT := c.config.authMethod == oauth2.ClientAuthenticationPrivateKeyJWT
	switch grant.(type) {
	case *grants.ClientCredentials:
		if !privateKeyJWT {
			return oauthmodel.ClientError("%s grant requires private_key_jwt client authentication", grant.GrantType())
		}
	case *grants.SolutionUserCredentials:
		if privateKeyJWT || c.config.holderOfKey == nil {
			return oauthmodel.ClientError("%s grant requires a holder of key configuration without private_key_jwt", grant.GrantType())
		}
	}
	return nil
}

// proofOfPossession returns at most one of a client assertion and a solution user
// assertion for endpoint.
func (c *Client) proofOfPossession(endpoint *url.URL, logger zerolog.Logger) (clientAssertion, solutionUserAssertion string, err error) {
	switch {
	case c.config.authMethod == oauth2.ClientAuthenticationPrivateKeyJWT:
		logger.Debug().Msg("attaching client assertion")
		clientAssertion, err = assertion.NewClientAssertion(c.config.clientID, c.config.holderOfKey, endpoint, c.assertionOptions()...)
	case c.config.holderOfKey != nil:
		logger.Debug().Msg("attaching solution user assertion")
		solutionUserAssertion, err = assertion.NewSolutionUserAssertion(c.config.holderOfKey, endpoint, c.assertionOptions()...)
	}
	return clientAssertion, solutionUserAssertion, err
}

func (c *Client) clientAssertion(endpoint *url.URL) (string, error) {
	if c.config.authMethod != oauth2.ClientAuthenticationPrivateKeyJWT {
		return "", nil
	}
	return assertion.NewClientAssertion(c.config.clientID, c.config.holderOfKey, endpoint, c.assertionOptions()...)
}

func (c *Client) assertionOptions() []assertion.Option {
	if c.nowFunc == nil {
		return nil
	}
	return []assertion.Option{assertion.WithNowFunc(c.nowFunc)}
}

type endpoints struct {
	token         *url.URL
	authorization *url.URL
	endSession    *url.URL
}

// resolveEndpoints returns the connection endpoints, with their host replaced by the
// affinitized domain controller when high availability is enabled. It is called once
// per operation so every request of the operation goes to the same host.
func (c *Client) resolveEndpoints(ctx context.Context) (*endpoints, error) {
	conn := c.config.connection
	e := &endpoints{
		token:         conn.tokenEndpoint,
		authorization: conn.authorizationEndpoint,
		endSession:    conn.endSessionEndpoint,
	}
	if c.config.ha == nil {
		return e, nil
	}

	host, err := c.config.ha.resolver.ResolveHost(ctx)
	if err != nil {
		if oauthmodel.KindOf(err) == "" {
			return nil, oauthmodel.WrapClientError(err, "failed to resolve affinitized host")
		}
		return nil, err
	}
	for _, u := range []**url.URL{&e.token, &e.authorization, &e.endSession} {
		if *u == nil {
			continue
		}
		if *u, err = affinity.ReplaceHost(*u, host); err != nil {
			return nil, err
		}
	}
	c.logger.Debug().Str("host", host).Msg("using affinitized host")
	return e, nil
}

func (c *Client) handleTokenResponse(resp *oauth2.HTTPResponse, logger zerolog.Logger) (*token.OIDCTokens, error) {
	if resp == nil {
		return nil, oauthmodel.ClientError("no response from token endpoint")
	}
	if !resp.OK() {
		errResp, err := oauth2.ParseErrorResponse(resp.Body)
		if err != nil {
			return nil, oauthmodel.WrapClientError(err, "failed to parse token endpoint error response (status %d)", resp.StatusCode)
		}
		logger.Warn().
			Int("status", resp.StatusCode).
			Str("error", errResp.Error).
			Str("error_description", errResp.ErrorDescription).
			Msg("token request rejected")
		return nil, oauthmodel.ServerError(errResp.Error, errResp.ErrorDescription)
	}

	tr, err := oauth2.ParseTokenResponse(resp.Body)
	if err != nil {
		return nil, oauthmodel.WrapClientError(err, "failed to parse token response")
	}
	if utils.Value(tr.IDToken) == "" {
		return nil, oauthmodel.ClientError("token response has no id_token")
	}
	return c.validateTokens(utils.Value(tr.IDToken), utils.Value(tr.AccessToken), utils.Value(tr.RefreshToken), logger)
}

func (c *Client) validateTokens(rawIDToken, rawAccessToken, rawRefreshToken string, logger zerolog.Logger) (*token.OIDCTokens, error) {
	idToken, err := c.validator.ValidateIDToken(rawIDToken, c.config.clientID)
	if err != nil {
		logger.Warn().Err(err).Msg("id token failed validation")
		return nil, err
	}
	tokens := &token.OIDCTokens{IDToken: idToken}

	if rawAccessToken != "" {
		accessToken, err := c.validator.ValidateAccessToken(rawAccessToken, c.config.clientID)
		if err != nil {
			logger.Warn().Err(err).Msg("access token failed validation")
			return nil, err
		}
		tokens.AccessToken = accessToken
	}
	if rawRefreshToken != "" {
		tokens.RefreshToken = token.NewRefreshToken(rawRefreshToken)
	}
	return tokens, nil
}

func (c *Client) checkRedirectURI(redirectURI *url.URL) error {
	if redirectURI == nil {
		return oauthmodel.ClientError("redirect uri is required")
	}
	if c.config.registration != nil && !c.config.registration.HasRedirectURI(redirectURI) {
		return oauthmodel.ClientError("redirect uri %q is not registered for client %q", redirectURI.String(), c.config.clientID)
	}
	return nil
}
