// Package assertion builds the short lived signed JWTs a client presents to
// prove possession of its key: client assertions, solution user assertions
// and person user assertions.
package assertion

import (
	"crypto/x509"
	"net/url"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-oidc-client/oauthmodel"
	"github.com/jrsteele09/go-oidc-client/token"
	"github.com/jrsteele09/go-oidc-client/token/keys"
)

// Lifetime is how long an assertion is valid after it is issued.
const Lifetime = 2 * time.Minute

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// PersonUserAssertionSigner signs with a key that never leaves its device, e.g. a smart card.
type PersonUserAssertionSigner interface {
	// Sign returns the RS256 signature of signingInput.
	Sign(signingInput []byte) ([]byte, error)
}

// PersonUserAssertionSignerFunc adapts a function to PersonUserAssertionSigner.
type PersonUserAssertionSignerFunc func(signingInput []byte) ([]byte, error)

func (f PersonUserAssertionSignerFunc) Sign(signingInput []byte) ([]byte, error) {
	return f(signingInput)
}

type claims struct {
	jwtlib.RegisteredClaims
	TokenClass string `json:"token_class"`
	TokenType  string `json:"token_type"`
}

type options struct {
	nowFunc func() time.Time
}

// Option configures assertion construction.
type Option func(*options)

// WithNowFunc overrides the issue time clock.
func WithNowFunc(f func() time.Time) Option {
	return func(o *options) {
		o.nowFunc = f
	}
}

func newClaims(class token.TokenClass, subject string, endpoint *url.URL, opts []Option) (*claims, error) {
	o := options{nowFunc: func() time.Time { return NowTimeFunc() }}
	for _, opt := range opts {
		opt(&o)
	}
	if strings.TrimSpace(subject) == "" {
		return nil, oauthmodel.ClientError("%s subject is required", class)
	}
	if endpoint == nil {
		return nil, oauthmodel.ClientError("%s audience endpoint is required", class)
	}

	now := o.nowFunc()
	return &claims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    subject,
			Subject:   subject,
			Audience:  jwtlib.ClaimStrings{endpoint.String()},
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(Lifetime)),
		},
		TokenClass: string(class),
		TokenType:  string(token.BearerTokenType),
	}, nil
}

func signWithHolderOfKey(c *claims, hok *keys.HolderOfKeyConfig) (string, error) {
	if hok == nil {
		return "", oauthmodel.ClientError("%s requires a holder of key configuration", c.TokenClass)
	}
	signed, err := keys.NewKeyPairSigner(hok.KeyPair()).Sign(c)
	if err != nil {
		return "", oauthmodel.SigningError(err, "failed to sign %s", c.TokenClass)
	}
	return signed, nil
}

// NewClientAssertion builds a private_key_jwt client assertion for endpoint.
// Issuer and subject are the client id.
func NewClientAssertion(clientID string, hok *keys.HolderOfKeyConfig, endpoint *url.URL, opts ...Option) (string, error) {
	c, err := newClaims(token.ClientAssertionClass, clientID, endpoint, opts)
	if err != nil {
		return "", err
	}
	return signWithHolderOfKey(c, hok)
}

// NewSolutionUserAssertion builds a solution user assertion for endpoint.
// Issuer and subject are the holder of key certificate subject DN.
func NewSolutionUserAssertion(hok *keys.HolderOfKeyConfig, endpoint *url.URL, opts ...Option) (string, error) {
	if hok == nil {
		return "", oauthmodel.ClientError("%s requires a holder of key configuration", token.SolutionAssertionClass)
	}
	c, err := newClaims(token.SolutionAssertionClass, hok.SubjectDN(), endpoint, opts)
	if err != nil {
		return "", err
	}
	return signWithHolderOfKey(c, hok)
}

// NewPersonUserAssertion builds a person user assertion signed by an external signer.
// Issuer and subject are the certificate subject DN.
func NewPersonUserAssertion(signer PersonUserAssertionSigner, cert *x509.Certificate, endpoint *url.URL, opts ...Option) (string, error) {
	if signer == nil {
		return "", oauthmodel.ClientError("person user assertion signer is required")
	}
	if cert == nil {
		return "", oauthmodel.ClientError("person user certificate is required")
	}
	c, err := newClaims(token.PersonUserAssertionClass, cert.Subject.String(), endpoint, opts)
	if err != nil {
		return "", err
	}

	t := jwtlib.NewWithClaims(jwtlib.SigningMethodRS256, c)
	signingInput, err := t.SigningString()
	if err != nil {
		return "", oauthmodel.SigningError(err, "failed to encode person user assertion")
	}
	sig, err := signer.Sign([]byte(signingInput))
	if err != nil {
		return "", oauthmodel.SigningError(err, "person user assertion signer failed")
	}
	if len(sig) == 0 {
		return "", oauthmodel.SigningError(nil, "person user assertion signer returned an empty signature")
	}
	return signingInput + "." + t.EncodeSegment(sig), nil
}
