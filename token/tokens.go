package token

import (
	"crypto/rsa"
	"time"
)

// signedToken is the part shared by ID tokens and access tokens.
type signedToken struct {
	raw    string
	claims Claims
}

// Serialize returns the compact JWT.
func (t *signedToken) Serialize() string { return t.raw }

// Claims returns a copy of the validated claims.
func (t *signedToken) Claims() Claims {
	c := t.claims
	c.Audience = append([]string(nil), t.claims.Audience...)
	c.Groups = append([]string(nil), t.claims.Groups...)
	return c
}

func (t *signedToken) TokenClass() TokenClass { return t.claims.TokenClass }
func (t *signedToken) TokenType() TokenType { return t.claims.TokenType }
func (t *signedToken) JWTID() string { return t.claims.JWTID }
func (t *signedToken) Issuer() string { return t.claims.Issuer }
func (t *signedToken) Subject() string { return t.claims.Subject }
func (t *signedToken) Audience() []string { return append([]string(nil), t.claims.Audience...) }
func (t *signedToken) IssueTime() time.Time { return t.claims.IssueTime }
func (t *signedToken) ExpirationTime() time.Time { return t.claims.ExpirationTime }
func (t *signedToken) Tenant() string { return t.claims.Tenant }
func (t *signedToken) SessionID() string { return t.claims.SessionID }
func (t *signedToken) HolderOfKey() *rsa.PublicKey { return t.claims.HolderOfKey }
func (t *signedToken) Groups() []string { return append([]string(nil), t.claims.Groups...) }

// IDToken is a validated OIDC ID token.
type IDToken struct {
	signedToken
}

// NewIDToken wraps a compact JWT and its validated claims.
func NewIDToken(raw string, claims Claims) *IDToken {
	return &IDToken{signedToken{raw: raw, claims: claims}}
}

func (t *IDToken) GivenName() string { return t.claims.GivenName }
func (t *IDToken) FamilyName() string { return t.claims.FamilyName }
func (t *IDToken) Nonce() string { return t.claims.Nonce }

// AccessToken is a validated access token.
type AccessToken struct {
	signedToken
}

// NewAccessToken wraps a compact JWT and its validated claims.
func NewAccessToken(raw string, claims Claims) *AccessToken {
	return &AccessToken{signedToken{raw: raw, claims: claims}}
}

func (t *AccessToken) ClientID() string { return t.claims.ClientID }
func (t *AccessToken) ActAs() string { return t.claims.ActAs }
func (t *AccessToken) Scope() string { return t.claims.Scope }

// RefreshToken is opaque to the client and is never validated locally.
type RefreshToken struct {
	raw string
}

// NewRefreshToken wraps the raw refresh token value.
func NewRefreshToken(raw string) *RefreshToken {
	return &RefreshToken{raw: raw}
}

// Serialize returns the raw value.
func (t *RefreshToken) Serialize() string { return t.raw }

// OIDCTokens is the result of a successful token request.
// AccessToken and RefreshToken may be nil.
type OIDCTokens struct {
	IDToken      *IDToken
	AccessToken  *AccessToken
	RefreshToken *RefreshToken
}
