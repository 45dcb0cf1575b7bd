// Package grants defines the authorization grants a client can present at the
// token endpoint and the negotiation loops of the multi-leg grants.
package grants

import (
	"crypto/x509"
	"encoding/base64"
	"net/url"
	"strings"

	"github.com/jrsteele09/go-oidc-client/oauth2"
	"github.com/jrsteele09/go-oidc-client/oauthmodel"
	"github.com/jrsteele09/go-oidc-client/token"
	"github.com/jrsteele09/go-oidc-client/token/assertion"
)

// AuthorizationGrant is one of PasswordCredentials, SolutionUserCredentials,
// ClientCredentials, RefreshToken, AuthorizationCode, PersonUserCertificate,
// GSSTicket or SecurID.
type AuthorizationGrant interface {
	GrantType() oauth2.GrantType
	Validate() error
	isGrant()
}

// Leg is the grant part of a single token request.
type Leg interface {
	GrantType() oauth2.GrantType
	Parameters() url.Values
}

// RequiresEmptyTokenSpec reports whether the grant only accepts oauthmodel.EmptyTokenSpec
// and is sent without a scope parameter.
func RequiresEmptyTokenSpec(g AuthorizationGrant) bool {
	switch g.(type) {
	case *AuthorizationCode, *RefreshToken:
		return true
	}
	return false
}

// PasswordCredentials is the resource owner password grant.
type PasswordCredentials struct {
	Username string
	Password string
}

func (*PasswordCredentials) isGrant() {}
func (*PasswordCredentials) GrantType() oauth2.GrantType { return oauth2.PasswordGrant }

func (g *PasswordCredentials) Validate() error {
	if strings.TrimSpace(g.Username) == "" {
		return oauthmodel.ClientError("username is required")
	}
	if g.Password == "" {
		return oauthmodel.ClientError("password is required")
	}
	return nil
}

func (g *PasswordCredentials) Parameters() url.Values {
	return url.Values{
		oauth2.ParamUsername: {g.Username},
		oauth2.ParamPassword: {g.Password},
	}
}

// SolutionUserCredentials authenticates with the solution user assertion the client attaches.
type SolutionUserCredentials struct{}

func (*SolutionUserCredentials) isGrant() {}
func (*SolutionUserCredentials) GrantType() oauth2.GrantType { return oauth2.SolutionUserCredentialsGrant }
func (*SolutionUserCredentials) Validate() error { return nil }
func (*SolutionUserCredentials) Parameters() url.Values { return url.Values{} }

// ClientCredentials authenticates with the client assertion the client attaches.
type ClientCredentials struct{}

func (*ClientCredentials) isGrant() {}
func (*ClientCredentials) GrantType() oauth2.GrantType { return oauth2.ClientCredentialsGrant }
func (*ClientCredentials) Validate() error { return nil }
func (*ClientCredentials) Parameters() url.Values { return url.Values{} }

// RefreshToken exchanges a refresh token for new tokens.
type RefreshToken struct {
	Token *token.RefreshToken
}

func (*RefreshToken) isGrant() {}
func (*RefreshToken) GrantType() oauth2.GrantType { return oauth2.RefreshTokenGrant }

func (g *RefreshToken) Validate() error {
	if g.Token == nil || strings.TrimSpace(g.Token.Serialize()) == "" {
		return oauthmodel.ClientError("refresh token is required")
	}
	return nil
}

func (g *RefreshToken) Parameters() url.Values {
	return url.Values{oauth2.ParamRefreshToken: {g.Token.Serialize()}}
}

// AuthorizationCode exchanges an authorization code for tokens.
type AuthorizationCode struct {
	Code        string
	RedirectURI *url.URL
}

func (*AuthorizationCode) isGrant() {}
func (*AuthorizationCode) GrantType() oauth2.GrantType { return oauth2.AuthorizationCodeGrant }

func (g *AuthorizationCode) Validate() error {
	if strings.TrimSpace(g.Code) == "" {
		return oauthmodel.ClientError("authorization code is required")
	}
	if g.RedirectURI == nil {
		return oauthmodel.ClientError("redirect uri is required")
	}
	return nil
}

func (g *AuthorizationCode) Parameters() url.Values {
	return url.Values{
		oauth2.ParamCode:        {g.Code},
		oauth2.ParamRedirectURI: {g.RedirectURI.String()},
	}
}

// PersonUserCertificate authenticates a person by certificate. The person user
// assertion is signed by Signer for each request.
type PersonUserCertificate struct {
	Certificate *x509.Certificate
	Signer      assertion.PersonUserAssertionSigner
}

func (*PersonUserCertificate) isGrant() {}
func (*PersonUserCertificate) GrantType() oauth2.GrantType { return oauth2.PersonUserCertificateGrant }

func (g *PersonUserCertificate) Validate() error {
	if g.Certificate == nil {
		return oauthmodel.ClientError("person user certificate is required")
	}
	if g.Signer == nil {
		return oauthmodel.ClientError("person user assertion signer is required")
	}
	return nil
}

type personUserCertificateLeg struct {
	certificate *x509.Certificate
	assertion   string
}

func (*personUserCertificateLeg) GrantType() oauth2.GrantType { return oauth2.PersonUserCertificateGrant }

func (l *personUserCertificateLeg) Parameters() url.Values {
	return url.Values{
		oauth2.ParamPersonUserCertificate: {base64.StdEncoding.EncodeToString(l.certificate.Raw)},
		oauth2.ParamPersonUserAssertion:   {l.assertion},
	}
}

var (
	_ Leg = (*PasswordCredentials)(nil)
	_ Leg = (*SolutionUserCredentials)(nil)
	_ Leg = (*ClientCredentials)(nil)
	_ Leg = (*RefreshToken)(nil)
	_ Leg = (*AuthorizationCode)(nil)
	_ Leg = (*personUserCertificateLeg)(nil)
	_ Leg = (*gssTicketLeg)(nil)
	_ Leg = (*securIDLeg)(nil)

	_ AuthorizationGrant = (*PersonUserCertificate)(nil)
	_ AuthorizationGrant = (*GSSTicket)(nil)
	_ AuthorizationGrant = (*SecurID)(nil)
)
