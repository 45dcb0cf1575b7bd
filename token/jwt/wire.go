package jwt

import (
	jose "github.com/go-jose/go-jose/v4"
	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-oidc-client/token"
	"github.com/jrsteele09/go-oidc-client/token/keys"
)

// wireClaims is the JSON claim set of ID tokens and access tokens.
type wireClaims struct {
	jwtlib.RegisteredClaims
	TokenClass  string              `json:"token_class,omitempty"`
	TokenType   string              `json:"token_type,omitempty"`
	Tenant      string              `json:"tenant,omitempty"`
	ClientID    string              `json:"client_id,omitempty"`
	SessionID   string              `json:"sid,omitempty"`
	HolderOfKey *jose.JSONWebKeySet `json:"hotk,omitempty"`
	ActAs       string              `json:"act_as,omitempty"`
	Scope       string              `json:"scope,omitempty"`
	Nonce       string              `json:"nonce,omitempty"`
	Groups      []string            `json:"groups,omitempty"`
	GivenName   string              `json:"given_name,omitempty"`
	FamilyName  string              `json:"family_name,omitempty"`
}

func toWire(c token.Claims) *wireClaims {
	w := &wireClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			ID:        c.JWTID,
			Issuer:    c.Issuer,
			Subject:   c.Subject,
			Audience:  jwtlib.ClaimStrings(c.Audience),
			IssuedAt:  jwtlib.NewNumericDate(c.IssueTime),
			ExpiresAt: jwtlib.NewNumericDate(c.ExpirationTime),
		},
		TokenClass: string(c.TokenClass),
		TokenType:  string(c.TokenType),
		Tenant:     c.Tenant,
		ClientID:   c.ClientID,
		SessionID:  c.SessionID,
		ActAs:      c.ActAs,
		Scope:      c.Scope,
		Nonce:      c.Nonce,
		Groups:     c.Groups,
		GivenName:  c.GivenName,
		FamilyName: c.FamilyName,
	}
	if c.HolderOfKey != nil {
		w.HolderOfKey = keys.PublicKeyToJWKS("", c.HolderOfKey)
	}
	return w
}

func fromWire(w *wireClaims) (token.Claims, error) {
	c := token.Claims{
		TokenClass: token.TokenClass(w.TokenClass),
		TokenType:  token.TokenType(w.TokenType),
		JWTID:      w.ID,
		Issuer:     w.Issuer,
		Subject:    w.Subject,
		Audience:   []string(w.Audience),
		Tenant:     w.Tenant,
		ClientID:   w.ClientID,
		SessionID:  w.SessionID,
		ActAs:      w.ActAs,
		Scope:      w.Scope,
		Nonce:      w.Nonce,
		Groups:     w.Groups,
		GivenName:  w.GivenName,
		FamilyName: w.FamilyName,
	}
	if w.IssuedAt != nil {
		c.IssueTime = w.IssuedAt.Time
	}
	if w.ExpiresAt != nil {
		c.ExpirationTime = w.ExpiresAt.Time
	}
	if w.HolderOfKey != nil {
		pub, err := keys.RSAPublicKeyFromJWKS(w.HolderOfKey)
		if err != nil {
			return token.Claims{}, err
		}
		c.HolderOfKey = pub
	}
	return c, nil
}
