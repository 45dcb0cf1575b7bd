// Package token holds the signed token types returned by the client.
package token

import (
	"crypto/rsa"
	"time"
)

// TokenClass is the token_class claim. It tells the kinds of signed JWTs apart.
type TokenClass string

const (
	IDTokenClass             TokenClass = "id_token"
	AccessTokenClass         TokenClass = "access_token"
	RefreshTokenClass        TokenClass = "refresh_token"
	ClientAssertionClass     TokenClass = "client_assertion"
	SolutionAssertionClass   TokenClass = "solution_assertion"
	PersonUserAssertionClass TokenClass = "person_user_assertion"
)

// TokenType is the token_type claim.
type TokenType string

const (
	// BearerTokenType tokens are usable by whoever holds them.
	BearerTokenType TokenType = "Bearer"
	// HolderOfKeyTokenType tokens are bound to the key in the hotk claim.
	HolderOfKeyTokenType TokenType = "hotk-pk"
)

// Claims is the claim bag of an ID token or access token.
type Claims struct {
	TokenClass     TokenClass
	TokenType      TokenType
	JWTID          string
	Issuer         string
	Subject        string
	Audience       []string
	IssueTime      time.Time
	ExpirationTime time.Time

	// Tenant is the identity provider tenant the subject authenticated to.
	Tenant string
	// ClientID is the client the token was issued to.
	ClientID string
	// SessionID is the sid claim, set when the token belongs to a browser session.
	SessionID string
	// HolderOfKey is the key a hotk-pk token is bound to.
	HolderOfKey *rsa.PublicKey
	// ActAs is the subject a delegated token acts for.
	ActAs string
	// Scope is the space separated granted scope.
	Scope string
	// Nonce echoes the authentication request nonce.
	Nonce      string
	Groups     []string
	GivenName  string
	FamilyName string
}

// HasAudience reports whether aud is one of the audiences.
func (c *Claims) HasAudience(aud string) bool {
	for _, a := range c.Audience {
		if a == aud {
			return true
		}
	}
	return false
}
