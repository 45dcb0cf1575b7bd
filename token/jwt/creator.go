package jwt

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-oidc-client/oauthmodel"
	"github.com/jrsteele09/go-oidc-client/token"
	"github.com/jrsteele09/go-oidc-client/token/keys"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Creator handles JWT token creation (ID tokens and access tokens)
type Creator struct {
	signer keys.Signer
}

// NewCreator creates a new JWT creator signing with signer
func NewCreator(signer keys.Signer) *Creator {
	return &Creator{
		signer: signer,
	}
}

// CreateIDToken creates an OpenID Connect ID token. The token class is forced to id_token.
func (c *Creator) CreateIDToken(claims token.Claims) (string, error) {
	claims.TokenClass = token.IDTokenClass
	if err := checkIssueClaims(claims); err != nil {
		return "", err
	}
	return c.sign(claims)
}

// CreateAccessToken creates an access token. The token class is forced to access_token.
// Given and family name belong to the ID token only.
func (c *Creator) CreateAccessToken(claims token.Claims) (string, error) {
	claims.TokenClass = token.AccessTokenClass
	if claims.GivenName != "" || claims.FamilyName != "" {
		return "", oauthmodel.ClientError("access tokens do not carry given_name or family_name")
	}
	if err := checkIssueClaims(claims); err != nil {
		return "", err
	}
	return c.sign(claims)
}

func checkIssueClaims(claims token.Claims) error {
	switch {
	case strings.TrimSpace(claims.Issuer) == "":
		return oauthmodel.ClientError("issuer is required")
	case strings.TrimSpace(claims.Subject) == "":
		return oauthmodel.ClientError("subject is required")
	case len(claims.Audience) == 0:
		return oauthmodel.ClientError("audience is required")
	case claims.ExpirationTime.IsZero():
		return oauthmodel.ClientError("expiration time is required")
	}
	switch claims.TokenType {
	case token.BearerTokenType:
	case token.HolderOfKeyTokenType:
		if claims.HolderOfKey == nil {
			return oauthmodel.ClientError("hotk-pk tokens require a holder of key public key")
		}
	default:
		return oauthmodel.ClientError("unknown token type %q", claims.TokenType)
	}
	return nil
}

// sign fills in jti and iat when absent and signs the claims
func (c *Creator) sign(claims token.Claims) (string, error) {
	if claims.JWTID == "" {
		claims.JWTID = uuid.New().String()
	}
	if claims.IssueTime.IsZero() {
		claims.IssueTime = NowTimeFunc()
	}

	signedToken, err := c.signer.Sign(toWire(claims))
	if err != nil {
		return "", oauthmodel.SigningError(err, "failed to sign %s", claims.TokenClass)
	}
	return signedToken, nil
}
