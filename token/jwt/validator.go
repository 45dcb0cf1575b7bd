package jwt

import (
	"crypto/rsa"
	"errors"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-oidc-client/oauthmodel"
	"github.com/jrsteele09/go-oidc-client/token"
)

// MaxClockTolerance bounds the clock skew a Validator accepts.
const MaxClockTolerance = 600 * time.Second

// ValidateClockTolerance checks 0 <= d <= MaxClockTolerance.
func ValidateClockTolerance(d time.Duration) error {
	if d < 0 || d > MaxClockTolerance {
		return oauthmodel.ClientError("clock tolerance %s must be between 0s and %s", d, MaxClockTolerance)
	}
	return nil
}

// Validator verifies tokens issued by one provider.
type Validator struct {
	publicKey      *rsa.PublicKey
	issuer         string
	clockTolerance time.Duration
	nowFunc        func() time.Time
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithClockTolerance widens the access token validity window on both ends.
func WithClockTolerance(d time.Duration) ValidatorOption {
	return func(v *Validator) {
		v.clockTolerance = d
	}
}

// WithNowFunc overrides the clock.
func WithNowFunc(f func() time.Time) ValidatorOption {
	return func(v *Validator) {
		v.nowFunc = f
	}
}

// NewValidator creates a validator for tokens signed by publicKey and issued by issuer.
func NewValidator(publicKey *rsa.PublicKey, issuer string, opts ...ValidatorOption) (*Validator, error) {
	v := &Validator{
		publicKey: publicKey,
		issuer:    issuer,
		nowFunc:   func() time.Time { return NowTimeFunc() },
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.publicKey == nil {
		return nil, oauthmodel.ClientError("[NewValidator] provider public key is required")
	}
	if strings.TrimSpace(v.issuer) == "" {
		return nil, oauthmodel.ClientError("[NewValidator] issuer is required")
	}
	if err := ValidateClockTolerance(v.clockTolerance); err != nil {
		return nil, err
	}
	return v, nil
}

// ValidateIDToken verifies an ID token. clientID may be empty.
// Expiry is checked against the current time without tolerance.
func (v *Validator) ValidateIDToken(raw, clientID string) (*token.IDToken, error) {
	claims, err := v.verify(raw, clientID)
	if err != nil {
		return nil, err
	}
	if claims.ExpirationTime.Before(v.nowFunc()) {
		return nil, oauthmodel.TokenValidationError(oauthmodel.CodeExpiredToken,
			"id token expired at %s", claims.ExpirationTime.UTC().Format(time.RFC3339))
	}
	if claims.TokenClass != token.IDTokenClass {
		return nil, oauthmodel.TokenValidationError(oauthmodel.CodeInvalidTokenClass,
			"expected token class %q, got %q", token.IDTokenClass, claims.TokenClass)
	}
	return token.NewIDToken(raw, claims), nil
}

// ValidateAccessToken verifies an access token as a resource server would.
// The token is valid within [iat - tolerance, exp + tolerance]. clientID may be empty.
func (v *Validator) ValidateAccessToken(raw, clientID string) (*token.AccessToken, error) {
	claims, err := v.verify(raw, clientID)
	if err != nil {
		return nil, err
	}
	now := v.nowFunc()
	if now.Before(claims.IssueTime.Add(-v.clockTolerance)) {
		return nil, oauthmodel.TokenValidationError(oauthmodel.CodeTokenNotYetValid,
			"access token not valid before %s", claims.IssueTime.UTC().Format(time.RFC3339))
	}
	if now.After(claims.ExpirationTime.Add(v.clockTolerance)) {
		return nil, oauthmodel.TokenValidationError(oauthmodel.CodeExpiredToken,
			"access token expired at %s", claims.ExpirationTime.UTC().Format(time.RFC3339))
	}
	if claims.TokenClass != token.AccessTokenClass {
		return nil, oauthmodel.TokenValidationError(oauthmodel.CodeInvalidTokenClass,
			"expected token class %q, got %q", token.AccessTokenClass, claims.TokenClass)
	}
	return token.NewAccessToken(raw, claims), nil
}

// verify runs the checks shared by both token classes: signature, claim set, audience.
func (v *Validator) verify(raw, clientID string) (token.Claims, error) {
	if err := v.verifySignature(raw); err != nil {
		return token.Claims{}, err
	}

	claims, err := v.parseClaims(raw)
	if err != nil {
		return token.Claims{}, err
	}

	if claims.TokenType == token.HolderOfKeyTokenType && clientID != "" && !claims.HasAudience(clientID) {
		return token.Claims{}, oauthmodel.TokenValidationError(oauthmodel.CodeInvalidAudience,
			"audience %v does not contain client id %q", claims.Audience, clientID)
	}
	return claims, nil
}

func (v *Validator) verifySignature(raw string) error {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return oauthmodel.TokenValidationError(oauthmodel.CodeParseError, "token is not a compact JWS")
	}
	sig, err := jwtlib.NewParser().DecodeSegment(parts[2])
	if err != nil {
		return oauthmodel.TokenValidationError(oauthmodel.CodeParseError, "failed to decode signature: %v", err)
	}
	err = jwtlib.SigningMethodRS256.Verify(parts[0]+"."+parts[1], sig, v.publicKey)
	switch {
	case errors.Is(err, rsa.ErrVerification):
		return oauthmodel.TokenValidationError(oauthmodel.CodeInvalidSignature, "token signature does not match provider key")
	case err != nil:
		return oauthmodel.TokenValidationError(oauthmodel.CodeParseError, "failed to verify signature: %v", err)
	}
	return nil
}

func (v *Validator) parseClaims(raw string) (token.Claims, error) {
	parsed, _, err := jwtlib.NewParser().ParseUnverified(raw, &wireClaims{})
	if err != nil {
		return token.Claims{}, oauthmodel.TokenValidationError(oauthmodel.CodeParseError, "failed to parse claims: %v", err)
	}
	if parsed.Method.Alg() != jwtlib.SigningMethodRS256.Alg() {
		return token.Claims{}, oauthmodel.TokenValidationError(oauthmodel.CodeParseError, "unexpected signing algorithm %q", parsed.Method.Alg())
	}
	w, ok := parsed.Claims.(*wireClaims)
	if !ok {
		return token.Claims{}, oauthmodel.TokenValidationError(oauthmodel.CodeParseError, "error extracting claims")
	}

	switch {
	case w.TokenClass == "":
		return token.Claims{}, parseError("token_class")
	case w.TokenType == "":
		return token.Claims{}, parseError("token_type")
	case w.ID == "":
		return token.Claims{}, parseError("jti")
	case w.Issuer == "":
		return token.Claims{}, parseError("iss")
	case w.Subject == "":
		return token.Claims{}, parseError("sub")
	case len(w.Audience) == 0:
		return token.Claims{}, parseError("aud")
	case w.IssuedAt == nil:
		return token.Claims{}, parseError("iat")
	case w.ExpiresAt == nil:
		return token.Claims{}, parseError("exp")
	}

	tokenType := token.TokenType(w.TokenType)
	if tokenType != token.BearerTokenType && tokenType != token.HolderOfKeyTokenType {
		return token.Claims{}, oauthmodel.TokenValidationError(oauthmodel.CodeParseError, "unknown token_type %q", w.TokenType)
	}
	if tokenType == token.HolderOfKeyTokenType && w.HolderOfKey == nil {
		return token.Claims{}, parseError("hotk")
	}
	if w.Issuer != v.issuer {
		return token.Claims{}, oauthmodel.TokenValidationError(oauthmodel.CodeParseError, "issuer %q does not match %q", w.Issuer, v.issuer)
	}

	claims, err := fromWire(w)
	if err != nil {
		return token.Claims{}, oauthmodel.TokenValidationError(oauthmodel.CodeParseError, "invalid hotk claim: %v", err)
	}
	return claims, nil
}

func parseError(claim string) *oauthmodel.Error {
	return oauthmodel.TokenValidationError(oauthmodel.CodeParseError, "missing %s claim", claim)
}
