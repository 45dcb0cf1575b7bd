package oauth2

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// TokenResponse represents a successful response from the token endpoint.
// This is the standard OAuth2 token endpoint response format as defined in RFC 6749.
type TokenResponse struct {
	// AccessToken is the signed JWT used to access resource servers.
	// Usage: "Bearer <access_token>" or proof-of-possession for hotk-pk tokens
	AccessToken *string `json:"access_token,omitempty"`

	// IDToken is the OpenID Connect ID token containing user identity information.
	// Always present for the grants this client negotiates.
	IDToken *string `json:"id_token,omitempty"`

	// TokenType indicates how to use the access token ("Bearer" or "hotk-pk").
	TokenType string `json:"token_type,omitempty"`

	// ExpiresIn is the lifetime in seconds of the access token.
	// Note: This is a hint - actual expiration is in the JWT's "exp" claim
	ExpiresIn int `json:"expires_in,omitempty"`

	// RefreshToken is an opaque token used to obtain new tokens.
	// Only present: When the offline_access scope was requested
	RefreshToken *string `json:"refresh_token,omitempty"`

	// Scope is the granted scope, space separated.
	Scope string `json:"scope,omitempty"`
}

// ErrorResponse is an RFC 6749 section 5.2 error body.
type ErrorResponse struct {
	// Error is the OAuth error code, e.g. invalid_grant.
	Error string `json:"error"`

	// ErrorDescription is the human readable description.
	// Multi-leg grants carry continuation data here.
	ErrorDescription string `json:"error_description,omitempty"`
}

// Well known OAuth error codes.
const (
	ErrorCodeInvalidRequest = "invalid_request"
	ErrorCodeInvalidGrant   = "invalid_grant"
	ErrorCodeInvalidClient  = "invalid_client"
	ErrorCodeInvalidScope   = "invalid_scope"
	ErrorCodeServerError    = "server_error"
)

// HTTPResponse is the status and body of a token endpoint call.
type HTTPResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports whether the server answered 200.
func (r *HTTPResponse) OK() bool {
	return r != nil && r.StatusCode == http.StatusOK
}

// ParseTokenResponse decodes a token endpoint success body.
func ParseTokenResponse(body []byte) (*TokenResponse, error) {
	var resp TokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	return &resp, nil
}

// ParseErrorResponse decodes a token endpoint error body. The error field is required.
func ParseErrorResponse(body []byte) (*ErrorResponse, error) {
	var resp ErrorResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode error response: %w", err)
	}
	if strings.TrimSpace(resp.Error) == "" {
		return nil, fmt.Errorf("error response is missing the error field")
	}
	return &resp, nil
}
