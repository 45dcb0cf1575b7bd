package oauthmodel

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/jrsteele09/go-oidc-client/oauth2"
)

// AuthenticationResponse is the callback delivered to the redirect URI.
// Exactly one of Code and IDToken is set.
type AuthenticationResponse struct {
	State       string
	Code        string
	IDToken     string
	AccessToken string
	TokenType   string
	ExpiresIn   int
}

// ParseAuthenticationResponse reads callback parameters from the query, fragment or posted form.
// An error parameter becomes a server error. The state must match expectedState.
func ParseAuthenticationResponse(values url.Values, expectedState string) (*AuthenticationResponse, error) {
	if code := values.Get(oauth2.ParamError); code != "" {
		return nil, ServerError(code, values.Get(oauth2.ParamErrorDescription))
	}

	state := values.Get(oauth2.ParamState)
	if state == "" {
		return nil, ClientError("authentication response is missing state")
	}
	if state != expectedState {
		return nil, ClientError("authentication response state does not match the request")
	}

	resp := &AuthenticationResponse{
		State:       state,
		Code:        values.Get(oauth2.ParamCode),
		IDToken:     values.Get(oauth2.ParamIDToken),
		AccessToken: values.Get(oauth2.ParamAccessToken),
		TokenType:   values.Get(oauth2.ParamTokenType),
	}

	if raw := values.Get(oauth2.ParamExpiresIn); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, WrapClientError(err, "invalid expires_in %q", raw)
		}
		resp.ExpiresIn = n
	}

	switch {
	case resp.Code != "" && resp.IDToken != "":
		return nil, ClientError("authentication response carries both a code and an id token")
	case resp.Code == "" && strings.TrimSpace(resp.IDToken) == "":
		return nil, ClientError("authentication response carries neither a code nor an id token")
	}
	return resp, nil
}
