package oauthmodel_test

import (
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/jrsteele09/go-oidc-client/oauth2"
	"github.com/jrsteele09/go-oidc-client/oauthmodel"
	"github.com/stretchr/testify/require"
)

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestTokenRequest_Form(t *testing.T) {
	t.Run("password with client assertion", func(t *testing.T) {
		req := &oauthmodel.TokenRequest{
			GrantType:       oauth2.PasswordGrant,
			GrantParams:     url.Values{"username": {"alice"}, "password": {"secret"}},
			Scope:           []string{"openid", "offline_access"},
			ClientID:        "client-1",
			ClientAssertion: "assertion.jwt.value",
			CorrelationID:   "corr-1",
		}
		require.NoError(t, req.Validate())

		form := req.Form()
		require.Equal(t, "password", form.Get("grant_type"))
		require.Equal(t, "alice", form.Get("username"))
		require.Equal(t, "secret", form.Get("password"))
		require.Equal(t, "openid offline_access", form.Get("scope"))
		require.Equal(t, "client-1", form.Get("client_id"))
		require.Equal(t, "assertion.jwt.value", form.Get("client_assertion"))
		require.Equal(t, oauth2.ClientAssertionTypeJWTBearer, form.Get("client_assertion_type"))
		require.Equal(t, "corr-1", form.Get("correlation_id"))
		require.Empty(t, form.Get("solution_user_assertion"))
	})

	t.Run("nil scope is omitted", func(t *testing.T) {
		req := &oauthmodel.TokenRequest{
			GrantType:   oauth2.RefreshTokenGrant,
			GrantParams: url.Values{"refresh_token": {"rt"}},
		}
		form := req.Form()
		_, ok := form["scope"]
		require.False(t, ok)

		body := string(req.Encode())
		require.Contains(t, body, "grant_type=refresh_token")
		require.NotContains(t, body, "scope=")
	})

	t.Run("both assertions rejected", func(t *testing.T) {
		req := &oauthmodel.TokenRequest{
			GrantType:             oauth2.PasswordGrant,
			ClientAssertion:       "a",
			SolutionUserAssertion: "b",
		}
		err := req.Validate()
		require.Error(t, err)
		require.True(t, errors.Is(err, oauthmodel.ErrClient))
	})

	t.Run("missing grant type", func(t *testing.T) {
		err := (&oauthmodel.TokenRequest{}).Validate()
		require.Error(t, err)
		require.Contains(t, err.Error(), "grant type is required")
	})
}

func TestValidateResponseMode(t *testing.T) {
	tests := []struct {
		name         string
		responseType oauth2.ResponseType
		responseMode oauth2.ResponseModeType
		wantErr      bool
	}{
		{"code query", oauth2.CodeResponseType, oauth2.QueryResponseMode, false},
		{"code form post", oauth2.CodeResponseType, oauth2.FormPostResponseMode, false},
		{"code fragment", oauth2.CodeResponseType, oauth2.FragmentResponseMode, true},
		{"id token fragment", oauth2.IDTokenResponseType, oauth2.FragmentResponseMode, false},
		{"id token form post", oauth2.IDTokenResponseType, oauth2.FormPostResponseMode, false},
		{"id token query", oauth2.IDTokenResponseType, oauth2.QueryResponseMode, true},
		{"id token access token fragment", oauth2.IDTokenAccessTokenResponseType, oauth2.FragmentResponseMode, false},
		{"id token access token query", oauth2.IDTokenAccessTokenResponseType, oauth2.QueryResponseMode, true},
		{"unknown response type", oauth2.ResponseType("token"), oauth2.FragmentResponseMode, true},
		{"unknown response mode", oauth2.CodeResponseType, oauth2.ResponseModeType("web_message"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := oauthmodel.ValidateResponseMode(tt.responseType, tt.responseMode)
			if tt.wantErr {
				require.Error(t, err)
				require.True(t, errors.Is(err, oauthmodel.ErrClient))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestAuthenticationRequest_URI(t *testing.T) {
	req := &oauthmodel.AuthenticationRequest{
		Endpoint:      mustURL(t, "https://sso.example.com/openidconnect/oidc/authorize/vsphere.local"),
		ResponseType:  oauth2.CodeResponseType,
		ResponseMode:  oauth2.FormPostResponseMode,
		ClientID:      "client-1",
		RedirectURI:   mustURL(t, "https://app.example.com/callback"),
		Scope:         []string{"openid", "rs_admin_server"},
		State:         "state-1",
		Nonce:         "nonce-1",
		CorrelationID: "corr-1",
	}

	uri, err := req.URI()
	require.NoError(t, err)
	require.Equal(t, "sso.example.com", uri.Host)
	require.Equal(t, "/openidconnect/oidc/authorize/vsphere.local", uri.Path)

	q := uri.Query()
	require.Equal(t, "code", q.Get("response_type"))
	require.Equal(t, "form_post", q.Get("response_mode"))
	require.Equal(t, "client-1", q.Get("client_id"))
	require.Equal(t, "https://app.example.com/callback", q.Get("redirect_uri"))
	require.Equal(t, "openid rs_admin_server", q.Get("scope"))
	require.Equal(t, "state-1", q.Get("state"))
	require.Equal(t, "nonce-1", q.Get("nonce"))
	require.Equal(t, "corr-1", q.Get("correlation_id"))
	require.Empty(t, q.Get("client_assertion"))

	t.Run("missing nonce", func(t *testing.T) {
		bad := *req
		bad.Nonce = ""
		_, err := bad.URI()
		require.Error(t, err)
		require.Contains(t, err.Error(), "nonce is required")
	})

	t.Run("bad response mode", func(t *testing.T) {
		bad := *req
		bad.ResponseMode = oauth2.FragmentResponseMode
		_, err := bad.URI()
		require.Error(t, err)
	})
}

func TestLogoutRequest(t *testing.T) {
	req := &oauthmodel.LogoutRequest{
		Endpoint:              mustURL(t, "https://sso.example.com/openidconnect/logout/vsphere.local"),
		IDTokenHint:           "id.token.hint",
		PostLogoutRedirectURI: mustURL(t, "https://app.example.com/logged-out"),
		State:                 "state-1",
		ClientAssertion:       "client.assertion.value",
	}

	t.Run("uri", func(t *testing.T) {
		uri, err := req.URI()
		require.NoError(t, err)
		q := uri.Query()
		require.Equal(t, "id.token.hint", q.Get("id_token_hint"))
		require.Equal(t, "https://app.example.com/logged-out", q.Get("post_logout_redirect_uri"))
		require.Equal(t, "state-1", q.Get("state"))
		require.Equal(t, "client.assertion.value", q.Get("client_assertion"))
	})

	t.Run("html form", func(t *testing.T) {
		form, err := req.HTMLForm()
		require.NoError(t, err)
		require.Contains(t, form, `action="https://sso.example.com/openidconnect/logout/vsphere.local"`)
		require.Contains(t, form, `name="id_token_hint" value="id.token.hint"`)
		require.Contains(t, form, `name="state" value="state-1"`)
		require.Contains(t, form, `name="client_assertion"`)
		require.True(t, strings.Contains(form, "document.forms[0].submit()"))
	})

	t.Run("without state", func(t *testing.T) {
		stateless := *req
		stateless.State = ""
		uri, err := stateless.URI()
		require.NoError(t, err)
		_, ok := uri.Query()["state"]
		require.False(t, ok)

		form, err := stateless.HTMLForm()
		require.NoError(t, err)
		require.NotContains(t, form, `name="state"`)
	})

	t.Run("missing id token hint", func(t *testing.T) {
		bad := *req
		bad.IDTokenHint = ""
		_, err := bad.HTMLForm()
		require.Error(t, err)
		require.Contains(t, err.Error(), "id token hint is required")
	})
}

func TestParseAuthenticationResponse(t *testing.T) {
	t.Run("code", func(t *testing.T) {
		resp, err := oauthmodel.ParseAuthenticationResponse(url.Values{"code": {"abc"}, "state": {"s1"}}, "s1")
		require.NoError(t, err)
		require.Equal(t, "abc", resp.Code)
		require.Empty(t, resp.IDToken)
	})

	t.Run("id token", func(t *testing.T) {
		resp, err := oauthmodel.ParseAuthenticationResponse(url.Values{
			"id_token":     {"a.b.c"},
			"access_token": {"d.e.f"},
			"token_type":   {"Bearer"},
			"expires_in":   {"300"},
			"state":        {"s1"},
		}, "s1")
		require.NoError(t, err)
		require.Equal(t, "a.b.c", resp.IDToken)
		require.Equal(t, "d.e.f", resp.AccessToken)
		require.Equal(t, 300, resp.ExpiresIn)
	})

	t.Run("server error", func(t *testing.T) {
		_, err := oauthmodel.ParseAuthenticationResponse(url.Values{
			"error":             {"access_denied"},
			"error_description": {"user cancelled"},
			"state":             {"s1"},
		}, "s1")
		require.Error(t, err)
		require.True(t, errors.Is(err, oauthmodel.ErrServer))
		require.Equal(t, "access_denied", oauthmodel.CodeOf(err))
	})

	t.Run("state mismatch", func(t *testing.T) {
		_, err := oauthmodel.ParseAuthenticationResponse(url.Values{"code": {"abc"}, "state": {"other"}}, "s1")
		require.Error(t, err)
		require.True(t, errors.Is(err, oauthmodel.ErrClient))
	})

	t.Run("neither code nor token", func(t *testing.T) {
		_, err := oauthmodel.ParseAuthenticationResponse(url.Values{"state": {"s1"}}, "s1")
		require.Error(t, err)
	})
}

func TestError_Is(t *testing.T) {
	err := oauthmodel.TokenValidationError(oauthmodel.CodeExpiredToken, "token expired at %d", 10)
	require.True(t, errors.Is(err, oauthmodel.ErrTokenValidation))
	require.True(t, errors.Is(err, oauthmodel.ErrExpiredToken))
	require.False(t, errors.Is(err, oauthmodel.ErrInvalidSignature))
	require.False(t, errors.Is(err, oauthmodel.ErrClient))
	require.Equal(t, oauthmodel.TokenValidationErrorKind, oauthmodel.KindOf(err))
	require.Contains(t, err.Error(), "EXPIRED_TOKEN")

	cause := errors.New("x509: certificate signed by unknown authority")
	ssl := oauthmodel.SSLConnectionError(cause, "handshake failed")
	require.True(t, errors.Is(ssl, oauthmodel.ErrTransport))
	require.True(t, errors.Is(ssl, oauthmodel.ErrSSLConnection))
	require.True(t, errors.Is(ssl, cause))
}
