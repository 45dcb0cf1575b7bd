package auth

import (
	"context"
	"net/url"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-oidc-client/oauth2"
	"github.com/jrsteele09/go-oidc-client/oauthmodel"
	"github.com/jrsteele09/go-oidc-client/token"
)

// AuthenticationResult is a validated authentication response. Code is set for the
// code response type, Tokens otherwise.
type AuthenticationResult struct {
	State  string
	Code   string
	Tokens *token.OIDCTokens
}

// BuildAuthenticationRequestURI builds the authorization endpoint URI a browser is sent
// to. The code response type needs private_key_jwt client authentication.
func (c *Client) BuildAuthenticationRequestURI(
	ctx context.Context,
	redirectURI *url.URL,
	responseType oauth2.ResponseType,
	responseMode oauth2.ResponseModeType,
	spec oauthmodel.TokenSpec,
	state, nonce string,
) (*url.URL, error) {
	if err := oauthmodel.ValidateResponseMode(responseType, responseMode); err != nil {
		return nil, err
	}
	if responseType.Contains(string(oauth2.CodeResponseType)) && c.config.authMethod != oauth2.ClientAuthenticationPrivateKeyJWT {
		return nil, oauthmodel.ClientError("code response type requires private_key_jwt client authentication")
	}
	if c.config.clientID == "" {
		return nil, oauthmodel.ClientError("client id is required for authentication requests")
	}
	if err := c.checkRedirectURI(redirectURI); err != nil {
		return nil, err
	}
	scope, err := spec.Scope()
	if err != nil {
		return nil, err
	}

	endpoints, err := c.resolveEndpoints(ctx)
	if err != nil {
		return nil, err
	}
	if endpoints.authorization == nil {
		return nil, oauthmodel.ClientError("connection has no authorization endpoint")
	}
	clientAssertion, err := c.clientAssertion(endpoints.authorization)
	if err != nil {
		return nil, err
	}

	req := &oauthmodel.AuthenticationRequest{
		Endpoint:        endpoints.authorization,
		ResponseType:    responseType,
		ResponseMode:    responseMode,
		ClientID:        c.config.clientID,
		RedirectURI:     redirectURI,
		Scope:           scope,
		State:           state,
		Nonce:           nonce,
		ClientAssertion: clientAssertion,
		CorrelationID:   uuid.New().String(),
	}
	return req.URI()
}

// BuildLogoutRequestURI builds the end session endpoint URI a browser is sent to.
func (c *Client) BuildLogoutRequestURI(ctx context.Context, postLogoutRedirectURI *url.URL, idToken *token.IDToken, state string) (*url.URL, error) {
	req, err := c.logoutRequest(ctx, postLogoutRedirectURI, idToken, state)
	if err != nil {
		return nil, err
	}
	return req.URI()
}

// BuildLogoutRequestHTMLForm builds an auto submitting HTML form that posts the logout
// request to the end session endpoint.
func (c *Client) BuildLogoutRequestHTMLForm(ctx context.Context, postLogoutRedirectURI *url.URL, idToken *token.IDToken, state string) (string, error) {
	req, err := c.logoutRequest(ctx, postLogoutRedirectURI, idToken, state)
	if err != nil {
		return "", err
	}
	return req.HTMLForm()
}

func (c *Client) logoutRequest(ctx context.Context, postLogoutRedirectURI *url.URL, idToken *token.IDToken, state string) (*oauthmodel.LogoutRequest, error) {
	if idToken == nil {
		return nil, oauthmodel.ClientError("id token is required")
	}
	if postLogoutRedirectURI == nil {
		return nil, oauthmodel.ClientError("post logout redirect uri is required")
	}
	if md := c.config.registration; md != nil && !md.HasPostLogoutRedirectURI(postLogoutRedirectURI) {
		return nil, oauthmodel.ClientError("post logout redirect uri %q is not registered for client %q", postLogoutRedirectURI.String(), c.config.clientID)
	}

	endpoints, err := c.resolveEndpoints(ctx)
	if err != nil {
		return nil, err
	}
	if endpoints.endSession == nil {
		return nil, oauthmodel.ClientError("connection has no end session endpoint")
	}
	clientAssertion, err := c.clientAssertion(endpoints.endSession)
	if err != nil {
		return nil, err
	}

	req := &oauthmodel.LogoutRequest{
		Endpoint:              endpoints.endSession,
		IDTokenHint:           idToken.Serialize(),
		PostLogoutRedirectURI: postLogoutRedirectURI,
		State:                 state,
		ClientAssertion:       clientAssertion,
		CorrelationID:         uuid.New().String(),
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

// ParseAuthenticationResponse reads the parameters delivered to the redirect URI and
// validates any tokens they carry. An empty expectedNonce skips the nonce check.
func (c *Client) ParseAuthenticationResponse(values url.Values, expectedState, expectedNonce string) (*AuthenticationResult, error) {
	resp, err := oauthmodel.ParseAuthenticationResponse(values, expectedState)
	if err != nil {
		return nil, err
	}
	if resp.Code != "" {
		return &AuthenticationResult{State: resp.State, Code: resp.Code}, nil
	}

	tokens, err := c.validateTokens(resp.IDToken, resp.AccessToken, "", c.logger)
	if err != nil {
		return nil, err
	}
	if expectedNonce != "" && tokens.IDToken.Nonce() != expectedNonce {
		return nil, oauthmodel.ClientError("id token nonce does not match the request")
	}
	return &AuthenticationResult{State: resp.State, Tokens: tokens}, nil
}
