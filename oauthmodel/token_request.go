package oauthmodel

import (
	"net/url"
	"strings"

	"github.com/jrsteele09/go-oidc-client/oauth2"
)

// TokenRequest holds parameters for a token endpoint request.
// This represents the form body POSTed to the token endpoint.
type TokenRequest struct {
	// GrantType selects the grant, e.g. password or urn:vmware:grant_type:gss_ticket.
	// Required: Yes
	GrantType oauth2.GrantType

	// GrantParams are the grant specific fields (username, gss_ticket, code, ...).
	GrantParams url.Values

	// Scope is the requested scope. Nil omits the parameter, which the
	// authorization code and refresh token grants require.
	Scope []string

	// ClientID identifies the client.
	// Required: No (sent with the client assertion when one is attached)
	ClientID string

	// ClientAssertion is a signed private_key_jwt assertion.
	// Mutually exclusive with SolutionUserAssertion.
	ClientAssertion string

	// SolutionUserAssertion is a signed solution user assertion.
	SolutionUserAssertion string

	// CorrelationID is echoed by the server into its logs.
	CorrelationID string
}

// Validate checks the request can be sent.
func (r *TokenRequest) Validate() error {
	if r.GrantType == "" {
		return ClientError("grant type is required")
	}
	if r.ClientAssertion != "" && r.SolutionUserAssertion != "" {
		return ClientError("at most one of client assertion and solution user assertion may be attached")
	}
	return nil
}

// Form renders the request as url.Values.
func (r *TokenRequest) Form() url.Values {
	form := url.Values{}
	form.Set(oauth2.ParamGrantType, string(r.GrantType))
	for k, vs := range r.GrantParams {
		for _, v := range vs {
			form.Add(k, v)
		}
	}
	if r.Scope != nil {
		form.Set(oauth2.ParamScope, strings.Join(r.Scope, " "))
	}
	if r.ClientAssertion != "" {
		form.Set(oauth2.ParamClientAssertionType, oauth2.ClientAssertionTypeJWTBearer)
		form.Set(oauth2.ParamClientAssertion, r.ClientAssertion)
	}
	if r.SolutionUserAssertion != "" {
		form.Set(oauth2.ParamSolutionUserAssertion, r.SolutionUserAssertion)
	}
	if r.ClientID != "" {
		form.Set(oauth2.ParamClientID, r.ClientID)
	}
	if r.CorrelationID != "" {
		form.Set(oauth2.ParamCorrelationID, r.CorrelationID)
	}
	return form
}

// Encode renders the request as an application/x-www-form-urlencoded body.
func (r *TokenRequest) Encode() []byte {
	return []byte(r.Form().Encode())
}
