package oauthmodel

import (
	"bytes"
	"html/template"
	"net/url"
	"strings"

	"github.com/jrsteele09/go-oidc-client/oauth2"
)

// AuthenticationRequest holds parameters for the OIDC authentication request.
// These are sent as query parameters to the authorization endpoint.
type AuthenticationRequest struct {
	// Endpoint is the authorization endpoint, already host-substituted when HA is enabled.
	Endpoint *url.URL

	// ResponseType specifies what the authorization endpoint should return.
	// Example: "code", "id_token" or "id_token token"
	ResponseType oauth2.ResponseType

	// ResponseMode controls how the response is returned (query/fragment/form_post).
	ResponseMode oauth2.ResponseModeType

	// ClientID identifies the application requesting authentication.
	ClientID string

	// RedirectURI is where the authentication response will be sent.
	// Must exactly match a registered redirect URI.
	RedirectURI *url.URL

	// Scope is the requested scope values. "openid" is always present.
	Scope []string

	// State is an opaque value echoed back on the callback.
	// Security: Client should validate this matches on callback to prevent CSRF attacks
	State string

	// Nonce is echoed into the ID token.
	// Security: Prevents replay attacks
	Nonce string

	// ClientAssertion is attached when the client authenticates with private_key_jwt.
	ClientAssertion string

	// CorrelationID is echoed by the server into its logs.
	CorrelationID string
}

// Validate checks the response type and response mode combination.
func (r *AuthenticationRequest) Validate() error {
	if r.Endpoint == nil {
		return ClientError("authorization endpoint is required")
	}
	if r.RedirectURI == nil {
		return ClientError("redirect uri is required")
	}
	if strings.TrimSpace(r.State) == "" {
		return ClientError("state is required")
	}
	if strings.TrimSpace(r.Nonce) == "" {
		return ClientError("nonce is required")
	}
	return ValidateResponseMode(r.ResponseType, r.ResponseMode)
}

// ValidateResponseMode enforces that code responses use query or form_post and
// that id_token responses use fragment or form_post.
func ValidateResponseMode(responseType oauth2.ResponseType, responseMode oauth2.ResponseModeType) error {
	if !responseTypeValid(responseType) {
		return ClientError("unsupported response type %q", responseType)
	}
	if !responseModeValid(responseMode) {
		return ClientError("unsupported response mode %q", responseMode)
	}
	if responseType.Contains(string(oauth2.CodeResponseType)) &&
		responseMode != oauth2.QueryResponseMode && responseMode != oauth2.FormPostResponseMode {
		return ClientError("response mode %q cannot be used with response type %q", responseMode, responseType)
	}
	if responseType.Contains(string(oauth2.IDTokenResponseType)) &&
		responseMode != oauth2.FragmentResponseMode && responseMode != oauth2.FormPostResponseMode {
		return ClientError("response mode %q cannot be used with response type %q", responseMode, responseType)
	}
	return nil
}

func responseModeValid(responseMode oauth2.ResponseModeType) bool {
	switch responseMode {
	case oauth2.QueryResponseMode, oauth2.FormPostResponseMode, oauth2.FragmentResponseMode:
		return true
	}
	return false
}

func responseTypeValid(responseType oauth2.ResponseType) bool {
	switch responseType {
	case oauth2.CodeResponseType, oauth2.IDTokenResponseType, oauth2.IDTokenAccessTokenResponseType:
		return true
	}
	return false
}

// URI renders the request as an authorization endpoint URI.
func (r *AuthenticationRequest) URI() (*url.URL, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set(oauth2.ParamResponseType, string(r.ResponseType))
	q.Set(oauth2.ParamResponseMode, string(r.ResponseMode))
	q.Set(oauth2.ParamClientID, r.ClientID)
	q.Set(oauth2.ParamRedirectURI, r.RedirectURI.String())
	q.Set(oauth2.ParamScope, strings.Join(r.Scope, " "))
	q.Set(oauth2.ParamState, r.State)
	q.Set(oauth2.ParamNonce, r.Nonce)
	if r.ClientAssertion != "" {
		q.Set(oauth2.ParamClientAssertion, r.ClientAssertion)
	}
	if r.CorrelationID != "" {
		q.Set(oauth2.ParamCorrelationID, r.CorrelationID)
	}
	return withQuery(r.Endpoint, q), nil
}

// LogoutRequest holds parameters for the OIDC RP-initiated logout request.
type LogoutRequest struct {
	// Endpoint is the end session endpoint, already host-substituted when HA is enabled.
	Endpoint *url.URL

	// IDTokenHint is the raw ID token of the session being ended.
	IDTokenHint string

	// PostLogoutRedirectURI is where the browser lands after logout.
	PostLogoutRedirectURI *url.URL

	// State is echoed back on the post logout redirect. It is optional.
	State string

	// ClientAssertion is attached when the client authenticates with private_key_jwt.
	ClientAssertion string

	// CorrelationID is echoed by the server into its logs.
	CorrelationID string
}

// Validate checks the logout request.
func (r *LogoutRequest) Validate() error {
	if r.Endpoint == nil {
		return ClientError("end session endpoint is required")
	}
	if strings.TrimSpace(r.IDTokenHint) == "" {
		return ClientError("id token hint is required")
	}
	if r.PostLogoutRedirectURI == nil {
		return ClientError("post logout redirect uri is required")
	}
	return nil
}

func (r *LogoutRequest) values() url.Values {
	q := url.Values{}
	q.Set(oauth2.ParamIDTokenHint, r.IDTokenHint)
	q.Set(oauth2.ParamPostLogoutRedirectURI, r.PostLogoutRedirectURI.String())
	if r.State != "" {
		q.Set(oauth2.ParamState, r.State)
	}
	if r.ClientAssertion != "" {
		q.Set(oauth2.ParamClientAssertion, r.ClientAssertion)
	}
	if r.CorrelationID != "" {
		q.Set(oauth2.ParamCorrelationID, r.CorrelationID)
	}
	return q
}

// URI renders the request as an end session endpoint URI.
func (r *LogoutRequest) URI() (*url.URL, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return withQuery(r.Endpoint, r.values()), nil
}

var logoutFormTemplate = template.Must(template.New("logout").Parse(`<html>
<head><title>Logout</title></head>
<body onload="document.forms[0].submit()">
<form method="post" action="{{.Action}}">
{{- range .Fields}}
<input type="hidden" name="{{.Name}}" value="{{.Value}}"/>
{{- end}}
</form>
</body>
</html>
`))

type formField struct {
	Name  string
	Value string
}

// HTMLForm renders the request as an auto-submitting HTML form POSTing to the end session endpoint.
func (r *LogoutRequest) HTMLForm() (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}
	values := r.values()
	fields := make([]formField, 0, len(values))
	for _, name := range []string{
		oauth2.ParamIDTokenHint,
		oauth2.ParamPostLogoutRedirectURI,
		oauth2.ParamState,
		oauth2.ParamClientAssertion,
		oauth2.ParamCorrelationID,
	} {
		if v := values.Get(name); v != "" {
			fields = append(fields, formField{Name: name, Value: v})
		}
	}

	var buf bytes.Buffer
	err := logoutFormTemplate.Execute(&buf, struct {
		Action string
		Fields []formField
	}{
		Action: r.Endpoint.String(),
		Fields: fields,
	})
	if err != nil {
		return "", WrapClientError(err, "failed to render logout form")
	}
	return buf.String(), nil
}

func withQuery(endpoint *url.URL, q url.Values) *url.URL {
	u := *endpoint
	existing := u.Query()
	for k, vs := range q {
		existing[k] = vs
	}
	u.RawQuery = existing.Encode()
	return &u
}
