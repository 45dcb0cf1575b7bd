package oauth2

import "strings"

// ResponseType represents the OAuth 2.0 / OIDC response type.
// Determines what is returned from the authorization endpoint.
type ResponseType string

const (
	// CodeResponseType indicates the authorization code flow.
	// Used in: Authorization Code Flow
	// Returns an authorization code that must be exchanged for tokens at the token endpoint.
	// Example: /oidc/authorize?response_type=code&client_id=...
	CodeResponseType ResponseType = "code"

	// IDTokenResponseType returns an ID token directly from the authorization endpoint.
	// Used in: Implicit Flow
	IDTokenResponseType ResponseType = "id_token"

	// IDTokenAccessTokenResponseType returns both an ID token and an access token.
	// Used in: Implicit Flow
	// Example: response_type=id_token%20token
	IDTokenAccessTokenResponseType ResponseType = "id_token token"
)

// Values splits the response type into its space separated members.
func (rt ResponseType) Values() []string {
	return strings.Fields(string(rt))
}

// Contains reports whether value is one of the space separated members.
func (rt ResponseType) Contains(value string) bool {
	for _, v := range rt.Values() {
		if v == value {
			return true
		}
	}
	return false
}

// ResponseModeType denotes how the authorization response parameters are returned to the client.
// Determines the mechanism used to send the auth code/tokens back to the redirect_uri.
type ResponseModeType string

const (
	// QueryResponseMode returns parameters in the URL query string.
	// Used in: Standard Authorization Code Flow
	// Example: https://client.example.com/callback?code=ABC123&state=xyz
	QueryResponseMode ResponseModeType = "query"

	// FragmentResponseMode returns parameters in the URL fragment (after #).
	// Used in: Implicit Flow
	// Example: https://client.example.com/callback#id_token=ABC123&state=xyz
	FragmentResponseMode ResponseModeType = "fragment"

	// FormPostResponseMode returns parameters via HTTP POST with auto-submitting HTML form.
	// Used in: Both flows, keeps parameters out of the URL
	FormPostResponseMode ResponseModeType = "form_post"
)

// GrantType represents the OAuth 2.0 grant type used at the token endpoint.
// Determines what credentials are required to obtain tokens.
type GrantType string

const (
	// PasswordGrant exchanges a username and password for tokens.
	// Token request includes: username, password, scope
	PasswordGrant GrantType = "password"

	// AuthorizationCodeGrant exchanges an authorization code for tokens.
	// Token request includes: code, redirect_uri
	AuthorizationCodeGrant GrantType = "authorization_code"

	// RefreshTokenGrant exchanges a refresh token for new tokens.
	// Token request includes: refresh_token
	RefreshTokenGrant GrantType = "refresh_token"

	// ClientCredentialsGrant authenticates the client itself using a signed client assertion.
	// Token request includes: client_assertion, client_assertion_type, scope
	ClientCredentialsGrant GrantType = "client_credentials"

	// SolutionUserCredentialsGrant authenticates a solution user (service identity) by certificate.
	// Token request includes: solution_user_assertion, scope
	SolutionUserCredentialsGrant GrantType = "urn:vmware:grant_type:solution_user_credentials"

	// GSSTicketGrant carries a Kerberos/SPNEGO ticket. May take several round trips.
	// Token request includes: context_id, gss_ticket, scope
	GSSTicketGrant GrantType = "urn:vmware:grant_type:gss_ticket"

	// SecurIDGrant carries a RSA SecurID passcode. May require a second passcode.
	// Token request includes: username, passcode, session_id (on the second leg), scope
	SecurIDGrant GrantType = "urn:vmware:grant_type:securid"

	// PersonUserCertificateGrant authenticates a person by a smart card certificate.
	// Token request includes: person_user_certificate, person_user_assertion, scope
	PersonUserCertificateGrant GrantType = "urn:vmware:grant_type:person_user_certificate"
)

// ClientAuthenticationMethod is how the client proves its identity to the server.
type ClientAuthenticationMethod string

const (
	// ClientAuthenticationNone sends no client authentication.
	ClientAuthenticationNone ClientAuthenticationMethod = "none"

	// ClientAuthenticationPrivateKeyJWT signs a client assertion with the holder-of-key private key.
	ClientAuthenticationPrivateKeyJWT ClientAuthenticationMethod = "private_key_jwt"
)

// ClientAssertionTypeJWTBearer is the client_assertion_type sent with a client assertion.
const ClientAssertionTypeJWTBearer = "urn:ietf:params:oauth:client-assertion-type:jwt-bearer"

// Form parameter names used at the authorization, token and logout endpoints.
const (
	ParamGrantType             = "grant_type"
	ParamScope                 = "scope"
	ParamCorrelationID         = "correlation_id"
	ParamClientID              = "client_id"
	ParamClientAssertion       = "client_assertion"
	ParamClientAssertionType   = "client_assertion_type"
	ParamSolutionUserAssertion = "solution_user_assertion"
	ParamPersonUserAssertion   = "person_user_assertion"
	ParamPersonUserCertificate = "person_user_certificate"
	ParamUsername              = "username"
	ParamPassword              = "password"
	ParamPasscode              = "passcode"
	ParamSessionID             = "session_id"
	ParamContextID             = "context_id"
	ParamGSSTicket             = "gss_ticket"
	ParamCode                  = "code"
	ParamRedirectURI           = "redirect_uri"
	ParamRefreshToken          = "refresh_token"
	ParamResponseType          = "response_type"
	ParamResponseMode          = "response_mode"
	ParamState                 = "state"
	ParamNonce                 = "nonce"
	ParamIDTokenHint           = "id_token_hint"
	ParamPostLogoutRedirectURI = "post_logout_redirect_uri"
	ParamIDToken               = "id_token"
	ParamAccessToken           = "access_token"
	ParamTokenType             = "token_type"
	ParamExpiresIn             = "expires_in"
	ParamError                 = "error"
	ParamErrorDescription      = "error_description"
)
