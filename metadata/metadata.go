// Package metadata discovers identity provider endpoints and the provider signing key.
package metadata

import (
	"context"
	"crypto/rsa"
	"net/http"
	"net/url"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/go-oidc-client/internal/transport"
	oauthwire "github.com/jrsteele09/go-oidc-client/oauth2"
	"github.com/jrsteele09/go-oidc-client/oauthmodel"
	"github.com/jrsteele09/go-oidc-client/token/keys"
	"golang.org/x/oauth2"
)

// ProviderMetadata is the subset of the discovery document the client needs.
type ProviderMetadata struct {
	Issuer                string
	AuthorizationEndpoint *url.URL
	TokenEndpoint         *url.URL
	EndSessionEndpoint    *url.URL
	JWKSURI               *url.URL
	Endpoint              oauth2.Endpoint
}

type discoveryExtras struct {
	EndSessionEndpoint string `json:"end_session_endpoint"`
	JWKSURI            string `json:"jwks_uri"`
}

// Discover reads the provider configuration of issuer. httpClient carries the trust
// store used for the connection; nil uses http.DefaultClient.
func Discover(ctx context.Context, issuer string, httpClient *http.Client) (*ProviderMetadata, error) {
	if issuer == "" {
		return nil, oauthmodel.ClientError("[Discover] issuer is required")
	}
	if httpClient != nil {
		ctx = oidc.ClientContext(ctx, httpClient)
	}

	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		if u, perr := url.Parse(issuer); perr == nil {
			return nil, transport.RequestError(err, http.MethodGet, u)
		}
		return nil, oauthmodel.TransportError(err, "failed to discover provider metadata for %s", issuer)
	}

	var extras discoveryExtras
	if err := provider.Claims(&extras); err != nil {
		return nil, oauthmodel.WrapClientError(err, "failed to parse provider metadata")
	}

	endpoint := provider.Endpoint()
	md := &ProviderMetadata{
		Issuer:   issuer,
		Endpoint: endpoint,
	}
	if md.TokenEndpoint, err = parseEndpoint("token_endpoint", endpoint.TokenURL, true); err != nil {
		return nil, err
	}
	if md.AuthorizationEndpoint, err = parseEndpoint("authorization_endpoint", endpoint.AuthURL, false); err != nil {
		return nil, err
	}
	if md.EndSessionEndpoint, err = parseEndpoint("end_session_endpoint", extras.EndSessionEndpoint, false); err != nil {
		return nil, err
	}
	if md.JWKSURI, err = parseEndpoint("jwks_uri", extras.JWKSURI, true); err != nil {
		return nil, err
	}
	return md, nil
}

func parseEndpoint(name, raw string, required bool) (*url.URL, error) {
	if raw == "" {
		if required {
			return nil, oauthmodel.ClientError("provider metadata has no %s", name)
		}
		return nil, nil
	}
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() {
		return nil, oauthmodel.ClientError("provider metadata %s %q is not an absolute uri", name, raw)
	}
	return u, nil
}

// FetchProviderPublicKey downloads the provider JWKS and returns its single RSA key.
func FetchProviderPublicKey(ctx context.Context, httpClient *http.Client, jwksURI *url.URL) (*rsa.PublicKey, error) {
	if jwksURI == nil {
		return nil, oauthmodel.ClientError("[FetchProviderPublicKey] jwks uri is required")
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, jwksURI.String(), nil)
	if err != nil {
		return nil, oauthmodel.WrapClientError(err, "failed to build jwks request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, transport.RequestError(err, http.MethodGet, jwksURI)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, oauthmodel.ServerError(oauth2ErrorCode(resp.StatusCode), "jwks request returned "+resp.Status)
	}
	body, err := transport.ReadBody(resp.Body)
	if err != nil {
		return nil, err
	}
	if err := transport.CheckJSON(resp.Header, body); err != nil {
		return nil, err
	}

	set, err := keys.ParseJWKS(body)
	if err != nil {
		return nil, oauthmodel.WrapClientError(err, "failed to parse jwks")
	}
	pub, err := keys.RSAPublicKeyFromJWKS(set)
	if err != nil {
		return nil, oauthmodel.WrapClientError(err, "unusable provider jwks")
	}
	return pub, nil
}

func oauth2ErrorCode(status int) string {
	if status >= http.StatusInternalServerError {
		return oauthwire.ErrorCodeServerError
	}
	return oauthwire.ErrorCodeInvalidRequest
}
