// Package clients holds the registration metadata of an OIDC client as known to the
// identity provider.
package clients

import (
	"net/url"

	"github.com/jrsteele09/go-oidc-client/oauth2"
	"github.com/jrsteele09/go-oidc-client/oauthmodel"
)

// Metadata describes a registered client.
type Metadata struct {
	ID                     string
	RedirectURIs           []*url.URL
	PostLogoutRedirectURIs []*url.URL
	LogoutURI              *url.URL
	CertSubjectDN          string
	AuthenticationMethod   oauth2.ClientAuthenticationMethod
}

// MetadataOption configures Metadata.
type MetadataOption func(*Metadata)

// WithPostLogoutRedirectURIs sets the registered post logout redirect URIs.
func WithPostLogoutRedirectURIs(uris ...*url.URL) MetadataOption {
	return func(m *Metadata) {
		m.PostLogoutRedirectURIs = append(m.PostLogoutRedirectURIs, uris...)
	}
}

// WithLogoutURI sets the front channel logout URI.
func WithLogoutURI(u *url.URL) MetadataOption {
	return func(m *Metadata) {
		m.LogoutURI = u
	}
}

// WithCertSubjectDN sets the subject DN of the certificate registered for private_key_jwt.
func WithCertSubjectDN(dn string) MetadataOption {
	return func(m *Metadata) {
		m.CertSubjectDN = dn
	}
}

// WithAuthenticationMethod sets the token endpoint authentication method.
func WithAuthenticationMethod(method oauth2.ClientAuthenticationMethod) MetadataOption {
	return func(m *Metadata) {
		m.AuthenticationMethod = method
	}
}

// NewMetadata creates client metadata. At least one redirect URI is required and all
// URIs must be absolute.
func NewMetadata(id string, redirectURIs []*url.URL, opts ...MetadataOption) (*Metadata, error) {
	if id == "" {
		return nil, oauthmodel.ClientError("[NewMetadata] client id is required")
	}
	if len(redirectURIs) == 0 {
		return nil, oauthmodel.ClientError("[NewMetadata] at least one redirect uri is required")
	}
	m := &Metadata{
		ID:                   id,
		RedirectURIs:         append([]*url.URL(nil), redirectURIs...),
		AuthenticationMethod: oauth2.ClientAuthenticationNone,
	}
	for _, opt := range opts {
		opt(m)
	}

	uris := append(append([]*url.URL(nil), m.RedirectURIs...), m.PostLogoutRedirectURIs...)
	if m.LogoutURI != nil {
		uris = append(uris, m.LogoutURI)
	}
	for _, u := range uris {
		if u == nil || !u.IsAbs() {
			return nil, oauthmodel.ClientError("[NewMetadata] redirect uris must be absolute")
		}
	}
	return m, nil
}

// HasRedirectURI reports whether u is a registered redirect URI.
func (m *Metadata) HasRedirectURI(u *url.URL) bool {
	return containsURI(m.RedirectURIs, u)
}

// HasPostLogoutRedirectURI reports whether u is a registered post logout redirect URI.
func (m *Metadata) HasPostLogoutRedirectURI(u *url.URL) bool {
	return containsURI(m.PostLogoutRedirectURIs, u)
}

func containsURI(uris []*url.URL, u *url.URL) bool {
	if u == nil {
		return false
	}
	for _, r := range uris {
		if r.String() == u.String() {
			return true
		}
	}
	return false
}
