package clients_test

import (
	"errors"
	"net/url"
	"testing"

	"github.com/jrsteele09/go-oidc-client/clients"
	"github.com/jrsteele09/go-oidc-client/oauth2"
	"github.com/jrsteele09/go-oidc-client/oauthmodel"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestNewMetadata(t *testing.T) {
	redirect := mustParse(t, "https://app.example.com/callback")

	t.Run("defaults", func(t *testing.T) {
		md, err := clients.NewMetadata("client-1", []*url.URL{redirect})
		require.NoError(t, err)
		require.Equal(t, "client-1", md.ID)
		require.Equal(t, oauth2.ClientAuthenticationNone, md.AuthenticationMethod)
		require.True(t, md.HasRedirectURI(mustParse(t, "https://app.example.com/callback")))
		require.False(t, md.HasRedirectURI(mustParse(t, "https://evil.example.com/callback")))
		require.False(t, md.HasRedirectURI(nil))
	})

	t.Run("options", func(t *testing.T) {
		logout := mustParse(t, "https://app.example.com/logged-out")
		md, err := clients.NewMetadata("client-1", []*url.URL{redirect},
			clients.WithPostLogoutRedirectURIs(logout),
			clients.WithLogoutURI(mustParse(t, "https://app.example.com/logout")),
			clients.WithCertSubjectDN("CN=app"),
			clients.WithAuthenticationMethod(oauth2.ClientAuthenticationPrivateKeyJWT),
		)
		require.NoError(t, err)
		require.True(t, md.HasPostLogoutRedirectURI(logout))
		require.Equal(t, "CN=app", md.CertSubjectDN)
		require.Equal(t, oauth2.ClientAuthenticationPrivateKeyJWT, md.AuthenticationMethod)
	})

	tests := []struct {
		name      string
		id        string
		redirects []*url.URL
		opts      []clients.MetadataOption
	}{
		{"missing id", "", []*url.URL{redirect}, nil},
		{"no redirect uris", "client-1", nil, nil},
		{"relative redirect uri", "client-1", []*url.URL{mustParse(t, "/callback")}, nil},
		{"nil redirect uri", "client-1", []*url.URL{nil}, nil},
		{"relative post logout uri", "client-1", []*url.URL{redirect}, []clients.MetadataOption{clients.WithPostLogoutRedirectURIs(mustParse(t, "done"))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := clients.NewMetadata(tt.id, tt.redirects, tt.opts...)
			require.Error(t, err)
			require.True(t, errors.Is(err, oauthmodel.ErrClient))
		})
	}
}
