package auth_test

import (
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/jrsteele09/go-oidc-client/auth"
	"github.com/jrsteele09/go-oidc-client/clients"
	"github.com/jrsteele09/go-oidc-client/metadata"
	"github.com/jrsteele09/go-oidc-client/oauth2"
	"github.com/jrsteele09/go-oidc-client/oauthmodel"
	"github.com/jrsteele09/go-oidc-client/token/jwt"
	"github.com/stretchr/testify/require"
)

func TestNewConnectionConfig(t *testing.T) {
	f := newFixture(t)
	pub := f.conn.ProviderPublicKey()

	t.Run("from metadata", func(t *testing.T) {
		md := &metadata.ProviderMetadata{
			Issuer:                testIssuer,
			TokenEndpoint:         mustParse(t, testTokenEndpoint),
			AuthorizationEndpoint: mustParse(t, testAuthEndpoint),
			EndSessionEndpoint:    mustParse(t, testLogoutURI),
		}
		conn, err := auth.NewConnectionConfigFromMetadata(md, pub)
		require.NoError(t, err)
		require.Equal(t, testIssuer, conn.Issuer())
		require.Equal(t, testTokenEndpoint, conn.TokenEndpoint().String())
		require.Equal(t, testAuthEndpoint, conn.AuthorizationEndpoint().String())
		require.Equal(t, testLogoutURI, conn.EndSessionEndpoint().String())
		require.Nil(t, conn.TrustStore())
	})

	tests := []struct {
		name     string
		issuer   string
		endpoint *url.URL
		withKey  bool
		opts     []auth.ConnectionOption
	}{
		{"missing issuer", "", mustParse(t, testTokenEndpoint), true, nil},
		{"missing token endpoint", testIssuer, nil, true, nil},
		{"relative token endpoint", testIssuer, mustParse(t, "/token"), true, nil},
		{"missing provider key", testIssuer, mustParse(t, testTokenEndpoint), false, nil},
		{"relative end session endpoint", testIssuer, mustParse(t, testTokenEndpoint), true,
			[]auth.ConnectionOption{auth.WithEndSessionEndpoint(mustParse(t, "logout"))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := pub
			if !tt.withKey {
				key = nil
			}
			_, err := auth.NewConnectionConfig(tt.issuer, tt.endpoint, key, tt.opts...)
			require.Error(t, err)
			require.True(t, errors.Is(err, oauthmodel.ErrClient))
		})
	}
}

func TestNewClientConfig(t *testing.T) {
	f := newFixture(t)

	t.Run("private_key_jwt", func(t *testing.T) {
		cfg, err := auth.NewClientConfig(f.conn,
			auth.WithClientID(testClientID),
			auth.WithHolderOfKey(f.hok),
			auth.WithClientAuthenticationMethod(oauth2.ClientAuthenticationPrivateKeyJWT),
		)
		require.NoError(t, err)
		require.Equal(t, oauth2.ClientAuthenticationPrivateKeyJWT, cfg.ClientAuthenticationMethod())

		_, err = auth.NewClientConfig(f.conn, auth.WithHolderOfKey(f.hok),
			auth.WithClientAuthenticationMethod(oauth2.ClientAuthenticationPrivateKeyJWT))
		require.True(t, errors.Is(err, oauthmodel.ErrClient))

		_, err = auth.NewClientConfig(f.conn, auth.WithClientID(testClientID),
			auth.WithClientAuthenticationMethod(oauth2.ClientAuthenticationPrivateKeyJWT))
		require.True(t, errors.Is(err, oauthmodel.ErrClient))
	})

	t.Run("clock tolerance bounds", func(t *testing.T) {
		for _, d := range []time.Duration{0, time.Second, jwt.MaxClockTolerance} {
			cfg, err := auth.NewClientConfig(f.conn, auth.WithClockTolerance(d))
			require.NoError(t, err)
			require.Equal(t, d, cfg.ClockTolerance())
		}
		for _, d := range []time.Duration{-time.Second, jwt.MaxClockTolerance + time.Second} {
			_, err := auth.NewClientConfig(f.conn, auth.WithClockTolerance(d))
			require.True(t, errors.Is(err, oauthmodel.ErrClient))
		}
	})

	t.Run("registration must match client id", func(t *testing.T) {
		md, err := clients.NewMetadata("someone-else", []*url.URL{mustParse(t, testRedirectURI)})
		require.NoError(t, err)
		_, err = auth.NewClientConfig(f.conn, auth.WithClientID(testClientID), auth.WithRegistration(md))
		require.True(t, errors.Is(err, oauthmodel.ErrClient))
	})

	t.Run("unknown authentication method", func(t *testing.T) {
		_, err := auth.NewClientConfig(f.conn, auth.WithClientAuthenticationMethod("client_secret_basic"))
		require.True(t, errors.Is(err, oauthmodel.ErrClient))
	})

	t.Run("required inputs", func(t *testing.T) {
		_, err := auth.NewClientConfig(nil)
		require.True(t, errors.Is(err, oauthmodel.ErrClient))
		_, err = auth.New(nil)
		require.True(t, errors.Is(err, oauthmodel.ErrClient))
		_, err = auth.NewHighAvailabilityConfig(nil)
		require.True(t, errors.Is(err, oauthmodel.ErrClient))
	})
}
