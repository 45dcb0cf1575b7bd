package affinity_test

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/jrsteele09/go-oidc-client/affinity"
	"github.com/jrsteele09/go-oidc-client/oauthmodel"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	info   *affinity.DomainControllerInfo
	err    error
	closed int
	flags  []uint32
}

func (s *fakeSession) AffinitizedDC(_ context.Context, flags uint32) (*affinity.DomainControllerInfo, error) {
	s.flags = append(s.flags, flags)
	return s.info, s.err
}

func (s *fakeSession) Close() error {
	s.closed++
	return nil
}

type fakeLocator struct {
	sessions []*fakeSession
	domains  []string
	err      error
}

func (l *fakeLocator) OpenSession(_ context.Context, domain string) (affinity.Session, error) {
	l.domains = append(l.domains, domain)
	if l.err != nil {
		return nil, l.err
	}
	s := l.sessions[0]
	l.sessions = l.sessions[1:]
	return s, nil
}

func TestResolver_ResolveHost(t *testing.T) {
	t.Run("fresh session per lookup", func(t *testing.T) {
		first := &fakeSession{info: &affinity.DomainControllerInfo{Name: "dc1.vsphere.local"}}
		second := &fakeSession{info: &affinity.DomainControllerInfo{Name: "dc2.vsphere.local"}}
		locator := &fakeLocator{sessions: []*fakeSession{first, second}}

		r, err := affinity.NewResolver(locator, "vsphere.local", affinity.WithFlags(4))
		require.NoError(t, err)

		host, err := r.ResolveHost(context.Background())
		require.NoError(t, err)
		require.Equal(t, "dc1.vsphere.local", host)

		host, err = r.ResolveHost(context.Background())
		require.NoError(t, err)
		require.Equal(t, "dc2.vsphere.local", host)

		require.Equal(t, []string{"vsphere.local", "vsphere.local"}, locator.domains)
		require.Equal(t, 1, first.closed)
		require.Equal(t, 1, second.closed)
		require.Equal(t, []uint32{4}, first.flags)
	})

	t.Run("default domain", func(t *testing.T) {
		locator := &fakeLocator{sessions: []*fakeSession{{info: &affinity.DomainControllerInfo{Name: "dc1"}}}}
		r, err := affinity.NewResolver(locator, "")
		require.NoError(t, err)
		_, err = r.ResolveHost(context.Background())
		require.NoError(t, err)
		require.Equal(t, []string{""}, locator.domains)
	})

	t.Run("locator error", func(t *testing.T) {
		r, err := affinity.NewResolver(&fakeLocator{err: errors.New("ipc unavailable")}, "vsphere.local")
		require.NoError(t, err)
		_, err = r.ResolveHost(context.Background())
		require.Error(t, err)
		require.True(t, errors.Is(err, oauthmodel.ErrClient))
		require.Contains(t, err.Error(), "ipc unavailable")
	})

	t.Run("query error still closes the session", func(t *testing.T) {
		s := &fakeSession{err: errors.New("no dc")}
		r, err := affinity.NewResolver(&fakeLocator{sessions: []*fakeSession{s}}, "vsphere.local")
		require.NoError(t, err)
		_, err = r.ResolveHost(context.Background())
		require.True(t, errors.Is(err, oauthmodel.ErrClient))
		require.Equal(t, 1, s.closed)
	})

	t.Run("null result", func(t *testing.T) {
		s := &fakeSession{}
		r, err := affinity.NewResolver(&fakeLocator{sessions: []*fakeSession{s}}, "vsphere.local")
		require.NoError(t, err)
		_, err = r.ResolveHost(context.Background())
		require.True(t, errors.Is(err, oauthmodel.ErrClient))
		require.Equal(t, 1, s.closed)
	})

	t.Run("nil locator", func(t *testing.T) {
		_, err := affinity.NewResolver(nil, "vsphere.local")
		require.Error(t, err)
	})
}

func TestReplaceHost(t *testing.T) {
	tests := []struct {
		name string
		in   string
		host string
		want string
	}{
		{"keeps port path and query", "https://lb.example.com:7443/openidconnect/token/vsphere.local?x=1", "dc1.example.com", "https://dc1.example.com:7443/openidconnect/token/vsphere.local?x=1"},
		{"no port", "https://lb.example.com/openidconnect/token", "dc1.example.com", "https://dc1.example.com/openidconnect/token"},
		{"ipv6 host with port", "https://lb.example.com:443/token", "::1", "https://[::1]:443/token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := url.Parse(tt.in)
			require.NoError(t, err)
			got, err := affinity.ReplaceHost(u, tt.host)
			require.NoError(t, err)
			require.Equal(t, tt.want, got.String())
			require.Equal(t, tt.in, u.String())
		})
	}

	t.Run("empty host", func(t *testing.T) {
		u, err := url.Parse("https://lb.example.com/token")
		require.NoError(t, err)
		_, err = affinity.ReplaceHost(u, "")
		require.Error(t, err)
	})
}
