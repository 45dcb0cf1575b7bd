// Package affinity resolves the domain controller a logical domain is currently
// affinitized to, so that requests in a high availability deployment reach it.
package affinity

import (
	"context"
	"net"
	"net/url"
	"strings"

	"github.com/jrsteele09/go-oidc-client/oauthmodel"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DomainControllerInfo describes the affinitized domain controller.
type DomainControllerInfo struct {
	// Name is the domain controller host name.
	Name string
	// Address is the network address, when the locator reports one.
	Address string
	// DomainName is the domain the controller serves.
	DomainName string
}

// Session is a single use handle to the locator service.
type Session interface {
	// AffinitizedDC returns the controller the session domain is affinitized to.
	AffinitizedDC(ctx context.Context, flags uint32) (*DomainControllerInfo, error)
	Close() error
}

// Locator opens sessions with the local domain controller locator service.
type Locator interface {
	// OpenSession opens a session for domain. An empty domain selects the default domain.
	OpenSession(ctx context.Context, domain string) (Session, error)
}

// LocatorFunc adapts a function to Locator.
type LocatorFunc func(ctx context.Context, domain string) (Session, error)

func (f LocatorFunc) OpenSession(ctx context.Context, domain string) (Session, error) {
	return f(ctx, domain)
}

// Resolver looks up the affinitized host of one logical domain. Every lookup opens
// and closes its own session; nothing is cached.
type Resolver struct {
	locator Locator
	domain  string
	flags   uint32
	logger  zerolog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithFlags sets the flags passed to the locator query.
func WithFlags(flags uint32) ResolverOption {
	return func(r *Resolver) {
		r.flags = flags
	}
}

// WithLogger sets the resolver logger.
func WithLogger(logger zerolog.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver creates a resolver for domain. An empty domain selects the default domain.
func NewResolver(locator Locator, domain string, opts ...ResolverOption) (*Resolver, error) {
	if locator == nil {
		return nil, oauthmodel.ClientError("[NewResolver] locator is required")
	}
	r := &Resolver{
		locator: locator,
		domain:  domain,
		logger:  log.Logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Domain returns the logical domain.
func (r *Resolver) Domain() string {
	return r.domain
}

// ResolveHost returns the host name of the affinitized domain controller.
func (r *Resolver) ResolveHost(ctx context.Context) (string, error) {
	session, err := r.locator.OpenSession(ctx, r.domain)
	if err != nil {
		return "", oauthmodel.WrapClientError(err, "failed to open affinity session for domain %q", r.domain)
	}
	if session == nil {
		return "", oauthmodel.ClientError("affinity locator returned no session for domain %q", r.domain)
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			r.logger.Warn().Err(cerr).Str("domain", r.domain).Msg("failed to close affinity session")
		}
	}()

	info, err := session.AffinitizedDC(ctx, r.flags)
	if err != nil {
		return "", oauthmodel.WrapClientError(err, "failed to get affinitized domain controller for domain %q", r.domain)
	}
	if info == nil || strings.TrimSpace(info.Name) == "" {
		return "", oauthmodel.ClientError("no affinitized domain controller for domain %q", r.domain)
	}

	r.logger.Debug().Str("domain", r.domain).Str("host", info.Name).Msg("resolved affinitized domain controller")
	return info.Name, nil
}

// ReplaceHost returns a copy of u with its host name replaced. Scheme, port, path and query are kept.
func ReplaceHost(u *url.URL, host string) (*url.URL, error) {
	if u == nil {
		return nil, oauthmodel.ClientError("endpoint is required")
	}
	if strings.TrimSpace(host) == "" {
		return nil, oauthmodel.ClientError("host is required")
	}
	out := *u
	if port := u.Port(); port != "" {
		out.Host = net.JoinHostPort(host, port)
	} else if strings.Contains(host, ":") {
		out.Host = "[" + host + "]"
	} else {
		out.Host = host
	}
	return &out, nil
}
