package grants

import (
	"context"
	"net/url"

	"github.com/jrsteele09/go-oidc-client/oauth2"
	"github.com/jrsteele09/go-oidc-client/oauthmodel"
	"github.com/jrsteele09/go-oidc-client/token/assertion"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultMaxLegs bounds the round trips of a multi-leg grant.
const DefaultMaxLegs = 10

// Sender sends one token request built from leg and returns the raw response.
type Sender func(ctx context.Context, leg Leg) (*oauth2.HTTPResponse, error)

type negotiator struct {
	send             Sender
	maxLegs          int
	logger           zerolog.Logger
	audience         *url.URL
	assertionOptions []assertion.Option
}

// NegotiateOption configures Negotiate.
type NegotiateOption func(*negotiator)

// WithMaxLegs overrides DefaultMaxLegs.
func WithMaxLegs(n int) NegotiateOption {
	return func(ng *negotiator) {
		if n > 0 {
			ng.maxLegs = n
		}
	}
}

// WithLogger sets the logger used for per leg debug events.
func WithLogger(logger zerolog.Logger) NegotiateOption {
	return func(ng *negotiator) {
		ng.logger = logger
	}
}

// WithAudience sets the token endpoint that person user assertions are bound to.
func WithAudience(endpoint *url.URL) NegotiateOption {
	return func(ng *negotiator) {
		ng.audience = endpoint
	}
}

// WithAssertionOptions passes options to person user assertion construction.
func WithAssertionOptions(opts ...assertion.Option) NegotiateOption {
	return func(ng *negotiator) {
		ng.assertionOptions = append(ng.assertionOptions, opts...)
	}
}

// Negotiate runs grant against the token endpoint through send. Single-leg grants
// send once. GSSTicket and SecurID grants loop while the server answers with their
// continuation errors. The last response is returned whether or not it is a success;
// the caller decides how to surface a non-200 response.
func Negotiate(ctx context.Context, grant AuthorizationGrant, send Sender, opts ...NegotiateOption) (*oauth2.HTTPResponse, error) {
	if grant == nil {
		return nil, oauthmodel.ClientError("authorization grant is required")
	}
	if send == nil {
		return nil, oauthmodel.ClientError("sender is required")
	}
	if err := grant.Validate(); err != nil {
		return nil, err
	}

	n := &negotiator{
		send:    send,
		maxLegs: DefaultMaxLegs,
		logger:  log.Logger,
	}
	for _, opt := range opts {
		opt(n)
	}

	switch g := grant.(type) {
	case *GSSTicket:
		return n.negotiateGSS(ctx, g)
	case *SecurID:
		return n.negotiateSecurID(ctx, g)
	case *PersonUserCertificate:
		signed, err := assertion.NewPersonUserAssertion(g.Signer, g.Certificate, n.audience, n.assertionOptions...)
		if err != nil {
			return nil, err
		}
		return n.sendOnce(ctx, &personUserCertificateLeg{certificate: g.Certificate, assertion: signed})
	case Leg:
		return n.sendOnce(ctx, g)
	}
	return nil, oauthmodel.ClientError("unsupported grant type %q", grant.GrantType())
}

func (n *negotiator) sendOnce(ctx context.Context, leg Leg) (*oauth2.HTTPResponse, error) {
	n.logger.Debug().Str("grant_type", string(leg.GrantType())).Msg("sending token request")
	return n.send(ctx, leg)
}

// invalidGrantDescription returns the error description of an invalid_grant error response.
func invalidGrantDescription(resp *oauth2.HTTPResponse) (string, bool) {
	if resp == nil || resp.OK() {
		return "", false
	}
	errResp, err := oauth2.ParseErrorResponse(resp.Body)
	if err != nil || errResp.Error != oauth2.ErrorCodeInvalidGrant {
		return "", false
	}
	return errResp.ErrorDescription, true
}
