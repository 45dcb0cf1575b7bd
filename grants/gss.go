package grants

import (
	"context"
	"encoding/base64"
	"net/url"
	"strings"

	"github.com/jrsteele09/go-oidc-client/oauth2"
	"github.com/jrsteele09/go-oidc-client/oauthmodel"
)

// gssContinueNeeded prefixes the invalid_grant description that asks for another GSS leg:
// gss_continue_needed:<context id>:<base64 challenge>
const gssContinueNeeded = "gss_continue_needed:"

// GSSNegotiationHandler produces GSS tickets. The first call receives a nil challenge.
type GSSNegotiationHandler interface {
	Negotiate(ctx context.Context, challenge []byte) ([]byte, error)
}

// NegotiateFunc adapts a function to GSSNegotiationHandler.
type NegotiateFunc func(ctx context.Context, challenge []byte) ([]byte, error)

func (f NegotiateFunc) Negotiate(ctx context.Context, challenge []byte) ([]byte, error) {
	return f(ctx, challenge)
}

// GSSTicket is the Kerberos/SPNEGO grant. ContextID identifies the negotiation
// and is sent unchanged on every leg.
type GSSTicket struct {
	ContextID string
	Handler   GSSNegotiationHandler
}

func (*GSSTicket) isGrant() {}
func (*GSSTicket) GrantType() oauth2.GrantType { return oauth2.GSSTicketGrant }

func (g *GSSTicket) Validate() error {
	if strings.TrimSpace(g.ContextID) == "" {
		return oauthmodel.ClientError("gss context id is required")
	}
	if g.Handler == nil {
		return oauthmodel.ClientError("gss negotiation handler is required")
	}
	return nil
}

type gssTicketLeg struct {
	contextID string
	ticket    []byte
}

func (*gssTicketLeg) GrantType() oauth2.GrantType { return oauth2.GSSTicketGrant }

func (l *gssTicketLeg) Parameters() url.Values {
	return url.Values{
		oauth2.ParamContextID: {l.contextID},
		oauth2.ParamGSSTicket: {base64.StdEncoding.EncodeToString(l.ticket)},
	}
}

// parseGSSContinuation returns the context id and decoded challenge of a continuation
// response. ok is false when the response is not a continuation.
func parseGSSContinuation(resp *oauth2.HTTPResponse) (contextID string, challenge []byte, ok bool, err error) {
	description, ok := invalidGrantDescription(resp)
	if !ok || !strings.HasPrefix(description, gssContinueNeeded) {
		return "", nil, false, nil
	}
	parts := strings.Split(strings.TrimPrefix(description, gssContinueNeeded), ":")
	if len(parts) != 2 {
		return "", nil, false, nil
	}
	challenge, err = base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", nil, true, oauthmodel.WrapClientError(err, "failed to decode gss challenge")
	}
	return parts[0], challenge, true, nil
}

func (n *negotiator) negotiateGSS(ctx context.Context, g *GSSTicket) (*oauth2.HTTPResponse, error) {
	ticket, err := g.Handler.Negotiate(ctx, nil)
	if err != nil {
		return nil, oauthmodel.WrapClientError(err, "gss negotiation failed")
	}

	for leg := 1; ; leg++ {
		if leg > n.maxLegs {
			return nil, oauthmodel.ClientError("gss negotiation exceeded %d legs", n.maxLegs)
		}
		n.logger.Debug().Str("grant_type", string(g.GrantType())).Int("leg", leg).Msg("sending gss ticket")

		resp, err := n.send(ctx, &gssTicketLeg{contextID: g.ContextID, ticket: ticket})
		if err != nil {
			return nil, err
		}
		if resp.OK() {
			return resp, nil
		}

		contextID, challenge, ok, err := parseGSSContinuation(resp)
		if err != nil {
			return nil, err
		}
		if !ok {
			return resp, nil
		}
		if contextID != g.ContextID {
			return nil, oauthmodel.ClientError("gss continuation context id %q does not match %q", contextID, g.ContextID)
		}

		ticket, err = g.Handler.Negotiate(ctx, challenge)
		if err != nil {
			return nil, oauthmodel.WrapClientError(err, "gss negotiation failed")
		}
	}
}
