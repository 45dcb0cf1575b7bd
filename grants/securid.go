package grants

import (
	"context"
	"encoding/base64"
	"net/url"
	"strings"

	"github.com/jrsteele09/go-oidc-client/oauth2"
	"github.com/jrsteele09/go-oidc-client/oauthmodel"
)

// securIDNextCodeRequired prefixes the invalid_grant description that asks for the next
// token code: securid_next_code_required:<base64 session id>
const securIDNextCodeRequired = "securid_next_code_required:"

// SecurIDRetriever supplies the next token code when the server asks for one.
type SecurIDRetriever interface {
	NextPasscode(ctx context.Context, username string) (string, error)
}

// NextPasscodeFunc adapts a function to SecurIDRetriever.
type NextPasscodeFunc func(ctx context.Context, username string) (string, error)

func (f NextPasscodeFunc) NextPasscode(ctx context.Context, username string) (string, error) {
	return f(ctx, username)
}

// SecurID is the RSA SecurID grant.
type SecurID struct {
	Username  string
	Passcode  string
	Retriever SecurIDRetriever
}

func (*SecurID) isGrant() {}
func (*SecurID) GrantType() oauth2.GrantType { return oauth2.SecurIDGrant }

func (g *SecurID) Validate() error {
	if strings.TrimSpace(g.Username) == "" {
		return oauthmodel.ClientError("username is required")
	}
	if g.Passcode == "" {
		return oauthmodel.ClientError("passcode is required")
	}
	if g.Retriever == nil {
		return oauthmodel.ClientError("securid next passcode retriever is required")
	}
	return nil
}

type securIDLeg struct {
	username  string
	passcode  string
	sessionID []byte
}

func (*securIDLeg) GrantType() oauth2.GrantType { return oauth2.SecurIDGrant }

func (l *securIDLeg) Parameters() url.Values {
	v := url.Values{
		oauth2.ParamUsername: {l.username},
		oauth2.ParamPasscode: {l.passcode},
	}
	if l.sessionID != nil {
		v.Set(oauth2.ParamSessionID, base64.StdEncoding.EncodeToString(l.sessionID))
	}
	return v
}

// parseSecurIDContinuation returns the decoded session id of a next code response.
func parseSecurIDContinuation(resp *oauth2.HTTPResponse) (sessionID []byte, ok bool, err error) {
	description, ok := invalidGrantDescription(resp)
	if !ok || !strings.HasPrefix(description, securIDNextCodeRequired) {
		return nil, false, nil
	}
	sessionID, err = base64.StdEncoding.DecodeString(strings.TrimPrefix(description, securIDNextCodeRequired))
	if err != nil {
		return nil, true, oauthmodel.WrapClientError(err, "failed to decode securid session id")
	}
	return sessionID, true, nil
}

func (n *negotiator) negotiateSecurID(ctx context.Context, g *SecurID) (*oauth2.HTTPResponse, error) {
	current := &securIDLeg{username: g.Username, passcode: g.Passcode}

	for leg := 1; ; leg++ {
		if leg > n.maxLegs {
			return nil, oauthmodel.ClientError("securid negotiation exceeded %d legs", n.maxLegs)
		}
		n.logger.Debug().Str("grant_type", string(g.GrantType())).Int("leg", leg).Msg("sending securid passcode")

		resp, err := n.send(ctx, current)
		if err != nil {
			return nil, err
		}
		if resp.OK() {
			return resp, nil
		}

		sessionID, ok, err := parseSecurIDContinuation(resp)
		if err != nil {
			return nil, err
		}
		if !ok {
			return resp, nil
		}

		passcode, err := g.Retriever.NextPasscode(ctx, g.Username)
		if err != nil {
			return nil, oauthmodel.WrapClientError(err, "failed to get next securid passcode")
		}
		current = &securIDLeg{username: g.Username, passcode: passcode, sessionID: sessionID}
	}
}
