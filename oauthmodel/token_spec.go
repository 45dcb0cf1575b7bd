package oauthmodel

import (
	"strings"
)

// GroupMembership selects how group membership is reported in a token.
type GroupMembership int

const (
	// GroupMembershipNone omits groups.
	GroupMembershipNone GroupMembership = iota
	// GroupMembershipFull reports every group the subject belongs to.
	GroupMembershipFull
	// GroupMembershipFiltered reports only the groups the client is registered for.
	GroupMembershipFiltered
)

// Scope values understood by the server.
const (
	ScopeOpenID           = "openid"
	ScopeOfflineAccess    = "offline_access"
	ScopeIDGroups         = "id_groups"
	ScopeIDGroupsFiltered = "id_groups_filtered"
	ScopeAtGroups         = "at_groups"
	ScopeAtGroupsFiltered = "at_groups_filtered"

	// ResourceServerPrefix starts every resource server scope value.
	ResourceServerPrefix = "rs_"
)

// TokenSpec describes which tokens and claims a token request asks for.
// It is immutable; build one with NewTokenSpec.
type TokenSpec struct {
	refreshToken          bool
	idTokenGroups         GroupMembership
	accessTokenGroups     GroupMembership
	resourceServers       []string
	additionalScopeValues []string
}

// EmptyTokenSpec asks for no extra scope values. It is the only spec accepted
// by the authorization code and refresh token grants.
var EmptyTokenSpec = TokenSpec{}

// TokenSpecOption configures a TokenSpec.
type TokenSpecOption func(*TokenSpec)

// WithRefreshToken requests a refresh token (offline_access).
func WithRefreshToken() TokenSpecOption {
	return func(s *TokenSpec) {
		s.refreshToken = true
	}
}

// WithIDTokenGroups selects group membership reporting in the ID token.
func WithIDTokenGroups(m GroupMembership) TokenSpecOption {
	return func(s *TokenSpec) {
		s.idTokenGroups = m
	}
}

// WithAccessTokenGroups selects group membership reporting in the access token.
func WithAccessTokenGroups(m GroupMembership) TokenSpecOption {
	return func(s *TokenSpec) {
		s.accessTokenGroups = m
	}
}

// WithResourceServers adds resource server audiences. Each name must start with "rs_".
func WithResourceServers(names ...string) TokenSpecOption {
	return func(s *TokenSpec) {
		s.resourceServers = append(s.resourceServers, names...)
	}
}

// WithAdditionalScopeValues adds raw scope values to the request.
func WithAdditionalScopeValues(values ...string) TokenSpecOption {
	return func(s *TokenSpec) {
		s.additionalScopeValues = append(s.additionalScopeValues, values...)
	}
}

// NewTokenSpec builds a TokenSpec and checks that every scope value it would produce is well formed.
func NewTokenSpec(opts ...TokenSpecOption) (TokenSpec, error) {
	var s TokenSpec
	for _, opt := range opts {
		opt(&s)
	}
	if err := validGroupMembership(s.idTokenGroups); err != nil {
		return TokenSpec{}, err
	}
	if err := validGroupMembership(s.accessTokenGroups); err != nil {
		return TokenSpec{}, err
	}
	if _, err := s.Scope(); err != nil {
		return TokenSpec{}, err
	}
	return s, nil
}

func validGroupMembership(m GroupMembership) error {
	switch m {
	case GroupMembershipNone, GroupMembershipFull, GroupMembershipFiltered:
		return nil
	}
	return ClientError("unknown group membership mode %d", m)
}

// RefreshToken reports whether a refresh token is requested.
func (s TokenSpec) RefreshToken() bool { return s.refreshToken }

// IDTokenGroups returns the ID token group membership mode.
func (s TokenSpec) IDTokenGroups() GroupMembership { return s.idTokenGroups }

// AccessTokenGroups returns the access token group membership mode.
func (s TokenSpec) AccessTokenGroups() GroupMembership { return s.accessTokenGroups }

// ResourceServers returns a copy of the requested resource server names.
func (s TokenSpec) ResourceServers() []string {
	return append([]string(nil), s.resourceServers...)
}

// IsEmpty reports whether the spec asks for nothing beyond openid.
func (s TokenSpec) IsEmpty() bool {
	return !s.refreshToken &&
		s.idTokenGroups == GroupMembershipNone &&
		s.accessTokenGroups == GroupMembershipNone &&
		len(s.resourceServers) == 0 &&
		len(s.additionalScopeValues) == 0
}

// Scope returns the ordered, de-duplicated scope values for this spec.
// "openid" is always first.
func (s TokenSpec) Scope() ([]string, error) {
	values := []string{ScopeOpenID}
	if s.refreshToken {
		values = append(values, ScopeOfflineAccess)
	}
	switch s.idTokenGroups {
	case GroupMembershipFull:
		values = append(values, ScopeIDGroups)
	case GroupMembershipFiltered:
		values = append(values, ScopeIDGroupsFiltered)
	}
	switch s.accessTokenGroups {
	case GroupMembershipFull:
		values = append(values, ScopeAtGroups)
	case GroupMembershipFiltered:
		values = append(values, ScopeAtGroupsFiltered)
	}
	for _, rs := range s.resourceServers {
		if !strings.HasPrefix(rs, ResourceServerPrefix) || len(rs) == len(ResourceServerPrefix) {
			return nil, ClientError("resource server %q must start with %q", rs, ResourceServerPrefix)
		}
		if !isScopeToken(rs) {
			return nil, ClientError("resource server %q is not a valid scope value", rs)
		}
		values = append(values, rs)
	}
	for _, v := range s.additionalScopeValues {
		if !isScopeToken(v) {
			return nil, ClientError("%q is not a valid scope value", v)
		}
		values = append(values, v)
	}
	return dedupe(values), nil
}

// ScopeString joins Scope with spaces.
func (s TokenSpec) ScopeString() (string, error) {
	values, err := s.Scope()
	if err != nil {
		return "", err
	}
	return strings.Join(values, " "), nil
}

// isScopeToken checks RFC 6749 section 3.3: 1*( %x21 / %x23-5B / %x5D-7E ).
func isScopeToken(v string) bool {
	if v == "" {
		return false
	}
	for _, r := range v {
		if r < 0x21 || r > 0x7e || r == '"' || r == '\\' {
			return false
		}
	}
	return true
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
