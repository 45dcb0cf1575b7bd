package keys

import (
	"crypto/rsa"
	"encoding/json"
	"fmt"

	jose "github.com/go-jose/go-jose/v4"
)

// JWKS is a JSON Web Key Set
type JWKS = jose.JSONWebKeySet

// PublicKeyToJWK converts an RSA public key to a signing JWK
func PublicKeyToJWK(keyID string, pub *rsa.PublicKey) jose.JSONWebKey {
	return jose.JSONWebKey{
		Key:       pub,
		KeyID:     keyID,
		Algorithm: RS256,
		Use:       "sig",
	}
}

// PublicKeyToJWKS wraps a single RSA public key in a key set
func PublicKeyToJWKS(keyID string, pub *rsa.PublicKey) *JWKS {
	return &JWKS{Keys: []jose.JSONWebKey{PublicKeyToJWK(keyID, pub)}}
}

// ParseJWKS decodes a JSON Web Key Set document
func ParseJWKS(data []byte) (*JWKS, error) {
	var set JWKS
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to decode JWKS: %w", err)
	}
	return &set, nil
}

// RSAPublicKeyFromJWKS returns the RSA key of a set holding exactly one key
func RSAPublicKeyFromJWKS(set *JWKS) (*rsa.PublicKey, error) {
	if set == nil || len(set.Keys) != 1 {
		n := 0
		if set != nil {
			n = len(set.Keys)
		}
		return nil, fmt.Errorf("expected exactly one key in JWKS, found %d", n)
	}
	pub, ok := set.Keys[0].Key.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("JWKS key %q is not an RSA public key", set.Keys[0].KeyID)
	}
	return pub, nil
}
