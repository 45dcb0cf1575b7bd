package keys

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"

	"golang.org/x/crypto/pkcs12"
)

// HolderOfKeyConfig is the client's signing identity: an RSA private key and
// the certificate that carries its public half.
type HolderOfKeyConfig struct {
	privateKey  *rsa.PrivateKey
	certificate *x509.Certificate
}

// NewHolderOfKeyConfig checks that the key and certificate belong together
func NewHolderOfKeyConfig(privateKey *rsa.PrivateKey, certificate *x509.Certificate) (*HolderOfKeyConfig, error) {
	if privateKey == nil {
		return nil, fmt.Errorf("[NewHolderOfKeyConfig] private key is required")
	}
	if certificate == nil {
		return nil, fmt.Errorf("[NewHolderOfKeyConfig] certificate is required")
	}
	certKey, ok := certificate.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("[NewHolderOfKeyConfig] certificate public key is not RSA")
	}
	if !certKey.Equal(&privateKey.PublicKey) {
		return nil, fmt.Errorf("[NewHolderOfKeyConfig] private key does not match certificate")
	}
	return &HolderOfKeyConfig{
		privateKey:  privateKey,
		certificate: certificate,
	}, nil
}

// LoadHolderOfKeyPKCS12 reads a PKCS#12 bundle with one key and one certificate
func LoadHolderOfKeyPKCS12(path, password string) (*HolderOfKeyConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read PKCS#12 file: %w", err)
	}
	key, cert, err := pkcs12.Decode(data, password)
	if err != nil {
		return nil, fmt.Errorf("failed to decode PKCS#12 file: %w", err)
	}
	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("PKCS#12 private key is not RSA")
	}
	return NewHolderOfKeyConfig(rsaKey, cert)
}

// LoadHolderOfKeyPEM reads a PEM private key and a PEM certificate
func LoadHolderOfKeyPEM(privateKeyPEM, certificatePEM string) (*HolderOfKeyConfig, error) {
	key, err := LoadRSAPrivateKeyFromPEM(privateKeyPEM)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode([]byte(certificatePEM))
	if block == nil || block.Type != "CERTIFICATE" {
		return nil, fmt.Errorf("failed to decode certificate PEM block")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse certificate: %w", err)
	}
	return NewHolderOfKeyConfig(key, cert)
}

// PrivateKey returns the signing key
func (h *HolderOfKeyConfig) PrivateKey() *rsa.PrivateKey {
	return h.privateKey
}

// PublicKey returns the public half of the signing key
func (h *HolderOfKeyConfig) PublicKey() *rsa.PublicKey {
	return &h.privateKey.PublicKey
}

// Certificate returns the certificate
func (h *HolderOfKeyConfig) Certificate() *x509.Certificate {
	return h.certificate
}

// SubjectDN returns the certificate subject distinguished name
func (h *HolderOfKeyConfig) SubjectDN() string {
	return h.certificate.Subject.String()
}

// KeyPair returns the signing key as a KeyPair without a key id
func (h *HolderOfKeyConfig) KeyPair() *KeyPair {
	return NewRSAKeyPair("", h.privateKey)
}
