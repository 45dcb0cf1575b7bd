// Package truststore provides the certificate pool TLS connections to the
// identity provider are verified against. A Store loads its pool once, on first
// use, and is read only afterwards.
package truststore

import (
	"crypto/x509"
	"fmt"
	"os"
	"sync"
)

// LoadFunc builds the certificate pool.
type LoadFunc func() (*x509.CertPool, error)

// Store is a lazily loaded, load-once certificate pool. It is safe for concurrent use.
type Store struct {
	load LoadFunc
	once sync.Once
	pool *x509.CertPool
	err  error
}

// New returns a store that calls load at most once.
func New(load LoadFunc) *Store {
	return &Store{load: load}
}

// System uses the host's root certificates.
func System() *Store {
	return New(x509.SystemCertPool)
}

// FromCertificates trusts exactly certs.
func FromCertificates(certs ...*x509.Certificate) *Store {
	return New(func() (*x509.CertPool, error) {
		if len(certs) == 0 {
			return nil, fmt.Errorf("no trusted certificates")
		}
		pool := x509.NewCertPool()
		for _, c := range certs {
			pool.AddCert(c)
		}
		return pool, nil
	})
}

// FromPEMFile trusts the certificates in a PEM bundle.
func FromPEMFile(path string) *Store {
	return New(func() (*x509.CertPool, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read trust bundle: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(data) {
			return nil, fmt.Errorf("no certificates found in %s", path)
		}
		return pool, nil
	})
}

// Pool returns the certificate pool, loading it on the first call. A load error is
// returned on every call.
func (s *Store) Pool() (*x509.CertPool, error) {
	s.once.Do(func() {
		if s.load == nil {
			s.err = fmt.Errorf("trust store has no loader")
			return
		}
		s.pool, s.err = s.load()
	})
	return s.pool, s.err
}
