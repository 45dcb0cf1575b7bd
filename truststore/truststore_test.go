package truststore_test

import (
	"crypto/x509"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jrsteele09/go-oidc-client/internal/testutil"
	"github.com/jrsteele09/go-oidc-client/truststore"
	"github.com/stretchr/testify/require"
)

func TestStore_LoadsOnce(t *testing.T) {
	var calls int
	var mu sync.Mutex
	store := truststore.New(func() (*x509.CertPool, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return x509.NewCertPool(), nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pool, err := store.Pool()
			require.NoError(t, err)
			require.NotNil(t, pool)
		}()
	}
	wg.Wait()
	require.Equal(t, 1, calls)
}

func TestStore_ErrorIsSticky(t *testing.T) {
	calls := 0
	store := truststore.New(func() (*x509.CertPool, error) {
		calls++
		return nil, errors.New("bad bundle")
	})
	_, err := store.Pool()
	require.Error(t, err)
	_, err = store.Pool()
	require.Error(t, err)
	require.Equal(t, 1, calls)
}

func TestFromPEMFile(t *testing.T) {
	key := testutil.RSAKey(t)
	cert := testutil.SelfSignedCertificate(t, key, "sso.example.com")

	dir := t.TempDir()
	path := filepath.Join(dir, "trust.pem")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw}), 0o600))

	pool, err := truststore.FromPEMFile(path).Pool()
	require.NoError(t, err)
	require.NotNil(t, pool)

	t.Run("missing file", func(t *testing.T) {
		_, err := truststore.FromPEMFile(filepath.Join(dir, "missing.pem")).Pool()
		require.Error(t, err)
	})

	t.Run("no certificates", func(t *testing.T) {
		empty := filepath.Join(dir, "empty.pem")
		require.NoError(t, os.WriteFile(empty, []byte("not pem"), 0o600))
		_, err := truststore.FromPEMFile(empty).Pool()
		require.Error(t, err)
		require.Contains(t, err.Error(), "no certificates found")
	})
}

func TestFromCertificates(t *testing.T) {
	_, err := truststore.FromCertificates().Pool()
	require.Error(t, err)

	cert := testutil.SelfSignedCertificate(t, testutil.RSAKey(t), "sso.example.com")
	pool, err := truststore.FromCertificates(cert).Pool()
	require.NoError(t, err)
	require.NotNil(t, pool)
}
