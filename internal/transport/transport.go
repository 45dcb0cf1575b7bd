// Package transport sends requests to the identity provider over TLS verified
// against a trust store and enforces JSON response bodies.
package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/elnormous/contenttype"
	"github.com/jrsteele09/go-oidc-client/oauth2"
	"github.com/jrsteele09/go-oidc-client/oauthmodel"
	"github.com/jrsteele09/go-oidc-client/truststore"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultTimeout bounds every request.
const DefaultTimeout = 60 * time.Second

// maxBodySize caps how much of a response body is read.
const maxBodySize = 1 << 20

var jsonMediaType = contenttype.NewMediaType("application/json")

// Transport is an HTTP client bound to a trust store.
type Transport struct {
	client  *http.Client
	timeout time.Duration
	logger  zerolog.Logger
}

// Option configures a Transport.
type Option func(*Transport)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(t *Transport) {
		if d > 0 {
			t.timeout = d
		}
	}
}

// WithLogger sets the transport logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(t *Transport) {
		t.logger = logger
	}
}

// New creates a transport trusting the certificates of store. A nil store trusts the system roots.
func New(store *truststore.Store, opts ...Option) (*Transport, error) {
	t := &Transport{
		timeout: DefaultTimeout,
		logger:  log.Logger,
	}
	for _, opt := range opts {
		opt(t)
	}

	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}
	if store != nil {
		pool, err := store.Pool()
		if err != nil {
			return nil, oauthmodel.SSLConnectionError(err, "failed to load trust store")
		}
		tlsConfig.RootCAs = pool
	}

	base := http.DefaultTransport.(*http.Transport).Clone()
	base.TLSClientConfig = tlsConfig
	t.client = &http.Client{
		Transport: base,
		Timeout:   t.timeout,
	}
	return t, nil
}

// HTTPClient returns the underlying client, e.g. for provider discovery.
func (t *Transport) HTTPClient() *http.Client {
	return t.client
}

// Send performs one request and returns the status code and body. Bodies must be
// UTF-8 JSON. TLS verification failures are reported as ssl connection errors.
func (t *Transport) Send(ctx context.Context, method string, endpoint *url.URL, header http.Header, body []byte) (*oauth2.HTTPResponse, error) {
	if endpoint == nil {
		return nil, oauthmodel.ClientError("endpoint is required")
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return nil, oauthmodel.WrapClientError(err, "failed to build request")
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, RequestError(err, method, endpoint)
	}
	defer resp.Body.Close()

	respBody, err := ReadBody(resp.Body)
	if err != nil {
		return nil, err
	}

	t.logger.Debug().Str("method", method).Str("host", endpoint.Host).Int("status", resp.StatusCode).Msg("identity provider response")

	if len(respBody) > 0 {
		if err := CheckJSON(resp.Header, respBody); err != nil {
			return nil, err
		}
	}

	return &oauth2.HTTPResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       respBody,
	}, nil
}

// RequestError classifies a failed request. TLS verification failures become ssl
// connection errors, anything else a transport error.
func RequestError(err error, method string, endpoint *url.URL) error {
	if isTLSError(err) {
		return oauthmodel.SSLConnectionError(err, "failed to establish a trusted connection to %s", endpoint.Host)
	}
	return oauthmodel.TransportError(err, "%s %s failed", method, endpoint.Redacted())
}

// ReadBody reads a response body of at most 1MB.
func ReadBody(r io.Reader) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, maxBodySize+1))
	if err != nil {
		return nil, oauthmodel.TransportError(err, "failed to read response body")
	}
	if len(body) > maxBodySize {
		return nil, oauthmodel.ClientError("response body too large, limit is %d bytes", maxBodySize)
	}
	return body, nil
}

// CheckJSON verifies the response is UTF-8 encoded application/json.
func CheckJSON(header http.Header, body []byte) error {
	ctype, err := contenttype.GetMediaType(&http.Request{Header: header})
	if err != nil || !ctype.Matches(jsonMediaType) {
		return oauthmodel.ClientError("unexpected response content type %q", header.Get("Content-Type"))
	}
	if charset, ok := ctype.Parameters["charset"]; ok && !strings.EqualFold(charset, "utf-8") {
		return oauthmodel.ClientError("unexpected response charset %q", charset)
	}
	if !utf8.Valid(body) {
		return oauthmodel.ClientError("response body is not valid UTF-8")
	}
	return nil
}

func isTLSError(err error) bool {
	var (
		unknownAuthority x509.UnknownAuthorityError
		invalidCert      x509.CertificateInvalidError
		hostname         x509.HostnameError
		verification     *tls.CertificateVerificationError
		recordHeader     tls.RecordHeaderError
	)
	return errors.As(err, &unknownAuthority) ||
		errors.As(err, &invalidCert) ||
		errors.As(err, &hostname) ||
		errors.As(err, &verification) ||
		errors.As(err, &recordHeader)
}
