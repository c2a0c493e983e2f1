// Package tlsconfig builds the *tls.Config used by the transport pool, per
// §4.4: verify flag, extra CA bundle, client PEM path or bytes for mTLS, and
// ALPN protocol selection for http2_only.
package tlsconfig

import (
	"crypto/tls"
	"crypto/x509"
	"os"

	"github.com/arcbound/httpc/internal/httperr"
)

// Options mirrors the subset of ClientConfig relevant to TLS, kept separate
// from internal/config so this package has no dependency on the request
// resolver.
type Options struct {
	Verify        bool
	CACertFile    string
	ClientPEMPath string
	ClientPEMData []byte
	HTTP2Only     bool
}

// Build constructs a *tls.Config from Options.
func Build(opts Options) (*tls.Config, error) {
	cfg := &tls.Config{
		InsecureSkipVerify: !opts.Verify,
		MinVersion:         tls.VersionTLS12,
	}

	if opts.CACertFile != "" {
		pool, err := systemOrEmptyPool()
		if err != nil {
			return nil, httperr.LocalProtocolError("", "failed to load system cert pool", err)
		}
		pem, err := os.ReadFile(opts.CACertFile)
		if err != nil {
			return nil, httperr.LocalProtocolError("", "failed to read ca_cert_file", err)
		}
		if !pool.AppendCertsFromPEM(pem) {
			return nil, httperr.LocalProtocolError("", "ca_cert_file contained no usable certificates", nil)
		}
		cfg.RootCAs = pool
	}

	// Exactly one of client_pem / client_pem_data may be supplied; bytes
	// win if both are (§4.4).
	pemData := opts.ClientPEMData
	if len(pemData) == 0 && opts.ClientPEMPath != "" {
		data, err := os.ReadFile(opts.ClientPEMPath)
		if err != nil {
			return nil, httperr.LocalProtocolError("", "failed to read client_pem", err)
		}
		pemData = data
	}
	if len(pemData) > 0 {
		cert, err := tls.X509KeyPair(pemData, pemData)
		if err != nil {
			return nil, httperr.LocalProtocolError("", "failed to parse client certificate for mTLS", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}

	if opts.HTTP2Only {
		cfg.NextProtos = []string{"h2"}
	} else {
		cfg.NextProtos = []string{"h2", "http/1.1"}
	}

	return cfg, nil
}

func systemOrEmptyPool() (*x509.CertPool, error) {
	pool, err := x509.SystemCertPool()
	if err != nil || pool == nil {
		return x509.NewCertPool(), nil
	}
	return pool, nil
}

// Fingerprint returns a stable key component distinguishing TLS
// configurations that would otherwise collide in the transport pool key
// (§4.5: "TLS-config-fingerprint"). Two Options with the same
// verify/ca/cert/ALPN settings produce the same fingerprint.
func Fingerprint(opts Options) string {
	alpn := "h1h2"
	if opts.HTTP2Only {
		alpn = "h2only"
	}
	hasCert := len(opts.ClientPEMData) > 0 || opts.ClientPEMPath != ""
	return boolTag(opts.Verify) + "|" + opts.CACertFile + "|" + boolTag(hasCert) + "|" + alpn
}

func boolTag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
