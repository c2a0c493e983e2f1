// Package transport implements the §4.5 transport pool: a keyed connection
// manager with keep-alive reuse, per-host concurrency limits, and HTTP/1.1
// or HTTP/2 negotiation.
//
// Go's net/http.Transport already owns physical connection reuse; hand
// rolling a second socket manager on top of it would just race the one the
// standard library already gets right. What this package adds on top is
// policy *net/http.Transport doesn't expose on its own: a
// keyed-by-(scheme, authority, ALPN, proxy, TLS-fingerprint) waiter queue
// with an enforceable acquire timeout (§4.5 "PoolTimeout") and
// pool-occupancy metrics.
package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/net/http2"
	"golang.org/x/sync/semaphore"

	"github.com/arcbound/httpc/internal/httperr"
)

// Key identifies a pooled transport per §4.5: scheme/host/port/ALPN plus
// proxy and TLS fingerprint, so distinct TLS configurations never share a
// connection.
type Key struct {
	Scheme      string
	Authority   string
	ALPN        string
	ProxyID     string
	TLSFinger   string
}

func (k Key) String() string {
	return fmt.Sprintf("%s|%s|%s|%s|%s", k.Scheme, k.Authority, k.ALPN, k.ProxyID, k.TLSFinger)
}

// Metrics is the minimal gauge/counter surface the pool reports through;
// implemented by internal/metrics (backed by prometheus client_golang) or
// left nil to disable reporting.
type Metrics interface {
	SetIdle(key string, n int)
	SetInUse(key string, n int)
	IncRequests(method, outcome string)
}

type noopMetrics struct{}

func (noopMetrics) SetIdle(string, int)           {}
func (noopMetrics) SetInUse(string, int)          {}
func (noopMetrics) IncRequests(string, string)    {}

// Options configures the pool for one logical peer group.
type Options struct {
	TLSConfig       *tls.Config
	ProxyURL        *url.URL
	MaxConnsPerHost int
	IdleConnTimeout time.Duration
	HTTP2Only       bool
}

type slot struct {
	transport http.RoundTripper
	sem       *semaphore.Weighted
	maxConns  int
	inUse     int
	mu        sync.Mutex
}

// Pool owns every transport keyed by peer identity.
type Pool struct {
	mu      sync.Mutex
	slots   map[string]*slot
	metrics Metrics
}

// New returns an empty pool. Pass nil metrics to disable reporting.
func New(metrics Metrics) *Pool {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Pool{slots: make(map[string]*slot), metrics: metrics}
}

func (p *Pool) slotFor(key Key, opts Options) *slot {
	p.mu.Lock()
	defer p.mu.Unlock()
	k := key.String()
	if s, ok := p.slots[k]; ok {
		return s
	}

	maxConns := opts.MaxConnsPerHost
	if maxConns <= 0 {
		maxConns = 64
	}

	base := &http.Transport{
		Proxy: http.ProxyURL(opts.ProxyURL),
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSClientConfig:       opts.TLSConfig,
		MaxIdleConns:          maxConns,
		MaxIdleConnsPerHost:   maxConns,
		MaxConnsPerHost:       maxConns,
		IdleConnTimeout:       idleTimeoutOrDefault(opts.IdleConnTimeout),
		ForceAttemptHTTP2:     !opts.HTTP2Only,
		ExpectContinueTimeout: 1 * time.Second,
	}

	if opts.HTTP2Only {
		// ConfigureTransports mutates base in place so it dials h2 only,
		// matching the TLSConfig.NextProtos == ["h2"] the TLS builder set.
		if _, err := http2.ConfigureTransports(base); err != nil {
			log.WithError(err).Warn("httpc: failed to configure HTTP/2-only transport, falling back to negotiated ALPN")
		}
	}

	s := &slot{transport: base, sem: semaphore.NewWeighted(int64(maxConns)), maxConns: maxConns}
	p.slots[k] = s
	return s
}

func idleTimeoutOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return 90 * time.Second
	}
	return d
}

// Acquire blocks until a concurrency permit for key is available or ctx is
// done, implementing §4.5's "fair waiter queue" (semaphore.Weighted serves
// waiters FIFO) and PoolTimeout. The returned release func must be called
// exactly once.
func (p *Pool) Acquire(ctx context.Context, key Key, opts Options) (release func(), err error) {
	s := p.slotFor(key, opts)
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, httperr.PoolTimeout(key.Authority, err)
	}
	s.mu.Lock()
	s.inUse++
	p.metrics.SetInUse(key.String(), s.inUse)
	p.metrics.SetIdle(key.String(), s.maxConns-s.inUse)
	s.mu.Unlock()

	released := false
	return func() {
		if released {
			return
		}
		released = true
		s.mu.Lock()
		s.inUse--
		p.metrics.SetInUse(key.String(), s.inUse)
		p.metrics.SetIdle(key.String(), s.maxConns-s.inUse)
		s.mu.Unlock()
		s.sem.Release(1)
	}, nil
}

// RecordRequest reports one request's outcome (e.g. "ok", "error") to the
// configured metrics collector, keyed by method.
func (p *Pool) RecordRequest(method, outcome string) {
	p.metrics.IncRequests(method, outcome)
}

// RoundTripper returns the pooled http.RoundTripper for key, creating it if
// necessary.
func (p *Pool) RoundTripper(key Key, opts Options) http.RoundTripper {
	return p.slotFor(key, opts).transport
}

// CloseIdle closes every pooled transport's idle connections, used by
// Client.Close.
func (p *Pool) CloseIdle() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range p.slots {
		if t, ok := s.transport.(*http.Transport); ok {
			t.CloseIdleConnections()
		}
	}
}

// MarkBroken evicts the connection pool entry backing key so that the next
// request dials a fresh connection. The executor calls it before retrying
// an idempotent request after a connection failure and after a failed body
// read; cancelling a request does not call it.
func (p *Pool) MarkBroken(key Key) {
	p.mu.Lock()
	defer p.mu.Unlock()
	k := key.String()
	if s, ok := p.slots[k]; ok {
		if t, ok := s.transport.(*http.Transport); ok {
			t.CloseIdleConnections()
		}
		delete(p.slots, k)
	}
}
