// Package executor implements the §4.7 request executor: it turns a
// resolved RequestPlan into bytes on the wire, follows redirects, updates
// the cookie jar, retries idempotent requests against a dead connection
// once, and produces either a buffered Response or a StreamingResponse.
package executor

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/arcbound/httpc/internal/codec"
	"github.com/arcbound/httpc/internal/config"
	"github.com/arcbound/httpc/internal/cookiejar"
	"github.com/arcbound/httpc/internal/httperr"
	"github.com/arcbound/httpc/internal/tlsconfig"
	"github.com/arcbound/httpc/internal/transport"
)

// idempotentMethods may be retried once against a freshly-dialed connection
// after a connection-level failure, per §4.7's retry policy.
var idempotentMethods = map[string]bool{
	"GET": true, "HEAD": true, "OPTIONS": true, "PUT": true, "DELETE": true,
}

// Engine ties one Client's configuration to a shared connection pool and
// cookie jar; Client and AsyncClient both drive requests through it. Config
// is a pointer shared with the owning Client so that edits made through
// Client.Headers() (and any other live config mutation) are visible on the
// very next request, rather than frozen at construction time.
type Engine struct {
	Config *config.ClientConfig
	Pool   *transport.Pool
	Jar    *cookiejar.Jar
}

// New returns an Engine sharing pool and jar across every request issued
// through it; jar may be nil if cookie handling is disabled (§6
// "cookie_store=false").
func New(cfg *config.ClientConfig, pool *transport.Pool, jar *cookiejar.Jar) *Engine {
	return &Engine{Config: cfg, Pool: pool, Jar: jar}
}

// Execute resolves spec against cfg, drives it (following redirects) and
// returns a fully-buffered Response, per §4.7/§4.8.
func (e *Engine) Execute(ctx context.Context, spec config.RequestSpec) (*Response, error) {
	plan, err := e.resolvePlan(spec)
	if err != nil {
		return nil, err
	}

	history := []string{}
	for {
		httpResp, key, release, err := e.roundTrip(ctx, plan)
		if err != nil {
			return nil, err
		}

		if e.isRedirect(httpResp.StatusCode) && plan.FollowRedirects {
			if plan.RedirectsLeft <= 0 {
				io.Copy(io.Discard, httpResp.Body)
				httpResp.Body.Close()
				release()
				return nil, httperr.TooManyRedirects(plan.URL.String(), len(history)+1)
			}
			nextPlan, redirected, rerr := e.followRedirect(plan, httpResp)
			io.Copy(io.Discard, httpResp.Body)
			httpResp.Body.Close()
			release()
			if rerr != nil {
				return nil, rerr
			}
			if redirected {
				history = append(history, plan.URL.String())
				plan = nextPlan
				continue
			}
		}

		if e.Jar != nil {
			e.Jar.Update(plan.URL, httpResp)
		}

		body, berr := bufferResponseBody(httpResp, plan.MaxBodyBytes)
		release()
		if berr != nil {
			e.Pool.MarkBroken(key)
			return nil, berr
		}

		return &Response{
			StatusCode: httpResp.StatusCode,
			Reason:     httpResp.Status,
			Headers:    headersFromHTTP(httpResp.Header),
			URL:        plan.URL.String(),
			History:    history,
			Body:       body,
		}, nil
	}
}

// ExecuteStreaming behaves like Execute but hands the caller the live body
// instead of buffering it, per §4.8's StreamingResponse. Redirects are still
// followed transparently; only the final hop's body streams through.
func (e *Engine) ExecuteStreaming(ctx context.Context, spec config.RequestSpec) (*StreamingResponse, error) {
	plan, err := e.resolvePlan(spec)
	if err != nil {
		return nil, err
	}

	history := []string{}
	for {
		reqCtx, cancel := context.WithCancel(ctx)
		httpResp, _, release, err := e.roundTrip(reqCtx, plan)
		if err != nil {
			cancel()
			return nil, err
		}

		if e.isRedirect(httpResp.StatusCode) && plan.FollowRedirects {
			if plan.RedirectsLeft <= 0 {
				io.Copy(io.Discard, httpResp.Body)
				httpResp.Body.Close()
				release()
				cancel()
				return nil, httperr.TooManyRedirects(plan.URL.String(), len(history)+1)
			}
			nextPlan, redirected, rerr := e.followRedirect(plan, httpResp)
			io.Copy(io.Discard, httpResp.Body)
			httpResp.Body.Close()
			release()
			cancel()
			if rerr != nil {
				return nil, rerr
			}
			if redirected {
				history = append(history, plan.URL.String())
				plan = nextPlan
				continue
			}
		}

		if e.Jar != nil {
			e.Jar.Update(plan.URL, httpResp)
		}

		enc := httpResp.Header.Get("Content-Encoding")
		body, derr := codec.DecompressingReader(httpResp.Body, enc)
		if derr != nil {
			release()
			cancel()
			return nil, httperr.DecodingError(plan.URL.String(), "failed to initialize content decoder", derr)
		}

		return newStreamingResponse(reqCtx, cancel, httpResp.StatusCode, headersFromHTTP(httpResp.Header), plan.URL.String(), body, release), nil
	}
}

func (e *Engine) resolvePlan(spec config.RequestSpec) (config.RequestPlan, error) {
	plan, err := config.Resolve(*e.Config, spec)
	if err != nil {
		return config.RequestPlan{}, err
	}
	if err := e.fillDeferredBody(&plan, spec); err != nil {
		return config.RequestPlan{}, err
	}
	if ch := e.cookieHeader(plan.URL, spec); ch != "" {
		plan.Headers.Set("Cookie", ch)
	}
	return plan, nil
}

// cookieHeader combines cookies from the jar (scoped by domain/path, §4.3,
// seeded at construction with the Client's cookies per New's SeedFromMap
// call) with the request's explicitly-set cookies, which apply regardless
// of domain for this call only. When the jar is disabled entirely
// (cookie_store=false) the Client's cookies have nowhere to live, so they
// are merged in directly instead. Request-level cookies win on a name
// clash against whatever the jar supplies.
func (e *Engine) cookieHeader(u *url.URL, spec config.RequestSpec) string {
	var parts []string
	if e.Jar != nil {
		if ch := e.Jar.CookieHeader(u); ch != "" {
			for _, kv := range strings.Split(ch, "; ") {
				name, _, _ := strings.Cut(kv, "=")
				if _, clash := spec.Cookies[name]; !clash {
					parts = append(parts, kv)
				}
			}
		}
	} else {
		for k, v := range e.Config.Cookies {
			if _, clash := spec.Cookies[k]; clash {
				continue
			}
			parts = append(parts, k+"="+v)
		}
	}
	for k, v := range spec.Cookies {
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, "; ")
}

// fillDeferredBody encodes the body kinds internal/config couldn't without
// importing internal/codec (see config.applyBody's doc comment).
func (e *Engine) fillDeferredBody(plan *config.RequestPlan, spec config.RequestSpec) error {
	switch spec.BodyKind {
	case config.BodyJSON:
		enc, err := codec.EncodeJSON(spec.JSONValue)
		if err != nil {
			return err
		}
		plan.BodyBytes = enc.Bytes
		plan.ContentType = enc.ContentType
	case config.BodyCBOR:
		enc, err := codec.EncodeCBOR(spec.CBORValue)
		if err != nil {
			return err
		}
		plan.BodyBytes = enc.Bytes
		plan.ContentType = enc.ContentType
	case config.BodyMultipart:
		enc, err := codec.EncodeMultipart(spec.MultipartData)
		if err != nil {
			return err
		}
		plan.BodyReader = enc.Reader
		plan.ContentType = enc.ContentType
	}
	if plan.ContentType != "" && !plan.Headers.Has("Content-Type") {
		plan.Headers.Set("Content-Type", plan.ContentType)
	}
	return nil
}

func (e *Engine) isRedirect(status int) bool {
	switch status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

// followRedirect rewrites plan for the next hop per §4.7's exact
// redirect-rewrite table: 303 (and 301/302 POST, matching the de-facto web
// behaviour browsers implement) downgrade to GET and drop the body; 307/308
// preserve method and body verbatim.
func (e *Engine) followRedirect(plan config.RequestPlan, resp *http.Response) (config.RequestPlan, bool, error) {
	loc := resp.Header.Get("Location")
	if loc == "" {
		return config.RequestPlan{}, false, nil
	}
	next, err := plan.URL.Parse(loc)
	if err != nil {
		return config.RequestPlan{}, false, httperr.RemoteProtocolError(plan.URL.String(), "invalid Location header", err)
	}
	if e.Jar != nil {
		e.Jar.Update(plan.URL, resp)
	}

	method := plan.Method
	var body []byte
	var bodyReader interface {
		Read(p []byte) (int, error)
	}
	contentType := plan.ContentType

	switch resp.StatusCode {
	case http.StatusSeeOther:
		method = http.MethodGet
		body, bodyReader, contentType = nil, nil, ""
	case http.StatusMovedPermanently, http.StatusFound:
		if plan.Method == http.MethodPost {
			method = http.MethodGet
			body, bodyReader, contentType = nil, nil, ""
		} else {
			body, bodyReader = plan.BodyBytes, plan.BodyReader
		}
	case http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		if plan.BodyReader != nil {
			return config.RequestPlan{}, false, httperr.RequestBodyNotReplayable(plan.URL.String())
		}
		body, bodyReader = plan.BodyBytes, plan.BodyReader
	}

	headers := plan.Headers.Clone()
	if next.Hostname() != plan.URL.Hostname() {
		headers.Delete("Authorization")
		headers.Delete("Cookie")
	}
	if e.Config.Referer {
		headers.Set("Referer", plan.URL.String())
	}

	return config.RequestPlan{
		Method:          method,
		URL:             next,
		Headers:         headers,
		BodyBytes:       body,
		BodyReader:      bodyReader,
		ContentType:     contentType,
		Timeout:         plan.Timeout,
		AuthHeaderValue: plan.AuthHeaderValue,
		RedirectsLeft:   plan.RedirectsLeft - 1,
		FollowRedirects: plan.FollowRedirects,
		MaxBodyBytes:    plan.MaxBodyBytes,
	}, true, nil
}

// roundTrip performs exactly one HTTP hop: build the wire request, acquire a
// pool slot, and execute it, retrying once on a connection-level failure for
// idempotent methods per §4.7.
func (e *Engine) roundTrip(ctx context.Context, plan config.RequestPlan) (*http.Response, transport.Key, func(), error) {
	key, opts, err := e.transportTarget(plan.URL)
	if err != nil {
		return nil, transport.Key{}, nil, err
	}

	// The timeout context must outlive this call: the response body is read
	// under it, so it is cancelled by the returned release func.
	cancelTimeout := func() {}
	if plan.Timeout > 0 {
		ctx, cancelTimeout = context.WithTimeout(ctx, plan.Timeout)
	}

	resp, release, err := e.attempt(ctx, plan, key, opts)
	if err != nil && idempotentMethods[plan.Method] && httperr.IsTransport(err) && !httperr.IsTimeout(err) {
		log.WithField("url", plan.URL.String()).Debug("httpc: retrying idempotent request after connection failure")
		e.Pool.MarkBroken(key)
		resp, release, err = e.attempt(ctx, plan, key, opts)
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	e.Pool.RecordRequest(plan.Method, outcome)
	if err != nil {
		cancelTimeout()
		return nil, key, nil, err
	}
	return resp, key, func() {
		release()
		cancelTimeout()
	}, nil
}

func (e *Engine) attempt(ctx context.Context, plan config.RequestPlan, key transport.Key, opts transport.Options) (*http.Response, func(), error) {
	release, err := e.Pool.Acquire(ctx, key, opts)
	if err != nil {
		return nil, nil, err
	}

	req, err := e.buildHTTPRequest(ctx, plan)
	if err != nil {
		release()
		return nil, nil, err
	}

	rt := e.Pool.RoundTripper(key, opts)
	resp, err := rt.RoundTrip(req)
	if err != nil {
		release()
		return nil, nil, classifyRoundTripError(plan.URL.String(), err)
	}
	return resp, release, nil
}

func (e *Engine) buildHTTPRequest(ctx context.Context, plan config.RequestPlan) (*http.Request, error) {
	var body io.Reader
	if plan.BodyReader != nil {
		body = plan.BodyReader
	} else if len(plan.BodyBytes) > 0 {
		body = bytes.NewReader(plan.BodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, plan.Method, plan.URL.String(), body)
	if err != nil {
		return nil, httperr.InvalidURL(plan.URL.String(), err)
	}
	for _, kv := range plan.Headers.WireKeys() {
		req.Header.Add(kv[0], kv[1])
	}
	if plan.BodyReader != nil {
		req.ContentLength = -1
	} else {
		req.ContentLength = int64(len(plan.BodyBytes))
	}
	return req, nil
}

func (e *Engine) transportTarget(u *url.URL) (transport.Key, transport.Options, error) {
	tlsOpts := tlsconfig.Options{
		Verify:        e.Config.Verify,
		CACertFile:    e.Config.CACertFile,
		ClientPEMPath: e.Config.ClientPEMPath,
		ClientPEMData: e.Config.ClientPEMData,
		HTTP2Only:     e.Config.HTTP2Only,
	}

	var tlsCfg *tls.Config
	if u.Scheme == "https" {
		cfg, err := tlsconfig.Build(tlsOpts)
		if err != nil {
			return transport.Key{}, transport.Options{}, err
		}
		tlsCfg = cfg
	}

	var proxyURL *url.URL
	proxyID := ""
	if raw := e.Config.EffectiveProxy(); raw != "" {
		pu, err := url.Parse(raw)
		if err != nil {
			return transport.Key{}, transport.Options{}, httperr.ProxyError(raw, err)
		}
		proxyURL = pu
		proxyID = pu.Host
	}

	alpn := "h1h2"
	if e.Config.HTTP2Only {
		alpn = "h2"
	}

	key := transport.Key{
		Scheme:    u.Scheme,
		Authority: u.Host,
		ALPN:      alpn,
		ProxyID:   proxyID,
		TLSFinger: tlsconfig.Fingerprint(tlsOpts),
	}
	opts := transport.Options{
		TLSConfig:       tlsCfg,
		ProxyURL:        proxyURL,
		MaxConnsPerHost: e.Config.MaxConnsPerHost,
		HTTP2Only:       e.Config.HTTP2Only,
	}
	return key, opts, nil
}

func classifyRoundTripError(url string, err error) error {
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return httperr.ReadTimeout(url, err)
	}
	if strings.Contains(err.Error(), "connection refused") || strings.Contains(err.Error(), "no such host") {
		return httperr.ConnectError(url, err)
	}
	return httperr.ConnectError(url, err)
}
