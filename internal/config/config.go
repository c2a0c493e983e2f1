// Package config implements the §4.1 config resolver: it merges
// process-level defaults, client-level defaults, and per-request overrides
// into an effective RequestPlan.
package config

import (
	"encoding/base64"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/arcbound/httpc/internal/headers"
	"github.com/arcbound/httpc/internal/httperr"
)

// ProxyEnvVar is the environment variable consulted when no proxy is
// configured, per §6 "Environment".
const ProxyEnvVar = "HTTPR_PROXY"

// Credential is either basic-auth or a bearer token. Exactly one of the two
// fields is meaningful, selected by Bearer != "".
type Credential struct {
	Username string
	Password string
	HasBasic bool
	Bearer   string
}

// Query is an ordered list of key/value pairs. Unlike url.Values (a map) it
// preserves duplicate keys and insertion order, matching §4.1's "duplicates
// are preserved to support repeated-key query strings".
type Query []QueryPair

type QueryPair struct {
	Key   string
	Value string
}

// Append adds a query parameter, stringifying numeric-looking Go values with
// their shortest faithful representation per §4.1.
func (q Query) Append(key string, value any) Query {
	return append(q, QueryPair{Key: key, Value: Stringify(value)})
}

// Stringify renders a query parameter value using its shortest faithful
// representation, per §4.1's "numeric query values are stringified using
// their shortest faithful representation".
func Stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'g', -1, 32)
	default:
		return strconvFallback(v)
	}
}

func strconvFallback(v any) string {
	if s, ok := v.(interface{ String() string }); ok {
		return s.String()
	}
	return ""
}

// Encode renders the query as a URL-encoded string, preserving order and
// duplicates.
func (q Query) Encode() string {
	var b strings.Builder
	for i, p := range q {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}
	return b.String()
}

// BodyKind tags which of the §3 "one-of" body variants a RequestSpec
// carries.
type BodyKind int

const (
	BodyNone BodyKind = iota
	BodyRaw
	BodyForm
	BodyJSON
	BodyCBOR
	BodyMultipart
)

// MultipartFile describes one field of a multipart/form-data body: a field
// name mapped to a file path on disk, per §4.6.
type MultipartFile struct {
	FieldName string
	FilePath  string
}

// ClientConfig holds every client-level default from §6's construction
// option table.
type ClientConfig struct {
	Auth            *Credential
	Params          Query
	Headers         headers.Map
	Cookies         map[string]string
	CookieStore     bool
	Referer         bool
	Proxy           string
	Timeout         time.Duration
	FollowRedirects bool
	MaxRedirects    int
	Verify          bool
	CACertFile      string
	ClientPEMPath   string
	ClientPEMData   []byte
	HTTPSOnly       bool
	HTTP2Only       bool
	MaxConnsPerHost int
	MaxBodyBytes    int64

	MetricsRegisterer prometheus.Registerer
}

// DefaultClientConfig returns the §6 defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Headers:         headers.New(),
		CookieStore:     true,
		Referer:         true,
		Timeout:         30 * time.Second,
		FollowRedirects: true,
		MaxRedirects:    20,
		Verify:          true,
		MaxConnsPerHost: 64,
	}
}

// EffectiveProxy returns the configured proxy, falling back to the
// HTTPR_PROXY environment variable. The variable is read on every call
// (once per request hop); it is not cached at client construction.
func (c ClientConfig) EffectiveProxy() string {
	if c.Proxy != "" {
		return c.Proxy
	}
	return os.Getenv(ProxyEnvVar)
}

// RequestSpec is the per-request, one-shot description of a call, per §3.
type RequestSpec struct {
	Method  string
	URL     string
	Params  Query
	Headers headers.Map
	Cookies map[string]string

	Auth       *Credential
	HasAuth    bool
	HasTimeout bool
	Timeout    time.Duration

	BodyKind      BodyKind
	BodyKindsSet  []BodyKind
	RawBody       []byte
	RawBodyReader interface {
		Read(p []byte) (int, error)
	}
	FormData      Query
	JSONValue     any
	CBORValue     any
	MultipartData []MultipartFile
}

// SetBodyKind records k as the active body kind, tracking every distinct
// kind a RequestOption attempted to set so validateBodyExclusivity can
// detect conflicting options (§3's "exactly one of N body kinds"). Calling
// it again with the same kind (e.g. repeated WithMultipartFile calls) does
// not count as a second kind.
func (s *RequestSpec) SetBodyKind(k BodyKind) {
	s.BodyKind = k
	for _, existing := range s.BodyKindsSet {
		if existing == k {
			return
		}
	}
	s.BodyKindsSet = append(s.BodyKindsSet, k)
}

// RequestPlan is the fully merged, wire-ready description of one hop, per
// §3. It is rebuilt on every redirect.
type RequestPlan struct {
	Method       string
	URL          *url.URL
	Headers      headers.Map
	CookieHeader string
	BodyBytes    []byte
	BodyReader   interface {
		Read(p []byte) (int, error)
	}
	ContentType      string
	Timeout          time.Duration
	AuthHeaderValue  string
	RedirectsLeft    int
	FollowRedirects  bool
	MaxBodyBytes     int64
}

var validMethods = map[string]bool{
	"GET": true, "HEAD": true, "OPTIONS": true, "DELETE": true,
	"POST": true, "PUT": true, "PATCH": true,
}

// ValidateMethod implements the §6/§8 method whitelist.
func ValidateMethod(method string) error {
	if !validMethods[strings.ToUpper(method)] {
		return httperr.ArgumentError("unsupported HTTP method " + method)
	}
	return nil
}

// Resolve merges a ClientConfig and RequestSpec into a RequestPlan, per
// §4.1's merge rules.
func Resolve(cfg ClientConfig, spec RequestSpec) (RequestPlan, error) {
	method := strings.ToUpper(spec.Method)
	if err := ValidateMethod(method); err != nil {
		return RequestPlan{}, err
	}

	if err := validateBodyExclusivity(spec); err != nil {
		return RequestPlan{}, err
	}

	u, err := url.Parse(spec.URL)
	if err != nil {
		return RequestPlan{}, httperr.InvalidURL(spec.URL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return RequestPlan{}, httperr.InvalidURL(spec.URL, nil)
	}
	if cfg.HTTPSOnly && u.Scheme != "https" {
		return RequestPlan{}, httperr.UnsupportedProtocol(spec.URL)
	}

	// Query params: client defaults first, request overrides appended;
	// duplicates preserved.
	merged := append(Query{}, cfg.Params...)
	merged = append(merged, spec.Params...)
	if len(merged) > 0 {
		existing := u.Query()
		q := merged.Encode()
		if len(existing) > 0 {
			u.RawQuery = u.RawQuery + "&" + q
		} else {
			u.RawQuery = q
		}
	}

	// Headers: client defaults first, per-request values win on clash.
	mergedHeaders := cfg.Headers.Clone()
	mergedHeaders.Update(spec.Headers)

	// Auth: per-request wins outright (bearer or basic, whichever it
	// set); else client's active credential.
	auth := cfg.Auth
	if spec.HasAuth {
		auth = spec.Auth
	}
	authHeader := ""
	if auth != nil {
		if auth.Bearer != "" {
			authHeader = "Bearer " + auth.Bearer
		} else if auth.HasBasic {
			authHeader = basicAuthHeader(auth.Username, auth.Password)
		}
	}
	if authHeader != "" {
		mergedHeaders.Set("Authorization", authHeader)
	}

	timeout := cfg.Timeout
	if spec.HasTimeout {
		timeout = spec.Timeout
	}

	plan := RequestPlan{
		Method:          method,
		URL:             u,
		Headers:         mergedHeaders,
		Timeout:         timeout,
		AuthHeaderValue: authHeader,
		RedirectsLeft:   cfg.MaxRedirects,
		FollowRedirects: cfg.FollowRedirects,
		MaxBodyBytes:    cfg.MaxBodyBytes,
	}
	if !cfg.FollowRedirects {
		plan.RedirectsLeft = 0
	}

	applyBody(&plan, spec)

	return plan, nil
}

func validateBodyExclusivity(spec RequestSpec) error {
	if len(spec.BodyKindsSet) > 1 {
		return httperr.ArgumentError("at most one of content|data|json|cbor|files may be set")
	}
	return nil
}

// applyBody fills in the trivial body kinds directly. JSON, CBOR, and
// multipart bodies need the codec layer (§4.6) and are filled in by the
// executor after Resolve returns, to keep this package free of a dependency
// on the codec package (which itself depends on config's types).
func applyBody(plan *RequestPlan, spec RequestSpec) {
	switch spec.BodyKind {
	case BodyRaw:
		plan.BodyBytes = spec.RawBody
		plan.BodyReader = spec.RawBodyReader
	case BodyForm:
		plan.BodyBytes = []byte(spec.FormData.Encode())
		plan.ContentType = "application/x-www-form-urlencoded"
	}
}

func basicAuthHeader(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}
