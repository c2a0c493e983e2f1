// Package cookiejar implements the §4.3 cookie jar: a domain/path-scoped
// in-memory cookie store with extract/inject semantics tied to redirect
// hops. Unlike net/http/cookiejar, entries are never persisted to disk
// (spec.md §1 Non-goals: "cookie jar persistence across process restarts").
package cookiejar

import (
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Cookie is the jar's internal representation, named per §3's entity table.
type Cookie struct {
	Name     string
	Value    string
	Domain   string
	Path     string
	Expires  time.Time // zero means session cookie
	Secure   bool
	HttpOnly bool
}

func (c Cookie) expired(now time.Time) bool {
	return !c.Expires.IsZero() && now.After(c.Expires)
}

// Jar is safe for concurrent use; the client shares one instance across all
// in-flight requests.
type Jar struct {
	mu      sync.Mutex
	entries map[string]map[string]Cookie // domain -> name -> cookie
	now     func() time.Time
}

// New returns an empty jar.
func New() *Jar {
	return &Jar{entries: make(map[string]map[string]Cookie), now: time.Now}
}

// SeedFromMap inserts initial cookie-jar entries supplied at client
// construction (§6 "cookies" client option), scoped to host. Pass "" for
// host to seed cookies that apply to every host this client talks to,
// matching the construction option's documented "sent regardless of
// domain" behaviour.
func (j *Jar) SeedFromMap(host string, cookies map[string]string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	for name, value := range cookies {
		j.insertLocked(domainKey(host), Cookie{Name: name, Value: value, Domain: host, Path: "/"})
	}
}

// Update parses Set-Cookie directives from an *http.Response and inserts or
// replaces matching entries, discarding expired ones, per §4.3.
func (j *Jar) Update(u *url.URL, resp *http.Response) {
	setCookies := resp.Cookies()
	if len(setCookies) == 0 {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	now := j.now()
	for _, sc := range setCookies {
		domain := sc.Domain
		if domain == "" {
			domain = u.Hostname()
		}
		domain = strings.TrimPrefix(strings.ToLower(domain), ".")
		path := sc.Path
		if path == "" {
			path = defaultPath(u.Path)
		}

		c := Cookie{
			Name:     sc.Name,
			Value:    sc.Value,
			Domain:   domain,
			Path:     path,
			Secure:   sc.Secure,
			HttpOnly: sc.HttpOnly,
		}
		if sc.MaxAge != 0 {
			if sc.MaxAge < 0 {
				j.deleteLocked(domain, sc.Name)
				continue
			}
			c.Expires = now.Add(time.Duration(sc.MaxAge) * time.Second)
		} else if !sc.Expires.IsZero() {
			if sc.Expires.Before(now) {
				j.deleteLocked(domain, sc.Name)
				continue
			}
			c.Expires = sc.Expires
		}
		j.insertLocked(domain, c)
	}
}

func (j *Jar) insertLocked(domain string, c Cookie) {
	m, ok := j.entries[domain]
	if !ok {
		m = make(map[string]Cookie)
		j.entries[domain] = m
	}
	m[c.Name] = c
}

func (j *Jar) deleteLocked(domain, name string) {
	if m, ok := j.entries[domain]; ok {
		delete(m, name)
	}
}

// CookieHeader builds the `name=value; name=value` Cookie header for an
// outgoing request to u, selecting cookies whose domain suffix-matches the
// host and whose path is a prefix of the request path (§4.3). Expired
// entries are pruned as a side effect.
func (j *Jar) CookieHeader(u *url.URL) string {
	j.mu.Lock()
	defer j.mu.Unlock()
	now := j.now()
	host := strings.ToLower(u.Hostname())
	isHTTPS := u.Scheme == "https"

	var parts []string
	for domain, byName := range j.entries {
		if !domainMatches(host, domain) {
			continue
		}
		for name, c := range byName {
			if c.expired(now) {
				delete(byName, name)
				continue
			}
			if c.Secure && !isHTTPS {
				continue
			}
			if !pathMatches(u.Path, c.Path) {
				continue
			}
			parts = append(parts, c.Name+"="+c.Value)
		}
	}
	return strings.Join(parts, "; ")
}

// domainMatches reports whether host is dom or a subdomain of dom. An empty
// dom is the wildcard scope SeedFromMap uses for client-constructed
// cookies, and matches every host.
func domainMatches(host, dom string) bool {
	if dom == "" {
		return true
	}
	if host == dom {
		return true
	}
	return strings.HasSuffix(host, "."+dom)
}

func domainKey(host string) string {
	return strings.TrimPrefix(strings.ToLower(host), ".")
}

func pathMatches(requestPath, cookiePath string) bool {
	if cookiePath == "" || cookiePath == "/" {
		return true
	}
	if requestPath == cookiePath {
		return true
	}
	if strings.HasPrefix(requestPath, cookiePath) {
		return cookiePath[len(cookiePath)-1] == '/' || requestPath[len(cookiePath)] == '/'
	}
	return false
}

func defaultPath(requestPath string) string {
	if requestPath == "" || requestPath[0] != '/' {
		return "/"
	}
	if i := strings.LastIndex(requestPath, "/"); i > 0 {
		return requestPath[:i]
	}
	return "/"
}

// Log emits a debug line describing a jar mutation. The jar's own methods
// do not call it.
func Log(msg string, fields log.Fields) {
	log.WithFields(fields).Debug(msg)
}
