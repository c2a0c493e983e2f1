// Package headers implements the case-insensitive header map shared by
// client defaults and response views.
//
// The map keys are stored lowercased (required for HTTP/2 wire compatibility
// per RFC 9113 §8.1.2) while insertion order is preserved for iteration.
// Mutations can be bound to an owner via a propagation hook so that, e.g., a
// Client's default headers stay in sync with edits made through
// Client.Headers().
package headers

import (
	"net/textproto"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"
)

// OnChange is invoked after every mutating operation on a bound Map. It
// receives a snapshot copy, never the live Map.
type OnChange func(Map)

// entry preserves insertion order alongside the lowercase-keyed value.
type entry struct {
	original string
	values   []string
}

// Map is a case-insensitive, order-preserving multi-valued header
// collection. The zero value is ready to use. Map is not safe for
// concurrent use without external synchronization; Client does not lock
// its bound instance.
type Map struct {
	order []string         // lowercase keys, insertion order
	data  map[string]*entry // lowercase key -> entry
	onSet OnChange
}

// New returns an empty, unbound Map.
func New() Map {
	return Map{data: make(map[string]*entry)}
}

// FromMap builds a Map from a plain string-keyed map, one value per key.
func FromMap(m map[string]string) Map {
	h := New()
	for k, v := range m {
		h.Set(k, v)
	}
	return h
}

// Bind attaches a propagation hook. Every subsequent mutation calls fn with
// a fresh Clone of the map. Passing nil removes any hook already bound.
func (h *Map) Bind(fn OnChange) {
	h.onSet = fn
}

func lower(key string) string {
	return strings.ToLower(key)
}

func (h *Map) ensure() {
	if h.data == nil {
		h.data = make(map[string]*entry)
	}
}

func (h *Map) notify() {
	if h.onSet != nil {
		h.onSet(h.Clone())
	}
}

// Set replaces all values for key with a single value.
func (h *Map) Set(key, value string) {
	h.ensure()
	lk := lower(key)
	if e, ok := h.data[lk]; ok {
		e.original = key
		e.values = []string{value}
	} else {
		h.data[lk] = &entry{original: key, values: []string{value}}
		h.order = append(h.order, lk)
	}
	h.notify()
}

// Add appends value to any existing values for key, preserving order.
func (h *Map) Add(key, value string) {
	h.ensure()
	lk := lower(key)
	if e, ok := h.data[lk]; ok {
		e.values = append(e.values, value)
	} else {
		h.data[lk] = &entry{original: key, values: []string{value}}
		h.order = append(h.order, lk)
	}
	h.notify()
}

// Get returns the first value for key and whether it was present.
func (h *Map) Get(key string) (string, bool) {
	if h.data == nil {
		return "", false
	}
	e, ok := h.data[lower(key)]
	if !ok || len(e.values) == 0 {
		return "", false
	}
	return e.values[0], true
}

// Values returns all values stored for key, in insertion order.
func (h *Map) Values(key string) []string {
	if h.data == nil {
		return nil
	}
	e, ok := h.data[lower(key)]
	if !ok {
		return nil
	}
	out := make([]string, len(e.values))
	copy(out, e.values)
	return out
}

// Has reports whether key (compared case-insensitively) is present.
func (h *Map) Has(key string) bool {
	if h.data == nil {
		return false
	}
	_, ok := h.data[lower(key)]
	return ok
}

// Delete removes key, if present.
func (h *Map) Delete(key string) {
	if h.data == nil {
		return
	}
	lk := lower(key)
	if _, ok := h.data[lk]; !ok {
		return
	}
	delete(h.data, lk)
	for i, k := range h.order {
		if k == lk {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
	h.notify()
}

// Pop removes key and returns its first value, mirroring dict.pop.
func (h *Map) Pop(key string) (string, bool) {
	v, ok := h.Get(key)
	if ok {
		h.Delete(key)
	}
	return v, ok
}

// PopItem removes and returns the most recently inserted header, mirroring
// dict.popitem. ok is false when the map is empty.
func (h *Map) PopItem() (key, value string, ok bool) {
	if len(h.order) == 0 {
		return "", "", false
	}
	lk := h.order[len(h.order)-1]
	e := h.data[lk]
	key = e.original
	value = ""
	if len(e.values) > 0 {
		value = e.values[0]
	}
	h.Delete(lk)
	return key, value, true
}

// SetDefault sets key to value only if key is not already present, returning
// the effective first value either way.
func (h *Map) SetDefault(key, value string) string {
	if v, ok := h.Get(key); ok {
		return v
	}
	h.Set(key, value)
	return value
}

// Clear removes every header.
func (h *Map) Clear() {
	h.data = make(map[string]*entry)
	h.order = nil
	h.notify()
}

// Len reports the number of distinct header names.
func (h *Map) Len() int {
	return len(h.order)
}

// Update merges other into h, with other's values winning on key clash.
// Plain string-keyed maps can be passed via FromMap first.
func (h *Map) Update(other Map) {
	for _, lk := range other.order {
		e := other.data[lk]
		if len(e.values) == 0 {
			continue
		}
		h.Set(e.original, e.values[0])
		for _, v := range e.values[1:] {
			h.Add(e.original, v)
		}
	}
}

// Clone returns an unbound, independent copy. Mutations to the clone never
// propagate back to h's owner.
func (h *Map) Clone() Map {
	out := New()
	for _, lk := range h.order {
		e := h.data[lk]
		cp := &entry{original: e.original, values: append([]string(nil), e.values...)}
		out.data[lk] = cp
		out.order = append(out.order, lk)
	}
	return out
}

// Keys returns the canonical (as-set) header names in insertion order.
func (h *Map) Keys() []string {
	out := make([]string, 0, len(h.order))
	for _, lk := range h.order {
		out = append(out, h.data[lk].original)
	}
	return out
}

// Equal compares two maps case-insensitively, ignoring order, per §8's
// testable property that h[k1] == h[k2] for any-case k1, k2.
func (h *Map) Equal(other Map) bool {
	if h.Len() != other.Len() {
		return false
	}
	for _, lk := range h.order {
		a := h.data[lk].values
		b, ok := other.data[lk]
		if !ok || len(a) != len(b.values) {
			return false
		}
		for i := range a {
			if a[i] != b.values[i] {
				return false
			}
		}
	}
	return true
}

// WireKeys returns (lowercaseKey, value) pairs in insertion order, suitable
// for writing to the wire. Header names are kept lowercase for HTTP/2
// compatibility; values are emitted verbatim. Invalid names are skipped and
// logged rather than treated as fatal, per §4.2.
func (h *Map) WireKeys() [][2]string {
	out := make([][2]string, 0, len(h.order))
	for _, lk := range h.order {
		e := h.data[lk]
		if !validHeaderName(lk) {
			log.WithField("header", e.original).Warn("httpc: skipping invalid header name")
			continue
		}
		for _, v := range e.values {
			if !validHeaderValue(v) {
				log.WithField("header", e.original).Warn("httpc: skipping invalid header value")
				continue
			}
			out = append(out, [2]string{lk, v})
		}
	}
	return out
}

func validHeaderName(s string) bool {
	if s == "" {
		return false
	}
	_, err := httpCanonicalHeaderKey(s)
	return err == nil
}

// httpCanonicalHeaderKey validates a header key using the same token rules
// net/textproto applies, without pulling in net/http here.
func httpCanonicalHeaderKey(s string) (string, error) {
	return textproto.CanonicalMIMEHeaderKey(s), validateToken(s)
}

func validateToken(s string) error {
	for i := 0; i < len(s); i++ {
		if !isTokenChar(s[i]) {
			return errInvalidHeaderToken
		}
	}
	return nil
}

type headerError string

func (e headerError) Error() string { return string(e) }

const errInvalidHeaderToken = headerError("invalid header token")

func isTokenChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	switch c {
	case '!', '#', '$', '%', '&', '\'', '*', '+', '-', '.', '^', '_', '`', '|', '~':
		return true
	}
	return false
}

func validHeaderValue(v string) bool {
	for i := 0; i < len(v); i++ {
		b := v[i]
		if b < 0x20 && b != '\t' || b == 0x7f {
			return false
		}
	}
	return true
}

// SortedKeys returns the lowercase keys in alphabetical order, for callers
// that need a deterministic iteration order.
func (h *Map) SortedKeys() []string {
	out := append([]string(nil), h.order...)
	sort.Strings(out)
	return out
}
