package query

import (
	"fmt"
	"net/url"
	"strings"
)

// Separator joins key segments.
const Separator = "/"

// scopeMarker starts the caller segment inserted by Scope.
const scopeMarker = "@"

// Key identifies a cached query, e.g. admin/fee-rules/version=3.
type Key []string

// K builds a key from its segments.
func K(segments ...string) Key {
	return Key(segments)
}

// With returns a copy of k extended with name=value. Empty values are
// skipped so that unset filters share a key with no filter at all.
func (k Key) With(name string, value any) Key {
	s := fmt.Sprint(value)
	if s == "" || s == "0" {
		return k
	}
	out := make(Key, len(k), len(k)+1)
	copy(out, k)
	return append(out, name+"="+s)
}

// Append returns a copy of k extended with raw segments.
func (k Key) Append(segments ...string) Key {
	out := make(Key, 0, len(k)+len(segments))
	return append(append(out, k...), segments...)
}

// Scope returns k with a caller segment after its root, so that
// merchants/first becomes merchants/@alice/first. An empty scope leaves k
// unchanged. Invalidating the bare root still reaches every caller.
func (k Key) Scope(scope string) Key {
	if scope == "" || len(k) == 0 {
		return k
	}
	out := make(Key, 0, len(k)+1)
	out = append(out, k[0], scopeMarker+url.PathEscape(scope))
	return append(out, k[1:]...)
}

func (k Key) scoped() bool {
	return len(k) > 1 && strings.HasPrefix(k[1], scopeMarker)
}

func (k Key) String() string {
	return strings.Join(k, Separator)
}

// HasPrefix reports whether p is a segment-wise prefix of k.
func (k Key) HasPrefix(p Key) bool {
	if len(p) > len(k) {
		return false
	}
	for i := range p {
		if k[i] != p[i] {
			return false
		}
	}
	return true
}

// Resource is the first two segments, used as a low-cardinality metric label.
// The caller segment of a scoped key is skipped.
func (k Key) Resource() string {
	if k.scoped() {
		k = append(Key{k[0]}, k[2:]...)
	}
	if len(k) > 2 {
		return Key(k[:2]).String()
	}
	return k.String()
}

func splitKey(s string) []string {
	return strings.Split(s, Separator)
}
