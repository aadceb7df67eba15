// Package pagination translates query-string filters into typed store clauses
// and produces offset or cursor pages from any Finder.
package pagination

import (
	"net/url"
	"strings"

	"sns_backend/internal/shared/apperror"
)

// Param is one key/value pair of a query string.
type Param struct {
	Key   string
	Value string
}

// Params is a query string in encounter order.
// url.Values loses that order, and ordering clauses depend on it.
type Params []Param

// ParseQuery decodes a raw query string, keeping the order of keys.
func ParseQuery(raw string) (Params, error) {
	var out Params
	for _, part := range strings.Split(raw, "&") {
		if part == "" {
			continue
		}
		k, v, _ := strings.Cut(part, "=")
		key, err := url.QueryUnescape(k)
		if err != nil {
			return nil, apperror.Validation("malformed query string", err)
		}
		value, err := url.QueryUnescape(v)
		if err != nil {
			return nil, apperror.Validation("malformed query string", err)
		}
		out = append(out, Param{Key: key, Value: value})
	}
	return out, nil
}

// Get returns the first value for key.
func (p Params) Get(key string) (string, bool) {
	for _, kv := range p {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return "", false
}

// Has reports whether key is present with a non-empty value.
func (p Params) Has(key string) bool {
	v, ok := p.Get(key)
	return ok && v != ""
}

// Encode renders p back into a query string in its original order.
func (p Params) Encode() string {
	var b strings.Builder
	for i, kv := range p {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(kv.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(kv.Value))
	}
	return b.String()
}
