package vnpay

import (
	"net/url"
	"sort"
	"strings"
)

// Params is a signable parameter set: parameter name to parameter value.
//
// Entries with empty values may be present in the map but are excluded from
// the canonical encoding, matching the gateway's signing rule.
type Params map[string]string

// Encode serializes the set into the canonical form used both as the
// signing input and as the literal query string of the redirect URL.
//
// Rules, fixed by the gateway:
//   - names sorted lexicographically by raw (unencoded) byte value
//   - pairs with empty values omitted
//   - names and values percent-encoded with the form-urlencoded scheme
//     (space becomes '+')
//   - pairs joined as name=value with '&'
//
// The output is deterministic: any insertion order of the same set yields
// identical bytes.
func (p Params) Encode() string {
	keys := make([]string, 0, len(p))
	for k, v := range p {
		if v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p[k]))
	}
	return b.String()
}

// paramsFromValues flattens url.Values into a Params set, keeping the first
// value of each name. The gateway never sends repeated parameters.
func paramsFromValues(values url.Values) Params {
	p := make(Params, len(values))
	for k := range values {
		p[k] = values.Get(k)
	}
	return p
}
