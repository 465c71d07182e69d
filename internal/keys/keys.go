package keys

import (
	"regexp"
	"strings"
)

// Separator joins the four normalized fields of a composite key.
const Separator = "|"

var bracketed = regexp.MustCompile(`\s*\[.*?\]`)

// NormalizeField strips bracketed annotations ("Acme [Mumbai]" -> "Acme"),
// trims surrounding whitespace and upper-cases the result.
func NormalizeField(value string) string {
	return strings.ToUpper(strings.TrimSpace(bracketed.ReplaceAllString(value, "")))
}

// CompositeKey is the cross-source identity of an order line.
// Field order is fixed: order number, customer, item, color.
func CompositeKey(orderNo, customer, item, color string) string {
	return strings.Join([]string{
		NormalizeField(orderNo),
		NormalizeField(customer),
		NormalizeField(item),
		NormalizeField(color),
	}, Separator)
}

// NormalizeAll normalizes every value and drops duplicates and empties,
// keeping first-seen order.
func NormalizeAll(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		n := NormalizeField(v)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// Set is a set of composite keys.
type Set map[string]struct{}

// NewSet builds a set from already-computed keys, upper-casing them so keys
// produced by other systems compare equal.
func NewSet(keys ...string) Set {
	s := make(Set, len(keys))
	for _, k := range keys {
		s.Add(k)
	}
	return s
}

func (s Set) Add(key string) {
	s[strings.ToUpper(strings.TrimSpace(key))] = struct{}{}
}

func (s Set) Remove(key string) {
	delete(s, strings.ToUpper(strings.TrimSpace(key)))
}

func (s Set) Has(key string) bool {
	_, ok := s[strings.ToUpper(strings.TrimSpace(key))]
	return ok
}

// Clone returns an independent copy.
func (s Set) Clone() Set {
	c := make(Set, len(s))
	for k := range s {
		c[k] = struct{}{}
	}
	return c
}
