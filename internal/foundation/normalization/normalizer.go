// Package normalization maps free-form user input onto enumerated values.
package normalization

import (
	"fmt"
	"sort"
	"strings"
)

// Normalizer provides type-safe string-to-enum normalization.
type Normalizer[T comparable] struct {
	validValues map[string]T
	validKeys   []string // Cached for error messages
}

// NewNormalizer creates a normalizer from spelling -> value pairs. Several
// spellings may map to the same value.
func NewNormalizer[T comparable](values map[string]T) *Normalizer[T] {
	normalized := make(map[string]T, len(values))
	validKeys := make([]string, 0, len(values))
	for k, v := range values {
		key := defaultNormalization(k)
		normalized[key] = v
		validKeys = append(validKeys, key)
	}
	sort.Strings(validKeys)
	return &Normalizer[T]{validValues: normalized, validKeys: validKeys}
}

// Lookup returns the value spelled raw, ignoring case and surrounding space.
func (n *Normalizer[T]) Lookup(raw string) (T, bool) {
	v, ok := n.validValues[defaultNormalization(raw)]
	return v, ok
}

// Normalize is Lookup with a fallback for unknown input.
func (n *Normalizer[T]) Normalize(raw string, fallback T) T {
	if v, ok := n.Lookup(raw); ok {
		return v
	}
	return fallback
}

// NormalizeWithError returns an error listing the accepted spellings when
// raw is unknown.
func (n *Normalizer[T]) NormalizeWithError(raw string) (T, error) {
	if v, ok := n.Lookup(raw); ok {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid value %q, valid options: %v", raw, n.validKeys)
}

// ValidKeys returns all accepted spellings in sorted order.
func (n *Normalizer[T]) ValidKeys() []string {
	return append([]string(nil), n.validKeys...)
}

func defaultNormalization(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
