package config

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/doctools/internal/foundation/normalization"
)

// NormalizationResult captures adjustments & warnings from normalization pass.
type NormalizationResult struct{ Warnings []string }

// NormalizeConfig performs canonicalization on enumerated and list fields prior to default application.
// It mutates the provided config in-place and returns a result describing any coercions.
func NormalizeConfig(c *Config) (*NormalizationResult, error) {
	if c == nil {
		return nil, fmt.Errorf("config nil")
	}
	res := &NormalizationResult{}
	normalizePreview(&c.Preview, res)
	normalizeRoles(&c.Roles, res)
	return res, nil
}

func normalizePreview(p *PreviewConfig, res *NormalizationResult) {
	if raw := strings.TrimSpace(string(p.Strategy)); raw != "" {
		if s := NormalizeStrategy(raw); s != "" {
			if s != p.Strategy {
				res.Warnings = append(res.Warnings, warnChanged("preview.strategy", p.Strategy, s))
				p.Strategy = s
			}
		} else {
			res.Warnings = append(res.Warnings, warnUnknown("preview.strategy", raw, string(StrategyPool)))
			p.Strategy = StrategyPool
		}
	}
	p.WatchPatterns = normalizeStringSlice("preview.watch_patterns", p.WatchPatterns, res)
	p.Unmanaged = trimStringSlice(p.Unmanaged)
	p.BuildCommand = trimStringSlice(p.BuildCommand)
}

func normalizeRoles(r *RolesConfig, res *NormalizationResult) {
	for k, v := range r.URLs {
		trimmed := strings.TrimRight(strings.TrimSpace(v), "/")
		if trimmed != v {
			res.Warnings = append(res.Warnings, warnChanged("roles.urls."+k, v, trimmed))
			r.URLs[k] = trimmed
		}
	}
}

var strategyNormalizer = normalization.NewNormalizer(map[string]ReloadStrategy{
	"browser":    StrategyBrowser,
	"selenium":   StrategyBrowser,
	"pool":       StrategyPool,
	"pooling":    StrategyPool,
	"poll":       StrategyPool,
	"sse":        StrategySSE,
	"livereload": StrategySSE,
})

// NormalizeStrategy maps user input onto a known reload strategy, or "" when unknown.
func NormalizeStrategy(raw string) ReloadStrategy {
	return strategyNormalizer.Normalize(raw, "")
}

func warnChanged[T ~string](field string, from, to T) string {
	return fmt.Sprintf("normalized %s from '%s' to '%s'", field, from, to)
}

func warnUnknown(field, value, def string) string {
	return fmt.Sprintf("unknown %s '%s', defaulting to %s", field, value, def)
}

// normalizeStringSlice performs trim, dedupe, and sort operations on a string slice.
func normalizeStringSlice(label string, in []string, res *NormalizationResult) []string {
	if len(in) == 0 {
		return in
	}

	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	changed := false

	for _, v := range in {
		t := strings.TrimSpace(v)
		if t == "" {
			changed = true
			continue
		}
		if _, ok := seen[t]; ok {
			changed = true
			continue
		}
		if t != v {
			changed = true
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}

	if changed {
		res.Warnings = append(res.Warnings, fmt.Sprintf("normalized %s list (%d -> %d entries)", label, len(in), len(out)))
	}

	// Sort (insertion sort for small slices)
	for i := 1; i < len(out); i++ {
		j := i
		for j > 0 && out[j-1] > out[j] {
			out[j-1], out[j] = out[j], out[j-1]
			j--
		}
	}

	return out
}

// trimStringSlice removes empty entries (after trimming whitespace) from a string slice.
// Does not dedupe or sort. Use this for order-sensitive configuration fields.
func trimStringSlice(in []string) []string {
	if len(in) == 0 {
		return in
	}

	out := make([]string, 0, len(in))
	for _, p := range in {
		if tp := strings.TrimSpace(p); tp != "" {
			out = append(out, tp)
		}
	}
	return out
}
