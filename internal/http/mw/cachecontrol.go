package mw

import (
	"net/http"
	"strings"
)

// CachePolicy defines caching behavior for a route pattern.
type CachePolicy struct {
	// Pattern is the route pattern to match (prefix match, or exact when
	// the pattern does not end with a slash).
	Pattern string
	// CacheControl is the Cache-Control header value to set.
	CacheControl string
}

// CacheConfig holds the cache middleware configuration.
type CacheConfig struct {
	// Policies are matched in order, first match wins.
	Policies []CachePolicy
	// DefaultPolicy applies when no policy matches (empty = no header).
	DefaultPolicy string
}

// DefaultCacheConfig returns cache defaults for the service. Lookup
// responses carry fresh upstream data and must never be cached by
// intermediaries; health is cheap and may be cached briefly.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		DefaultPolicy: "private, no-cache",
		Policies: []CachePolicy{
			{Pattern: "/health", CacheControl: "public, max-age=10"},
			{Pattern: "/api/case-details", CacheControl: "no-store"},
		},
	}
}

// CacheControl returns middleware that sets Cache-Control headers based on
// route patterns. Non-GET/HEAD requests always get no-store.
func CacheControl(cfg CacheConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				w.Header().Set("Cache-Control", "no-store")
				next.ServeHTTP(w, r)
				return
			}

			path := r.URL.Path
			for _, policy := range cfg.Policies {
				if matchesPattern(path, policy.Pattern) {
					w.Header().Set("Cache-Control", policy.CacheControl)
					next.ServeHTTP(w, r)
					return
				}
			}

			if cfg.DefaultPolicy != "" {
				w.Header().Set("Cache-Control", cfg.DefaultPolicy)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// matchesPattern checks if a path matches a pattern. Patterns ending with
// "/" are prefix matches; others match exactly or as a path segment prefix.
func matchesPattern(path, pattern string) bool {
	if strings.HasSuffix(pattern, "/") {
		return strings.HasPrefix(path, pattern)
	}
	return path == pattern || strings.HasPrefix(path, pattern+"/")
}
