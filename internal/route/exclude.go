package route

import "strings"

// excludedPrefixes and excludedExact describe requests that are served
// directly and never reach the guard: API routes, build assets and PWA
// metadata. Matching is done on the path without its leading slash.
var (
	excludedPrefixes = []string{"api", "_next/static", "_next/image", "icons"}
	excludedExact    = []string{"favicon.ico", "manifest.json"}
)

// Excluded reports whether path bypasses classification entirely.
func Excluded(path string) bool {
	rel := strings.TrimPrefix(path, "/")
	for _, e := range excludedExact {
		if rel == e {
			return true
		}
	}
	for _, p := range excludedPrefixes {
		if strings.HasPrefix(rel, p) {
			return true
		}
	}
	return false
}
