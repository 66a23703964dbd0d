// Package route decides which part of the app an inbound request path
// belongs to: the signed-in area, the sign-in flow, or neither.
package route

import (
	"slices"
	"strings"
)

// Classification labels a request path.
type Classification int

const (
	// Unclassified paths match no configured prefix.
	Unclassified Classification = iota
	// Protected paths are meant to require a signed-in session.
	Protected
	// AuthFlow paths belong to login, signup and onboarding.
	AuthFlow
)

// String returns the lower-case label used in logs and API responses.
func (c Classification) String() string {
	switch c {
	case Protected:
		return "protected"
	case AuthFlow:
		return "auth"
	default:
		return "unclassified"
	}
}

// Default prefix sets.
var (
	defaultProtectedPrefixes = []string{"/app", "/coach", "/profile", "/stats", "/nutrition"}
	defaultAuthPrefixes      = []string{"/login", "/signup", "/onboarding"}
)

// DefaultProtectedPrefixes returns a copy of the built-in protected prefixes.
func DefaultProtectedPrefixes() []string { return slices.Clone(defaultProtectedPrefixes) }

// DefaultAuthPrefixes returns a copy of the built-in auth-flow prefixes.
func DefaultAuthPrefixes() []string { return slices.Clone(defaultAuthPrefixes) }

// Classifier matches request paths against two fixed prefix lists.
// It is immutable after construction and safe for concurrent use.
type Classifier struct {
	protected []string
	auth      []string
}

// NewClassifier builds a Classifier from the given prefix lists. The slices
// are copied so later changes by the caller have no effect.
func NewClassifier(protected, auth []string) *Classifier {
	return &Classifier{
		protected: slices.Clone(protected),
		auth:      slices.Clone(auth),
	}
}

// DefaultClassifier returns a Classifier using the built-in prefix sets.
func DefaultClassifier() *Classifier {
	return NewClassifier(defaultProtectedPrefixes, defaultAuthPrefixes)
}

// Classify labels path. Protected prefixes are tried in order before auth
// prefixes, and the first match wins.
func (c *Classifier) Classify(path string) Classification {
	if c == nil || path == "" {
		return Unclassified
	}
	if hasAnyPrefix(path, c.protected) {
		return Protected
	}
	if hasAnyPrefix(path, c.auth) {
		return AuthFlow
	}
	return Unclassified
}

// ProtectedPrefixes returns a copy of the protected prefix list.
func (c *Classifier) ProtectedPrefixes() []string { return slices.Clone(c.protected) }

// AuthPrefixes returns a copy of the auth-flow prefix list.
func (c *Classifier) AuthPrefixes() []string { return slices.Clone(c.auth) }

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
