package references

import "github.com/apiprobe/apiprobe/hashing"

// Scope is the ordered stack of base URI strings active while resolving a
// reference chain: push on entering a reference, pop on exit. Push returns an
// extended copy so sibling resolutions never observe each other's scopes.
type Scope []string

// NewScope returns a scope rooted at the provided base URI.
func NewScope(base string) Scope {
	return Scope{base}
}

// Push returns a new scope with the provided base URI on top.
func (s Scope) Push(base string) Scope {
	extended := make(Scope, len(s), len(s)+1)
	copy(extended, s)
	return append(extended, base)
}

// Current returns the base URI on top of the stack, empty for an unrooted
// scope.
func (s Scope) Current() string {
	if len(s) == 0 {
		return ""
	}
	return s[len(s)-1]
}

// Digest returns a stable digest of the full scope chain, used to key the
// reference cache.
func (s Scope) Digest() string {
	return hashing.Hash([]string(s))
}
