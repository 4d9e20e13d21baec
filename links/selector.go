package links

import "strconv"

// StatusSelector is a declared response status key: an exact 3-digit code, a
// wildcard code with X standing for any digit, or the literal default.
type StatusSelector string

// SelectorDefault matches any status not covered by a sibling selector.
const SelectorDefault StatusSelector = "default"

// IsDefault reports whether the selector is the default selector.
func (s StatusSelector) IsDefault() bool {
	return s == SelectorDefault
}

// Expand enumerates every status code the selector covers, via the cartesian
// product of each position's digit set. Returns nil for the default selector
// and for malformed selectors.
func (s StatusSelector) Expand() []int {
	if len(s) != 3 {
		return nil
	}

	codes := []int{0}
	for i := 0; i < 3; i++ {
		var digits []int
		switch c := s[i]; {
		case c == 'X' || c == 'x':
			digits = []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
		case c >= '0' && c <= '9':
			digits = []int{int(c - '0')}
		default:
			return nil
		}

		next := make([]int, 0, len(codes)*len(digits))
		for _, code := range codes {
			for _, d := range digits {
				next = append(next, code*10+d)
			}
		}
		codes = next
	}

	return codes
}

// Matches reports whether the selector covers the status. The default
// selector matches exactly the statuses no sibling selector covers, so it
// needs the full selector set declared on the same operation.
func (s StatusSelector) Matches(status int, siblings []string) bool {
	if !s.IsDefault() {
		if code, ok := s.ExactCode(); ok {
			return code == status
		}
		for _, code := range s.Expand() {
			if code == status {
				return true
			}
		}
		return false
	}

	for _, sibling := range siblings {
		other := StatusSelector(sibling)
		if other.IsDefault() {
			continue
		}
		if other.Matches(status, nil) {
			return false
		}
	}

	return true
}

// MatchSelector returns the declared selector covering the status, preferring
// exact and wildcard selectors over default.
func MatchSelector(status int, declared []string) (StatusSelector, bool) {
	hasDefault := false

	for _, d := range declared {
		selector := StatusSelector(d)
		if selector.IsDefault() {
			hasDefault = true
			continue
		}
		if selector.Matches(status, nil) {
			return selector, true
		}
	}

	if hasDefault {
		return SelectorDefault, true
	}

	return "", false
}

func (s StatusSelector) String() string {
	return string(s)
}

// ExactCode returns the status code for exact 3-digit selectors, false for
// wildcards, default and malformed selectors.
func (s StatusSelector) ExactCode() (int, bool) {
	if len(s) != 3 {
		return 0, false
	}

	code, err := strconv.Atoi(string(s))
	if err != nil {
		return 0, false
	}
	return code, true
}
