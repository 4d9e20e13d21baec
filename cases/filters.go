package cases

import (
	"strings"

	"github.com/apiprobe/apiprobe/openapi"
)

// ValidForLocation reports whether a generated value may be placed at the
// location as-is. Only string values are constrained; other shapes are left to
// the serialization layer.
func ValidForLocation(location openapi.Location, value any) bool {
	s, ok := value.(string)
	if !ok {
		return true
	}

	switch location {
	case openapi.LocationPath:
		return s != "" && s != "." && s != ".." && !strings.ContainsRune(s, '/')
	case openapi.LocationHeader:
		return headerSafe(s)
	case openapi.LocationCookie:
		return cookieSafe(s)
	default:
		return true
	}
}

// sanitizeForLocation transforms an invalid string value into the nearest
// value the location can carry. Valid values pass through untouched.
func sanitizeForLocation(location openapi.Location, value any) any {
	if ValidForLocation(location, value) {
		return value
	}
	s := value.(string)

	switch location {
	case openapi.LocationPath:
		s = strings.ReplaceAll(s, "/", "")
		if s == "" || s == "." || s == ".." {
			s = "x"
		}
	case openapi.LocationHeader:
		s = strings.TrimSpace(strings.Map(printableASCII, s))
	case openapi.LocationCookie:
		s = strings.Map(cookieRune, s)
	}

	return s
}

func sanitizeMembers(location openapi.Location, members map[string]any) map[string]any {
	sanitized := make(map[string]any, len(members))
	for name, value := range members {
		sanitized[name] = sanitizeForLocation(location, value)
	}
	return sanitized
}

func headerSafe(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] > 0x7e {
			return false
		}
	}
	return s == strings.TrimSpace(s)
}

const cookieUnsafe = `;,"\ `

func cookieSafe(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x21 || s[i] > 0x7e || strings.IndexByte(cookieUnsafe, s[i]) >= 0 {
			return false
		}
	}
	return true
}

func printableASCII(r rune) rune {
	if r < 0x20 || r > 0x7e {
		return -1
	}
	return r
}

func cookieRune(r rune) rune {
	if r < 0x21 || r > 0x7e || strings.ContainsRune(cookieUnsafe, r) {
		return -1
	}
	return r
}
