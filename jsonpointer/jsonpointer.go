// Package jsonpointer provides JSONPointer an implementation of RFC6901
// https://datatracker.ietf.org/doc/html/rfc6901 evaluated against the generic
// document trees used throughout this module.
package jsonpointer

import (
	"fmt"
	"strings"

	"github.com/apiprobe/apiprobe/errors"
)

const (
	// ErrNotFound is returned when the target is not found.
	ErrNotFound = errors.Error("not found")
	// ErrInvalidPath is returned when the path cannot navigate the source.
	ErrInvalidPath = errors.Error("invalid path")
	// ErrValidation is returned when the jsonpointer is invalid.
	ErrValidation = errors.Error("validation error")
)

// KeyNavigable is implemented by map-like values that can be navigated by key.
type KeyNavigable interface {
	NavigateWithKey(key string) (any, error)
}

// IndexNavigable is implemented by sequence-like values that can be navigated by index.
type IndexNavigable interface {
	NavigateWithIndex(index int) (any, error)
}

// JSONPointer represents a JSON Pointer value as defined by RFC6901.
type JSONPointer string

// Validate will validate the JSONPointer is valid as per RFC6901.
func (j JSONPointer) Validate() error {
	_, err := j.tokens()
	if err != nil {
		return ErrValidation.Wrap(err)
	}
	return nil
}

// String returns the string representation of the JSONPointer.
func (j JSONPointer) String() string {
	return string(j)
}

// GetTarget will evaluate the JSONPointer against the source and return the target.
// The source may be any generic tree of KeyNavigable/IndexNavigable values,
// map[string]any maps, []any slices and scalars.
func GetTarget(source any, pointer JSONPointer) (any, error) {
	tokens, err := pointer.tokens()
	if err != nil {
		return nil, ErrValidation.Wrap(err)
	}

	current := source
	currentPath := ""

	for _, token := range tokens {
		currentPath += "/" + token

		next, err := navigate(current, unescape(token), currentPath)
		if err != nil {
			return nil, err
		}

		current = next
	}

	return current, nil
}

// PartsToJSONPointer will convert the exploded parts of a JSONPointer to a JSONPointer.
func PartsToJSONPointer(parts []string) JSONPointer {
	var sb strings.Builder
	for _, part := range parts {
		sb.WriteByte('/')
		sb.WriteString(EscapeString(part))
	}
	return JSONPointer(sb.String())
}

// EscapeString escapes a string for use as a reference token in a JSON pointer
// according to RFC6901, replacing "~" with "~0" and "/" with "~1".
func EscapeString(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "~", "~0"), "/", "~1")
}

func navigate(source any, token, currentPath string) (any, error) {
	switch s := source.(type) {
	case KeyNavigable:
		v, err := s.NavigateWithKey(token)
		if err != nil {
			return nil, ErrNotFound.Wrap(fmt.Errorf("key %s not found at %s", token, currentPath))
		}
		return v, nil
	case map[string]any:
		v, ok := s[token]
		if !ok {
			return nil, ErrNotFound.Wrap(fmt.Errorf("key %s not found in map at %s", token, currentPath))
		}
		return v, nil
	case []any:
		index, ok := arrayIndex(token)
		if !ok {
			return nil, ErrInvalidPath.Wrap(fmt.Errorf("expected array index, got %q at %s", token, currentPath))
		}
		if index >= len(s) {
			return nil, ErrNotFound.Wrap(fmt.Errorf("index %d out of range for sequence of length %d at %s", index, len(s), currentPath))
		}
		return s[index], nil
	case IndexNavigable:
		index, ok := arrayIndex(token)
		if !ok {
			return nil, ErrInvalidPath.Wrap(fmt.Errorf("expected array index, got %q at %s", token, currentPath))
		}
		v, err := s.NavigateWithIndex(index)
		if err != nil {
			return nil, ErrNotFound.Wrap(err)
		}
		return v, nil
	case nil:
		return nil, ErrNotFound.Wrap(fmt.Errorf("value is null at %s", currentPath))
	default:
		return nil, ErrInvalidPath.Wrap(fmt.Errorf("expected map or sequence, got %T at %s", source, currentPath))
	}
}

// arrayIndex parses token as an RFC6901 array index: digits only, no leading
// zeros unless the index is exactly "0".
func arrayIndex(token string) (int, bool) {
	if token == "" {
		return 0, false
	}
	if len(token) > 1 && token[0] == '0' {
		return 0, false
	}

	index := 0
	for _, r := range token {
		if r < '0' || r > '9' {
			return 0, false
		}
		index = index*10 + int(r-'0')
	}

	return index, true
}

func unescape(token string) string {
	val := strings.ReplaceAll(token, "~1", "/")
	return strings.ReplaceAll(val, "~0", "~")
}

func (j JSONPointer) tokens() ([]string, error) {
	if len(j) == 0 {
		return nil, errors.New("jsonpointer must not be empty")
	}

	if !strings.HasPrefix(string(j), "/") {
		return nil, fmt.Errorf("jsonpointer must start with /: %s", string(j))
	}

	if len(j) == 1 {
		return nil, nil
	}

	tokens := strings.Split(strings.TrimPrefix(string(j), "/"), "/")

	for _, token := range tokens {
		if token == "" {
			return nil, fmt.Errorf("jsonpointer part must not be empty: %s", string(j))
		}

		for i := 0; i < len(token); i++ {
			if token[i] == '~' && (i+1 >= len(token) || (token[i+1] != '0' && token[i+1] != '1')) {
				return nil, fmt.Errorf("jsonpointer part contains invalid escape: %s", string(j))
			}
		}
	}

	return tokens, nil
}
