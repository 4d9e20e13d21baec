// Package references resolves $ref pointers across specification documents,
// fully inlining referenced subtrees while tracking resolution scope and
// guarding against unbounded recursion.
package references

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/apiprobe/apiprobe/errors"
	"github.com/apiprobe/apiprobe/jsonpointer"
)

// Reference represents a $ref value: an optional URI followed by an optional
// #-separated JSON pointer.
type Reference string

var _ fmt.Stringer = (*Reference)(nil)

// GetURI returns the URI portion of the reference, empty for document-local
// references.
func (r Reference) GetURI() string {
	parts := strings.Split(string(r), "#")
	if len(parts) < 1 {
		return ""
	}

	return strings.TrimSpace(parts[0])
}

// HasJSONPointer reports whether the reference carries a JSON pointer fragment.
func (r Reference) HasJSONPointer() bool {
	return len(strings.Split(string(r), "#")) > 1
}

// GetJSONPointer returns the JSON pointer portion of the reference.
func (r Reference) GetJSONPointer() jsonpointer.JSONPointer {
	parts := strings.Split(string(r), "#")
	if len(parts) < 2 {
		return ""
	}

	pointer := strings.TrimSpace(parts[1])

	// URL decode the JSON pointer to handle percent-encoded characters
	// like %25 (which represents %)
	if decoded, err := url.QueryUnescape(pointer); err == nil {
		pointer = decoded
	}

	return jsonpointer.JSONPointer(pointer)
}

// IsLocal reports whether the reference points inside the document it appears
// in, i.e. it carries no URI.
func (r Reference) IsLocal() bool {
	return r.GetURI() == ""
}

// Validate will validate the reference is well formed.
func (r Reference) Validate() error {
	if r == "" {
		return errors.New("reference must not be empty")
	}

	uri := r.GetURI()

	if uri != "" {
		if _, err := url.Parse(uri); err != nil {
			return fmt.Errorf("invalid reference URI: %w", err)
		}
	}

	if r.HasJSONPointer() {
		jp := r.GetJSONPointer()
		if jp == "" {
			return errors.New("invalid reference JSON pointer: empty")
		}

		if err := jp.Validate(); err != nil {
			return fmt.Errorf("invalid reference JSON pointer: %w", err)
		}
	}

	return nil
}

func (r Reference) String() string {
	return string(r)
}
