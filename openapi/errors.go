package openapi

import (
	"fmt"
	"strings"

	"github.com/apiprobe/apiprobe/jsonpointer"
)

// SchemaError reports a malformed or unresolvable piece of the specification,
// carrying the offending path/method for diagnostics. It is surfaced
// per-operation so enumeration continues for the rest of the document.
type SchemaError struct {
	Path    string
	Method  string
	Pointer jsonpointer.JSONPointer
	Err     error
}

func (e *SchemaError) Error() string {
	var sb strings.Builder
	sb.WriteString("schema error")

	if e.Method != "" || e.Path != "" {
		sb.WriteString(fmt.Sprintf(" at %s %s", strings.ToUpper(e.Method), e.Path))
	}
	if e.Pointer != "" {
		sb.WriteString(fmt.Sprintf(" (%s)", e.Pointer))
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}

	return sb.String()
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}
