package jsonschema

import (
	"bytes"
	"fmt"
	"strings"

	jsValidator "github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/apiprobe/apiprobe/errors"
	"github.com/apiprobe/apiprobe/json"
	"github.com/apiprobe/apiprobe/sequencedmap"
)

const (
	// ErrCompile is returned when a schema cannot be compiled into a validator.
	ErrCompile = errors.Error("failed to compile schema")
	// ErrNotValid is returned when an instance fails validation.
	ErrNotValid = errors.Error("instance does not satisfy schema")
)

var defaultPrinter = message.NewPrinter(language.English)

// Validator validates instances against a compiled schema. Safe for
// concurrent use.
type Validator struct {
	compiled *jsValidator.Schema
}

// Compile builds a validator for the provided schema.
func Compile(s Schema) (*Validator, error) {
	node := s.Node()
	if node == nil {
		node = true
	}

	var buf bytes.Buffer
	if err := json.EncodeAny(node, 0, &buf); err != nil {
		return nil, ErrCompile.Wrap(err)
	}

	raw, err := jsValidator.UnmarshalJSON(&buf)
	if err != nil {
		return nil, ErrCompile.Wrap(err)
	}

	c := jsValidator.NewCompiler()
	c.DefaultDraft(jsValidator.Draft2020)

	if err := c.AddResource("schema.json", raw); err != nil {
		return nil, ErrCompile.Wrap(err)
	}

	compiled, err := c.Compile("schema.json")
	if err != nil {
		return nil, ErrCompile.Wrap(err)
	}

	return &Validator{compiled: compiled}, nil
}

// MustCompile is Compile panicking on error, for schemas known valid by
// construction.
func MustCompile(s Schema) *Validator {
	v, err := Compile(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Validate checks the instance against the schema, returning an ErrNotValid
// wrap carrying the root causes when it does not conform.
func (v *Validator) Validate(value any) error {
	err := v.compiled.Validate(Plain(value))
	if err == nil {
		return nil
	}

	var validationErr *jsValidator.ValidationError
	if errors.As(err, &validationErr) {
		return ErrNotValid.Wrap(errors.New(strings.Join(rootCauses(validationErr), "; ")))
	}

	return ErrNotValid.Wrap(err)
}

// IsValid reports whether the instance satisfies the schema.
func (v *Validator) IsValid(value any) bool {
	return v.Validate(value) == nil
}

func rootCauses(err *jsValidator.ValidationError) []string {
	if len(err.Causes) == 0 {
		location := "/" + strings.Join(err.InstanceLocation, "/")
		return []string{fmt.Sprintf("%s: %s", location, err.ErrorKind.LocalizedString(defaultPrinter))}
	}

	var causes []string
	for _, cause := range err.Causes {
		causes = append(causes, rootCauses(cause)...)
	}
	return causes
}

// Plain converts a generic document tree into the plain map/slice form the
// underlying validator evaluates. Scalars pass through untouched.
func Plain(v any) any {
	switch t := v.(type) {
	case *sequencedmap.Map[string, any]:
		m := make(map[string]any, t.Len())
		for k, val := range t.All() {
			m[k] = Plain(val)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, val := range t {
			s[i] = Plain(val)
		}
		return s
	case int:
		return float64(t)
	case int64:
		return float64(t)
	default:
		return v
	}
}
