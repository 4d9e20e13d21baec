// Package cases builds concrete request cases from an operation's constraint
// model: positive cases expected to satisfy the declared schemas, and negative
// cases carrying at least one deliberately violating value.
package cases

import (
	"github.com/apiprobe/apiprobe/openapi"
	"github.com/apiprobe/apiprobe/sequencedmap"
	"github.com/google/uuid"
)

// Mode records how a case was generated.
type Mode string

const (
	// ModePositive marks cases generated to satisfy the operation's schemas.
	ModePositive Mode = "positive"
	// ModeNegative marks cases carrying at least one violating value.
	ModeNegative Mode = "negative"
)

// Case is one generated request, ready for a collaborator to serialize onto
// the wire.
type Case struct {
	// ID uniquely identifies this case across a run.
	ID string
	// OperationID identifies the operation the case targets.
	OperationID string
	Method      string
	Path        string
	Mode        Mode

	// Values holds the generated value per parameter location, keyed by
	// parameter name in declaration order.
	Values *sequencedmap.Map[openapi.Location, *sequencedmap.Map[string, any]]
	// MediaType is the selected body media type, empty when the operation
	// declares no body.
	MediaType string
	// Body is the generated body value, nil when no body schema was declared.
	Body any

	// NegatedLocations lists the locations whose values violate the original
	// schema. Empty for positive cases.
	NegatedLocations []openapi.Location
}

func newCase(op *openapi.Operation, mode Mode) *Case {
	return &Case{
		ID:          uuid.NewString(),
		OperationID: op.ID(),
		Method:      op.Method,
		Path:        op.Path,
		Mode:        mode,
		Values:      sequencedmap.New[openapi.Location, *sequencedmap.Map[string, any]](),
	}
}

// ValuesFor returns the generated values for the location, or nil.
func (c *Case) ValuesFor(location openapi.Location) *sequencedmap.Map[string, any] {
	return c.Values.GetOrZero(location)
}

// SetValue places one named value at the location, creating the location's
// value map when absent. Used when link transitions seed a case.
func (c *Case) SetValue(location openapi.Location, name string, value any) {
	values, ok := c.Values.Get(location)
	if !ok {
		values = sequencedmap.New[string, any]()
		c.Values.Set(location, values)
	}
	values.Set(name, value)
}

// Outcome is the result of one case-generation attempt: a built case, a skip
// signal, or an error. Exactly one of the three is populated.
type Outcome struct {
	Case *Case
	// Skipped signals an intentionally abandoned attempt, such as a negative
	// case where no location could be negated.
	Skipped bool
	// Reason describes why the attempt was skipped.
	Reason string
	Err    error
}

// CaseOutcome wraps a built case.
func CaseOutcome(c *Case) Outcome {
	return Outcome{Case: c}
}

// SkipOutcome signals an abandoned attempt. Not an error.
func SkipOutcome(reason string) Outcome {
	return Outcome{Skipped: true, Reason: reason}
}

// ErrorOutcome wraps a generation failure.
func ErrorOutcome(err error) Outcome {
	return Outcome{Err: err}
}
