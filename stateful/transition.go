package stateful

import (
	"maps"

	"github.com/apiprobe/apiprobe/cases"
	"github.com/apiprobe/apiprobe/expression"
	"github.com/apiprobe/apiprobe/jsonschema"
	"github.com/apiprobe/apiprobe/links"
	"github.com/apiprobe/apiprobe/openapi"
	"github.com/apiprobe/apiprobe/sequencedmap"
)

// Extracted is the result of evaluating one link expression. A failed
// extraction carries its error here rather than failing the whole step.
type Extracted struct {
	Container openapi.Location
	Name      string
	Value     any
	Err       error
}

// Transition carries the values one link extracted from one step result,
// ready to seed the next case. Ephemeral; derived from a StepResult and never
// outliving it.
type Transition struct {
	ParentCaseID string
	Link         *links.Link

	Extractions []Extracted
	// Body is the requestBody extraction result, nil when the link declares
	// none.
	Body *Extracted
}

// NewTransition evaluates the link's expressions against the step's
// request/response pair. Individual extraction failures are recorded per
// extraction; evaluation never mutates the step result.
func NewTransition(link *links.Link, source *StepResult) *Transition {
	req := RequestDataFor(source.Case)
	resp := ResponseDataFor(source.Response)

	t := &Transition{
		ParentCaseID: source.Case.ID,
		Link:         link,
	}

	for _, ex := range link.Parameters {
		value, err := ex.Expr.Eval(req, resp)
		t.Extractions = append(t.Extractions, Extracted{
			Container: ex.Container,
			Name:      ex.Name,
			Value:     value,
			Err:       err,
		})
	}

	if link.RequestBody != "" {
		value, err := link.RequestBody.Eval(req, resp)
		t.Body = &Extracted{Value: value, Err: err}
	}

	return t
}

// Failed reports whether every extraction of the transition failed. A
// transition with nothing usable cannot seed a case.
func (t *Transition) Failed() bool {
	for _, e := range t.Extractions {
		if e.Err == nil {
			return false
		}
	}
	if t.Body != nil && t.Body.Err == nil {
		return false
	}
	return len(t.Extractions) > 0 || t.Body != nil
}

// ApplyTo seeds the case with the transition's successfully extracted values.
// Unqualified names land in the location the target operation declares the
// parameter in, defaulting to the query.
func (t *Transition) ApplyTo(c *cases.Case, target *openapi.Operation) {
	for _, e := range t.Extractions {
		if e.Err != nil {
			continue
		}

		container := e.Container
		if container == "" {
			container = inferContainer(target, e.Name)
		}
		c.SetValue(container, e.Name, jsonschema.Plain(e.Value))
	}

	if t.Body != nil && t.Body.Err == nil {
		if t.Link.MergeBody {
			c.Body = mergeBody(c.Body, t.Body.Value)
		} else {
			c.Body = jsonschema.Plain(t.Body.Value)
		}
	}
}

func inferContainer(target *openapi.Operation, name string) openapi.Location {
	for _, location := range openapi.ParameterLocations() {
		if target.ParameterSetFor(location).Find(name) != nil {
			return location
		}
	}
	return openapi.LocationQuery
}

// mergeBody lays the extracted members over the generated body, keeping
// generated members the extraction does not name.
func mergeBody(base, extracted any) any {
	members := map[string]any{}

	switch b := base.(type) {
	case nil:
	case map[string]any:
		maps.Copy(members, b)
	default:
		return jsonschema.Plain(extracted)
	}

	switch v := extracted.(type) {
	case map[string]any:
		maps.Copy(members, v)
	case *sequencedmap.Map[string, any]:
		for name, value := range v.All() {
			members[name] = jsonschema.Plain(value)
		}
	default:
		return jsonschema.Plain(extracted)
	}

	return members
}

// RequestDataFor builds the expression evaluation view of a case.
func RequestDataFor(c *cases.Case) *expression.RequestData {
	return &expression.RequestData{
		Method: c.Method,
		URL:    c.Path,
		Path:   c.ValuesFor(openapi.LocationPath),
		Query:  c.ValuesFor(openapi.LocationQuery),
		Header: c.ValuesFor(openapi.LocationHeader),
		Cookie: c.ValuesFor(openapi.LocationCookie),
		Body:   c.Body,
	}
}

// ResponseDataFor builds the expression evaluation view of a response.
func ResponseDataFor(r *Response) *expression.ResponseData {
	return &expression.ResponseData{
		StatusCode: r.StatusCode,
		Header:     r.Header,
		Body:       r.Body,
	}
}
