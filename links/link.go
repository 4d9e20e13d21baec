// Package links builds the inter-operation dependency graph declared by an
// API description: each link names a target operation and the expressions
// that extract its input values from a source operation's request/response.
package links

import (
	"strings"

	"github.com/apiprobe/apiprobe/errors"
	"github.com/apiprobe/apiprobe/expression"
	"github.com/apiprobe/apiprobe/openapi"
	"github.com/apiprobe/apiprobe/sequencedmap"
)

const (
	// ErrInvalidLink is returned for a declared link missing a target or
	// carrying a malformed expression.
	ErrInvalidLink = errors.Error("invalid link definition")
)

// Extraction is one declared parameter extraction: the expression to evaluate
// and where its value lands on the target case.
type Extraction struct {
	// Container is the target location when the parameter name was qualified
	// as location.name; empty means the stepper infers it from the target
	// operation's declared parameters.
	Container openapi.Location
	Name      string
	Expr      expression.Expression
}

// Link is one declared data dependency from a source operation's response to
// a target operation's request. Immutable once built.
type Link struct {
	Name string
	// Source identifies the operation whose response feeds the link.
	Source string
	// Selector is the response status selector the link is declared under.
	Selector StatusSelector
	// TargetID is the declared operationId, empty when the link targets by
	// reference instead.
	TargetID string
	// TargetRef is the declared operationRef JSON pointer, empty when the
	// link targets by id.
	TargetRef string

	Parameters []Extraction
	// RequestBody is the declared body extraction expression, empty when the
	// link declares none.
	RequestBody expression.Expression
	// MergeBody keeps the target's generated body and merges the extracted
	// members over it; false replaces the body wholesale.
	MergeBody bool
}

// parseLink builds a Link from one raw declared link mapping.
func parseLink(source string, selector StatusSelector, name string, raw any) (*Link, error) {
	m, ok := raw.(*sequencedmap.Map[string, any])
	if !ok {
		return nil, ErrInvalidLink.Wrap(errors.New("link " + name + " is not a mapping"))
	}

	link := &Link{
		Name:      name,
		Source:    source,
		Selector:  selector,
		MergeBody: true,
	}

	link.TargetID, _ = m.GetOrZero("operationId").(string)
	link.TargetRef, _ = m.GetOrZero("operationRef").(string)
	if link.TargetID == "" && link.TargetRef == "" {
		return nil, ErrInvalidLink.Wrap(errors.New("link " + name + " declares no operationId or operationRef"))
	}

	if merge, ok := m.GetOrZero("x-apiprobe-merge-body").(bool); ok {
		link.MergeBody = merge
	}

	if params, ok := m.GetOrZero("parameters").(*sequencedmap.Map[string, any]); ok {
		for target, rawExpr := range params.All() {
			expr, ok := rawExpr.(string)
			if !ok {
				return nil, ErrInvalidLink.Wrap(errors.New("link " + name + " parameter " + target + " is not a string"))
			}

			e := expression.Expression(expr)
			if err := e.Validate(); err != nil {
				return nil, ErrInvalidLink.Wrap(err)
			}

			container, paramName := splitTarget(target)
			link.Parameters = append(link.Parameters, Extraction{
				Container: container,
				Name:      paramName,
				Expr:      e,
			})
		}
	}

	if body, ok := m.GetOrZero("requestBody").(string); ok {
		e := expression.Expression(body)
		if err := e.Validate(); err != nil {
			return nil, ErrInvalidLink.Wrap(err)
		}
		link.RequestBody = e
	}

	return link, nil
}

// splitTarget splits an optionally qualified parameter name such as
// path.user_id into its container and bare name.
func splitTarget(target string) (openapi.Location, string) {
	container, name, found := strings.Cut(target, ".")
	if !found {
		return "", target
	}

	for _, location := range openapi.ParameterLocations() {
		if openapi.Location(container) == location {
			return location, name
		}
	}

	return "", target
}

// TargetsOperation reports whether the link points at the operation, by id or
// by reference.
func (l *Link) TargetsOperation(op *openapi.Operation) bool {
	if l.TargetID != "" {
		return l.TargetID == op.ID()
	}
	return strings.TrimPrefix(l.TargetRef, "#") == string(op.Ref())
}
