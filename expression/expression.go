// Package expression implements the runtime expression language links use to
// point at values inside a request or response, e.g. $response.body#/id or
// $request.path.user_id.
package expression

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/apiprobe/apiprobe/jsonpointer"
)

// ExpressionType is the source an expression reads from.
type ExpressionType string

const (
	// ExpressionTypeURL reads the full request URL.
	ExpressionTypeURL ExpressionType = "url"
	// ExpressionTypeMethod reads the request method.
	ExpressionTypeMethod ExpressionType = "method"
	// ExpressionTypeStatusCode reads the response status code.
	ExpressionTypeStatusCode ExpressionType = "statusCode"
	// ExpressionTypeRequest reads a value within the request.
	ExpressionTypeRequest ExpressionType = "request"
	// ExpressionTypeResponse reads a value within the response.
	ExpressionTypeResponse ExpressionType = "response"
)

const (
	// ReferenceTypeHeader addresses a request or response header.
	ReferenceTypeHeader = "header"
	// ReferenceTypeQuery addresses a request query parameter.
	ReferenceTypeQuery = "query"
	// ReferenceTypePath addresses a request path parameter.
	ReferenceTypePath = "path"
	// ReferenceTypeBody addresses the request or response body.
	ReferenceTypeBody = "body"
)

var expressionTypes = []string{
	string(ExpressionTypeURL),
	string(ExpressionTypeMethod),
	string(ExpressionTypeStatusCode),
	string(ExpressionTypeRequest),
	string(ExpressionTypeResponse),
}

var referenceTypes = []string{
	ReferenceTypeHeader,
	ReferenceTypeQuery,
	ReferenceTypePath,
	ReferenceTypeBody,
}

var (
	headerTokenRegex   = regexp.MustCompile("^[!#$%&'*+\\-.^_`|~\\dA-Za-z]+$")
	parameterNameRegex = regexp.MustCompile("^[\x01-\x7F]+$")
)

// Expression is a runtime expression as defined by the OpenAPI link object.
type Expression string

// Validate checks the expression against the runtime expression grammar.
func (e Expression) Validate() error {
	if len(ExtractExpressions(string(e))) == 0 {
		return fmt.Errorf("expression must begin with $: %s", e)
	}

	typ, reference, parts, jp := e.GetParts()

	switch typ {
	case ExpressionTypeURL, ExpressionTypeMethod, ExpressionTypeStatusCode:
		if reference != "" || len(parts) > 0 {
			return fmt.Errorf("unexpected characters after $%s: %s", typ, e)
		}
		if jp != "" {
			return fmt.Errorf("$%s does not take a json pointer: %s", typ, e)
		}
		return nil
	case ExpressionTypeRequest, ExpressionTypeResponse:
		return e.validateReference(typ, reference, parts, jp)
	default:
		return fmt.Errorf("expression must begin with one of [%s]: %s", strings.Join(expressionTypes, ", "), e)
	}
}

func (e Expression) validateReference(typ ExpressionType, reference string, parts []string, jp jsonpointer.JSONPointer) error {
	switch reference {
	case ReferenceTypeBody:
		if len(parts) > 0 {
			return fmt.Errorf("only a json pointer may follow $%s.%s: %s", typ, reference, e)
		}
		if jp != "" {
			return jp.Validate()
		}
		return nil
	case ReferenceTypeHeader:
		if len(parts) != 1 {
			return fmt.Errorf("expected a header name after $%s.%s: %s", typ, reference, e)
		}
		if !headerTokenRegex.MatchString(parts[0]) {
			return fmt.Errorf("header name must be a valid token [%s]: %s", headerTokenRegex, e)
		}
	case ReferenceTypeQuery, ReferenceTypePath:
		if typ == ExpressionTypeResponse {
			return fmt.Errorf("$response only supports [%s, %s]: %s", ReferenceTypeBody, ReferenceTypeHeader, e)
		}
		if len(parts) != 1 {
			return fmt.Errorf("expected a name after $%s.%s: %s", typ, reference, e)
		}
		if !parameterNameRegex.MatchString(parts[0]) {
			return fmt.Errorf("%s name must match [%s]: %s", reference, parameterNameRegex, e)
		}
	default:
		return fmt.Errorf("expected one of [%s] after $%s: %s", strings.Join(referenceTypes, ", "), typ, e)
	}

	if jp != "" {
		return fmt.Errorf("json pointers are only allowed on %s references: %s", ReferenceTypeBody, e)
	}

	return nil
}

// IsExpression reports whether the whole string is a single runtime expression
// of a known type.
func (e Expression) IsExpression() bool {
	extracted := ExtractExpressions(string(e))
	if len(extracted) != 1 || len(extracted[0]) != len(e) {
		return false
	}

	typ := string(e.GetType())
	for _, known := range expressionTypes {
		if typ == known {
			return true
		}
	}
	return false
}

// GetType returns the expression's source type.
func (e Expression) GetType() ExpressionType {
	typ, _, _, _ := e.GetParts()
	return typ
}

// GetParts splits the expression into its source type, reference kind, any
// remaining dotted name parts, and the trailing json pointer.
func (e Expression) GetParts() (ExpressionType, string, []string, jsonpointer.JSONPointer) {
	head, pointer, _ := strings.Cut(string(e), "#")

	head = strings.TrimSuffix(strings.TrimPrefix(strings.TrimPrefix(head, "{"), "$"), "}")
	parts := strings.Split(head, ".")

	typ := ExpressionType(parts[0])
	parts = parts[1:]

	reference := ""
	if len(parts) > 0 {
		reference = parts[0]
		parts = parts[1:]
	}

	return typ, reference, parts, jsonpointer.JSONPointer(pointer)
}

// GetJSONPointer returns the expression's trailing json pointer, empty when
// none is present.
func (e Expression) GetJSONPointer() jsonpointer.JSONPointer {
	_, _, _, jp := e.GetParts()
	return jp
}
