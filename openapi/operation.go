package openapi

import (
	"context"
	"fmt"
	"strings"

	"github.com/apiprobe/apiprobe/jsonpointer"
	"github.com/apiprobe/apiprobe/jsonschema"
	"github.com/apiprobe/apiprobe/references"
	"github.com/apiprobe/apiprobe/sequencedmap"
)

// Operation is one path/method pair with its fully resolved constraint
// model. Constructed once per enumeration pass and owned by the document;
// immutable afterwards.
type Operation struct {
	OperationID string
	Path        string
	Method      string

	// Parameters groups declared parameters by location.
	Parameters *sequencedmap.Map[Location, *ParameterSet]
	// Bodies are the declared request body alternatives, one per media type.
	Bodies []*BodyVariant
	// Responses maps status code selectors to their response specs, in
	// declaration order.
	Responses *sequencedmap.Map[string, *ResponseSpec]
}

// ResponseSpec is the declared response for one status code selector.
type ResponseSpec struct {
	Selector string
	// Schema is the resolved, normalized JSON body schema, nil when the
	// response declares none.
	Schema any
	// Links holds the raw links declared on the response, by link name.
	// Parsed lazily by the links package.
	Links *sequencedmap.Map[string, any]
}

// ID returns the operation's identity: its operationId when declared,
// otherwise a method+path key.
func (o *Operation) ID() string {
	if o.OperationID != "" {
		return o.OperationID
	}
	return strings.ToUpper(o.Method) + " " + o.Path
}

// Ref returns the JSON-pointer-style reference to the operation within its
// document.
func (o *Operation) Ref() jsonpointer.JSONPointer {
	return jsonpointer.PartsToJSONPointer([]string{"paths", o.Path, o.Method})
}

// ParameterSetFor returns the parameter set for the location, or nil.
func (o *Operation) ParameterSetFor(location Location) *ParameterSet {
	return o.Parameters.GetOrZero(location)
}

// SelectorSiblings returns every status code selector declared on the
// operation, in declaration order. The default selector needs this full set
// to know what it does not match.
func (o *Operation) SelectorSiblings() []string {
	var selectors []string
	for selector := range o.Responses.Keys() {
		selectors = append(selectors, selector)
	}
	return selectors
}

func (d *Document) buildOperation(ctx context.Context, path, method string, opMap *sequencedmap.Map[string, any], sharedParams []any) (*Operation, error) {
	scope := d.resolver.RootScope()

	resolved, err := d.resolver.InlineValue(ctx, opMap, scope)
	if err != nil {
		return nil, &SchemaError{Path: path, Method: method, Err: err}
	}

	resolvedMap, ok := resolved.(*sequencedmap.Map[string, any])
	if !ok {
		return nil, &SchemaError{Path: path, Method: method, Err: fmt.Errorf("operation resolved to %T, expected a mapping", resolved)}
	}

	op := &Operation{
		Path:       path,
		Method:     method,
		Parameters: sequencedmap.New[Location, *ParameterSet](),
		Responses:  sequencedmap.New[string, *ResponseSpec](),
	}
	op.OperationID, _ = resolvedMap.GetOrZero("operationId").(string)

	rawParams, err := d.resolveSharedParams(ctx, sharedParams, scope)
	if err != nil {
		return nil, &SchemaError{Path: path, Method: method, Err: err}
	}
	if declared, ok := resolvedMap.GetOrZero("parameters").([]any); ok {
		rawParams = append(rawParams, declared...)
	}

	bodyParams := d.collectParameters(op, rawParams)

	if err := d.buildBodies(op, resolvedMap, bodyParams); err != nil {
		return nil, &SchemaError{Path: path, Method: method, Err: err}
	}

	if err := d.buildResponses(op, resolvedMap); err != nil {
		return nil, &SchemaError{Path: path, Method: method, Err: err}
	}

	return op, nil
}

// resolveSharedParams inlines path-item level parameters, which are not part
// of the operation subtree and may carry their own references.
func (d *Document) resolveSharedParams(ctx context.Context, sharedParams []any, scope references.Scope) ([]any, error) {
	if len(sharedParams) == 0 {
		return nil, nil
	}

	resolved, err := d.resolver.InlineValue(ctx, sharedParams, scope)
	if err != nil {
		return nil, err
	}

	params, _ := resolved.([]any)
	return params, nil
}

// collectParameters fills op.Parameters from the raw parameter list and
// returns any Swagger 2 body/formData parameters for body construction.
// Operation-level declarations win over path-item ones of the same
// (name, location) pair, which is why the shared list is walked first.
func (d *Document) collectParameters(op *Operation, rawParams []any) []*sequencedmap.Map[string, any] {
	var bodyParams []*sequencedmap.Map[string, any]

	for _, raw := range rawParams {
		paramMap, ok := raw.(*sequencedmap.Map[string, any])
		if !ok {
			continue
		}

		if in, _ := paramMap.GetOrZero("in").(string); in == "body" || in == "formData" {
			bodyParams = append(bodyParams, paramMap)
			continue
		}

		param := d.buildParameter(paramMap)
		if param == nil {
			continue
		}

		set, ok := op.Parameters.Get(param.Location)
		if !ok {
			set = &ParameterSet{Location: param.Location}
			op.Parameters.Set(param.Location, set)
		}

		if existing := set.Find(param.Name); existing != nil {
			*existing = *param
			continue
		}

		set.Parameters = append(set.Parameters, param)
	}

	return bodyParams
}

const defaultMediaType = "application/json"

func (d *Document) buildBodies(op *Operation, resolvedMap *sequencedmap.Map[string, any], bodyParams []*sequencedmap.Map[string, any]) error {
	if d.version == VersionSwagger2 {
		return d.buildSwaggerBodies(op, resolvedMap, bodyParams)
	}

	requestBody, ok := resolvedMap.GetOrZero("requestBody").(*sequencedmap.Map[string, any])
	if !ok {
		return nil
	}

	required, _ := requestBody.GetOrZero("required").(bool)
	content, ok := requestBody.GetOrZero("content").(*sequencedmap.Map[string, any])
	if !ok {
		return nil
	}

	for mediaType, rawMedia := range content.All() {
		media, ok := rawMedia.(*sequencedmap.Map[string, any])
		if !ok {
			continue
		}

		var schema any
		if s, ok := media.Get("schema"); ok {
			schema = jsonschema.Normalize(s)
		}

		op.Bodies = append(op.Bodies, &BodyVariant{
			MediaType: mediaType,
			Required:  required,
			Schema:    schema,
		})
	}

	return nil
}

// buildSwaggerBodies maps Swagger 2 body and formData parameters onto body
// variants, with the media type drawn from the operation's consumes list.
func (d *Document) buildSwaggerBodies(op *Operation, resolvedMap *sequencedmap.Map[string, any], bodyParams []*sequencedmap.Map[string, any]) error {
	mediaType := defaultMediaType
	if consumes, ok := resolvedMap.GetOrZero("consumes").([]any); ok && len(consumes) > 0 {
		if mt, ok := consumes[0].(string); ok {
			mediaType = mt
		}
	}

	form := jsonschema.NewComposite()

	for _, param := range bodyParams {
		in, _ := param.GetOrZero("in").(string)
		required, _ := param.GetOrZero("required").(bool)

		switch in {
		case "body":
			var schema any
			if s, ok := param.Get("schema"); ok {
				schema = jsonschema.Normalize(s)
			}
			op.Bodies = append(op.Bodies, &BodyVariant{
				MediaType: mediaType,
				Required:  required,
				Schema:    schema,
			})
		case "formData":
			name, _ := param.GetOrZero("name").(string)
			if name == "" {
				continue
			}
			form.AddProperty(name, jsonschema.Normalize(swaggerParameterSchema(param)), required)
		}
	}

	if form.Len() > 0 {
		formMediaType := "application/x-www-form-urlencoded"
		if mediaType == "multipart/form-data" {
			formMediaType = mediaType
		}

		op.Bodies = append(op.Bodies, &BodyVariant{
			MediaType: formMediaType,
			Required:  len(form.Required()) > 0,
			Schema:    form.Schema().Node(),
		})
	}

	return nil
}

func (d *Document) buildResponses(op *Operation, resolvedMap *sequencedmap.Map[string, any]) error {
	responses, ok := resolvedMap.GetOrZero("responses").(*sequencedmap.Map[string, any])
	if !ok {
		return nil
	}

	for selector, rawResponse := range responses.All() {
		response, ok := rawResponse.(*sequencedmap.Map[string, any])
		if !ok {
			continue
		}

		spec := &ResponseSpec{Selector: selector}

		if d.version == VersionSwagger2 {
			if s, ok := response.Get("schema"); ok {
				spec.Schema = jsonschema.Normalize(s)
			}
		} else if content, ok := response.GetOrZero("content").(*sequencedmap.Map[string, any]); ok {
			// Response bodies are validated as JSON only; other formats are
			// skipped.
			if media, ok := content.GetOrZero(defaultMediaType).(*sequencedmap.Map[string, any]); ok {
				if s, ok := media.Get("schema"); ok {
					spec.Schema = jsonschema.Normalize(s)
				}
			}
		}

		spec.Links = collectLinks(response)

		op.Responses.Set(selector, spec)
	}

	return nil
}

// collectLinks captures the raw links section of a response. OpenAPI 2.0
// documents declare links through the x-links extension; both spell the same
// structure.
func collectLinks(response *sequencedmap.Map[string, any]) *sequencedmap.Map[string, any] {
	links := sequencedmap.New[string, any]()

	for _, key := range []string{"links", "x-links"} {
		if declared, ok := response.GetOrZero(key).(*sequencedmap.Map[string, any]); ok {
			for name, link := range declared.All() {
				links.Set(name, link)
			}
		}
	}

	return links
}
