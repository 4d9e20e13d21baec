// Package openapi loads OpenAPI 2.0/3.x documents as generic trees and
// enumerates their operations into the constraint model the case builders
// generate against: per-location parameter sets, body variants, response
// specs and raw link declarations.
package openapi

import (
	"context"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/apiprobe/apiprobe/errors"
	"github.com/apiprobe/apiprobe/json"
	"github.com/apiprobe/apiprobe/references"
	"github.com/apiprobe/apiprobe/sequencedmap"
)

const (
	// ErrInvalidDocument is returned when the document is not a recognizable
	// OpenAPI or Swagger specification.
	ErrInvalidDocument = errors.Error("invalid specification document")
)

// Version identifies the specification flavor of a document.
type Version string

const (
	// VersionSwagger2 identifies OpenAPI 2.0 (Swagger) documents.
	VersionSwagger2 Version = "2.0"
	// VersionOpenAPI3 identifies OpenAPI 3.x documents.
	VersionOpenAPI3 Version = "3.x"
)

// Document is a parsed specification. The raw tree is immutable after load;
// every derived structure is built from resolved copies. Safe for concurrent
// use.
type Document struct {
	root     *sequencedmap.Map[string, any]
	version  Version
	resolver *references.Resolver
	index    *Index
}

// LoadOption configures document loading.
type LoadOption func(*loadOptions)

type loadOptions struct {
	resolverOpts []references.Option
}

// WithResolverOptions forwards options to the document's reference resolver.
func WithResolverOptions(opts ...references.Option) LoadOption {
	return func(o *loadOptions) {
		o.resolverOpts = append(o.resolverOpts, opts...)
	}
}

// Load reads and parses a specification document.
func Load(r io.Reader, opts ...LoadOption) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, ErrInvalidDocument.Wrap(err)
	}

	return Parse(data, opts...)
}

// Parse parses a specification document from YAML or JSON bytes.
func Parse(data []byte, opts ...LoadOption) (*Document, error) {
	o := loadOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	tree, err := json.DecodeAny(data)
	if err != nil {
		return nil, ErrInvalidDocument.Wrap(err)
	}

	root, ok := tree.(*sequencedmap.Map[string, any])
	if !ok {
		return nil, ErrInvalidDocument.Wrap(fmt.Errorf("expected a mapping at the document root, got %T", tree))
	}

	version, err := detectVersion(root)
	if err != nil {
		return nil, err
	}

	return &Document{
		root:     root,
		version:  version,
		resolver: references.NewResolver(root, o.resolverOpts...),
		index:    NewIndex(),
	}, nil
}

func detectVersion(root *sequencedmap.Map[string, any]) (Version, error) {
	if v, ok := root.GetOrZero("swagger").(string); ok {
		if v != "2.0" {
			return "", ErrInvalidDocument.Wrap(fmt.Errorf("unsupported swagger version %q", v))
		}
		return VersionSwagger2, nil
	}

	if v, ok := root.GetOrZero("openapi").(string); ok {
		if !strings.HasPrefix(v, "3.") {
			return "", ErrInvalidDocument.Wrap(fmt.Errorf("unsupported openapi version %q", v))
		}
		return VersionOpenAPI3, nil
	}

	return "", ErrInvalidDocument.Wrap(errors.New("document declares neither swagger nor openapi version"))
}

// Version returns the detected specification flavor.
func (d *Document) Version() Version {
	return d.version
}

// Resolver returns the document's reference resolver.
func (d *Document) Resolver() *references.Resolver {
	return d.resolver
}

// Index returns the document's operation lookup index, populated during
// enumeration.
func (d *Document) Index() *Index {
	return d.index
}

// Operations enumerates the document's operations in declaration order. A
// malformed operation yields a *SchemaError without aborting enumeration of
// the rest of the document.
func (d *Document) Operations(ctx context.Context) iter.Seq2[*Operation, error] {
	return func(yield func(*Operation, error) bool) {
		paths, ok := d.root.GetOrZero("paths").(*sequencedmap.Map[string, any])
		if !ok {
			yield(nil, &SchemaError{Err: errors.New("document has no paths object")})
			return
		}

		for path, rawItem := range paths.All() {
			item, scope, err := d.resolvePathItem(ctx, path, rawItem)
			if err != nil {
				if !yield(nil, err) {
					return
				}
				continue
			}

			sharedParams, _ := item.GetOrZero("parameters").([]any)

			for method, rawOp := range item.All() {
				if !isHTTPMethod(method) {
					continue
				}

				opMap, ok := rawOp.(*sequencedmap.Map[string, any])
				if !ok {
					if !yield(nil, &SchemaError{Path: path, Method: method, Err: errors.New("operation is not a mapping")}) {
						return
					}
					continue
				}

				op, err := d.buildOperation(ctx, path, method, opMap, sharedParams)
				if err != nil {
					var schemaErr *SchemaError
					if !errors.As(err, &schemaErr) {
						schemaErr = &SchemaError{Path: path, Method: method, Err: err}
					}
					if !yield(nil, schemaErr) {
						return
					}
					continue
				}

				d.index.Add(op)
				if scope != nil {
					d.index.AddScoped(op, scope)
				}

				if !yield(op, nil) {
					return
				}
			}
		}
	}
}

// resolvePathItem resolves a path item level $ref and inlines shared
// parameters' references. Operations below it are resolved per-operation so
// one bad operation cannot poison its siblings. When the path item was
// reached through an external document, the returned scope records the
// traversal; it is nil for inline and document-local path items.
func (d *Document) resolvePathItem(ctx context.Context, path string, rawItem any) (*sequencedmap.Map[string, any], references.Scope, error) {
	itemMap, ok := rawItem.(*sequencedmap.Map[string, any])
	if !ok {
		return nil, nil, &SchemaError{Path: path, Err: errors.New("path item is not a mapping")}
	}

	var scope references.Scope
	if refValue, ok := itemMap.GetOrZero("$ref").(string); ok {
		resolved, err := d.resolver.InlineValue(ctx, itemMap, d.resolver.RootScope())
		if err != nil {
			return nil, nil, &SchemaError{Path: path, Pointer: references.Reference(refValue).GetJSONPointer(), Err: err}
		}

		itemMap, ok = resolved.(*sequencedmap.Map[string, any])
		if !ok {
			return nil, nil, &SchemaError{Path: path, Err: errors.New("path item reference does not resolve to a mapping")}
		}

		if uri := references.Reference(refValue).GetURI(); uri != "" {
			scope = d.resolver.RootScope().Push(uri)
		}
	}

	return itemMap, scope, nil
}

var httpMethods = map[string]struct{}{
	"get": {}, "put": {}, "post": {}, "delete": {},
	"options": {}, "head": {}, "patch": {}, "trace": {},
}

func isHTTPMethod(key string) bool {
	_, ok := httpMethods[key]
	return ok
}
