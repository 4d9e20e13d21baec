package references

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"

	"github.com/apiprobe/apiprobe/errors"
	"github.com/apiprobe/apiprobe/json"
	"github.com/apiprobe/apiprobe/jsonpointer"
	"github.com/apiprobe/apiprobe/sequencedmap"
	"github.com/apiprobe/apiprobe/system"
)

const (
	// ErrUnresolvable is returned when a reference target cannot be found.
	ErrUnresolvable = errors.Error("unable to resolve reference")
	// ErrInvalidReference is returned when a $ref value is malformed.
	ErrInvalidReference = errors.Error("invalid reference")
)

// DefaultMaxDepth bounds reference recursion before the pruning fallback
// takes over, keeping self-referential schemas generable without infinite
// expansion.
const DefaultMaxDepth = 100

// Resolver fully inlines $ref pointers over generic document trees. The root
// document is never mutated; every resolution returns an independent subtree.
// Safe for concurrent use.
type Resolver struct {
	root         any
	rootLocation string
	fs           system.VirtualFS
	client       system.Client
	maxDepth     int
	cache        *Cache
	documents    *DocumentCache
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithRootLocation sets the location the root document was loaded from,
// used as the base URI for relative external references.
func WithRootLocation(location string) Option {
	return func(r *Resolver) {
		r.rootLocation = location
	}
}

// WithVirtualFS sets the file system file based references are loaded through.
func WithVirtualFS(fs system.VirtualFS) Option {
	return func(r *Resolver) {
		r.fs = fs
	}
}

// WithHTTPClient sets the client url based references are loaded through.
func WithHTTPClient(client system.Client) Option {
	return func(r *Resolver) {
		r.client = client
	}
}

// WithMaxDepth overrides the recursion depth limit.
func WithMaxDepth(depth int) Option {
	return func(r *Resolver) {
		r.maxDepth = depth
	}
}

// WithDocumentCache sets the external document cache, letting several
// resolvers share fetched documents.
func WithDocumentCache(cache *DocumentCache) Option {
	return func(r *Resolver) {
		r.documents = cache
	}
}

// NewResolver creates a resolver over the provided root document tree.
func NewResolver(root any, opts ...Option) *Resolver {
	r := &Resolver{
		root:         root,
		rootLocation: "document.yaml",
		fs:           &system.FileSystem{},
		client:       http.DefaultClient,
		maxDepth:     DefaultMaxDepth,
		cache:        NewCache(),
		documents:    NewDocumentCache(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Root returns the root document tree.
func (r *Resolver) Root() any {
	return r.root
}

// RootScope returns a scope rooted at the root document's location.
func (r *Resolver) RootScope() Scope {
	return NewScope(r.rootLocation)
}

// Cache returns the resolver's reference cache.
func (r *Resolver) Cache() *Cache {
	return r.cache
}

// Inline resolves the pointer within the document the scope currently
// addresses and returns a fully inlined, independent copy of the target with
// every $ref replaced by its resolved content.
func (r *Resolver) Inline(ctx context.Context, pointer jsonpointer.JSONPointer, scope Scope) (any, error) {
	doc, err := r.documentFor(ctx, scope.Current())
	if err != nil {
		return nil, err
	}

	target := doc
	if pointer != "" && pointer != "/" {
		target, err = jsonpointer.GetTarget(doc, pointer)
		if err != nil {
			return nil, ErrUnresolvable.Wrap(fmt.Errorf("pointer %s: %w", pointer, err))
		}
	}

	// The target itself occupies the first level, so its expansion starts at
	// depth 1 and the inlined tree never exceeds maxDepth levels.
	return r.inlineAny(ctx, json.CloneAny(target), scope, 1)
}

// InlineValue fully inlines any $refs within an already extracted subtree.
func (r *Resolver) InlineValue(ctx context.Context, value any, scope Scope) (any, error) {
	return r.inlineAny(ctx, json.CloneAny(value), scope, 1)
}

func (r *Resolver) inlineAny(ctx context.Context, v any, scope Scope, depth int) (any, error) {
	switch t := v.(type) {
	case *sequencedmap.Map[string, any]:
		if refValue, ok := t.Get("$ref"); ok {
			if refString, ok := refValue.(string); ok {
				return r.inlineRef(ctx, Reference(refString), scope, depth)
			}
		}

		for key, value := range t.All() {
			inlined, err := r.inlineAny(ctx, value, scope, depth)
			if err != nil {
				return nil, err
			}
			t.Set(key, inlined)
		}

		return t, nil
	case []any:
		for i, value := range t {
			inlined, err := r.inlineAny(ctx, value, scope, depth)
			if err != nil {
				return nil, err
			}
			t[i] = inlined
		}

		return t, nil
	default:
		return v, nil
	}
}

func (r *Resolver) inlineRef(ctx context.Context, ref Reference, scope Scope, depth int) (any, error) {
	if err := ref.Validate(); err != nil {
		return nil, ErrInvalidReference.Wrap(err)
	}

	if depth >= r.maxDepth {
		// The fallback keeps otherwise-recursive schemas generable: resolve
		// the raw target once more, prune its optional reference-bearing
		// parts and collapse whatever references remain instead of recursing.
		raw, _, err := r.fetchRef(ctx, ref, scope)
		if err != nil {
			return nil, err
		}

		return stripRemainingRefs(pruneOptionalRefs(json.CloneAny(raw))), nil
	}

	// Non-local references are rewritten under a scope-chain digest key so
	// shared definitions reached from many places resolve once.
	cacheable := !ref.IsLocal()
	if cacheable {
		if cached, ok := r.cache.Load(scope.Digest(), ref); ok {
			return cached, nil
		}
	}

	raw, refScope, err := r.fetchRef(ctx, ref, scope)
	if err != nil {
		return nil, err
	}

	inlined, err := r.inlineAny(ctx, json.CloneAny(raw), refScope, depth+1)
	if err != nil {
		return nil, err
	}

	if cacheable {
		return r.cache.Store(scope.Digest(), ref, inlined), nil
	}

	return inlined, nil
}

// fetchRef returns the raw (not yet inlined) target of the reference along
// with the scope its own references must resolve in.
func (r *Resolver) fetchRef(ctx context.Context, ref Reference, scope Scope) (any, Scope, error) {
	doc := any(nil)
	refScope := scope

	if uri := ref.GetURI(); uri != "" {
		absolute, err := resolveAbsolute(uri, scope.Current())
		if err != nil {
			return nil, nil, ErrInvalidReference.Wrap(fmt.Errorf("reference %s: %w", ref, err))
		}

		doc, err = r.loadDocument(ctx, absolute)
		if err != nil {
			return nil, nil, err
		}

		refScope = scope.Push(absolute)
	} else {
		var err error
		doc, err = r.documentFor(ctx, scope.Current())
		if err != nil {
			return nil, nil, err
		}
	}

	pointer := ref.GetJSONPointer()
	if pointer == "" || pointer == "/" {
		return doc, refScope, nil
	}

	target, err := jsonpointer.GetTarget(doc, pointer)
	if err != nil {
		return nil, nil, ErrUnresolvable.Wrap(fmt.Errorf("reference %s: %w", ref, err))
	}

	return target, refScope, nil
}

// documentFor returns the document the provided base URI addresses: the root
// document for the root location, a loaded external document otherwise.
func (r *Resolver) documentFor(ctx context.Context, location string) (any, error) {
	if location == "" || location == r.rootLocation {
		return r.root, nil
	}

	return r.loadDocument(ctx, location)
}

func (r *Resolver) loadDocument(ctx context.Context, location string) (any, error) {
	if doc, ok := r.documents.load(location); ok {
		return doc, nil
	}

	data, err := r.fetch(ctx, location)
	if err != nil {
		return nil, ErrUnresolvable.Wrap(fmt.Errorf("document %s: %w", location, err))
	}

	doc, err := json.DecodeAny(data)
	if err != nil {
		return nil, ErrUnresolvable.Wrap(fmt.Errorf("document %s: %w", location, err))
	}

	return r.documents.store(location, doc), nil
}

func (r *Resolver) fetch(ctx context.Context, location string) ([]byte, error) {
	if isURL(location) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
		if err != nil {
			return nil, err
		}

		resp, err := r.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %d fetching document", resp.StatusCode)
		}

		return io.ReadAll(resp.Body)
	}

	f, err := r.fs.Open(location)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(f)
}

func isURL(location string) bool {
	u, err := url.Parse(location)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https")
}

// resolveAbsolute joins a reference URI with the base URI it was found under.
// Absolute URLs and absolute file paths pass through untouched.
func resolveAbsolute(uri, base string) (string, error) {
	if isURL(uri) || filepath.IsAbs(uri) {
		return uri, nil
	}

	if isURL(base) {
		baseURL, err := url.Parse(base)
		if err != nil {
			return "", err
		}

		relative, err := url.Parse(uri)
		if err != nil {
			return "", err
		}

		return baseURL.ResolveReference(relative).String(), nil
	}

	return filepath.Join(filepath.Dir(base), uri), nil
}
