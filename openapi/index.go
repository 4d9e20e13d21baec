package openapi

import (
	"sync"

	"github.com/apiprobe/apiprobe/jsonpointer"
	"github.com/apiprobe/apiprobe/references"
)

// TraversalKey addresses an operation by the scope it was reached through
// plus its path and method.
type TraversalKey struct {
	ScopeDigest string
	Path        string
	Method      string
}

// Index is the operation lookup cache owned by a document: operations are
// addressable by operationId, by JSON-pointer-style reference and by
// traversal key. Populated during enumeration; safe for concurrent use.
type Index struct {
	mu    sync.Mutex
	byID  map[string]*Operation
	byRef map[jsonpointer.JSONPointer]*Operation
	byKey map[TraversalKey]*Operation
}

// NewIndex creates an empty operation index.
func NewIndex() *Index {
	return &Index{
		byID:  map[string]*Operation{},
		byRef: map[jsonpointer.JSONPointer]*Operation{},
		byKey: map[TraversalKey]*Operation{},
	}
}

// Add indexes the operation under all of its identities.
func (i *Index) Add(op *Operation) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if op.OperationID != "" {
		i.byID[op.OperationID] = op
	}
	i.byRef[op.Ref()] = op
	i.byKey[TraversalKey{Path: op.Path, Method: op.Method}] = op
}

// AddScoped additionally indexes the operation under the provided scope's
// traversal key.
func (i *Index) AddScoped(op *Operation, scope references.Scope) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.byKey[TraversalKey{ScopeDigest: scope.Digest(), Path: op.Path, Method: op.Method}] = op
}

// FindByID returns the operation with the given operationId.
func (i *Index) FindByID(id string) (*Operation, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()

	op, ok := i.byID[id]
	return op, ok
}

// FindByRef returns the operation addressed by a JSON-pointer-style
// reference such as /paths/~1users~1{id}/get. A leading #, as operationRef
// values carry, is tolerated.
func (i *Index) FindByRef(ref references.Reference) (*Operation, bool) {
	pointer := ref.GetJSONPointer()
	if pointer == "" {
		pointer = jsonpointer.JSONPointer(ref)
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	op, ok := i.byRef[pointer]
	return op, ok
}

// FindByKey returns the operation addressed by a traversal key.
func (i *Index) FindByKey(key TraversalKey) (*Operation, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()

	op, ok := i.byKey[key]
	return op, ok
}

// Len returns the number of operations indexed by reference.
func (i *Index) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.byRef)
}
