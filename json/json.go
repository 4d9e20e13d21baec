// Package json provides conversions between YAML documents, the generic
// document trees the engine operates on, and stable JSON output.
//
// A generic tree is built from *sequencedmap.Map[string, any] for mappings,
// []any for sequences and plain Go scalars for everything else, so document
// key order survives every transformation.
package json

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/apiprobe/apiprobe/sequencedmap"
	"gopkg.in/yaml.v3"
)

// NodeToAny converts the provided YAML node to a generic tree.
func NodeToAny(node *yaml.Node) (any, error) {
	// An empty document leaves the node at its zero kind.
	if node == nil || node.Kind == 0 {
		return nil, nil
	}

	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil, nil
		}
		return NodeToAny(node.Content[0])
	case yaml.SequenceNode:
		return handleSequenceNode(node)
	case yaml.MappingNode:
		return handleMappingNode(node)
	case yaml.ScalarNode:
		return handleScalarNode(node)
	case yaml.AliasNode:
		return NodeToAny(node.Alias)
	default:
		return nil, fmt.Errorf("unknown node kind: %d", node.Kind)
	}
}

// DecodeAny parses JSON or YAML bytes into a generic tree.
func DecodeAny(data []byte) (any, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}

	return NodeToAny(&node)
}

// EncodeAny writes the generic tree as JSON, keys in insertion order.
func EncodeAny(v any, indentation int, buffer io.Writer) error {
	e := json.NewEncoder(buffer)
	e.SetIndent("", strings.Repeat(" ", indentation))

	return e.Encode(v)
}

// CloneAny deep copies a generic tree. Scalars are shared as they are
// immutable; maps and sequences are copied recursively.
func CloneAny(v any) any {
	switch t := v.(type) {
	case *sequencedmap.Map[string, any]:
		if t == nil {
			return (*sequencedmap.Map[string, any])(nil)
		}
		c := sequencedmap.NewWithCapacity[string, any](t.Len())
		for k, val := range t.All() {
			c.Set(k, CloneAny(val))
		}
		return c
	case []any:
		if t == nil {
			return []any(nil)
		}
		c := make([]any, len(t))
		for i, val := range t {
			c[i] = CloneAny(val)
		}
		return c
	default:
		return v
	}
}

func handleMappingNode(node *yaml.Node) (any, error) {
	v := sequencedmap.NewWithCapacity[string, any](len(node.Content) / 2)
	for i := 1; i < len(node.Content); i += 2 {
		keyNode := node.Content[i-1]
		kv, err := NodeToAny(keyNode)
		if err != nil {
			return nil, err
		}

		vv, err := NodeToAny(node.Content[i])
		if err != nil {
			return nil, err
		}

		v.Set(fmt.Sprintf("%v", kv), vv)
	}

	return v, nil
}

func handleSequenceNode(node *yaml.Node) (any, error) {
	v := make([]any, len(node.Content))
	for i, n := range node.Content {
		vv, err := NodeToAny(n)
		if err != nil {
			return nil, err
		}

		v[i] = vv
	}

	return v, nil
}

func handleScalarNode(node *yaml.Node) (any, error) {
	// Timestamp scalars stay strings, matching what the JSON form of the
	// document would have carried.
	if node.Tag == "!!timestamp" {
		return node.Value, nil
	}

	var v any
	if err := node.Decode(&v); err != nil {
		return nil, err
	}

	return v, nil
}
