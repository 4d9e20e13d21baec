// Package hashing produces stable digests of generic document trees. Digests
// key the reference-resolution and validator caches, so two structurally
// identical subtrees must always hash the same.
package hashing

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"

	"github.com/apiprobe/apiprobe/sequencedmap"
)

// Hash returns a 16 character hex digest of the provided value. Supported
// inputs are generic document trees (*sequencedmap.Map[string, any], []any and
// scalars), strings and slices of strings.
func Hash(v any) string {
	hasher := fnv.New64a()
	_, _ = hasher.Write([]byte(toHashableString(v)))
	return formatHash(hasher.Sum64())
}

// formatHash converts a uint64 hash to a zero-padded 16-character hex string
// without the allocation overhead of fmt.Sprintf.
func formatHash(h uint64) string {
	const hexDigits = "0123456789abcdef"
	var buf [16]byte
	for i := 15; i >= 0; i-- {
		buf[i] = hexDigits[h&0xf]
		h >>= 4
	}
	return string(buf[:])
}

func toHashableString(v any) string {
	if v == nil {
		return "~null~"
	}

	var builder strings.Builder

	switch t := v.(type) {
	case *sequencedmap.Map[string, any]:
		// Key order is semantic in document trees, so it participates in the
		// digest as-is.
		builder.WriteString("{")
		for k, val := range t.All() {
			builder.WriteString(k)
			builder.WriteString(":")
			builder.WriteString(toHashableString(val))
		}
		builder.WriteString("}")
	case []any:
		builder.WriteString("[")
		for _, val := range t {
			builder.WriteString(toHashableString(val))
		}
		builder.WriteString("]")
	case []string:
		builder.WriteString("[")
		for _, val := range t {
			builder.WriteString(val)
			builder.WriteString(",")
		}
		builder.WriteString("]")
	// Scalars carry a kind tag so values that render identically in different
	// types, such as "42" and 42, never collide.
	case string:
		builder.WriteString("s:")
		builder.WriteString(t)
	case int:
		builder.WriteString("i:")
		builder.WriteString(strconv.Itoa(t))
	case int64:
		builder.WriteString("i:")
		builder.WriteString(strconv.FormatInt(t, 10))
	case uint64:
		builder.WriteString("i:")
		builder.WriteString(strconv.FormatUint(t, 10))
	case float64:
		builder.WriteString("f:")
		builder.WriteString(strconv.FormatFloat(t, 'f', -1, 64))
	case bool:
		builder.WriteString("b:")
		builder.WriteString(strconv.FormatBool(t))
	default:
		builder.WriteString(fmt.Sprintf("?:%v", t))
	}

	return builder.String()
}
