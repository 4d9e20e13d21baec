package sampler

import (
	"fmt"
	"math"
	"math/rand/v2"
	"regexp"
	"strings"

	"github.com/apiprobe/apiprobe/jsonschema"
	"github.com/apiprobe/apiprobe/sequencedmap"
)

// sample draws one candidate value from the schema's structure. Constraints
// it cannot honor directly are left to the caller's rejection filter.
func sample(s jsonschema.Schema, rng *rand.Rand, depth int) any {
	if b, ok := s.Bool(); ok {
		if !b {
			return nil
		}
		return sampleScalar(rng)
	}

	if !s.IsMap() || depth > maxSampleDepth {
		return sampleScalar(rng)
	}

	if v, ok := s.Get("const"); ok {
		return jsonschema.Plain(v)
	}

	if v, ok := s.Get("enum"); ok {
		if options, ok := v.([]any); ok && len(options) > 0 {
			return jsonschema.Plain(options[rng.IntN(len(options))])
		}
	}

	if branch, ok := combinatorBranch(s, rng); ok {
		return sample(branch, rng, depth+1)
	}

	return sampleTyped(s, pickType(s, rng), rng, depth)
}

func combinatorBranch(s jsonschema.Schema, rng *rand.Rand) (jsonschema.Schema, bool) {
	if branches, ok := s.GetOrZero("allOf").([]any); ok && len(branches) > 0 {
		return jsonschema.New(mergeBranches(branches)), true
	}

	for _, combinator := range []string{"anyOf", "oneOf"} {
		if branches, ok := s.GetOrZero(combinator).([]any); ok && len(branches) > 0 {
			return jsonschema.New(branches[rng.IntN(len(branches))]), true
		}
	}

	return jsonschema.Schema{}, false
}

// mergeBranches shallow-merges allOf branches, later keywords winning.
// Conflicting keyword combinations fall to the rejection filter.
func mergeBranches(branches []any) *sequencedmap.Map[string, any] {
	merged := sequencedmap.New[string, any]()
	for _, branch := range branches {
		if m, ok := branch.(*sequencedmap.Map[string, any]); ok {
			for k, v := range m.All() {
				merged.Set(k, v)
			}
		}
	}
	return merged
}

func pickType(s jsonschema.Schema, rng *rand.Rand) jsonschema.SchemaType {
	declared := s.Types()
	if len(declared) > 0 {
		return declared[rng.IntN(len(declared))]
	}

	// Schemas mutated into {not: ...} shape declare no type; draw one at
	// random so rejection can find disagreeing shapes.
	if s.Has("not") {
		all := jsonschema.AllTypes()
		return all[rng.IntN(len(all))]
	}

	switch {
	case s.Has("properties") || s.Has("required") || s.Has("additionalProperties"):
		return jsonschema.SchemaTypeObject
	case s.Has("items") || s.Has("minItems") || s.Has("maxItems"):
		return jsonschema.SchemaTypeArray
	case s.Has("minLength") || s.Has("maxLength") || s.Has("pattern") || s.Has("format"):
		return jsonschema.SchemaTypeString
	case s.Has("minimum") || s.Has("maximum") || s.Has("exclusiveMinimum") || s.Has("exclusiveMaximum") || s.Has("multipleOf"):
		return jsonschema.SchemaTypeNumber
	default:
		all := jsonschema.AllTypes()
		return all[rng.IntN(len(all))]
	}
}

func sampleTyped(s jsonschema.Schema, t jsonschema.SchemaType, rng *rand.Rand, depth int) any {
	switch t {
	case jsonschema.SchemaTypeString:
		return sampleString(s, rng)
	case jsonschema.SchemaTypeInteger:
		return int64(sampleNumber(s, rng))
	case jsonschema.SchemaTypeNumber:
		return sampleNumber(s, rng)
	case jsonschema.SchemaTypeBoolean:
		return rng.IntN(2) == 0
	case jsonschema.SchemaTypeArray:
		return sampleArray(s, rng, depth)
	case jsonschema.SchemaTypeObject:
		return sampleObject(s, rng, depth)
	default:
		return nil
	}
}

const letters = "abcdefghijklmnopqrstuvwxyz"

func randomString(rng *rand.Rand, length int) string {
	var sb strings.Builder
	for i := 0; i < length; i++ {
		sb.WriteByte(letters[rng.IntN(len(letters))])
	}
	return sb.String()
}

func sampleString(s jsonschema.Schema, rng *rand.Rand) string {
	if format, ok := s.GetOrZero("format").(string); ok {
		if v, ok := sampleFormat(format, rng); ok {
			return v
		}
	}

	if pattern, ok := s.GetOrZero("pattern").(string); ok {
		if v, ok := samplePattern(pattern, rng); ok {
			return v
		}
	}

	minLength := intKeyword(s, "minLength", 0)
	maxLength := intKeyword(s, "maxLength", minLength+10)
	if maxLength < minLength {
		maxLength = minLength
	}

	return randomString(rng, minLength+rng.IntN(maxLength-minLength+1))
}

func sampleFormat(format string, rng *rand.Rand) (string, bool) {
	switch format {
	case "uuid":
		return fmt.Sprintf("%08x-%04x-4%03x-%04x-%012x",
			rng.Uint32(), rng.IntN(0x10000), rng.IntN(0x1000),
			0x8000|rng.IntN(0x4000), rng.Int64N(1<<48)), true
	case "date":
		return fmt.Sprintf("%04d-%02d-%02d", 1970+rng.IntN(60), 1+rng.IntN(12), 1+rng.IntN(28)), true
	case "date-time":
		return fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:%02dZ",
			1970+rng.IntN(60), 1+rng.IntN(12), 1+rng.IntN(28),
			rng.IntN(24), rng.IntN(60), rng.IntN(60)), true
	case "email":
		return randomString(rng, 5) + "@example.com", true
	case "uri", "url":
		return "https://example.com/" + randomString(rng, 6), true
	case "ipv4":
		return fmt.Sprintf("%d.%d.%d.%d", 1+rng.IntN(223), rng.IntN(256), rng.IntN(256), 1+rng.IntN(254)), true
	case "binary", "byte":
		return randomString(rng, 8), true
	default:
		return "", false
	}
}

var literalPattern = regexp.MustCompile(`^\^?[a-zA-Z0-9 _-]+\$?$`)

// samplePattern handles the literal subset of regular expressions; anything
// richer is left to rejection sampling.
func samplePattern(pattern string, rng *rand.Rand) (string, bool) {
	if literalPattern.MatchString(pattern) {
		return strings.TrimSuffix(strings.TrimPrefix(pattern, "^"), "$"), true
	}
	return "", false
}

func sampleNumber(s jsonschema.Schema, rng *rand.Rand) float64 {
	lo, hi := -1000.0, 1000.0

	if v, ok := floatKeyword(s, "minimum"); ok {
		lo = v
	}
	if v, ok := floatKeyword(s, "exclusiveMinimum"); ok {
		lo = v + 1
	}
	if v, ok := floatKeyword(s, "maximum"); ok {
		hi = v
	}
	if v, ok := floatKeyword(s, "exclusiveMaximum"); ok {
		hi = v - 1
	}
	if hi < lo {
		hi = lo
	}

	n := lo + rng.Float64()*(hi-lo)

	if v, ok := floatKeyword(s, "multipleOf"); ok && v != 0 {
		n = math.Round(n/v) * v
		if n < lo {
			n += v
		}
		return n
	}

	return math.Round(n)
}

func sampleArray(s jsonschema.Schema, rng *rand.Rand, depth int) []any {
	minItems := intKeyword(s, "minItems", 0)
	maxItems := intKeyword(s, "maxItems", minItems+3)
	if maxItems < minItems {
		maxItems = minItems
	}

	count := minItems + rng.IntN(maxItems-minItems+1)
	items := jsonschema.New(s.GetOrZero("items"))

	result := make([]any, 0, count)
	for i := 0; i < count; i++ {
		if items.Node() == nil {
			result = append(result, sampleScalar(rng))
			continue
		}
		result = append(result, sample(items, rng, depth+1))
	}

	return result
}

func sampleObject(s jsonschema.Schema, rng *rand.Rand, depth int) map[string]any {
	result := map[string]any{}

	required := map[string]bool{}
	for _, name := range s.Required() {
		required[name] = true
	}

	if properties := s.Properties(); properties != nil {
		for name, property := range properties.All() {
			if !required[name] && rng.IntN(2) == 0 {
				continue
			}
			result[name] = sample(jsonschema.New(property), rng, depth+1)
		}
	}

	// Required names without a declared property still need a value.
	for name := range required {
		if _, ok := result[name]; !ok {
			result[name] = sampleScalar(rng)
		}
	}

	// When additionalProperties is open and a not is in play, extra members
	// help the rejection filter find disagreeing instances.
	if ap, ok := s.Get("additionalProperties"); (!ok || ap != false) && s.Has("not") && rng.IntN(2) == 0 {
		result[randomString(rng, 6)] = sampleScalar(rng)
	}

	return result
}

func sampleScalar(rng *rand.Rand) any {
	switch rng.IntN(4) {
	case 0:
		return randomString(rng, 1+rng.IntN(8))
	case 1:
		return int64(rng.IntN(2000) - 1000)
	case 2:
		return rng.IntN(2) == 0
	default:
		return math.Round(rng.Float64()*2000-1000) / 4
	}
}

func intKeyword(s jsonschema.Schema, keyword string, fallback int) int {
	switch v := s.GetOrZero(keyword).(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return fallback
	}
}

func floatKeyword(s jsonschema.Schema, keyword string) (float64, bool) {
	switch v := s.GetOrZero(keyword).(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}
