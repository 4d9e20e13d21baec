package mutation_test

import (
	"math/rand/v2"
	"testing"

	"github.com/apiprobe/apiprobe/json"
	"github.com/apiprobe/apiprobe/jsonschema"
	"github.com/apiprobe/apiprobe/mutation"
	"github.com/apiprobe/apiprobe/openapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func schemaOf(t *testing.T, doc string) jsonschema.Schema {
	t.Helper()

	v, err := json.DecodeAny([]byte(doc))
	require.NoError(t, err)
	return jsonschema.New(v)
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, 0))
}

func TestApply_CatalogOrder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want mutation.Mutation
	}{
		{
			name: "object with mutable properties prefers change_properties",
			in:   `{"type": "object", "properties": {"id": {"type": "integer"}}, "required": ["id"]}`,
			want: mutation.MutationChangeProperties,
		},
		{
			name: "object with unconstrained properties negates its constraints",
			in:   `{"type": "object", "properties": {"free": {}}, "required": ["free"]}`,
			want: mutation.MutationNegateConstraints,
		},
		{
			name: "bare object type changes type",
			in:   `{"type": "object"}`,
			want: mutation.MutationChangeSchemaType,
		},
		{
			name: "string with constraints negates them",
			in:   `{"type": "string", "minLength": 3}`,
			want: mutation.MutationNegateConstraints,
		},
		{
			name: "bare string changes type",
			in:   `{"type": "string"}`,
			want: mutation.MutationChangeSchemaType,
		},
		{
			name: "typeless constraint negates its constraints",
			in:   `{"minLength": 3}`,
			want: mutation.MutationNegateConstraints,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := mutation.NewContext(schemaOf(t, tt.in), openapi.LocationQuery, "", newRand(7))

			got, ok := mutation.Apply(c)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApply_NotMutable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   any
	}{
		{name: "true schema", in: true},
		{name: "empty object schema", in: schemaOf(t, `{}`).Node()},
		{name: "annotations only", in: schemaOf(t, `{"title": "anything"}`).Node()},
		{name: "all types declared", in: schemaOf(t, `{"type": ["string", "number", "integer", "boolean", "object", "array", "null"]}`).Node()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := mutation.NewContext(jsonschema.New(tt.in), openapi.LocationQuery, "", newRand(1))

			_, ok := mutation.Apply(c)
			assert.False(t, ok)
		})
	}
}

func TestApply_OriginalLeftUntouched(t *testing.T) {
	t.Parallel()

	original := schemaOf(t, `{"type": "string", "minLength": 3}`)
	c := mutation.NewContext(original, openapi.LocationHeader, "", newRand(3))

	_, ok := mutation.Apply(c)
	require.True(t, ok)

	assert.Equal(t, 3, original.GetOrZero("minLength"))
	assert.False(t, original.Has("not"))
	assert.True(t, c.Schema.Has("not") || c.Schema.GetOrZero("type") != "string")
}

func TestApply_MutatedSchemaDisagreesWithOriginal(t *testing.T) {
	t.Parallel()

	// Instances chosen to satisfy the mutated schema must fail the original.
	tests := []struct {
		name     string
		in       string
		instance func(t *testing.T, mutated jsonschema.Schema) any
	}{
		{
			name: "negated string constraints",
			in:   `{"type": "string", "minLength": 3}`,
			instance: func(t *testing.T, mutated jsonschema.Schema) any {
				return "x"
			},
		},
		{
			name: "changed type",
			in:   `{"type": "string"}`,
			instance: func(t *testing.T, mutated jsonschema.Schema) any {
				switch jsonschema.SchemaType(mutated.GetOrZero("type").(string)) {
				case jsonschema.SchemaTypeNumber, jsonschema.SchemaTypeInteger:
					return 1
				case jsonschema.SchemaTypeBoolean:
					return true
				case jsonschema.SchemaTypeObject:
					return map[string]any{}
				case jsonschema.SchemaTypeArray:
					return []any{}
				default:
					return nil
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			original := schemaOf(t, tt.in)
			c := mutation.NewContext(original, openapi.LocationQuery, "", newRand(11))

			_, ok := mutation.Apply(c)
			require.True(t, ok)

			validator, err := jsonschema.Compile(original)
			require.NoError(t, err)
			mutatedValidator, err := jsonschema.Compile(c.Schema)
			require.NoError(t, err)

			instance := tt.instance(t, c.Schema)
			assert.True(t, mutatedValidator.IsValid(instance))
			assert.False(t, validator.IsValid(instance))
		})
	}
}

func TestApply_ChangeProperties_RequiresMutatedProperty(t *testing.T) {
	t.Parallel()

	original := schemaOf(t, `{"type": "object", "properties": {"id": {"type": "integer"}}}`)
	c := mutation.NewContext(original, openapi.LocationBody, "application/json", newRand(5))

	got, ok := mutation.Apply(c)
	require.True(t, ok)
	require.Equal(t, mutation.MutationChangeProperties, got)

	assert.Contains(t, c.Schema.Required(), "id")
	assert.Empty(t, original.Required())
}

func TestCatalog_ShapeSelection(t *testing.T) {
	t.Parallel()

	object := mutation.Catalog(schemaOf(t, `{"type": "object"}`))
	require.Len(t, object, 5)
	assert.Equal(t, mutation.MutationChangeProperties, object[0])
	assert.Equal(t, mutation.MutationNegateSchema, object[4])

	scalar := mutation.Catalog(schemaOf(t, `{"type": "integer"}`))
	require.Len(t, scalar, 3)
	assert.Equal(t, mutation.MutationNegateConstraints, scalar[0])

	implicitObject := mutation.Catalog(schemaOf(t, `{"properties": {"a": {}}}`))
	assert.Len(t, implicitObject, 5)
}
