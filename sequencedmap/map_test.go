package sequencedmap_test

import (
	"encoding/json"
	"slices"
	"testing"

	"github.com/apiprobe/apiprobe/sequencedmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap_SetGet_Success(t *testing.T) {
	t.Parallel()

	m := sequencedmap.New[string, int]()
	m.Set("a", 1)
	m.Set("b", 2)
	m.Set("c", 3)

	v, ok := m.Get("b")
	require.True(t, ok)
	assert.Equal(t, 2, v)

	_, ok = m.Get("missing")
	assert.False(t, ok)

	assert.Equal(t, 3, m.Len())
	assert.Equal(t, 0, m.GetOrZero("missing"))
}

func TestMap_Set_PreservesPositionOnOverwrite(t *testing.T) {
	t.Parallel()

	m := sequencedmap.New[string, int]()
	m.Set("a", 1)
	m.Set("b", 2)
	m.Set("a", 10)

	assert.Equal(t, []string{"a", "b"}, slices.Collect(m.Keys()))
	assert.Equal(t, 10, m.GetOrZero("a"))
	assert.Equal(t, 2, m.Len())
}

func TestMap_Order_Success(t *testing.T) {
	t.Parallel()

	m := sequencedmap.New(
		sequencedmap.NewElem("z", 26),
		sequencedmap.NewElem("a", 1),
		sequencedmap.NewElem("m", 13),
	)

	assert.Equal(t, []string{"z", "a", "m"}, slices.Collect(m.Keys()))
	assert.Equal(t, []int{26, 1, 13}, slices.Collect(m.Values()))
}

func TestMap_Delete_Success(t *testing.T) {
	t.Parallel()

	m := sequencedmap.New[string, string]()
	m.Set("a", "1")
	m.Set("b", "2")
	m.Set("c", "3")

	m.Delete("b")

	assert.False(t, m.Has("b"))
	assert.Equal(t, []string{"a", "c"}, slices.Collect(m.Keys()))

	m.Delete("missing")
	assert.Equal(t, 2, m.Len())
}

func TestMap_DeleteDuringIteration_Success(t *testing.T) {
	t.Parallel()

	m := sequencedmap.New[string, int]()
	m.Set("a", 1)
	m.Set("b", 2)
	m.Set("c", 3)

	for k := range m.Keys() {
		if k == "b" {
			m.Delete("b")
		}
	}

	assert.Equal(t, []string{"a", "c"}, slices.Collect(m.Keys()))
}

func TestMap_NilSafety_Success(t *testing.T) {
	t.Parallel()

	var m *sequencedmap.Map[string, int]

	assert.Equal(t, 0, m.Len())
	assert.False(t, m.Has("a"))

	_, ok := m.Get("a")
	assert.False(t, ok)

	assert.Empty(t, slices.Collect(m.Keys()))
}

func TestMap_NavigateWithKey_Success(t *testing.T) {
	t.Parallel()

	m := sequencedmap.New[string, any]()
	m.Set("id", "abc")

	v, err := m.NavigateWithKey("id")
	require.NoError(t, err)
	assert.Equal(t, "abc", v)

	_, err = m.NavigateWithKey("missing")
	assert.Error(t, err)
}

func TestMap_MarshalJSON_Success(t *testing.T) {
	t.Parallel()

	m := sequencedmap.New[string, any]()
	m.Set("z", 1)
	m.Set("a", "x")
	m.Set("nested", sequencedmap.New(sequencedmap.NewElem[string, any]("k", true)))

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"z":1,"a":"x","nested":{"k":true}}`, string(data))
	// Insertion order must be preserved verbatim.
	assert.Equal(t, `{"z":1,"a":"x","nested":{"k":true}}`, string(data))
}

func TestFrom_Success(t *testing.T) {
	t.Parallel()

	src := sequencedmap.New[string, int]()
	src.Set("one", 1)
	src.Set("two", 2)

	dst := sequencedmap.From(src.All())
	assert.Equal(t, []string{"one", "two"}, slices.Collect(dst.Keys()))
}
