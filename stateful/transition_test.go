package stateful_test

import (
	"testing"

	"github.com/apiprobe/apiprobe/cases"
	"github.com/apiprobe/apiprobe/expression"
	"github.com/apiprobe/apiprobe/json"
	"github.com/apiprobe/apiprobe/links"
	"github.com/apiprobe/apiprobe/openapi"
	"github.com/apiprobe/apiprobe/sequencedmap"
	"github.com/apiprobe/apiprobe/stateful"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sourceResult(t *testing.T, body string) *stateful.StepResult {
	t.Helper()

	c := &cases.Case{
		ID:          "case-1",
		OperationID: "createUser",
		Method:      "post",
		Path:        "/users",
		Values:      sequencedmap.New[openapi.Location, *sequencedmap.Map[string, any]](),
		Body:        map[string]any{"name": "Ada"},
	}

	resp := jsonResponse(201, body)
	resp.Header.Set("X-Request-Id", "req-9")

	parsed, err := json.DecodeAny(resp.RawBody)
	require.NoError(t, err)
	resp.Body = parsed

	return &stateful.StepResult{Case: c, Response: resp}
}

func TestNewTransition_MixedExtractions(t *testing.T) {
	t.Parallel()

	link := &links.Link{
		Name:     "GetUserById",
		Source:   "createUser",
		Selector: "201",
		TargetID: "getUser",
		Parameters: []links.Extraction{
			{Container: openapi.LocationPath, Name: "user_id", Expr: "$response.body#/id"},
			{Name: "missing", Expr: "$response.body#/nope"},
			{Container: openapi.LocationHeader, Name: "X-Request-Id", Expr: "$response.header.X-Request-Id"},
		},
	}

	result := sourceResult(t, `{"id": "u1"}`)

	transition := stateful.NewTransition(link, result)
	require.Len(t, transition.Extractions, 3)
	assert.Equal(t, "case-1", transition.ParentCaseID)
	assert.False(t, transition.Failed())

	assert.Equal(t, "u1", transition.Extractions[0].Value)
	assert.NoError(t, transition.Extractions[0].Err)

	assert.ErrorIs(t, transition.Extractions[1].Err, expression.ErrExtraction)

	assert.Equal(t, "req-9", transition.Extractions[2].Value)
}

func TestTransition_ApplyTo_InfersContainer(t *testing.T) {
	t.Parallel()

	doc := loadUsersOps(t)
	get := doc["getUser"]

	link := &links.Link{
		Name:     "GetUserById",
		Source:   "createUser",
		Selector: "201",
		TargetID: "getUser",
		Parameters: []links.Extraction{
			// Unqualified name: the target declares user_id in the path.
			{Name: "user_id", Expr: "$response.body#/id"},
			{Name: "missing", Expr: "$response.body#/nope"},
		},
	}

	result := sourceResult(t, `{"id": "u7"}`)

	target := &cases.Case{
		Values: sequencedmap.New[openapi.Location, *sequencedmap.Map[string, any]](),
	}

	stateful.NewTransition(link, result).ApplyTo(target, get)

	pathValues := target.ValuesFor(openapi.LocationPath)
	require.NotNil(t, pathValues)
	assert.Equal(t, "u7", pathValues.GetOrZero("user_id"))
	assert.Nil(t, target.ValuesFor(openapi.LocationQuery), "failed extraction leaves nothing behind")
}

func TestTransition_ApplyTo_MergeBody(t *testing.T) {
	t.Parallel()

	doc := loadUsersOps(t)

	link := &links.Link{
		Name:        "RetryCreate",
		Source:      "createUser",
		Selector:    "201",
		TargetID:    "createUser",
		RequestBody: "$response.body",
		MergeBody:   true,
	}

	result := sourceResult(t, `{"id": "u1"}`)

	target := &cases.Case{
		Values: sequencedmap.New[openapi.Location, *sequencedmap.Map[string, any]](),
		Body:   map[string]any{"name": "Grace", "age": int64(30)},
	}

	stateful.NewTransition(link, result).ApplyTo(target, doc["createUser"])

	body, ok := target.Body.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "u1", body["id"], "extracted member lands")
	assert.Equal(t, "Grace", body["name"], "generated member survives the merge")
}

func TestTransition_Failed(t *testing.T) {
	t.Parallel()

	link := &links.Link{
		Name:     "Broken",
		Source:   "createUser",
		Selector: "201",
		TargetID: "getUser",
		Parameters: []links.Extraction{
			{Name: "user_id", Expr: "$response.body#/nope"},
		},
	}

	result := sourceResult(t, `{"id": "u1"}`)

	assert.True(t, stateful.NewTransition(link, result).Failed())
}

func TestBundles(t *testing.T) {
	t.Parallel()

	bundles := stateful.NewBundles()
	assert.Equal(t, 0, bundles.For("createUser").Len())

	result := sourceResult(t, `{"id": "u1"}`)
	bundles.For("createUser").Append(result)
	bundles.For("createUser").Append(result)

	require.Equal(t, 2, bundles.For("createUser").Len())
	assert.Same(t, result, bundles.For("createUser").Results()[0])

	bundles.Reset()
	assert.Equal(t, 0, bundles.For("createUser").Len())
}

func loadUsersOps(t *testing.T) map[string]*openapi.Operation {
	t.Helper()

	doc, err := openapi.Parse([]byte(usersLinkSpec))
	require.NoError(t, err)

	ops := map[string]*openapi.Operation{}
	for op, err := range doc.Operations(t.Context()) {
		require.NoError(t, err)
		ops[op.ID()] = op
	}
	return ops
}
