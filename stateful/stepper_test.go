package stateful_test

import (
	"context"
	"math/rand/v2"
	"net/http"
	"testing"

	"github.com/apiprobe/apiprobe/cases"
	"github.com/apiprobe/apiprobe/links"
	"github.com/apiprobe/apiprobe/openapi"
	"github.com/apiprobe/apiprobe/sampler"
	"github.com/apiprobe/apiprobe/stateful"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const usersLinkSpec = `
openapi: 3.0.3
info:
  title: Users API
  version: 1.0.0
paths:
  /users:
    post:
      operationId: createUser
      requestBody:
        required: true
        content:
          application/json:
            schema:
              type: object
              properties:
                name:
                  type: string
                  minLength: 1
              required: [name]
      responses:
        '201':
          description: created
          content:
            application/json:
              schema:
                type: object
                properties:
                  id:
                    type: string
                required: [id]
          links:
            GetUserById:
              operationId: getUser
              parameters:
                user_id: $response.body#/id
  /users/{user_id}:
    get:
      operationId: getUser
      parameters:
        - name: user_id
          in: path
          schema:
            type: string
      responses:
        '200':
          description: ok
          content:
            application/json:
              schema:
                type: object
                properties:
                  id:
                    type: string
                  name:
                    type: string
                required: [name]
`

type scriptedTransport struct {
	responses map[string]*stateful.Response
	sent      []*cases.Case
}

func (st *scriptedTransport) Send(_ context.Context, c *cases.Case) (*stateful.Response, error) {
	st.sent = append(st.sent, c)

	r, ok := st.responses[c.OperationID]
	if !ok {
		return &stateful.Response{StatusCode: 500, Header: http.Header{}}, nil
	}

	return &stateful.Response{
		StatusCode: r.StatusCode,
		Header:     r.Header,
		RawBody:    append([]byte(nil), r.RawBody...),
	}, nil
}

func jsonResponse(status int, body string) *stateful.Response {
	return &stateful.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		RawBody:    []byte(body),
	}
}

func newStepper(t *testing.T, spec string, transport stateful.Transport, opts ...stateful.StepperOption) (*stateful.Stepper, map[string]*openapi.Operation) {
	t.Helper()

	doc, err := openapi.Parse([]byte(spec))
	require.NoError(t, err)

	var ops []*openapi.Operation
	byID := map[string]*openapi.Operation{}
	for op, err := range doc.Operations(t.Context()) {
		require.NoError(t, err)
		ops = append(ops, op)
		byID[op.ID()] = op
	}

	idx, err := links.Build(ops)
	require.NoError(t, err)

	return stateful.NewStepper(ops, idx, cases.NewBuilder(sampler.New()), transport, opts...), byID
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, 0))
}

func TestStepper_Run_EndToEnd(t *testing.T) {
	t.Parallel()

	transport := &scriptedTransport{responses: map[string]*stateful.Response{
		"createUser": jsonResponse(201, `{"id": "u1"}`),
		"getUser":    jsonResponse(200, `{"name": "Ada"}`),
	}}

	stepper, ops := newStepper(t, usersLinkSpec, transport)

	scenario, err := stepper.Run(t.Context(), ops["createUser"], 2, newRand(1))
	require.NoError(t, err)
	require.Len(t, scenario.Steps, 2)
	assert.False(t, scenario.Failed())

	first := scenario.Steps[0]
	assert.Equal(t, "createUser", first.Case.OperationID)
	assert.Equal(t, 201, first.Response.StatusCode)

	second := scenario.Steps[1]
	assert.Equal(t, "getUser", second.Case.OperationID)

	pathValues := second.Case.ValuesFor(openapi.LocationPath)
	require.NotNil(t, pathValues)
	assert.Equal(t, "u1", pathValues.GetOrZero("user_id"))
}

func TestStepper_Run_TooShort(t *testing.T) {
	t.Parallel()

	stepper, ops := newStepper(t, usersLinkSpec, &scriptedTransport{})

	_, err := stepper.Run(t.Context(), ops["createUser"], 1, newRand(1))
	require.ErrorIs(t, err, stateful.ErrScenarioTooShort)
}

func TestStepper_Run_Cancelled(t *testing.T) {
	t.Parallel()

	stepper, ops := newStepper(t, usersLinkSpec, &scriptedTransport{})

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	scenario, err := stepper.Run(ctx, ops["createUser"], 2, newRand(1))
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, scenario.Steps)
}

func TestStepper_Run_ConformanceFailure(t *testing.T) {
	t.Parallel()

	transport := &scriptedTransport{responses: map[string]*stateful.Response{
		// id must be a string per the declared 201 schema.
		"createUser": jsonResponse(201, `{"id": 42}`),
		"getUser":    jsonResponse(200, `{"name": "Ada"}`),
	}}

	stepper, ops := newStepper(t, usersLinkSpec, transport)

	scenario, err := stepper.Run(t.Context(), ops["createUser"], 2, newRand(1))
	require.NoError(t, err)
	require.True(t, scenario.Failed())

	first := scenario.Steps[0]
	require.Len(t, first.CheckFailures, 1)
	assert.Equal(t, "201", first.CheckFailures[0].Selector)
	assert.ErrorIs(t, first.CheckFailures[0].Err, stateful.ErrConformance)
}

func TestStepper_Run_UndeclaredStatus(t *testing.T) {
	t.Parallel()

	transport := &scriptedTransport{responses: map[string]*stateful.Response{
		"createUser": jsonResponse(502, `{"error": "bad gateway"}`),
	}}

	stepper, ops := newStepper(t, usersLinkSpec, transport)

	scenario, err := stepper.Run(t.Context(), ops["createUser"], 2, newRand(1))
	require.NoError(t, err)
	require.NotEmpty(t, scenario.Steps[0].CheckFailures)
	assert.ErrorIs(t, scenario.Steps[0].CheckFailures[0].Err, stateful.ErrConformance)
}

func TestStepper_Run_Criteria(t *testing.T) {
	t.Parallel()

	transport := &scriptedTransport{responses: map[string]*stateful.Response{
		"createUser": jsonResponse(201, `{"id": "u1"}`),
		"getUser":    jsonResponse(200, `{"name": "Ada"}`),
	}}

	stepper, ops := newStepper(t, usersLinkSpec, transport, stateful.WithCriteria(stateful.Criterion{
		Condition: "$statusCode == 204",
	}))

	scenario, err := stepper.Run(t.Context(), ops["createUser"], 2, newRand(1))
	require.NoError(t, err)
	require.True(t, scenario.Failed())

	for _, step := range scenario.Steps {
		require.NotEmpty(t, step.CheckFailures)
		assert.ErrorIs(t, step.CheckFailures[0].Err, stateful.ErrCriterion)
	}
}

type recordingHandler struct {
	started  int
	finished int
	done     int
}

func (h *recordingHandler) StepStarted(string, int, *cases.Case) { h.started++ }

func (h *recordingHandler) StepFinished(string, int, *stateful.StepResult) { h.finished++ }

func (h *recordingHandler) ScenarioFinished(string, *stateful.ScenarioResult) { h.done++ }

func TestStepper_Run_Events(t *testing.T) {
	t.Parallel()

	transport := &scriptedTransport{responses: map[string]*stateful.Response{
		"createUser": jsonResponse(201, `{"id": "u1"}`),
		"getUser":    jsonResponse(200, `{"name": "Ada"}`),
	}}

	handler := &recordingHandler{}
	stepper, ops := newStepper(t, usersLinkSpec, transport, stateful.WithHandler(handler))

	_, err := stepper.Run(t.Context(), ops["createUser"], 3, newRand(2))
	require.NoError(t, err)

	assert.Equal(t, 3, handler.started)
	assert.Equal(t, 3, handler.finished)
	assert.Equal(t, 1, handler.done)
}
