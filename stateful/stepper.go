package stateful

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/apiprobe/apiprobe/cases"
	"github.com/apiprobe/apiprobe/errors"
	"github.com/apiprobe/apiprobe/jsonschema"
	"github.com/apiprobe/apiprobe/links"
	"github.com/apiprobe/apiprobe/openapi"
	"github.com/google/uuid"
)

const (
	// ErrScenarioTooShort is returned for scenarios of fewer than two steps,
	// which could never exercise a link.
	ErrScenarioTooShort = errors.Error("a scenario requires at least two steps")
	// ErrStepCase is returned when no case could be built for a step.
	ErrStepCase = errors.Error("failed to build a case for the step")
	// ErrConformance marks a response that does not match the operation's
	// declared responses.
	ErrConformance = errors.Error("response does not conform to the declared schema")
)

// Stepper runs link-driven scenarios. Safe for concurrent scenarios given
// distinct rng instances; each Run uses its own bundle set.
type Stepper struct {
	operations map[string]*openapi.Operation
	index      *links.Index
	builder    *cases.Builder
	transport  Transport
	handler    Handler
	criteria   []Criterion

	mu         sync.Mutex
	validators map[string]*jsonschema.Validator
}

// StepperOption configures a Stepper.
type StepperOption func(*Stepper)

// WithHandler sets the scenario event handler.
func WithHandler(h Handler) StepperOption {
	return func(s *Stepper) {
		s.handler = h
	}
}

// WithCriteria adds success criteria evaluated on every step.
func WithCriteria(criteria ...Criterion) StepperOption {
	return func(s *Stepper) {
		s.criteria = append(s.criteria, criteria...)
	}
}

// NewStepper creates a stepper over the operations and their link graph.
func NewStepper(ops []*openapi.Operation, index *links.Index, builder *cases.Builder, transport Transport, opts ...StepperOption) *Stepper {
	s := &Stepper{
		operations: map[string]*openapi.Operation{},
		index:      index,
		builder:    builder,
		transport:  transport,
		handler:    NopHandler{},
		validators: map[string]*jsonschema.Validator{},
	}

	for _, op := range ops {
		s.operations[op.ID()] = op
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// ScenarioResult is the outcome of one scenario run.
type ScenarioResult struct {
	ID    string
	Steps []*StepResult
}

// Failed reports whether any step's checks failed.
func (r *ScenarioResult) Failed() bool {
	for _, step := range r.Steps {
		if step.Failed() {
			return true
		}
	}
	return false
}

// Run executes one scenario of the given length starting from the operation.
// Each step seeds its case from an eligible prior step result when one
// exists, degrading to a fresh case otherwise. Cancellation is checked
// between steps; a transport error ends the scenario with the steps run so
// far.
func (s *Stepper) Run(ctx context.Context, start *openapi.Operation, steps int, rng *rand.Rand) (*ScenarioResult, error) {
	if steps < 2 {
		return nil, ErrScenarioTooShort
	}

	scenario := &ScenarioResult{ID: uuid.NewString()}
	bundles := NewBundles()
	op := start

	for i := 0; i < steps; i++ {
		if err := ctx.Err(); err != nil {
			return scenario, err
		}

		transition := s.pickTransition(op, bundles, rng)

		outcome := s.builder.Positive(ctx, op, rng)
		if outcome.Err != nil {
			return scenario, ErrStepCase.Wrap(outcome.Err)
		}
		c := outcome.Case

		if transition != nil {
			transition.ApplyTo(c, op)
		}

		s.handler.StepStarted(scenario.ID, i, c)

		started := time.Now()
		resp, err := s.transport.Send(ctx, c)
		if err != nil {
			return scenario, err
		}
		resp.parseBody()

		result := &StepResult{
			Case:     c,
			Response: resp,
			Elapsed:  time.Since(started),
		}
		result.CheckFailures = append(result.CheckFailures, s.validateResponse(op, resp)...)
		result.CheckFailures = append(result.CheckFailures, s.checkCriteria(c, resp)...)

		bundles.For(op.ID()).Append(result)
		scenario.Steps = append(scenario.Steps, result)
		s.handler.StepFinished(scenario.ID, i, result)

		op = s.nextOperation(op, resp.StatusCode, rng)
	}

	s.handler.ScenarioFinished(scenario.ID, scenario)

	return scenario, nil
}

type candidate struct {
	result *StepResult
	link   *links.Link
}

// pickTransition chooses uniformly among the eligible (step result, link)
// pairs feeding the operation: every link targeting it, filtered by the
// link's status selector against its source operation's bundle. Returns nil
// when nothing is eligible, degrading the step to a fresh case.
func (s *Stepper) pickTransition(op *openapi.Operation, bundles *Bundles, rng *rand.Rand) *Transition {
	var eligible []candidate

	for _, link := range s.index.Incoming(op.ID()) {
		source, ok := s.operations[link.Source]
		if !ok {
			continue
		}

		siblings := source.SelectorSiblings()
		for _, result := range bundles.For(link.Source).Results() {
			if link.Selector.Matches(result.Response.StatusCode, siblings) {
				eligible = append(eligible, candidate{result: result, link: link})
			}
		}
	}

	if len(eligible) == 0 {
		return nil
	}

	chosen := eligible[rng.IntN(len(eligible))]
	transition := NewTransition(chosen.link, chosen.result)
	if transition.Failed() {
		return nil
	}

	return transition
}

// nextOperation follows a link matching the observed status when one exists,
// otherwise stays on the current operation.
func (s *Stepper) nextOperation(op *openapi.Operation, status int, rng *rand.Rand) *openapi.Operation {
	var targets []*openapi.Operation

	for _, link := range s.index.Outgoing(op.ID(), status, op.SelectorSiblings()) {
		for _, target := range s.operations {
			if link.TargetsOperation(target) {
				targets = append(targets, target)
				break
			}
		}
	}

	if len(targets) == 0 {
		return op
	}

	return targets[rng.IntN(len(targets))]
}

// validateResponse checks the response against the declared response spec for
// the matched status selector. Responses with no declared schema or a
// non-JSON body are skipped.
func (s *Stepper) validateResponse(op *openapi.Operation, resp *Response) []CheckFailure {
	siblings := op.SelectorSiblings()

	selector, ok := links.MatchSelector(resp.StatusCode, siblings)
	if !ok {
		if len(siblings) == 0 {
			return nil
		}
		return []CheckFailure{{
			Err: ErrConformance.Wrap(fmt.Errorf("status %d matches no declared response", resp.StatusCode)),
		}}
	}

	spec, _ := op.Responses.Get(selector.String())
	if spec == nil || spec.Schema == nil || resp.Body == nil {
		return nil
	}

	validator, err := s.validatorFor(op, selector.String(), spec.Schema)
	if err != nil {
		return []CheckFailure{{Selector: selector.String(), Err: err}}
	}

	if err := validator.Validate(resp.Body); err != nil {
		return []CheckFailure{{Selector: selector.String(), Err: ErrConformance.Wrap(err)}}
	}

	return nil
}

func (s *Stepper) checkCriteria(c *cases.Case, resp *Response) []CheckFailure {
	if len(s.criteria) == 0 {
		return nil
	}

	req := RequestDataFor(c)
	respData := ResponseDataFor(resp)

	var failures []CheckFailure
	for _, criterion := range s.criteria {
		if err := criterion.Check(req, respData); err != nil {
			failures = append(failures, CheckFailure{Err: err})
		}
	}
	return failures
}

func (s *Stepper) validatorFor(op *openapi.Operation, selector string, schema any) (*jsonschema.Validator, error) {
	key := op.ID() + "\x00" + selector

	s.mu.Lock()
	v, ok := s.validators[key]
	s.mu.Unlock()
	if ok {
		return v, nil
	}

	compiled, err := jsonschema.Compile(jsonschema.New(schema))
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if existing, ok := s.validators[key]; ok {
		compiled = existing
	} else {
		s.validators[key] = compiled
	}
	s.mu.Unlock()

	return compiled, nil
}
