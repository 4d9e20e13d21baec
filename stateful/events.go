package stateful

import "github.com/apiprobe/apiprobe/cases"

// Handler receives scenario events for an external reporting collaborator.
// Implementations must be safe for the scenario's goroutine to call; the
// stepper never calls a handler concurrently within one scenario.
type Handler interface {
	StepStarted(scenarioID string, step int, c *cases.Case)
	StepFinished(scenarioID string, step int, result *StepResult)
	ScenarioFinished(scenarioID string, result *ScenarioResult)
}

// NopHandler discards all events.
type NopHandler struct{}

func (NopHandler) StepStarted(string, int, *cases.Case)     {}
func (NopHandler) StepFinished(string, int, *StepResult)    {}
func (NopHandler) ScenarioFinished(string, *ScenarioResult) {}
