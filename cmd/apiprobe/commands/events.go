package commands

import (
	"github.com/apiprobe/apiprobe/cases"
	"github.com/apiprobe/apiprobe/stateful"
	"github.com/rs/zerolog"
)

// logHandler reports scenario progress through the CLI logger.
type logHandler struct {
	log zerolog.Logger
}

var _ stateful.Handler = (*logHandler)(nil)

func (h *logHandler) StepStarted(scenarioID string, step int, c *cases.Case) {
	h.log.Debug().
		Str("scenario", scenarioID).
		Int("step", step).
		Str("operation", c.OperationID).
		Str("method", c.Method).
		Str("path", c.Path).
		Msg("step started")
}

func (h *logHandler) StepFinished(scenarioID string, step int, result *stateful.StepResult) {
	event := h.log.Debug()
	if result.Failed() {
		event = h.log.Warn()
	}

	event = event.
		Str("scenario", scenarioID).
		Int("step", step).
		Str("operation", result.Case.OperationID).
		Int("status", result.Response.StatusCode).
		Dur("elapsed", result.Elapsed)

	for _, failure := range result.CheckFailures {
		event = event.AnErr("check", failure.Err)
	}

	event.Msg("step finished")
}

func (h *logHandler) ScenarioFinished(scenarioID string, result *stateful.ScenarioResult) {
	event := h.log.Info()
	if result.Failed() {
		event = h.log.Warn()
	}

	event.
		Str("scenario", scenarioID).
		Int("steps", len(result.Steps)).
		Bool("failed", result.Failed()).
		Msg("scenario finished")
}
