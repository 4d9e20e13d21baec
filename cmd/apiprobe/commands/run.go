package commands

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/apiprobe/apiprobe/cases"
	"github.com/apiprobe/apiprobe/links"
	"github.com/apiprobe/apiprobe/openapi"
	"github.com/apiprobe/apiprobe/sampler"
	"github.com/apiprobe/apiprobe/stateful"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Send generated cases against a server and check the responses",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if cfg.BaseURL == "" {
				return fmt.Errorf("no server given, set --base-url")
			}

			doc, err := loadDocument(ctx)
			if err != nil {
				return err
			}

			ops := collectOperations(ctx, doc)

			idx, err := links.Build(ops)
			if err != nil {
				log.Warn().Err(err).Msg("some links are malformed and were skipped")
			}

			runID := uuid.NewString()
			log.Info().
				Str("run", runID).
				Int("operations", len(ops)).
				Int("links", idx.Len()).
				Msg("starting run")

			builder := cases.NewBuilder(sampler.New())
			transport := newHTTPTransport(cfg.BaseURL, cfg.Timeout)

			var failures atomic.Int64

			if err := runCases(ctx, ops, builder, transport, &failures); err != nil {
				return err
			}

			if err := runScenarios(ctx, ops, idx, builder, transport, &failures); err != nil {
				return err
			}

			if n := failures.Load(); n > 0 {
				return fmt.Errorf("%d checks failed", n)
			}

			log.Info().Str("run", runID).Msg("all checks passed")
			return nil
		},
	}
}

// runCases sends positive and negative cases for every operation. A positive
// case must come back with a declared status; a negative case answered 2xx
// means the server accepted a request it should have rejected.
func runCases(ctx context.Context, ops []*openapi.Operation, builder *cases.Builder, transport stateful.Transport, failures *atomic.Int64) error {
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(cfg.Workers)

	for _, op := range ops {
		for i := 0; i < cfg.Cases; i++ {
			index := strconv.Itoa(i)

			for _, mode := range []cases.Mode{cases.ModePositive, cases.ModeNegative} {
				group.Go(func() error {
					rng := cases.NewRand(cfg.Seed, op.ID(), string(mode), index)

					var outcome cases.Outcome
					if mode == cases.ModePositive {
						outcome = builder.Positive(ctx, op, rng)
					} else {
						outcome = builder.Negative(ctx, op, rng)
					}

					switch {
					case outcome.Err != nil:
						log.Warn().Err(outcome.Err).
							Str("operation", op.ID()).
							Str("mode", string(mode)).
							Msg("case generation failed")
						return nil
					case outcome.Skipped:
						log.Debug().
							Str("operation", op.ID()).
							Str("reason", outcome.Reason).
							Msg("case skipped")
						return nil
					}

					return sendCase(ctx, op, outcome.Case, transport, failures)
				})
			}
		}
	}

	return group.Wait()
}

func sendCase(ctx context.Context, op *openapi.Operation, c *cases.Case, transport stateful.Transport, failures *atomic.Int64) error {
	resp, err := transport.Send(ctx, c)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn().Err(err).
			Str("operation", op.ID()).
			Str("case", c.ID).
			Msg("request failed")
		failures.Add(1)
		return nil
	}

	event := log.Debug().
		Str("operation", op.ID()).
		Str("case", c.ID).
		Str("mode", string(c.Mode)).
		Int("status", resp.StatusCode)

	switch c.Mode {
	case cases.ModePositive:
		siblings := op.SelectorSiblings()
		if _, ok := links.MatchSelector(resp.StatusCode, siblings); !ok && len(siblings) > 0 {
			failures.Add(1)
			event = log.Warn().
				Str("operation", op.ID()).
				Str("case", c.ID).
				Str("mode", string(c.Mode)).
				Int("status", resp.StatusCode).
				Str("check", "status matches no declared response")
		}
	case cases.ModeNegative:
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			failures.Add(1)
			event = log.Warn().
				Str("operation", op.ID()).
				Str("case", c.ID).
				Str("mode", string(c.Mode)).
				Int("status", resp.StatusCode).
				Str("check", "invalid request was accepted")
		}
	}

	event.Msg("case sent")
	return nil
}

// runScenarios runs link-driven scenarios from every operation that declares
// an outgoing link.
func runScenarios(ctx context.Context, ops []*openapi.Operation, idx *links.Index, builder *cases.Builder, transport stateful.Transport, failures *atomic.Int64) error {
	if idx.Len() == 0 {
		return nil
	}

	sources := map[string]bool{}
	for _, link := range idx.Links() {
		sources[link.Source] = true
	}

	stepper := stateful.NewStepper(ops, idx, builder, transport,
		stateful.WithHandler(&logHandler{log: log}))

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(cfg.Workers)

	for _, op := range ops {
		if !sources[op.ID()] {
			continue
		}

		for i := 0; i < cfg.Scenarios; i++ {
			index := strconv.Itoa(i)

			group.Go(func() error {
				rng := cases.NewRand(cfg.Seed, "scenario", op.ID(), index)

				scenario, err := stepper.Run(ctx, op, cfg.Steps, rng)
				if err != nil {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					log.Warn().Err(err).
						Str("operation", op.ID()).
						Msg("scenario aborted")
					failures.Add(1)
					return nil
				}

				for _, step := range scenario.Steps {
					failures.Add(int64(len(step.CheckFailures)))
				}
				return nil
			})
		}
	}

	return group.Wait()
}
