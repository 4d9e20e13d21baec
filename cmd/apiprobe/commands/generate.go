package commands

import (
	"encoding/json"
	"strconv"

	"github.com/apiprobe/apiprobe/cases"
	"github.com/apiprobe/apiprobe/jsonschema"
	"github.com/apiprobe/apiprobe/openapi"
	"github.com/apiprobe/apiprobe/sampler"
	"github.com/spf13/cobra"
)

// caseRecord is the JSON line emitted per generated case.
type caseRecord struct {
	ID               string                    `json:"id"`
	Operation        string                    `json:"operation"`
	Method           string                    `json:"method"`
	Path             string                    `json:"path"`
	Mode             cases.Mode                `json:"mode"`
	Values           map[string]map[string]any `json:"values,omitempty"`
	MediaType        string                    `json:"media_type,omitempty"`
	Body             any                       `json:"body,omitempty"`
	NegatedLocations []openapi.Location        `json:"negated_locations,omitempty"`
}

func newGenerateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Generate request cases and print them as JSON lines",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			doc, err := loadDocument(ctx)
			if err != nil {
				return err
			}

			ops := collectOperations(ctx, doc)
			builder := cases.NewBuilder(sampler.New())
			encoder := json.NewEncoder(cmd.OutOrStdout())

			for _, op := range ops {
				for i := 0; i < cfg.Cases; i++ {
					index := strconv.Itoa(i)

					for _, mode := range []cases.Mode{cases.ModePositive, cases.ModeNegative} {
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
						case outcome.Skipped:
							log.Debug().
								Str("operation", op.ID()).
								Str("reason", outcome.Reason).
								Msg("case skipped")
						default:
							if err := encoder.Encode(recordFor(outcome.Case)); err != nil {
								return err
							}
						}
					}
				}
			}

			return nil
		},
	}
}

func recordFor(c *cases.Case) caseRecord {
	record := caseRecord{
		ID:               c.ID,
		Operation:        c.OperationID,
		Method:           c.Method,
		Path:             c.Path,
		Mode:             c.Mode,
		MediaType:        c.MediaType,
		Body:             jsonschema.Plain(c.Body),
		NegatedLocations: c.NegatedLocations,
	}

	if c.Values.Len() > 0 {
		record.Values = map[string]map[string]any{}
		for location, values := range c.Values.All() {
			members, ok := jsonschema.Plain(values).(map[string]any)
			if !ok {
				continue
			}
			record.Values[string(location)] = members
		}
	}

	return record
}
