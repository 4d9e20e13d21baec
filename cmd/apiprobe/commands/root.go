// Package commands implements the apiprobe CLI.
package commands

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/apiprobe/apiprobe/cmd/apiprobe/config"
	"github.com/apiprobe/apiprobe/openapi"
	"github.com/apiprobe/apiprobe/references"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     config.Config
	log     = newLogger("info")
)

// Execute runs the CLI.
func Execute(ctx context.Context) error {
	root := newRootCommand()

	if err := root.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("run failed")
		return err
	}

	return nil
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "apiprobe",
		Short:         "Contract testing for OpenAPI and Swagger documents",
		Long:          "apiprobe turns an OpenAPI 2.0/3.x document into positive and negative request cases plus link-driven multi-step scenarios, and checks responses against the declared schemas.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cfg, err = config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			log = newLogger(cfg.LogLevel)
			return nil
		},
	}

	defaults := config.Default()

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a YAML config file")
	root.PersistentFlags().String("spec", "", "path or URL of the API description")
	root.PersistentFlags().String("base-url", "", "base URL requests are sent to")
	root.PersistentFlags().Uint64("seed", defaults.Seed, "seed for deterministic case generation")
	root.PersistentFlags().Int("cases", defaults.Cases, "cases per operation and mode")
	root.PersistentFlags().Int("workers", defaults.Workers, "concurrent workers")
	root.PersistentFlags().Int("steps", defaults.Steps, "steps per stateful scenario")
	root.PersistentFlags().Int("scenarios", defaults.Scenarios, "scenarios per link source operation")
	root.PersistentFlags().Duration("timeout", defaults.Timeout, "per request timeout")
	root.PersistentFlags().String("log-level", defaults.LogLevel, "log level (trace, debug, info, warn, error)")

	root.AddCommand(newOperationsCommand())
	root.AddCommand(newGenerateCommand())
	root.AddCommand(newRunCommand())

	return root
}

func newLogger(level string) zerolog.Logger {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		parsed = zerolog.InfoLevel
	}

	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(writer).Level(parsed).With().Timestamp().Logger()
}

// loadDocument loads the configured API description from a file or URL.
func loadDocument(ctx context.Context) (*openapi.Document, error) {
	if cfg.Spec == "" {
		return nil, fmt.Errorf("no API description given, set --spec")
	}

	data, err := readSpec(ctx, cfg.Spec)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", cfg.Spec, err)
	}

	doc, err := openapi.Parse(data, openapi.WithResolverOptions(references.WithRootLocation(cfg.Spec)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", cfg.Spec, err)
	}

	return doc, nil
}

func readSpec(ctx context.Context, location string) ([]byte, error) {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
		if err != nil {
			return nil, err
		}

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
		}

		return io.ReadAll(resp.Body)
	}

	return os.ReadFile(location)
}

// collectOperations enumerates operations, logging malformed ones and
// continuing with the rest.
func collectOperations(ctx context.Context, doc *openapi.Document) []*openapi.Operation {
	var ops []*openapi.Operation

	for op, err := range doc.Operations(ctx) {
		if err != nil {
			log.Warn().Err(err).Msg("skipping malformed operation")
			continue
		}
		ops = append(ops, op)
	}

	return ops
}
