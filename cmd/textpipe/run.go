package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	cli "github.com/urfave/cli/v3"

	"github.com/dukex/textpipe/pkg/cmd"
	"github.com/dukex/textpipe/pkg/log"
	"github.com/dukex/textpipe/pkg/models"
	"github.com/dukex/textpipe/pkg/processor"
	"github.com/dukex/textpipe/pkg/runner"
)

func RunCommand() *cli.Command {
	return &cli.Command{
		Name:    "run",
		Aliases: []string{"r"},
		Usage:   "Run an ad-hoc pipeline against input text",
		Description: `Chains transformation steps and prints the result of each step.

Steps are given as TYPE[:KEY=VALUE,...], for example:

   textpipe run --input "..." \
     --step summarize:length=short \
     --step translate:targetLanguage=Spanish`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "input",
				Aliases: []string{"i"},
				Usage:   "Input text ('-' reads from stdin)",
				Value:   "-",
			},
			&cli.StringSliceFlag{
				Name:    "step",
				Aliases: []string{"s"},
				Usage:   "Transformation step as TYPE[:KEY=VALUE,...] (repeatable)",
			},
			&cli.StringFlag{
				Name:    "generation-api-url",
				Usage:   "Base URL of the OpenAI-compatible text generation API",
				Sources: cli.EnvVars("GENERATION_API_URL"),
			},
			&cli.StringFlag{
				Name:    "generation-api-key",
				Usage:   "API key for the text generation API",
				Sources: cli.EnvVars("GENERATION_API_KEY"),
			},
			&cli.StringFlag{
				Name:    "generation-model",
				Usage:   "Model name sent to the text generation API",
				Value:   "gpt-4o-mini",
				Sources: cli.EnvVars("GENERATION_MODEL"),
			},
			&cli.DurationFlag{
				Name:    "step-timeout",
				Usage:   "Maximum duration of one pipeline step",
				Value:   2 * time.Minute,
				Sources: cli.EnvVars("STEP_TIMEOUT"),
			},
			&cli.DurationFlag{
				Name:    "run-timeout",
				Usage:   "Maximum duration of the whole run",
				Value:   10 * time.Minute,
				Sources: cli.EnvVars("RUN_TIMEOUT"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "warn",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))
			logger := log.WithModule("cli")

			input, err := readInput(command.String("input"))
			if err != nil {
				return err
			}

			steps, err := parseSteps(command.StringSlice("step"))
			if err != nil {
				return err
			}

			generator := cmd.NewGenerator(cmd.GeneratorOptions{
				BaseURL: command.String("generation-api-url"),
				APIKey:  command.String("generation-api-key"),
				Model:   command.String("generation-model"),
			}, logger)

			proc := processor.NewProcessor(generator, logger,
				processor.WithStepTimeout(command.Duration("step-timeout")),
			)
			run := runner.NewRunner(proc, logger,
				runner.WithRunTimeout(command.Duration("run-timeout")),
			)

			result, err := run.Run(ctx, steps, input)
			if err != nil {
				return err
			}

			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")

			return encoder.Encode(result)
		},
	}
}

func readInput(source string) (string, error) {
	if source != "-" {
		return source, nil
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}

	return string(data), nil
}

// parseSteps converts TYPE[:KEY=VALUE,...] specs into pipeline steps.
func parseSteps(specs []string) ([]*models.Step, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("at least one --step is required")
	}

	steps := make([]*models.Step, 0, len(specs))

	for i, spec := range specs {
		stepType, rawConfig, _ := strings.Cut(spec, ":")

		step := &models.Step{
			ID:    fmt.Sprintf("step-%d", i+1),
			Type:  models.StepType(stepType),
			Order: i + 1,
		}

		if !step.Type.Known() {
			return nil, fmt.Errorf("unknown step type %q", stepType)
		}

		if rawConfig != "" {
			step.Config = make(map[string]any)

			for _, pair := range strings.Split(rawConfig, ",") {
				key, value, found := strings.Cut(pair, "=")
				if !found || key == "" {
					return nil, fmt.Errorf("invalid step option %q in %q", pair, spec)
				}

				step.Config[key] = value
			}
		}

		if err := models.ValidateStepConfig(step.Type, step.Config); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, stepType, err)
		}

		steps = append(steps, step)
	}

	return steps, nil
}
