package main

import (
	"context"
	"os"
	"time"

	cli "github.com/urfave/cli/v3"

	"github.com/dukex/textpipe/pkg/cmd"
	"github.com/dukex/textpipe/pkg/log"
	"github.com/dukex/textpipe/pkg/otelhelper"
)

const defaultPort = 9091

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "textpipe-api",
		Usage:                 "Create, manage and execute text transformation pipelines",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence (postgres:// or file path)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (kafka, gochannel)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
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
			&cli.FloatFlag{
				Name:    "generation-rps",
				Usage:   "Maximum generation requests per second",
				Value:   5,
				Sources: cli.EnvVars("GENERATION_RPS"),
			},
			&cli.DurationFlag{
				Name:    "step-timeout",
				Usage:   "Maximum duration of one pipeline step",
				Value:   2 * time.Minute,
				Sources: cli.EnvVars("STEP_TIMEOUT"),
			},
			&cli.DurationFlag{
				Name:    "run-timeout",
				Usage:   "Maximum duration of a whole pipeline run",
				Value:   10 * time.Minute,
				Sources: cli.EnvVars("RUN_TIMEOUT"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export traces via OTLP (configure with OTEL_EXPORTER_OTLP_* variables)",
				Sources: cli.EnvVars("TRACING_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing Textpipe API")

			if command.Bool("tracing") {
				if _, err := otelhelper.NewTracer(ctx, "textpipe-api"); err != nil {
					logger.WarnContext(ctx, "Failed to initialize tracer, continuing without tracing", "error", err)
				}
			}

			persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))

			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(command.String("event-bus"), logger)

			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			generator := cmd.NewGenerator(cmd.GeneratorOptions{
				BaseURL:           command.String("generation-api-url"),
				APIKey:            command.String("generation-api-key"),
				Model:             command.String("generation-model"),
				RequestsPerSecond: command.Float("generation-rps"),
			}, logger)

			api := NewAPI(
				logger,
				persistence,
				eventBus,
				generator,
				WithStepTimeout(command.Duration("step-timeout")),
				WithRunTimeout(command.Duration("run-timeout")),
			)

			if err := api.Start(command.Int("port")); err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)
			}

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
