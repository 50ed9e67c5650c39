// Package main provides the Textpipe API server implementation.
package main

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/dukex/textpipe/pkg/eventbus"
	"github.com/dukex/textpipe/pkg/generation"
	"github.com/dukex/textpipe/pkg/persistence"
	"github.com/dukex/textpipe/pkg/processor"
	"github.com/dukex/textpipe/pkg/runner"
	"github.com/dukex/textpipe/pkg/services"
	"github.com/dukex/textpipe/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	generator   generation.Generator
	validate    *validator.Validate
	stepTimeout time.Duration
	runTimeout  time.Duration
}

// Option configures an API.
type Option func(*API)

// WithStepTimeout bounds each generation backend call.
func WithStepTimeout(timeout time.Duration) Option {
	return func(a *API) {
		a.stepTimeout = timeout
	}
}

// WithRunTimeout bounds a whole pipeline run.
func WithRunTimeout(timeout time.Duration) Option {
	return func(a *API) {
		a.runTimeout = timeout
	}
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	generator generation.Generator,
	opts ...Option,
) *API {
	api := &API{
		logger:      logger,
		persistence: persistence,
		eventBus:    eventBus,
		generator:   generator,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}

	for _, opt := range opts {
		opt(api)
	}

	return api
}

func (a *API) App() *fiber.App {
	procOpts := make([]processor.Option, 0, 1)
	if a.stepTimeout > 0 {
		procOpts = append(procOpts, processor.WithStepTimeout(a.stepTimeout))
	}

	runOpts := make([]runner.Option, 0, 1)
	if a.runTimeout > 0 {
		runOpts = append(runOpts, runner.WithRunTimeout(a.runTimeout))
	}

	proc := processor.NewProcessor(a.generator, a.logger, procOpts...)
	run := runner.NewRunner(proc, a.logger, runOpts...)

	pipelineService := services.NewPipeline(a.persistence, a.eventBus, a.logger)
	executionService := services.NewExecution(a.persistence, run, a.eventBus, a.logger)
	userService := services.NewUser(a.persistence)

	handlers := web.NewAPIHandlers(pipelineService, executionService, userService, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Textpipe API")
	})

	p := app.Group("/pipelines")
	p.Get("/", handlers.GetPipelines)
	p.Post("/", handlers.CreatePipeline)
	// Static segments registered before the :id parameter.
	p.Post("/execute", handlers.ExecutePipeline)
	p.Get("/executions", handlers.GetExecutions)
	p.Get("/executions/:id", handlers.GetExecution)
	p.Get("/:id", handlers.GetPipeline)
	p.Put("/:id", handlers.UpdatePipeline)
	p.Delete("/:id", handlers.DeletePipeline)

	e := app.Group("/executions")
	e.Post("/ad-hoc", handlers.RunAdHoc)

	u := app.Group("/users")
	u.Post("/", handlers.CreateUser)
	u.Delete("/:id", handlers.DeleteUser)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}
