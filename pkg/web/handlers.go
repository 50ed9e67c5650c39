// Package web provides HTTP handlers and REST API endpoints for pipeline
// management and execution.
package web

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/dukex/textpipe/pkg/models"
	"github.com/dukex/textpipe/pkg/services"
)

type APIHandlers struct {
	pipelineService  *services.Pipeline
	executionService *services.Execution
	userService      *services.User
	validator        *validator.Validate
}

func NewAPIHandlers(
	pipelineService *services.Pipeline,
	executionService *services.Execution,
	userService *services.User,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		pipelineService:  pipelineService,
		executionService: executionService,
		userService:      userService,
		validator:        validator,
	}
}

func (h *APIHandlers) CreatePipeline(c fiber.Ctx) error {
	var req CreatePipelineRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	pipeline := &models.Pipeline{
		Name:        req.Name,
		Description: req.Description,
		UserID:      req.UserID,
		Steps:       toModelSteps(req.Steps),
	}

	created, err := h.pipelineService.Create(c.Context(), pipeline)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) GetPipelines(c fiber.Ctx) error {
	userID := c.Query("user_id")
	if userID == "" {
		return badRequest(c, "user_id query parameter is required")
	}

	pipelines, err := h.pipelineService.ListByUser(c.Context(), userID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(pipelines)
}

func (h *APIHandlers) GetPipeline(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Pipeline ID is required")
	}

	pipeline, err := h.pipelineService.FetchByID(c.Context(), id, c.Query("user_id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(pipeline)
}

func (h *APIHandlers) UpdatePipeline(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Pipeline ID is required")
	}

	var req UpdatePipelineRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	existing, err := h.pipelineService.FetchByID(c.Context(), id, req.UserID)
	if err != nil {
		return handleServiceError(c, err)
	}

	pipeline := &models.Pipeline{
		ID:          id,
		Name:        existing.Name,
		Description: existing.Description,
		UserID:      req.UserID,
		Steps:       toModelSteps(req.Steps),
	}

	if req.Name != nil {
		pipeline.Name = *req.Name
	}

	if req.Description != nil {
		pipeline.Description = *req.Description
	}

	updated, err := h.pipelineService.Update(c.Context(), pipeline)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeletePipeline(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Pipeline ID is required")
	}

	err := h.pipelineService.Delete(c.Context(), id, c.Query("user_id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) ExecutePipeline(c fiber.Ctx) error {
	var req ExecutePipelineRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	execution, err := h.executionService.Execute(c.Context(), req.PipelineID, req.UserID, req.Input)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(execution)
}

func (h *APIHandlers) RunAdHoc(c fiber.Ctx) error {
	var req AdHocExecutionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.executionService.RunAdHoc(c.Context(), toModelSteps(req.Steps), req.Input)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(result)
}

func (h *APIHandlers) GetExecutions(c fiber.Ctx) error {
	userID := c.Query("user_id")
	if userID == "" {
		return badRequest(c, "user_id query parameter is required")
	}

	executions, err := h.executionService.History(c.Context(), userID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(executions)
}

func (h *APIHandlers) GetExecution(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Execution ID is required")
	}

	execution, err := h.executionService.FetchByID(c.Context(), id, c.Query("user_id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(execution)
}

func (h *APIHandlers) CreateUser(c fiber.Ctx) error {
	var req CreateUserRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	user := &models.User{
		Email: req.Email,
		Name:  req.Name,
	}

	created, err := h.userService.Create(c.Context(), user)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) DeleteUser(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "User ID is required")
	}

	err := h.userService.Delete(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.pipelineService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Textpipe API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "healthy"
		message = "Textpipe API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}
