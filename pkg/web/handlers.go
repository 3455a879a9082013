// Package web provides HTTP handlers and REST API endpoints for conversations.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/dukex/taskflow/pkg/models"
	"github.com/dukex/taskflow/pkg/services"
	"github.com/dukex/taskflow/pkg/workflow"
)

// DateResolver is the date resolution surface exposed over HTTP.
type DateResolver interface {
	Resolve(text string) models.DateParseResult
	ResolveWithFallback(ctx context.Context, text string) models.DateParseResult
	ResolveWithOracle(ctx context.Context, text string) models.DateParseResult
}

type APIHandlers struct {
	conversations *services.Conversation
	classifier    workflow.Classifier
	dates         DateResolver
	validator     *validator.Validate
}

func NewAPIHandlers(
	conversations *services.Conversation,
	classifier workflow.Classifier,
	dates DateResolver,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		conversations: conversations,
		classifier:    classifier,
		dates:         dates,
		validator:     validator,
	}
}

// RegisterRoutes mounts every endpoint on router.
func RegisterRoutes(router fiber.Router, h *APIHandlers) {
	c := router.Group("/conversations")
	c.Post("/", h.CreateConversation)
	c.Post("/:id/messages", h.SendMessage)
	c.Get("/:id/state", h.GetState)
	c.Delete("/:id/state", h.ResetState)

	router.Post("/classify", h.Classify)
	router.Post("/dates/resolve", h.ResolveDate)
	router.Post("/match", h.Match)
	router.Get("/health", h.HealthCheck)
}

func (h *APIHandlers) CreateConversation(c fiber.Ctx) error {
	return c.Status(fiber.StatusCreated).JSON(CreateConversationResponse{
		ConversationID: h.conversations.NewConversationID(),
	})
}

func (h *APIHandlers) SendMessage(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Conversation ID is required")
	}

	var req SendMessageRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	reply, err := h.conversations.HandleMessage(c.Context(), id, req.UserID, req.Message)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(reply)
}

func (h *APIHandlers) GetState(c fiber.Ctx) error {
	id := c.Params("id")
	userID := c.Query("user_id")

	if id == "" || userID == "" {
		return badRequest(c, "Conversation ID and user_id are required")
	}

	state, err := h.conversations.State(c.Context(), id, userID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(state)
}

func (h *APIHandlers) ResetState(c fiber.Ctx) error {
	id := c.Params("id")
	userID := c.Query("user_id")

	if id == "" || userID == "" {
		return badRequest(c, "Conversation ID and user_id are required")
	}

	if err := h.conversations.Reset(c.Context(), id, userID); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) Classify(c fiber.Ctx) error {
	var req ClassifyRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	return c.JSON(h.classifier.Classify(req.Message, models.Operation(req.Phase)))
}

func (h *APIHandlers) ResolveDate(c fiber.Ctx) error {
	var req ResolveDateRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	var result models.DateParseResult

	switch req.Mode {
	case "local":
		result = h.dates.Resolve(req.Text)
	case "oracle":
		result = h.dates.ResolveWithOracle(c.Context(), req.Text)
	default:
		result = h.dates.ResolveWithFallback(c.Context(), req.Text)
	}

	return c.JSON(result)
}

func (h *APIHandlers) Match(c fiber.Ctx) error {
	var req MatchRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.conversations.Match(c.Context(), req.UserID, req.Query)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(result)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.conversations.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Taskflow API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "healthy"
		message = "Taskflow API is healthy"
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
