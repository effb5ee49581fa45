// Package http provides the inbound HTTP adapter.
package http

import (
	"github.com/gofiber/fiber/v2"

	"assist_server/core/domain"
	portin "assist_server/core/port/in"
	portout "assist_server/core/port/out"
	"assist_server/pkg/apperr"
)

// AssistHandler exposes the pipeline over HTTP.
type AssistHandler struct {
	service  portin.AssistService
	producer portout.DispatchProducer
}

func NewAssistHandler(service portin.AssistService, producer portout.DispatchProducer) *AssistHandler {
	return &AssistHandler{service: service, producer: producer}
}

// Register registers assist routes.
func (h *AssistHandler) Register(router fiber.Router) {
	assist := router.Group("/assist")

	assist.Post("/classify", h.Classify)
	assist.Post("/extract", h.Extract)
	assist.Post("/draft", h.Draft)
	assist.Post("/suggestions", h.Suggestions)
	assist.Post("/process", h.Process)

	assist.Post("/autosend/start", h.StartAutoSend)
	assist.Post("/autosend/cancel", h.CancelAutoSend)
	assist.Get("/autosend/:contextKey", h.GetAutoSend)

	assist.Post("/handoff", h.Handoff)
	assist.Post("/templates", h.SaveTemplate)
}

// Classify runs normalization plus intent classification.
func (h *AssistHandler) Classify(c *fiber.Ctx) error {
	var req portin.AssistRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}

	result, err := h.service.Classify(c.Context(), &req)
	if err != nil {
		return err
	}
	return SuccessResponse(c, result)
}

// Extract runs cached entity extraction.
func (h *AssistHandler) Extract(c *fiber.Ctx) error {
	var req portin.AssistRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}

	result, err := h.service.Extract(c.Context(), &req)
	if err != nil {
		return err
	}
	return SuccessResponse(c, result)
}

// Draft generates the reply draft set.
func (h *AssistHandler) Draft(c *fiber.Ctx) error {
	var req portin.DraftRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}

	result, err := h.service.Draft(c.Context(), &req)
	if err != nil {
		return err
	}
	return SuccessResponse(c, result)
}

// Suggestions returns the ranked next-action set.
func (h *AssistHandler) Suggestions(c *fiber.Ctx) error {
	var req portin.AssistRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}

	result, err := h.service.Suggest(c.Context(), &req)
	if err != nil {
		return err
	}
	return SuccessResponse(c, result)
}

// Process runs the full pipeline for one request.
func (h *AssistHandler) Process(c *fiber.Ctx) error {
	var req portin.ProcessRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}

	result, err := h.service.Process(c.Context(), &req)
	if err != nil {
		return err
	}
	return SuccessResponse(c, result)
}

// StartAutoSend begins a countdown for a conversation context.
func (h *AssistHandler) StartAutoSend(c *fiber.Ctx) error {
	var req portin.AutoSendStartRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}

	result, err := h.service.StartAutoSend(c.Context(), &req)
	if err != nil {
		return err
	}
	return SuccessResponse(c, result)
}

type cancelAutoSendRequest struct {
	ContextKey string `json:"context_key"`
}

// CancelAutoSend stops the countdown for a conversation context.
func (h *AssistHandler) CancelAutoSend(c *fiber.Ctx) error {
	var req cancelAutoSendRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}

	session, err := h.service.CancelAutoSend(c.Context(), req.ContextKey)
	if err != nil {
		return err
	}
	return SuccessResponse(c, session)
}

// GetAutoSend returns the current countdown state for a conversation context.
func (h *AssistHandler) GetAutoSend(c *fiber.Ctx) error {
	session, err := h.service.GetAutoSend(c.Context(), c.Params("contextKey"))
	if err != nil {
		return err
	}
	return SuccessResponse(c, session)
}

// Handoff publishes an accepted cross-module handoff to the sibling module's
// stream. The payload comes from a suggestion's side-effect payload.
func (h *AssistHandler) Handoff(c *fiber.Ctx) error {
	var payload domain.HandoffPayload
	if err := c.BodyParser(&payload); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	if payload.Module == "" {
		return apperr.MissingField("module")
	}
	if h.producer == nil {
		return apperr.StorageUnavailable("publish handoff", nil)
	}

	if err := h.producer.PublishHandoff(c.Context(), &payload); err != nil {
		return apperr.StorageUnavailable("publish handoff", err)
	}
	return SuccessResponse(c, fiber.Map{"published": true, "module": payload.Module})
}

// SaveTemplate stores a draft as a reusable template.
func (h *AssistHandler) SaveTemplate(c *fiber.Ctx) error {
	var req portin.SaveTemplateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}

	result, err := h.service.SaveTemplate(c.Context(), &req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(newAPIResponse(c, result))
}
