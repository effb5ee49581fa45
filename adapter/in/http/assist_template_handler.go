package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"assist_server/core/port/out"
	"assist_server/pkg/apperr"
)

// TemplateHandler exposes stored reply templates. Creation goes through the
// pipeline service (POST /assist/templates); reads, deletion and usage
// tracking hit the repository directly.
type TemplateHandler struct {
	repo out.ReplyTemplateRepository
}

func NewTemplateHandler(repo out.ReplyTemplateRepository) *TemplateHandler {
	return &TemplateHandler{repo: repo}
}

// Register registers template routes.
func (h *TemplateHandler) Register(router fiber.Router) {
	templates := router.Group("/templates")

	templates.Get("/", h.List)
	templates.Get("/:id", h.Get)
	templates.Delete("/:id", h.Delete)
	templates.Post("/:id/use", h.Use)
}

func userIDFromQuery(c *fiber.Ctx) (string, error) {
	userID := c.Query("user_id")
	if userID == "" {
		return "", apperr.MissingField("user_id")
	}
	return userID, nil
}

func templateIDFromParams(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.BadRequest("invalid template id")
	}
	return id, nil
}

// List returns the user's templates, newest first.
func (h *TemplateHandler) List(c *fiber.Ctx) error {
	userID, err := userIDFromQuery(c)
	if err != nil {
		return err
	}

	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)

	templates, err := h.repo.List(c.Context(), userID, limit, offset)
	if err != nil {
		return err
	}
	return SuccessResponse(c, fiber.Map{
		"templates": templates,
		"count":     len(templates),
	})
}

// Get returns one template owned by the user.
func (h *TemplateHandler) Get(c *fiber.Ctx) error {
	userID, err := userIDFromQuery(c)
	if err != nil {
		return err
	}
	id, err := templateIDFromParams(c)
	if err != nil {
		return err
	}

	template, err := h.repo.GetByID(c.Context(), userID, id)
	if err != nil {
		return err
	}
	return SuccessResponse(c, template)
}

// Delete removes a template owned by the user.
func (h *TemplateHandler) Delete(c *fiber.Ctx) error {
	userID, err := userIDFromQuery(c)
	if err != nil {
		return err
	}
	id, err := templateIDFromParams(c)
	if err != nil {
		return err
	}

	if err := h.repo.Delete(c.Context(), userID, id); err != nil {
		return err
	}
	return SuccessResponse(c, fiber.Map{"deleted": true, "id": id})
}

// Use bumps the usage counter after a template is applied to a draft.
func (h *TemplateHandler) Use(c *fiber.Ctx) error {
	id, err := templateIDFromParams(c)
	if err != nil {
		return err
	}

	if err := h.repo.IncrementUsage(c.Context(), id); err != nil {
		return err
	}
	return SuccessResponse(c, fiber.Map{"id": id})
}
