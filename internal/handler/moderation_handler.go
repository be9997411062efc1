package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/eventatlas/eventatlas-backend/internal/models"
	"github.com/eventatlas/eventatlas-backend/internal/service"
)

type ModerationHandler struct {
	moderationService *service.ModerationService
}

func NewModerationHandler(moderationService *service.ModerationService) *ModerationHandler {
	return &ModerationHandler{moderationService: moderationService}
}

// Pending lists events awaiting moderation for the route country. The
// ambassador guard has validated the country and stored the user.
func (h *ModerationHandler) Pending(c *fiber.Ctx) error {
	user, ok := c.Locals("user").(*models.User)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("User not authenticated"))
	}

	list, err := h.moderationService.Pending(user, c.Params("countryCode"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse(err.Error()))
	}
	return c.JSON(models.SuccessResponse(list, ""))
}

func (h *ModerationHandler) Approved(c *fiber.Ctx) error {
	user, ok := c.Locals("user").(*models.User)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("User not authenticated"))
	}

	list, err := h.moderationService.Approved(user, c.Params("countryCode"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse(err.Error()))
	}
	return c.JSON(models.SuccessResponse(list, ""))
}

// Approve performs the single pending-to-approved transition. The moderate
// guard has already resolved the event and checked authorization.
func (h *ModerationHandler) Approve(c *fiber.Ctx) error {
	return h.transition(c, h.moderationService.Approve, "Event approved")
}

func (h *ModerationHandler) Reject(c *fiber.Ctx) error {
	return h.transition(c, h.moderationService.Reject, "Event rejected")
}

func (h *ModerationHandler) transition(c *fiber.Ctx, fn func(uint) (*models.Event, error), message string) error {
	event, ok := c.Locals("event").(*models.Event)
	if !ok {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse("Event not resolved"))
	}

	updated, err := fn(event.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse(err.Error()))
	}
	return c.JSON(models.SuccessResponse(updated, message))
}
