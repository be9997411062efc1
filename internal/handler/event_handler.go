package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/eventatlas/eventatlas-backend/internal/models"
	"github.com/eventatlas/eventatlas-backend/internal/service"
	"github.com/eventatlas/eventatlas-backend/pkg/utils"
)

type EventHandler struct {
	eventService *service.EventService
	validator    *utils.Validator
}

func NewEventHandler(eventService *service.EventService, validator *utils.Validator) *EventHandler {
	return &EventHandler{
		eventService: eventService,
		validator:    validator,
	}
}

// Index serves the public map/list page payload. The country comes from
// the query when supplied, otherwise from the client IP.
func (h *EventHandler) Index(c *fiber.Ctx) error {
	resp, err := h.eventService.Index(c.Query("country"), clientIP(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse(err.Error()))
	}
	return c.JSON(models.SuccessResponse(resp, ""))
}

// Create handles the multipart submission form.
func (h *EventHandler) Create(c *fiber.Ctx) error {
	var req models.EventRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid request body"))
	}

	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse(err.Error()))
	}

	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("User not authenticated"))
	}

	// A missing picture part is fine; the event is created without one.
	picture, err := c.FormFile("picture")
	if err != nil {
		picture = nil
	}

	event, err := h.eventService.Submit(userID, req, picture)
	if err != nil {
		return h.uploadError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(models.SuccessResponse(event, "Thank you for submitting your event, it is now awaiting moderation"))
}

// Update handles the edit form. The edit guard has already loaded the
// event and checked authorization.
func (h *EventHandler) Update(c *fiber.Ctx) error {
	event, ok := c.Locals("event").(*models.Event)
	if !ok {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse("Event not resolved"))
	}

	var req models.EventRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid request body"))
	}

	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse(err.Error()))
	}

	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("User not authenticated"))
	}

	picture, err := c.FormFile("picture")
	if err != nil {
		picture = nil
	}

	updated, err := h.eventService.Update(event.ID, userID, req, picture)
	if err != nil {
		return h.uploadError(c, err)
	}

	return c.JSON(models.SuccessResponse(updated, "Event updated successfully"))
}

// ByCountry lists every approved event for a country, no date window.
func (h *EventHandler) ByCountry(c *fiber.Ctx) error {
	events, err := h.eventService.ApprovedByCountry(c.Params("countryCode"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse(err.Error()))
	}
	return c.JSON(models.SuccessResponse(events, ""))
}

// Detail looks an event up by id. The slug segment is accepted for URL
// readability only and takes no part in the lookup.
func (h *EventHandler) Detail(c *fiber.Ctx) error {
	eventID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid event ID"))
	}

	event, err := h.eventService.GetByID(uint(eventID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse("Event not found"))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse(err.Error()))
	}

	return c.JSON(models.SuccessResponse(event, ""))
}

// Mine lists everything the authenticated user has submitted, any status.
func (h *EventHandler) Mine(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("User not authenticated"))
	}

	events, err := h.eventService.Created(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse(err.Error()))
	}
	return c.JSON(models.SuccessResponse(events, ""))
}

// Search serves both the default result set (GET, country from the query
// or the client IP) and a submitted search form (POST).
func (h *EventHandler) Search(c *fiber.Ctx) error {
	if c.Method() == fiber.MethodPost {
		var req models.SearchRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid request body"))
		}
		if err := h.validator.Struct(req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse(err.Error()))
		}

		resp, err := h.eventService.Search(&req, "", clientIP(c))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse(err.Error()))
		}
		return c.JSON(models.SuccessResponse(resp, ""))
	}

	resp, err := h.eventService.Search(nil, c.Query("country"), clientIP(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse(err.Error()))
	}
	return c.JSON(models.SuccessResponse(resp, ""))
}

func (h *EventHandler) uploadError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrImageTooLarge), errors.Is(err, service.ErrBadImageType):
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse(err.Error()))
	case errors.Is(err, gorm.ErrRecordNotFound):
		return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse("Event not found"))
	case errors.Is(err, service.ErrPictureStore):
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse(err.Error()))
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse(err.Error()))
	}
}

// clientIP prefers the first forwarded-for hop, then the remote address.
func clientIP(c *fiber.Ctx) string {
	if forwarded := c.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	return c.IP()
}
