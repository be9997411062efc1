package middleware

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/eventatlas/eventatlas-backend/internal/models"
	"github.com/eventatlas/eventatlas-backend/internal/repository"
	"github.com/eventatlas/eventatlas-backend/pkg/countries"
)

// PolicyMiddleware holds the per-route access guards. Each guard runs after
// AuthMiddleware and either passes control on or terminates the request;
// handler bodies never see an unauthorized request.
type PolicyMiddleware struct {
	events *repository.EventRepository
	users  *repository.UserRepository
	table  *countries.Table
}

func NewPolicyMiddleware(events *repository.EventRepository, users *repository.UserRepository, table *countries.Table) *PolicyMiddleware {
	return &PolicyMiddleware{events: events, users: users, table: table}
}

// CanEditEvent allows the event's creator, staff, and ambassadors of the
// event's country. The loaded event is stashed in locals for the handler.
func (m *PolicyMiddleware) CanEditEvent() fiber.Handler {
	return func(c *fiber.Ctx) error {
		event, user, ok := m.loadEventAndUser(c)
		if !ok {
			return nil
		}

		if event.CreatorID != user.ID {
			allowed, err := m.isModerator(user, event.CountryCode)
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse(err.Error()))
			}
			if !allowed {
				return c.Status(fiber.StatusForbidden).JSON(models.ErrorResponse("You don't have permission to edit this event"))
			}
		}

		c.Locals("event", event)
		return c.Next()
	}
}

// CanModerateEvent allows staff and ambassadors of the event's country.
// Creators get no special treatment here.
func (m *PolicyMiddleware) CanModerateEvent() fiber.Handler {
	return func(c *fiber.Ctx) error {
		event, user, ok := m.loadEventAndUser(c)
		if !ok {
			return nil
		}

		allowed, err := m.isModerator(user, event.CountryCode)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse(err.Error()))
		}
		if !allowed {
			return c.Status(fiber.StatusForbidden).JSON(models.ErrorResponse("You don't have permission to moderate this event"))
		}

		c.Locals("event", event)
		return c.Next()
	}
}

// IsAmbassador guards the per-country moderation listings. It also
// validates the route's country code so an unknown code never reaches the
// listing lookup.
func (m *PolicyMiddleware) IsAmbassador() fiber.Handler {
	return func(c *fiber.Ctx) error {
		countryCode := c.Params("countryCode")
		if !m.table.Has(countryCode) {
			return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse("Unknown country code"))
		}

		user, err := m.currentUser(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("User not authenticated"))
		}

		allowed, err := m.isModerator(user, countryCode)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse(err.Error()))
		}
		if !allowed {
			return c.Status(fiber.StatusForbidden).JSON(models.ErrorResponse("You are not an ambassador for this country"))
		}

		c.Locals("user", user)
		return c.Next()
	}
}

// loadEventAndUser resolves the :id event and the authenticated user. When
// it returns false the response has already been written.
func (m *PolicyMiddleware) loadEventAndUser(c *fiber.Ctx) (*models.Event, *models.User, bool) {
	eventID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid event ID"))
		return nil, nil, false
	}

	event, err := m.events.GetByID(uint(eventID))
	if err != nil {
		_ = c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse("Event not found"))
		return nil, nil, false
	}

	user, err := m.currentUser(c)
	if err != nil {
		_ = c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("User not authenticated"))
		return nil, nil, false
	}

	return event, user, true
}

func (m *PolicyMiddleware) currentUser(c *fiber.Ctx) (*models.User, error) {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return nil, fiber.ErrUnauthorized
	}
	return m.users.GetByID(userID)
}

func (m *PolicyMiddleware) isModerator(user *models.User, countryCode string) (bool, error) {
	if user.IsStaff {
		return true, nil
	}
	return m.users.IsAmbassador(user.ID, countryCode)
}
