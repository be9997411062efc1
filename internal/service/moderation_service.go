package service

import (
	"sort"

	"go.uber.org/zap"

	"github.com/eventatlas/eventatlas-backend/internal/models"
	"github.com/eventatlas/eventatlas-backend/internal/repository"
	"github.com/eventatlas/eventatlas-backend/pkg/countries"
	"github.com/eventatlas/eventatlas-backend/pkg/storage"
)

type ModerationService struct {
	events   *repository.EventRepository
	users    *repository.UserRepository
	pictures storage.PictureStorage
	table    *countries.Table
	mailer   Mailer
	logger   *zap.Logger
}

func NewModerationService(
	events *repository.EventRepository,
	users *repository.UserRepository,
	pictures storage.PictureStorage,
	table *countries.Table,
	mailer Mailer,
	logger *zap.Logger,
) *ModerationService {
	return &ModerationService{
		events:   events,
		users:    users,
		pictures: pictures,
		table:    table,
		mailer:   mailer,
		logger:   logger,
	}
}

// Pending lists events awaiting moderation. Staff users see every country,
// sorted ascending by country code; ambassadors see only the given one.
func (s *ModerationService) Pending(user *models.User, countryCode string) (*models.ModerationList, error) {
	var events []models.Event
	var err error

	if user.IsStaff {
		events, err = s.events.GetPending("", true)
		if err != nil {
			return nil, err
		}
		sort.SliceStable(events, func(i, j int) bool {
			return events[i].CountryCode < events[j].CountryCode
		})
	} else {
		events, err = s.events.GetPending(countryCode, true)
		if err != nil {
			return nil, err
		}
	}

	countryName, err := s.table.Name(countryCode)
	if err != nil {
		return nil, err
	}

	return &models.ModerationList{
		Events:      s.resolvePictures(events),
		Status:      models.EventStatusPending,
		CountryCode: countryCode,
		CountryName: countryName,
	}, nil
}

// Approved lists moderated events for one country. Unlike Pending there is
// no staff-wide branch; the listing is always country scoped.
func (s *ModerationService) Approved(user *models.User, countryCode string) (*models.ModerationList, error) {
	events, err := s.events.GetApproved(countryCode, false, true)
	if err != nil {
		return nil, err
	}

	countryName, err := s.table.Name(countryCode)
	if err != nil {
		return nil, err
	}

	return &models.ModerationList{
		Events:      s.resolvePictures(events),
		Status:      models.EventStatusApproved,
		CountryCode: countryCode,
		CountryName: countryName,
	}, nil
}

func (s *ModerationService) Approve(eventID uint) (*models.Event, error) {
	return s.transition(eventID, models.EventStatusApproved)
}

func (s *ModerationService) Reject(eventID uint) (*models.Event, error) {
	return s.transition(eventID, models.EventStatusRejected)
}

// transition issues a single status change and notifies the creator.
func (s *ModerationService) transition(eventID uint, status models.EventStatus) (*models.Event, error) {
	event, err := s.events.GetByID(eventID)
	if err != nil {
		return nil, err
	}

	if err := s.events.UpdateStatus(event.ID, status); err != nil {
		return nil, err
	}
	event.Status = status

	if s.mailer != nil {
		creator, err := s.users.GetByID(event.CreatorID)
		if err != nil {
			s.logger.Warn("verdict mail skipped, creator lookup failed",
				zap.Uint("event_id", event.ID),
				zap.Error(err),
			)
		} else {
			go func() {
				_ = s.mailer.SendModerationVerdict(creator.Email, creator.FullName, event)
			}()
		}
	}

	if event.Picture != "" {
		event.PictureURL = s.pictures.PublicURL(event.Picture)
	}
	return event, nil
}

func (s *ModerationService) resolvePictures(events []models.Event) []models.Event {
	for i := range events {
		if events[i].Picture != "" {
			events[i].PictureURL = s.pictures.PublicURL(events[i].Picture)
		}
	}
	return events
}
