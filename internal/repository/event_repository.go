package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/eventatlas/eventatlas-backend/internal/models"
)

type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Create(event *models.Event) (*models.Event, error) {
	if result := r.db.Create(event); result.Error != nil {
		return nil, result.Error
	}
	return event, nil
}

func (r *EventRepository) GetByID(id uint) (*models.Event, error) {
	var event models.Event
	if err := r.db.First(&event, id).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

// UpdateFields applies a partial update. Columns absent from fields are
// left untouched, which is how an edit without a new picture keeps the
// stored picture reference.
func (r *EventRepository) UpdateFields(id uint, fields map[string]interface{}) error {
	return r.db.Model(&models.Event{}).Where("id = ?", id).Updates(fields).Error
}

// GetApproved lists approved events. An empty countryCode means no country
// filter; includePast widens the window to events whose date has passed.
func (r *EventRepository) GetApproved(countryCode string, orderByPubDate bool, includePast bool) ([]models.Event, error) {
	q := r.scoped(models.EventStatusApproved, countryCode, includePast)
	if orderByPubDate {
		q = q.Order("pub_date")
	}
	var events []models.Event
	err := q.Find(&events).Error
	return events, err
}

func (r *EventRepository) GetPending(countryCode string, includePast bool) ([]models.Event, error) {
	var events []models.Event
	err := r.scoped(models.EventStatusPending, countryCode, includePast).Find(&events).Error
	return events, err
}

func (r *EventRepository) GetCreated(creatorID uint) ([]models.Event, error) {
	var events []models.Event
	err := r.db.Where("creator_id = ?", creatorID).Find(&events).Error
	return events, err
}

// GetFiltered combines whichever search dimensions were supplied; an empty
// argument puts no constraint on that dimension. Only approved events are
// searchable.
func (r *EventRepository) GetFiltered(search, countryCode, theme, audience string) ([]models.Event, error) {
	q := r.db.Where("status = ?", models.EventStatusApproved)
	if search != "" {
		pattern := "%" + search + "%"
		q = q.Where("LOWER(title) LIKE LOWER(?) OR LOWER(description) LIKE LOWER(?)", pattern, pattern)
	}
	if countryCode != "" {
		q = q.Where("country_code = ?", countryCode)
	}
	if theme != "" {
		q = q.Where("theme = ?", theme)
	}
	if audience != "" {
		q = q.Where("audience = ?", audience)
	}

	var events []models.Event
	err := q.Find(&events).Error
	return events, err
}

// UpdateStatus issues exactly one status transition for the event.
func (r *EventRepository) UpdateStatus(id uint, status models.EventStatus) error {
	return r.db.Model(&models.Event{}).Where("id = ?", id).Update("status", status).Error
}

func (r *EventRepository) scoped(status models.EventStatus, countryCode string, includePast bool) *gorm.DB {
	q := r.db.Where("status = ?", status)
	if countryCode != "" {
		q = q.Where("country_code = ?", countryCode)
	}
	if !includePast {
		q = q.Where("pub_date >= ?", time.Now())
	}
	return q
}
