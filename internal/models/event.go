package models

import (
	"time"
)

// Moderation lifecycle of a submitted event.
type EventStatus string

const (
	EventStatusPending  EventStatus = "pending"
	EventStatusApproved EventStatus = "approved"
	EventStatusRejected EventStatus = "rejected"
)

type Event struct {
	ID          uint        `json:"id" gorm:"primaryKey"`
	Title       string      `json:"title" gorm:"not null"`
	Slug        string      `json:"slug" gorm:"not null;index"`
	Description string      `json:"description"`
	Location    string      `json:"location"`
	Latitude    float64     `json:"latitude"`
	Longitude   float64     `json:"longitude"`
	CountryCode string      `json:"country_code" gorm:"size:2;not null;index"`
	Picture     string      `json:"picture"` // storage key, empty when no picture was uploaded
	PictureURL  string      `json:"picture_url,omitempty" gorm:"-"`
	Status      EventStatus `json:"status" gorm:"type:varchar(16);not null;default:'pending';index"`
	PubDate     time.Time   `json:"pub_date" gorm:"index"`
	Audience    string      `json:"audience" gorm:"index"`
	Theme       string      `json:"theme" gorm:"index"`
	CreatorID   uint        `json:"creator_id" gorm:"not null;index"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// EventRequest is the submission/edit form. The picture arrives as a
// separate multipart file part and is handled outside the form binding.
type EventRequest struct {
	Title       string  `form:"title" validate:"required"`
	Description string  `form:"description"`
	Location    string  `form:"location"`
	Latitude    float64 `form:"latitude"`
	Longitude   float64 `form:"longitude"`
	CountryCode string  `form:"country_code" validate:"required,iso3166_1_alpha2"`
	Audience    string  `form:"audience"`
	Theme       string  `form:"theme"`
	PubDate     string  `form:"pub_date" validate:"omitempty,datetime=2006-01-02"`
	UserEmail   string  `form:"user_email" validate:"required,email"`
}

// MapEvent is the reduced shape embedded in the index payload, one marker
// per approved event.
type MapEvent struct {
	ID          uint    `json:"id"`
	Title       string  `json:"title"`
	Slug        string  `json:"slug"`
	Description string  `json:"description"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Picture     string  `json:"picture"`
	PictureURL  string  `json:"picture_url,omitempty"`
}

func NewMapEvent(e Event) MapEvent {
	return MapEvent{
		ID:          e.ID,
		Title:       e.Title,
		Slug:        e.Slug,
		Description: e.Description,
		Latitude:    e.Latitude,
		Longitude:   e.Longitude,
		Picture:     e.Picture,
		PictureURL:  e.PictureURL,
	}
}

// CountryContext is the country a page was resolved against. An empty code
// means resolution failed and no country filter was applied.
type CountryContext struct {
	CountryCode string `json:"country_code"`
}

type IndexResponse struct {
	LatestEvents []Event        `json:"latest_events"`
	MapEvents    []MapEvent     `json:"map_events"`
	Latitude     float64        `json:"latitude"`
	Longitude    float64        `json:"longitude"`
	Country      CountryContext `json:"country"`
	AllCountries []Country      `json:"all_countries"`
}

// Country is one row of the static code-to-name reference table.
type Country struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type ModerationList struct {
	Events      []Event     `json:"events"`
	Status      EventStatus `json:"status"`
	CountryCode string      `json:"country_code"`
	CountryName string      `json:"country_name"`
}
