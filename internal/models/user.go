package models

import (
	"time"
)

type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	FullName  string    `json:"full_name" gorm:"not null"`
	Email     string    `json:"email" gorm:"unique;not null"`
	Password  string    `json:"-" gorm:"not null"`
	IsStaff   bool      `json:"is_staff" gorm:"default:false"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Ambassador grants a user moderation rights for one country. A user may
// hold several rows.
type Ambassador struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UserID      uint      `json:"user_id" gorm:"not null;index"`
	CountryCode string    `json:"country_code" gorm:"size:2;not null;index"`
	CreatedAt   time.Time `json:"created_at"`
}

type ProfileResponse struct {
	User                User     `json:"user"`
	AmbassadorCountries []string `json:"ambassador_countries"`
}
