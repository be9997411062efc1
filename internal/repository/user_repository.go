package repository

import (
	"gorm.io/gorm"

	"github.com/eventatlas/eventatlas-backend/internal/models"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

func (r *UserRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) EmailExists(email string) (bool, error) {
	var count int64
	err := r.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

func (r *UserRepository) UpdateEmail(id uint, email string) error {
	return r.db.Model(&models.User{}).Where("id = ?", id).Update("email", email).Error
}

func (r *UserRepository) IsAmbassador(userID uint, countryCode string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Ambassador{}).
		Where("user_id = ? AND country_code = ?", userID, countryCode).
		Count(&count).Error
	return count > 0, err
}

func (r *UserRepository) AmbassadorCountries(userID uint) ([]string, error) {
	var codes []string
	err := r.db.Model(&models.Ambassador{}).
		Where("user_id = ?", userID).
		Order("country_code").
		Pluck("country_code", &codes).Error
	return codes, err
}

func (r *UserRepository) AddAmbassador(userID uint, countryCode string) error {
	return r.db.Create(&models.Ambassador{UserID: userID, CountryCode: countryCode}).Error
}
