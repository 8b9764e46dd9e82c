package seeders

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lac-hong-legacy/ido_api/model"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AdminSeeder handles seeding admin users
type AdminSeeder struct {
	db       *gorm.DB
	email    string
	password string
}

// NewAdminSeeder creates a new admin seeder
func NewAdminSeeder(db *gorm.DB, email, password string) *AdminSeeder {
	return &AdminSeeder{db: db, email: strings.ToLower(email), password: password}
}

// SeedAdmin creates the default admin user unless an admin already exists.
func (s *AdminSeeder) SeedAdmin() error {
	var existing model.User
	err := s.db.Where("role = ?", model.RoleAdmin).First(&existing).Error
	if err == nil {
		log.Info().Str("email", existing.Email).Msg("Admin user already exists, skipping")
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(s.password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return err
	}

	now := time.Now()
	admin := model.User{
		ID:            id.String(),
		Email:         s.email,
		Username:      "admin",
		PasswordHash:  string(hashed),
		FirstName:     "Platform",
		LastName:      "Admin",
		Role:          model.RoleAdmin,
		Status:        model.UserStatusActive,
		EmailVerified: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&admin).Error; err != nil {
			return err
		}
		settings := model.DefaultUserSettings(admin.ID)
		if err := tx.Create(&settings).Error; err != nil {
			return err
		}
		log.Info().Str("email", admin.Email).Msg("Created admin user")
		return nil
	})
}
