package seeders

import (
	"github.com/lac-hong-legacy/ido_api/model"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// MainSeeder coordinates all seeding operations
type MainSeeder struct {
	db            *gorm.DB
	adminEmail    string
	adminPassword string
}

// NewMainSeeder creates a new main seeder
func NewMainSeeder(db *gorm.DB, adminEmail, adminPassword string) *MainSeeder {
	return &MainSeeder{db: db, adminEmail: adminEmail, adminPassword: adminPassword}
}

// SeedAll runs all seeders in dependency order.
func (s *MainSeeder) SeedAll() error {
	log.Info().Msg("Starting database seeding...")

	if err := NewAdminSeeder(s.db, s.adminEmail, s.adminPassword).SeedAdmin(); err != nil {
		log.Error().Err(err).Msg("Admin seeding failed")
		return err
	}

	// pools reference projects
	if err := NewProjectSeeder(s.db).SeedProjects(); err != nil {
		log.Error().Err(err).Msg("Project seeding failed")
		return err
	}

	if err := NewPoolSeeder(s.db).SeedPools(); err != nil {
		log.Error().Err(err).Msg("Pool seeding failed")
		return err
	}

	if err := NewInvestmentSeeder(s.db).SeedInvestments(); err != nil {
		log.Error().Err(err).Msg("Investment seeding failed")
		return err
	}

	if err := NewPriceSeeder(s.db).SeedPrices(); err != nil {
		log.Error().Err(err).Msg("Price seeding failed")
		return err
	}

	log.Info().Msg("Database seeding completed successfully!")
	return nil
}

// Clear removes seeded domain data, children before parents. Users are kept.
func (s *MainSeeder) Clear() error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, m := range []interface{}{
			&model.UserInvestment{},
			&model.IdoPool{},
			&model.Project{},
			&model.PriceCache{},
		} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(m).Error; err != nil {
				return err
			}
		}
		log.Warn().Msg("Cleared investments, pools, projects and prices")
		return nil
	})
}
