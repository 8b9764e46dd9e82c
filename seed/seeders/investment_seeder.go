package seeders

import (
	"context"
	"errors"
	"time"

	"github.com/lac-hong-legacy/ido_api/model"
	"github.com/lac-hong-legacy/ido_api/services/repositories"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const seedInvestmentID = "inv_admin_nebula"

// InvestmentSeeder gives the active pool one confirmed investment so pool
// statistics are not empty. Admin and pools must exist first.
type InvestmentSeeder struct {
	db *gorm.DB
}

func NewInvestmentSeeder(db *gorm.DB) *InvestmentSeeder {
	return &InvestmentSeeder{db: db}
}

func (s *InvestmentSeeder) SeedInvestments() error {
	var existing int64
	if err := s.db.Model(&model.UserInvestment{}).Where("id = ?", seedInvestmentID).Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		log.Info().Msg("Seed investment already exists, skipping")
		return nil
	}

	var admin model.User
	if err := s.db.Where("role = ?", model.RoleAdmin).First(&admin).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn().Msg("No admin user, skipping investment seeding")
			return nil
		}
		return err
	}

	amount := decimal.NewFromInt(1_000)
	now := time.Now()
	inv := &model.UserInvestment{
		ID:            seedInvestmentID,
		UserID:        admin.ID,
		IdoPoolID:     "pool_nebula_seed",
		Amount:        amount,
		TokenAmount:   amount.Div(decimal.RequireFromString("0.25")),
		PaymentMethod: "USDT",
		WalletAddress: "0x000000000000000000000000000000000000dEaD",
		Status:        model.InvestmentStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	ctx := context.Background()
	repo := repositories.NewIdoRepository(s.db)
	if err := repo.CommitInvestment(ctx, inv); err != nil {
		return err
	}
	if err := repo.SetInvestmentStatus(ctx, inv.ID, model.InvestmentStatusConfirmed); err != nil {
		return err
	}

	log.Info().Str("pool_id", inv.IdoPoolID).Msg("Seeded confirmed investment")
	return nil
}
