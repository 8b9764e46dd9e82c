package seeders

import (
	"time"

	"github.com/lac-hong-legacy/ido_api/dto"
	"github.com/lac-hong-legacy/ido_api/model"
	"github.com/lac-hong-legacy/ido_api/shared"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PoolSeeder handles seeding IDO pools. Projects must exist first.
type PoolSeeder struct {
	db *gorm.DB
}

func NewPoolSeeder(db *gorm.DB) *PoolSeeder {
	return &PoolSeeder{db: db}
}

var defaultVesting = []dto.VestingEntry{
	{Cliff: 0, Duration: 30, Percentage: 20},
	{Cliff: 30, Duration: 180, Percentage: 80},
}

// SeedPools creates one active, one upcoming and one completed pool relative to now.
func (s *PoolSeeder) SeedPools() error {
	vesting, err := shared.JSONAPI.MarshalToString(defaultVesting)
	if err != nil {
		return err
	}

	now := time.Now()
	day := 24 * time.Hour

	pools := []model.IdoPool{
		{
			ID:            "pool_nebula_seed",
			ProjectID:     "proj_nebula",
			Name:          "Nebula Seed Round",
			Symbol:        "NBL",
			TotalTokens:   decimal.NewFromInt(2_000_000),
			TokenPrice:    decimal.RequireFromString("0.25"),
			MinInvestment: decimal.NewFromInt(50),
			MaxInvestment: decimal.NewFromInt(5_000),
			SoftCap:       decimal.NewFromInt(100_000),
			HardCap:       decimal.NewFromInt(500_000),
			StartTime:     now.Add(-2 * day).UnixMilli(),
			EndTime:       now.Add(5 * day).UnixMilli(),
			Status:        model.PoolStatusActive,
			Description:   "Seed allocation for early Nebula liquidity providers.",
		},
		{
			ID:            "pool_verdant_public",
			ProjectID:     "proj_verdant",
			Name:          "Verdant Public Sale",
			Symbol:        "VRD",
			TotalTokens:   decimal.NewFromInt(10_000_000),
			TokenPrice:    decimal.RequireFromString("0.05"),
			MinInvestment: decimal.NewFromInt(25),
			MaxInvestment: decimal.NewFromInt(2_500),
			SoftCap:       decimal.NewFromInt(150_000),
			HardCap:       decimal.NewFromInt(500_000),
			StartTime:     now.Add(7 * day).UnixMilli(),
			EndTime:       now.Add(14 * day).UnixMilli(),
			Status:        model.PoolStatusUpcoming,
		},
		{
			ID:            "pool_orbit_private",
			ProjectID:     "proj_orbit",
			Name:          "Orbit Private Round",
			Symbol:        "ORB",
			TotalTokens:   decimal.NewFromInt(20_000_000),
			TokenPrice:    decimal.RequireFromString("0.01"),
			MinInvestment: decimal.NewFromInt(100),
			MaxInvestment: decimal.NewFromInt(10_000),
			SoftCap:       decimal.NewFromInt(50_000),
			HardCap:       decimal.NewFromInt(200_000),
			TotalRaised:   decimal.NewFromInt(200_000),
			StartTime:     now.Add(-30 * day).UnixMilli(),
			EndTime:       now.Add(-20 * day).UnixMilli(),
			Status:        model.PoolStatusCompleted,
		},
	}

	for i := range pools {
		pools[i].VestingSchedule = vesting
		pools[i].CreatedAt = now
		pools[i].UpdatedAt = now

		if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&pools[i]).Error; err != nil {
			log.Error().Err(err).Str("pool", pools[i].Name).Msg("Error seeding pool")
			return err
		}
		log.Info().Str("pool", pools[i].Name).Str("status", pools[i].Status).Msg("Seeded pool")
	}

	return nil
}
