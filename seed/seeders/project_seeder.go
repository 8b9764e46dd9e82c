package seeders

import (
	"time"

	"github.com/lac-hong-legacy/ido_api/model"
	"github.com/lac-hong-legacy/ido_api/shared"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProjectSeeder handles seeding listed projects
type ProjectSeeder struct {
	db *gorm.DB
}

func NewProjectSeeder(db *gorm.DB) *ProjectSeeder {
	return &ProjectSeeder{db: db}
}

type projectSeed struct {
	id, name, symbol, category, description string
	tags                                    []string
	price, change, volume, supply           string
	status                                  string
}

var projectSeeds = []projectSeed{
	{
		id: "proj_nebula", name: "Nebula Protocol", symbol: "NBL", category: "defi",
		description: "Cross-chain liquidity routing with on-chain order books.",
		tags:        []string{"defi", "dex", "cross-chain"},
		price:       "0.42", change: "12.5", volume: "1850000", supply: "1000000000", status: "active",
	},
	{
		id: "proj_orbit", name: "Orbit Games", symbol: "ORB", category: "gaming",
		description: "Player-owned economies for mobile strategy games.",
		tags:        []string{"gaming", "nft"},
		price:       "0.085", change: "-4.2", volume: "620000", supply: "5000000000", status: "active",
	},
	{
		id: "proj_ledgerlane", name: "LedgerLane", symbol: "LGL", category: "infrastructure",
		description: "Indexing and query layer for rollup data.",
		tags:        []string{"infrastructure", "data", "rollup"},
		price:       "1.76", change: "3.1", volume: "2400000", supply: "250000000", status: "active",
	},
	{
		id: "proj_verdant", name: "Verdant Carbon", symbol: "VRD", category: "sustainability",
		description: "Tokenized, audited carbon removal credits.",
		tags:        []string{"rwa", "climate"},
		price:       "0.12", change: "0", volume: "0", supply: "800000000", status: "upcoming",
	},
}

// SeedProjects upserts the demo projects by id.
func (s *ProjectSeeder) SeedProjects() error {
	now := time.Now()

	for _, seed := range projectSeeds {
		tags, err := shared.JSONAPI.MarshalToString(seed.tags)
		if err != nil {
			return err
		}

		price := decimal.RequireFromString(seed.price)
		supply := decimal.RequireFromString(seed.supply)
		circulating := supply.Mul(decimal.NewFromFloat(0.35)).Round(0)

		project := model.Project{
			ID:                seed.id,
			Name:              seed.name,
			Symbol:            seed.symbol,
			Description:       seed.description,
			Website:           "https://example.com/" + seed.id,
			Category:          seed.category,
			Tags:              tags,
			TotalSupply:       supply,
			CirculatingSupply: circulating,
			MarketCap:         circulating.Mul(price),
			Price:             price,
			Change24h:         decimal.RequireFromString(seed.change),
			Volume24h:         decimal.RequireFromString(seed.volume),
			Status:            seed.status,
			CreatedAt:         now,
			UpdatedAt:         now,
		}

		if err := s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&project).Error; err != nil {
			log.Error().Err(err).Str("project", seed.name).Msg("Error seeding project")
			return err
		}
		log.Info().Str("project", seed.name).Msg("Seeded project")
	}

	return nil
}
