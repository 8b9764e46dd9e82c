package repositories

import (
	"context"

	"github.com/lac-hong-legacy/ido_api/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PriceRepository struct {
	BaseRepository
}

func NewPriceRepository(db *gorm.DB) *PriceRepository {
	return &PriceRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

func (ds *PriceRepository) GetPrice(ctx context.Context, symbol string) (*model.PriceCache, error) {
	var price model.PriceCache
	if err := ds.db.WithContext(ctx).Where("symbol = ?", symbol).First(&price).Error; err != nil {
		return nil, err
	}
	return &price, nil
}

// GetPrices returns the cached rows for symbols ordered by symbol. Missing symbols are skipped.
func (ds *PriceRepository) GetPrices(ctx context.Context, symbols []string) ([]model.PriceCache, error) {
	prices := []model.PriceCache{}
	err := ds.db.WithContext(ctx).
		Where("symbol IN ?", symbols).
		Order("symbol ASC").
		Find(&prices).Error
	return prices, err
}

// TopSymbols returns the symbols with the largest market cap.
func (ds *PriceRepository) TopSymbols(ctx context.Context, limit int) ([]string, error) {
	symbols := []string{}
	err := ds.db.WithContext(ctx).
		Model(&model.PriceCache{}).
		Where("market_cap IS NOT NULL").
		Order("market_cap DESC").
		Limit(limit).
		Pluck("symbol", &symbols).Error
	return symbols, err
}

// TrendingPrices orders by absolute 24h change, then volume.
func (ds *PriceRepository) TrendingPrices(ctx context.Context, limit int) ([]model.PriceCache, error) {
	prices := []model.PriceCache{}
	err := ds.db.WithContext(ctx).
		Where("change_24h IS NOT NULL").
		Order("ABS(change_24h) DESC, volume_24h DESC").
		Limit(limit).
		Find(&prices).Error
	return prices, err
}

func (ds *PriceRepository) UpsertPrices(ctx context.Context, prices []model.PriceCache) error {
	if len(prices) == 0 {
		return nil
	}
	return ds.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "symbol"}},
			UpdateAll: true,
		}).
		Create(&prices).Error
}
