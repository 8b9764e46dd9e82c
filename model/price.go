package model

import "github.com/shopspring/decimal"

type PriceCache struct {
	Symbol      string          `json:"symbol" gorm:"primaryKey;size:20"`
	Price       decimal.Decimal `json:"price" gorm:"type:numeric(38,18)"`
	PriceUsd    decimal.Decimal `json:"price_usd" gorm:"type:numeric(38,18)"`
	Change24h   decimal.Decimal `json:"change_24h" gorm:"column:change_24h;type:numeric(38,18)"`
	Volume24h   decimal.Decimal `json:"volume_24h" gorm:"column:volume_24h;type:numeric(38,18)"`
	MarketCap   decimal.Decimal `json:"market_cap" gorm:"type:numeric(38,18)"`
	LastUpdated int64           `json:"last_updated"`
	Source      string          `json:"source" gorm:"size:50"`
}
