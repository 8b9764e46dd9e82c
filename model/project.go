package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Project struct {
	ID                string          `json:"id" gorm:"primaryKey;type:text;not null"`
	Name              string          `json:"name" gorm:"not null;size:100;index"`
	Symbol            string          `json:"symbol" gorm:"not null;size:20;index"`
	Description       string          `json:"description" gorm:"type:text"`
	Website           string          `json:"website"`
	Whitepaper        string          `json:"whitepaper"`
	Logo              string          `json:"logo"`
	Banner            string          `json:"banner"`
	Category          string          `json:"category" gorm:"size:50;index"`
	Tags              string          `json:"-" gorm:"type:text"`
	TotalSupply       decimal.Decimal `json:"total_supply" gorm:"type:numeric(38,18)"`
	CirculatingSupply decimal.Decimal `json:"circulating_supply" gorm:"type:numeric(38,18)"`
	MarketCap         decimal.Decimal `json:"market_cap" gorm:"type:numeric(38,18)"`
	Price             decimal.Decimal `json:"price" gorm:"type:numeric(38,18)"`
	Change24h         decimal.Decimal `json:"change_24h" gorm:"column:change_24h;type:numeric(38,18)"`
	Volume24h         decimal.Decimal `json:"volume_24h" gorm:"column:volume_24h;type:numeric(38,18)"`
	Status            string          `json:"status" gorm:"size:20;index"`
	CreatedAt         time.Time       `json:"created_at" gorm:"not null"`
	UpdatedAt         time.Time       `json:"updated_at" gorm:"not null"`
}
