package dto

import "github.com/shopspring/decimal"

type PriceQuery struct {
	Symbols           string `query:"symbols"`
	VsCurrency        string `query:"vs_currency" validate:"omitempty,alpha,max=10"`
	Include24hrChange bool   `query:"include_24hr_change"`
	Include24hrVol    bool   `query:"include_24hr_vol"`
	IncludeMarketCap  bool   `query:"include_market_cap"`
}

func (q PriceQuery) Validate() error {
	return GetValidator().Struct(q)
}

type PriceData struct {
	Symbol      string           `json:"symbol"`
	Price       decimal.Decimal  `json:"price" swaggertype:"number"`
	PriceUsd    decimal.Decimal  `json:"priceUsd" swaggertype:"number"`
	Change24h   *decimal.Decimal `json:"change24h,omitempty" swaggertype:"number"`
	Volume24h   *decimal.Decimal `json:"volume24h,omitempty" swaggertype:"number"`
	MarketCap   *decimal.Decimal `json:"marketCap,omitempty" swaggertype:"number"`
	LastUpdated int64            `json:"lastUpdated"`
	Source      string           `json:"source,omitempty"`
}

type PriceAnalysis struct {
	HighestPrice   *PriceData      `json:"highest_price"`
	LowestPrice    *PriceData      `json:"lowest_price"`
	HighestChange  *PriceData      `json:"highest_change"`
	LowestChange   *PriceData      `json:"lowest_change"`
	HighestVolume  *PriceData      `json:"highest_volume"`
	TotalMarketCap decimal.Decimal `json:"total_market_cap" swaggertype:"number"`
}

type PriceComparison struct {
	Symbols  []string      `json:"symbols"`
	Prices   []PriceData   `json:"prices"`
	Analysis PriceAnalysis `json:"analysis"`
}

type TrendingPrice struct {
	PriceData
	Trend      string          `json:"trend"`
	Volatility decimal.Decimal `json:"volatility" swaggertype:"number"`
}
