package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type ProjectListQuery struct {
	PageQuery
	Category string `query:"category" validate:"omitempty,max=50"`
	Status   string `query:"status" validate:"omitempty,oneof=active upcoming completed cancelled"`
	Sort     string `query:"sort" validate:"omitempty,oneof=name price marketCap volume24h createdAt"`
	Order    string `query:"order" validate:"omitempty,oneof=asc desc"`
	Search   string `query:"search" validate:"omitempty,max=100"`
}

func (q *ProjectListQuery) Defaults() {
	q.PageQuery.Defaults()
	if q.Sort == "" {
		q.Sort = "createdAt"
	}
	if q.Order == "" {
		q.Order = "desc"
	}
}

func (q ProjectListQuery) Validate() error {
	return GetValidator().Struct(q)
}

type ProjectResponse struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Symbol            string          `json:"symbol"`
	Description       string          `json:"description"`
	Website           string          `json:"website"`
	Whitepaper        string          `json:"whitepaper"`
	Logo              string          `json:"logo"`
	Banner            string          `json:"banner"`
	Category          string          `json:"category"`
	Tags              []string        `json:"tags"`
	TotalSupply       decimal.Decimal `json:"totalSupply" swaggertype:"number"`
	CirculatingSupply decimal.Decimal `json:"circulatingSupply" swaggertype:"number"`
	MarketCap         decimal.Decimal `json:"marketCap" swaggertype:"number"`
	Price             decimal.Decimal `json:"price" swaggertype:"number"`
	Change24h         decimal.Decimal `json:"change24h" swaggertype:"number"`
	Volume24h         decimal.Decimal `json:"volume24h" swaggertype:"number"`
	Status            string          `json:"status"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

type ProjectListResponse struct {
	Projects   []ProjectResponse `json:"projects"`
	Pagination Pagination        `json:"pagination"`
}

type TrendingProject struct {
	ProjectID   string          `json:"projectId"`
	Name        string          `json:"name"`
	Symbol      string          `json:"symbol"`
	Logo        string          `json:"logo"`
	Price       decimal.Decimal `json:"price" swaggertype:"number"`
	Change24h   decimal.Decimal `json:"change24h" swaggertype:"number"`
	Volume24h   decimal.Decimal `json:"volume24h" swaggertype:"number"`
	MarketCap   decimal.Decimal `json:"marketCap" swaggertype:"number"`
	Rank        int             `json:"rank"`
	Score       decimal.Decimal `json:"score" swaggertype:"number"`
	LastUpdated int64           `json:"lastUpdated"`
}
