package dto

import (
	"github.com/lac-hong-legacy/ido_api/model"
	"github.com/shopspring/decimal"
)

// ==================== INVESTMENT ====================

type InvestRequest struct {
	Amount          decimal.Decimal `json:"amount" validate:"required,gt=0" swaggertype:"number" example:"50"`
	PaymentMethod   string          `json:"paymentMethod" validate:"omitempty,oneof=USDT USDC ETH BNB" example:"USDT"`
	WalletAddress   string          `json:"walletAddress" validate:"required,max=128" example:"0x71C7656EC7ab88b098defB751B7401B5f6d8976F"`
	TransactionHash string          `json:"transactionHash,omitempty" validate:"omitempty,max=128" example:"0x5c504ed432cb51138bcf09aa5e8a410dd4a1e204ef84bfed1be16dfba1b22060"`
}

func (r InvestRequest) Validate() error {
	return GetValidator().Struct(r)
}

type InvestResponse struct {
	InvestmentID string          `json:"investmentId"`
	Amount       decimal.Decimal `json:"amount" swaggertype:"number"`
	TokenAmount  decimal.Decimal `json:"tokenAmount" swaggertype:"number"`
	Status       string          `json:"status"`
	Message      string          `json:"message"`
}

// ==================== POOL QUERIES ====================

type PoolListQuery struct {
	PageQuery
	Status   string `query:"status" validate:"omitempty,oneof=upcoming active completed cancelled"`
	Category string `query:"category" validate:"omitempty,max=50"`
	Search   string `query:"search" validate:"omitempty,max=100"`
	Sort     string `query:"sort" validate:"omitempty,oneof=created_at start_time end_time total_raised participant_count"`
	Order    string `query:"order" validate:"omitempty,oneof=asc desc"`
}

func (q *PoolListQuery) Defaults() {
	q.PageQuery.Defaults()
	if q.Sort == "" {
		q.Sort = "start_time"
	}
	if q.Order == "" {
		q.Order = "asc"
	}
}

func (q PoolListQuery) Validate() error {
	return GetValidator().Struct(q)
}

type PoolSummary struct {
	model.PoolWithProject
	VestingSchedule    []VestingEntry  `json:"vesting_schedule"`
	ComputedStatus     string          `json:"computed_status"`
	ProgressPercentage decimal.Decimal `json:"progress_percentage" swaggertype:"number"`
	TimeRemaining      int64           `json:"time_remaining"`
}

type PoolListResponse struct {
	Pools      []PoolSummary `json:"pools"`
	Pagination Pagination    `json:"pagination"`
}

type UserPoolInvestment struct {
	Investments         []model.UserInvestment `json:"investments"`
	TotalAmount         decimal.Decimal        `json:"total_amount" swaggertype:"number"`
	TotalTokens         decimal.Decimal        `json:"total_tokens" swaggertype:"number"`
	InvestmentCount     int64                  `json:"investment_count"`
	RemainingAllocation decimal.Decimal        `json:"remaining_allocation" swaggertype:"number"`
}

type PoolDetailResponse struct {
	PoolSummary
	Statistics     model.PoolStatistics `json:"statistics"`
	UserInvestment *UserPoolInvestment  `json:"user_investment,omitempty"`
}

type PoolInvestmentsResponse struct {
	Investments []model.UserInvestment  `json:"investments"`
	Summary     model.InvestmentSummary `json:"summary"`
}

type MyInvestmentsResponse struct {
	Investments []model.InvestmentWithPool `json:"investments"`
	Pagination  Pagination                 `json:"pagination"`
	Summary     model.PortfolioSummary     `json:"summary"`
}

// ==================== POOL ADMINISTRATION ====================

type VestingEntry struct {
	Cliff      int64   `json:"cliff" validate:"gte=0"`
	Duration   int64   `json:"duration" validate:"gt=0"`
	Percentage float64 `json:"percentage" validate:"gte=0,lte=100"`
}

type CreatePoolRequest struct {
	ProjectID       string          `json:"projectId" validate:"required" example:"01926f1e-7c1a-7d3e-9f00-0a1b2c3d4e5f"`
	Name            string          `json:"name" validate:"required,max=100" example:"Nebula Seed Round"`
	Symbol          string          `json:"symbol" validate:"required,max=10" example:"NBL"`
	TotalTokens     decimal.Decimal `json:"totalTokens" validate:"required,gt=0" swaggertype:"number"`
	TokenPrice      decimal.Decimal `json:"tokenPrice" validate:"required,gt=0" swaggertype:"number"`
	MinInvestment   decimal.Decimal `json:"minInvestment" validate:"required,gt=0" swaggertype:"number"`
	MaxInvestment   decimal.Decimal `json:"maxInvestment" validate:"required,gt=0" swaggertype:"number"`
	SoftCap         decimal.Decimal `json:"softCap" validate:"required,gt=0" swaggertype:"number"`
	HardCap         decimal.Decimal `json:"hardCap" validate:"required,gt=0" swaggertype:"number"`
	StartTime       int64           `json:"startTime" validate:"required,gt=0" example:"1767225600000"`
	EndTime         int64           `json:"endTime" validate:"required,gt=0" example:"1767830400000"`
	VestingSchedule []VestingEntry  `json:"vestingSchedule" validate:"required,min=1,dive"`
	Description     string          `json:"description,omitempty"`
	Terms           string          `json:"terms,omitempty"`
}

func (r CreatePoolRequest) Validate() error {
	if err := GetValidator().Struct(r); err != nil {
		return err
	}
	switch {
	case r.EndTime <= r.StartTime:
		return &FieldError{Field: "endTime", Message: "End time must be after start time"}
	case r.MaxInvestment.LessThan(r.MinInvestment):
		return &FieldError{Field: "maxInvestment", Message: "Maximum investment must be greater than or equal to minimum investment"}
	case r.HardCap.LessThan(r.SoftCap):
		return &FieldError{Field: "hardCap", Message: "Hard cap must be greater than or equal to soft cap"}
	}
	return nil
}

type UpdatePoolStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active completed cancelled" example:"active"`
}

func (r UpdatePoolStatusRequest) Validate() error {
	return GetValidator().Struct(r)
}
