package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PoolStatusUpcoming  = "upcoming"
	PoolStatusActive    = "active"
	PoolStatusCompleted = "completed"
	PoolStatusCancelled = "cancelled"

	// Derived states, never stored.
	PoolStatusSoldOut = "sold_out"
	PoolStatusEnded   = "ended"

	InvestmentStatusPending   = "pending"
	InvestmentStatusConfirmed = "confirmed"
	InvestmentStatusFailed    = "failed"
)

type IdoPool struct {
	ID               string          `json:"id" gorm:"primaryKey;type:text;not null"`
	ProjectID        string          `json:"project_id" gorm:"type:text;index"`
	Name             string          `json:"name" gorm:"not null;size:100"`
	Symbol           string          `json:"symbol" gorm:"not null;size:10"`
	TotalTokens      decimal.Decimal `json:"total_tokens" gorm:"type:numeric(38,18);not null"`
	TokenPrice       decimal.Decimal `json:"token_price" gorm:"type:numeric(38,18);not null"`
	MinInvestment    decimal.Decimal `json:"min_investment" gorm:"type:numeric(38,18);not null"`
	MaxInvestment    decimal.Decimal `json:"max_investment" gorm:"type:numeric(38,18);not null"`
	SoftCap          decimal.Decimal `json:"soft_cap" gorm:"type:numeric(38,18);not null"`
	HardCap          decimal.Decimal `json:"hard_cap" gorm:"type:numeric(38,18);not null"`
	TotalRaised      decimal.Decimal `json:"total_raised" gorm:"type:numeric(38,18);not null;default:0"`
	ParticipantCount int64           `json:"participant_count" gorm:"not null;default:0"`
	StartTime        int64           `json:"start_time" gorm:"not null;index"` // epoch ms
	EndTime          int64           `json:"end_time" gorm:"not null;index"`   // epoch ms
	Status           string          `json:"status" gorm:"not null;size:20;index"`
	VestingSchedule  string          `json:"-" gorm:"type:text"`
	Description      string          `json:"description" gorm:"type:text"`
	Terms            string          `json:"terms" gorm:"type:text"`
	CreatedAt        time.Time       `json:"created_at" gorm:"not null"`
	UpdatedAt        time.Time       `json:"updated_at" gorm:"not null"`
}

// ComputedStatus reports what a pool looks like to an investor at nowMs.
func (p *IdoPool) ComputedStatus(nowMs int64) string {
	switch {
	case p.TotalRaised.GreaterThanOrEqual(p.HardCap):
		return PoolStatusSoldOut
	case nowMs < p.StartTime:
		return PoolStatusUpcoming
	case nowMs > p.EndTime:
		return PoolStatusEnded
	default:
		return p.Status
	}
}

// ProgressPercentage is totalRaised / hardCap as a percentage rounded to 2 places.
func (p *IdoPool) ProgressPercentage() decimal.Decimal {
	if !p.HardCap.IsPositive() {
		return decimal.Zero
	}
	return p.TotalRaised.Mul(decimal.NewFromInt(100)).Div(p.HardCap).Round(2)
}

func (p *IdoPool) TimeRemaining(nowMs int64) int64 {
	if p.EndTime > nowMs {
		return p.EndTime - nowMs
	}
	return 0
}

type UserInvestment struct {
	ID              string          `json:"id" gorm:"primaryKey;type:text;not null"`
	UserID          string          `json:"user_id" gorm:"type:text;not null;index:idx_investment_user_pool,priority:1"`
	IdoPoolID       string          `json:"ido_pool_id" gorm:"type:text;not null;index:idx_investment_user_pool,priority:2"`
	Amount          decimal.Decimal `json:"amount" gorm:"type:numeric(38,18);not null"`
	TokenAmount     decimal.Decimal `json:"token_amount" gorm:"type:numeric(38,18);not null"`
	PaymentMethod   string          `json:"payment_method" gorm:"size:10"`
	WalletAddress   string          `json:"wallet_address" gorm:"size:128"`
	TransactionHash *string         `json:"transaction_hash" gorm:"size:128"`
	Status          string          `json:"status" gorm:"not null;size:20;index:idx_investment_user_pool,priority:3"`
	CreatedAt       time.Time       `json:"created_at" gorm:"not null"`
	UpdatedAt       time.Time       `json:"updated_at" gorm:"not null"`
}

// InvestmentSummary aggregates a user's confirmed investments in one pool.
type InvestmentSummary struct {
	TotalAmount     decimal.Decimal `json:"total_amount"`
	TotalTokens     decimal.Decimal `json:"total_tokens"`
	InvestmentCount int64           `json:"investment_count"`
}

type PoolStatistics struct {
	UniqueInvestors     int64           `json:"unique_investors"`
	AvgInvestment       decimal.Decimal `json:"avg_investment"`
	MinInvestmentActual decimal.Decimal `json:"min_investment_actual"`
	MaxInvestmentActual decimal.Decimal `json:"max_investment_actual"`
}

type PortfolioSummary struct {
	PoolsInvested      int64           `json:"pools_invested"`
	TotalInvested      decimal.Decimal `json:"total_invested"`
	TotalTokens        decimal.Decimal `json:"total_tokens"`
	PendingInvestments int64           `json:"pending_investments"`
	TotalInvestments   int64           `json:"total_investments"`
}

// InvestmentWithPool is a UserInvestment joined with its pool and project.
type InvestmentWithPool struct {
	UserInvestment
	PoolName     string          `json:"pool_name"`
	TokenSymbol  string          `json:"token_symbol"`
	TokenPrice   decimal.Decimal `json:"token_price"`
	PoolStatus   string          `json:"pool_status"`
	ProjectName  *string         `json:"project_name"`
	ProjectLogo  *string         `json:"project_logo"`
}

// PoolWithProject is an IdoPool joined with the owning project's display fields.
type PoolWithProject struct {
	IdoPool
	ProjectName     *string `json:"project_name"`
	ProjectLogo     *string `json:"project_logo"`
	ProjectWebsite  *string `json:"project_website"`
	ProjectCategory *string `json:"project_category"`
}
