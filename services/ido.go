package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/google/uuid"
	"github.com/lac-hong-legacy/ido_api/dto"
	"github.com/lac-hong-legacy/ido_api/model"
	"github.com/lac-hong-legacy/ido_api/services/repositories"
	"github.com/lac-hong-legacy/ido_api/shared"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	IDO_SVC = "ido_svc"

	poolDetailTTL = 60 * time.Second
	poolListTTL   = 300 * time.Second

	tokenAmountPrecision = 18

	investmentSubmittedMessage = "Investment submitted successfully. Please complete the payment to confirm your investment."
)

// IdoStore is the relational side of pools and investments.
type IdoStore interface {
	GetPool(ctx context.Context, poolID string) (*model.IdoPool, error)
	GetPoolWithProject(ctx context.Context, poolID string) (*model.PoolWithProject, error)
	ListPools(ctx context.Context, q dto.PoolListQuery) ([]model.PoolWithProject, int64, error)
	ProjectExists(ctx context.Context, projectID string) (bool, error)
	CreatePool(ctx context.Context, pool *model.IdoPool) error
	UpdatePoolStatus(ctx context.Context, poolID string, from []string, status string) error
	GetPoolStatistics(ctx context.Context, poolID string) (model.PoolStatistics, error)
	GetConfirmedSummary(ctx context.Context, userID, poolID string) (model.InvestmentSummary, error)
	ListUserPoolInvestments(ctx context.Context, userID, poolID string) ([]model.UserInvestment, error)
	ListUserInvestments(ctx context.Context, userID string, page dto.PageQuery) ([]model.InvestmentWithPool, int64, error)
	GetPortfolioSummary(ctx context.Context, userID string) (model.PortfolioSummary, error)
	CommitInvestment(ctx context.Context, inv *model.UserInvestment) error
}

// poolTransitions lists, per target status, the statuses an operator may move a pool from.
var poolTransitions = map[string][]string{
	model.PoolStatusActive:    {model.PoolStatusUpcoming},
	model.PoolStatusCompleted: {model.PoolStatusActive},
	model.PoolStatusCancelled: {model.PoolStatusUpcoming, model.PoolStatusActive},
}

type IdoService struct {
	appContext.DefaultService

	store IdoStore
	cache CounterStore
	sink  EventSink
	now   func() time.Time
}

func NewIdoService(store IdoStore, cache CounterStore, sink EventSink, now func() time.Time) *IdoService {
	if sink == nil {
		sink = discardSink{}
	}
	if now == nil {
		now = time.Now
	}
	return &IdoService{store: store, cache: cache, sink: sink, now: now}
}

func (svc IdoService) Id() string {
	return IDO_SVC
}

func (svc *IdoService) Configure(ctx *appContext.Context) error {
	svc.now = time.Now
	return svc.DefaultService.Configure(ctx)
}

func (svc *IdoService) Start() error {
	svc.store = repositories.NewIdoRepository(svc.Service(POSTGRES_SVC).(*PostgresService).Db())
	svc.cache = svc.Service(REDIS_SVC).(*RedisService)
	svc.sink = svc.Service(ANALYTICS_SVC).(*AnalyticsService)
	return nil
}

func poolCacheKey(poolID string) string {
	return "ido_pool:" + poolID
}

func poolListCacheKey(q dto.PoolListQuery) string {
	return fmt.Sprintf("ido_pools:%s:%s:%s:%s:%s:%d:%d",
		q.Status, q.Category, strings.ToLower(q.Search), q.Sort, q.Order, q.Page, q.Limit)
}

// ==================== ADMISSION ====================

// AdmitInvestment validates an investment against the pool and the user's
// allocation, then records it. The checks below give early, descriptive
// rejections; the hard cap itself is enforced by the conditional update inside
// CommitInvestment, so concurrent admissions can never push a pool past it.
func (svc *IdoService) AdmitInvestment(ctx context.Context, poolID, userID string, req dto.InvestRequest) (*dto.InvestResponse, error) {
	pool, err := svc.store.GetPool(ctx, poolID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, svc.reject("not_found", shared.NewNotFoundError(err, "IDO pool not found"))
		}
		return nil, shared.NewInternalError(err, "Failed to load IDO pool")
	}

	if pool.Status != model.PoolStatusActive {
		return nil, svc.reject("inactive", shared.NewConflictError(nil, "IDO pool is not active"))
	}

	nowMs := svc.now().UnixMilli()
	if nowMs < pool.StartTime {
		return nil, svc.reject("not_started", shared.NewConflictError(nil, "IDO has not started yet"))
	}
	if nowMs > pool.EndTime {
		return nil, svc.reject("ended", shared.NewConflictError(nil, "IDO has ended"))
	}

	if pool.TotalRaised.Add(req.Amount).GreaterThan(pool.HardCap) {
		return nil, svc.reject("hard_cap", shared.NewConflictError(nil, "Investment would exceed hard cap"))
	}

	confirmed, err := svc.store.GetConfirmedSummary(ctx, userID, poolID)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to load user investments")
	}

	if req.Amount.LessThan(pool.MinInvestment) {
		return nil, svc.reject("below_minimum",
			shared.NewConflictError(nil, fmt.Sprintf("Minimum investment is %s", pool.MinInvestment.String())))
	}
	if confirmed.TotalAmount.Add(req.Amount).GreaterThan(pool.MaxInvestment) {
		return nil, svc.reject("above_maximum",
			shared.NewConflictError(nil, fmt.Sprintf("Maximum investment per user is %s", pool.MaxInvestment.String())))
	}

	paymentMethod := req.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = shared.PaymentUSDT
	}

	investmentID, err := uuid.NewV7()
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to generate investment ID")
	}

	now := svc.now()
	investment := &model.UserInvestment{
		ID:            investmentID.String(),
		UserID:        userID,
		IdoPoolID:     poolID,
		Amount:        req.Amount,
		TokenAmount:   req.Amount.DivRound(pool.TokenPrice, tokenAmountPrecision),
		PaymentMethod: paymentMethod,
		WalletAddress: req.WalletAddress,
		Status:        model.InvestmentStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if req.TransactionHash != "" {
		investment.TransactionHash = &req.TransactionHash
	}

	if err := svc.store.CommitInvestment(ctx, investment); err != nil {
		if errors.Is(err, repositories.ErrHardCapExceeded) {
			return nil, svc.reject("hard_cap", shared.NewConflictError(err, "Investment would exceed hard cap"))
		}
		return nil, shared.NewInternalError(err, "Failed to record investment")
	}

	invalidateCache(ctx, svc.cache, poolCacheKey(poolID))

	amount, _ := investment.Amount.Float64()
	tokens, _ := investment.TokenAmount.Float64()
	svc.sink.WriteDataPoint(model.AnalyticsEvent{
		Name:    "ido_investment",
		Blobs:   []string{"ido_investment", poolID, userID, paymentMethod},
		Doubles: []float64{float64(now.UnixMilli()), amount, tokens},
		Indexes: []string{userID, poolID},
	})
	idoInvestmentsTotal.WithLabelValues(paymentMethod).Inc()

	log.Info().
		Str("investment_id", investment.ID).
		Str("pool_id", poolID).
		Str("user_id", userID).
		Str("amount", investment.Amount.String()).
		Msg("Investment admitted")

	return &dto.InvestResponse{
		InvestmentID: investment.ID,
		Amount:       investment.Amount,
		TokenAmount:  investment.TokenAmount,
		Status:       model.InvestmentStatusPending,
		Message:      investmentSubmittedMessage,
	}, nil
}

func (svc *IdoService) reject(reason string, err *shared.AppError) error {
	idoAdmissionRejectionsTotal.WithLabelValues(reason).Inc()
	return err
}

// ==================== READ SIDE ====================

// ListPools returns a page of pools and whether it was served from cache.
func (svc *IdoService) ListPools(ctx context.Context, q dto.PoolListQuery, viewerID string) (*dto.PoolListResponse, bool, error) {
	defer svc.trackView("ido_pools_viewed", firstNonEmpty(q.Status, "all"), viewerID, float64(q.Page), float64(q.Limit))

	key := poolListCacheKey(q)
	var cached dto.PoolListResponse
	if readCache(ctx, svc.cache, key, &cached) {
		return &cached, true, nil
	}

	pools, total, err := svc.store.ListPools(ctx, q)
	if err != nil {
		return nil, false, shared.NewInternalError(err, "Failed to list IDO pools")
	}

	nowMs := svc.now().UnixMilli()
	resp := &dto.PoolListResponse{
		Pools:      make([]dto.PoolSummary, 0, len(pools)),
		Pagination: dto.NewPagination(q.Page, q.Limit, total),
	}
	for _, p := range pools {
		resp.Pools = append(resp.Pools, summarizePool(p, nowMs))
	}

	writeCache(ctx, svc.cache, key, resp, poolListTTL)
	return resp, false, nil
}

// GetPool returns pool detail. The shared part is cached; the caller's own
// investment block is added per request when viewerID is set.
func (svc *IdoService) GetPool(ctx context.Context, poolID, viewerID string) (*dto.PoolDetailResponse, error) {
	defer svc.trackView("ido_pool_viewed", poolID, viewerID)

	var detail dto.PoolDetailResponse
	if !readCache(ctx, svc.cache, poolCacheKey(poolID), &detail) {
		pool, err := svc.store.GetPoolWithProject(ctx, poolID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, shared.NewNotFoundError(err, "IDO pool not found")
			}
			return nil, shared.NewInternalError(err, "Failed to load IDO pool")
		}

		stats, err := svc.store.GetPoolStatistics(ctx, poolID)
		if err != nil {
			return nil, shared.NewInternalError(err, "Failed to load pool statistics")
		}

		detail = dto.PoolDetailResponse{
			PoolSummary: summarizePool(*pool, svc.now().UnixMilli()),
			Statistics:  stats,
		}
		writeCache(ctx, svc.cache, poolCacheKey(poolID), detail, poolDetailTTL)
	}

	if viewerID != "" {
		investments, err := svc.store.ListUserPoolInvestments(ctx, viewerID, poolID)
		if err != nil {
			return nil, shared.NewInternalError(err, "Failed to load user investments")
		}
		summary, err := svc.store.GetConfirmedSummary(ctx, viewerID, poolID)
		if err != nil {
			return nil, shared.NewInternalError(err, "Failed to load user investments")
		}

		remaining := detail.MaxInvestment.Sub(summary.TotalAmount)
		if remaining.IsNegative() {
			remaining = decimal.Zero
		}
		detail.UserInvestment = &dto.UserPoolInvestment{
			Investments:         investments,
			TotalAmount:         summary.TotalAmount,
			TotalTokens:         summary.TotalTokens,
			InvestmentCount:     summary.InvestmentCount,
			RemainingAllocation: remaining,
		}
	}

	return &detail, nil
}

func (svc *IdoService) GetPoolInvestments(ctx context.Context, poolID, userID string) (*dto.PoolInvestmentsResponse, error) {
	investments, err := svc.store.ListUserPoolInvestments(ctx, userID, poolID)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to load investments")
	}
	summary, err := svc.store.GetConfirmedSummary(ctx, userID, poolID)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to load investment summary")
	}
	return &dto.PoolInvestmentsResponse{Investments: investments, Summary: summary}, nil
}

func (svc *IdoService) GetMyInvestments(ctx context.Context, userID string, page dto.PageQuery) (*dto.MyInvestmentsResponse, error) {
	investments, total, err := svc.store.ListUserInvestments(ctx, userID, page)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to load investments")
	}
	summary, err := svc.store.GetPortfolioSummary(ctx, userID)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to load portfolio summary")
	}
	return &dto.MyInvestmentsResponse{
		Investments: investments,
		Pagination:  dto.NewPagination(page.Page, page.Limit, total),
		Summary:     summary,
	}, nil
}

// ==================== ADMINISTRATION ====================

func (svc *IdoService) CreatePool(ctx context.Context, req dto.CreatePoolRequest) (*dto.PoolSummary, error) {
	exists, err := svc.store.ProjectExists(ctx, req.ProjectID)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to load project")
	}
	if !exists {
		return nil, shared.NewNotFoundError(nil, "Project not found")
	}

	vesting, err := shared.JSONAPI.MarshalToString(req.VestingSchedule)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to encode vesting schedule")
	}

	poolID, err := uuid.NewV7()
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to generate pool ID")
	}

	now := svc.now()
	pool := &model.IdoPool{
		ID:              poolID.String(),
		ProjectID:       req.ProjectID,
		Name:            strings.TrimSpace(req.Name),
		Symbol:          strings.ToUpper(strings.TrimSpace(req.Symbol)),
		TotalTokens:     req.TotalTokens,
		TokenPrice:      req.TokenPrice,
		MinInvestment:   req.MinInvestment,
		MaxInvestment:   req.MaxInvestment,
		SoftCap:         req.SoftCap,
		HardCap:         req.HardCap,
		TotalRaised:     decimal.Zero,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		Status:          model.PoolStatusUpcoming,
		VestingSchedule: vesting,
		Description:     req.Description,
		Terms:           req.Terms,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := svc.store.CreatePool(ctx, pool); err != nil {
		return nil, shared.NewInternalError(err, "Failed to create IDO pool")
	}

	log.Info().Str("pool_id", pool.ID).Str("project_id", pool.ProjectID).Msg("IDO pool created")

	summary := summarizePool(model.PoolWithProject{IdoPool: *pool}, now.UnixMilli())
	return &summary, nil
}

// UpdatePoolStatus applies an operator transition. The update is conditional
// on the status read here so a concurrent transition is reported as a conflict.
func (svc *IdoService) UpdatePoolStatus(ctx context.Context, poolID string, req dto.UpdatePoolStatusRequest) (*dto.PoolSummary, error) {
	pool, err := svc.store.GetPool(ctx, poolID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError(err, "IDO pool not found")
		}
		return nil, shared.NewInternalError(err, "Failed to load IDO pool")
	}

	invalid := shared.NewConflictError(nil, fmt.Sprintf("Cannot change pool status from %s to %s", pool.Status, req.Status))
	if !containsString(poolTransitions[req.Status], pool.Status) {
		return nil, invalid
	}

	if err := svc.store.UpdatePoolStatus(ctx, poolID, []string{pool.Status}, req.Status); err != nil {
		if errors.Is(err, repositories.ErrPoolStatusChanged) {
			return nil, invalid
		}
		return nil, shared.NewInternalError(err, "Failed to update pool status")
	}

	invalidateCache(ctx, svc.cache, poolCacheKey(poolID))

	log.Info().Str("pool_id", poolID).Str("from", pool.Status).Str("to", req.Status).Msg("IDO pool status changed")

	updated, err := svc.store.GetPoolWithProject(ctx, poolID)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to reload IDO pool")
	}
	summary := summarizePool(*updated, svc.now().UnixMilli())
	return &summary, nil
}

// ==================== HELPERS ====================

func summarizePool(p model.PoolWithProject, nowMs int64) dto.PoolSummary {
	vesting := []dto.VestingEntry{}
	if p.VestingSchedule != "" {
		if err := shared.JSONAPI.UnmarshalFromString(p.VestingSchedule, &vesting); err != nil {
			log.Warn().Err(err).Str("pool_id", p.ID).Msg("Invalid vesting schedule")
			vesting = []dto.VestingEntry{}
		}
	}
	return dto.PoolSummary{
		PoolWithProject:    p,
		VestingSchedule:    vesting,
		ComputedStatus:     p.ComputedStatus(nowMs),
		ProgressPercentage: p.ProgressPercentage(),
		TimeRemaining:      p.TimeRemaining(nowMs),
	}
}

func (svc *IdoService) trackView(event, subject, viewerID string, extra ...float64) {
	doubles := append([]float64{float64(svc.now().UnixMilli())}, extra...)
	svc.sink.WriteDataPoint(model.AnalyticsEvent{
		Name:    event,
		Blobs:   []string{event, subject},
		Doubles: doubles,
		Indexes: []string{firstNonEmpty(viewerID, "anonymous")},
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
