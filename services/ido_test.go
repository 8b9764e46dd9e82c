package services

import (
	"context"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/lac-hong-legacy/ido_api/dto"
	"github.com/lac-hong-legacy/ido_api/model"
	"github.com/lac-hong-legacy/ido_api/services/repositories"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type idoFixture struct {
	svc   *IdoService
	db    *PostgresService
	repo  *repositories.IdoRepository
	cache *memoryStore
	sink  *recordingSink
	clock *fakeClock
}

func newIdoFixture(t *testing.T) *idoFixture {
	t.Helper()
	db := newTestPostgres(t)
	repo := repositories.NewIdoRepository(db.Db())
	f := &idoFixture{
		db:    db,
		repo:  repo,
		cache: newMemoryStore(),
		sink:  &recordingSink{},
		clock: &fakeClock{t: time.UnixMilli(1_767_225_600_000)},
	}
	f.svc = NewIdoService(repo, f.cache, f.sink, f.clock.now)
	return f
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (f *idoFixture) seedProject(t *testing.T) *model.Project {
	t.Helper()
	now := f.clock.now()
	project := &model.Project{
		ID:        uuid.NewString(),
		Name:      "Nebula",
		Symbol:    "NBL",
		Category:  "defi",
		Status:    "active",
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, f.db.Db().Create(project).Error)
	return project
}

// seedPool creates an active pool open around the fixture clock with
// hardCap 1000, minInvestment 10, maxInvestment 500 and tokenPrice 0.5.
func (f *idoFixture) seedPool(t *testing.T, mutate func(p *model.IdoPool)) *model.IdoPool {
	t.Helper()
	now := f.clock.now()
	pool := &model.IdoPool{
		ID:              uuid.NewString(),
		ProjectID:       f.seedProject(t).ID,
		Name:            "Nebula Seed",
		Symbol:          "NBL",
		TotalTokens:     dec("2000"),
		TokenPrice:      dec("0.5"),
		MinInvestment:   dec("10"),
		MaxInvestment:   dec("500"),
		SoftCap:         dec("100"),
		HardCap:         dec("1000"),
		TotalRaised:     decimal.Zero,
		StartTime:       now.Add(-time.Hour).UnixMilli(),
		EndTime:         now.Add(time.Hour).UnixMilli(),
		Status:          model.PoolStatusActive,
		VestingSchedule: `[{"cliff":0,"duration":30,"percentage":100}]`,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if mutate != nil {
		mutate(pool)
	}
	require.NoError(t, f.db.Db().Create(pool).Error)
	return pool
}

func (f *idoFixture) seedConfirmed(t *testing.T, poolID, userID string, amount string) {
	t.Helper()
	now := f.clock.now()
	require.NoError(t, f.db.Db().Create(&model.UserInvestment{
		ID:          uuid.NewString(),
		UserID:      userID,
		IdoPoolID:   poolID,
		Amount:      dec(amount),
		TokenAmount: dec(amount).Mul(dec("2")),
		Status:      model.InvestmentStatusConfirmed,
		CreatedAt:   now,
		UpdatedAt:   now,
	}).Error)
}

func investRequest(amount string) dto.InvestRequest {
	return dto.InvestRequest{
		Amount:        dec(amount),
		PaymentMethod: "USDC",
		WalletAddress: "0x71C7656EC7ab88b098defB751B7401B5f6d8976F",
	}
}

func TestAdmitInvestmentEnforcesHardCap(t *testing.T) {
	f := newIdoFixture(t)
	ctx := context.Background()
	pool := f.seedPool(t, func(p *model.IdoPool) { p.TotalRaised = dec("900") })
	f.cache.data[poolCacheKey(pool.ID)] = "{}"

	_, err := f.svc.AdmitInvestment(ctx, pool.ID, "user-1", investRequest("150"))
	requireAppError(t, err, fiber.StatusConflict, "Investment would exceed hard cap")

	resp, err := f.svc.AdmitInvestment(ctx, pool.ID, "user-1", investRequest("50"))
	require.NoError(t, err)
	assert.NotEmpty(t, resp.InvestmentID)
	assert.Equal(t, model.InvestmentStatusPending, resp.Status)
	assert.True(t, dec("100").Equal(resp.TokenAmount), "got %s", resp.TokenAmount)
	assert.Equal(t, investmentSubmittedMessage, resp.Message)

	stored, err := f.repo.GetPool(ctx, pool.ID)
	require.NoError(t, err)
	assert.True(t, dec("950").Equal(stored.TotalRaised), "got %s", stored.TotalRaised)
	assert.Equal(t, int64(1), stored.ParticipantCount)

	assert.False(t, f.cache.has(poolCacheKey(pool.ID)), "pool detail cache is invalidated")
	require.Equal(t, []string{"ido_investment"}, f.sink.names())
	ev := f.sink.events[0]
	assert.Equal(t, []string{"user-1", pool.ID}, ev.Indexes)
	assert.Equal(t, []float64{float64(f.clock.now().UnixMilli()), 50, 100}, ev.Doubles)
}

func TestAdmitInvestmentDefaultsPaymentMethod(t *testing.T) {
	f := newIdoFixture(t)
	ctx := context.Background()
	pool := f.seedPool(t, nil)

	req := investRequest("20")
	req.PaymentMethod = ""
	req.TransactionHash = "0xabc"
	resp, err := f.svc.AdmitInvestment(ctx, pool.ID, "user-1", req)
	require.NoError(t, err)

	investments, err := f.repo.ListUserPoolInvestments(ctx, "user-1", pool.ID)
	require.NoError(t, err)
	require.Len(t, investments, 1)
	assert.Equal(t, resp.InvestmentID, investments[0].ID)
	assert.Equal(t, "USDT", investments[0].PaymentMethod)
	require.NotNil(t, investments[0].TransactionHash)
	assert.Equal(t, "0xabc", *investments[0].TransactionHash)
}

func TestAdmitInvestmentRejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *model.IdoPool)
		amount  string
		prior   string
		status  int
		message string
	}{
		{
			name:    "upcoming pool",
			mutate:  func(p *model.IdoPool) { p.Status = model.PoolStatusUpcoming },
			amount:  "50",
			status:  fiber.StatusConflict,
			message: "IDO pool is not active",
		},
		{
			name: "before start",
			mutate: func(p *model.IdoPool) {
				p.StartTime = p.EndTime - 1000
			},
			amount:  "50",
			status:  fiber.StatusConflict,
			message: "IDO has not started yet",
		},
		{
			name: "after end",
			mutate: func(p *model.IdoPool) {
				p.EndTime = p.StartTime + 1000
			},
			amount:  "50",
			status:  fiber.StatusConflict,
			message: "IDO has ended",
		},
		{
			name:    "below minimum",
			amount:  "5",
			status:  fiber.StatusConflict,
			message: "Minimum investment is 10",
		},
		{
			name:    "above per-user maximum",
			amount:  "100",
			prior:   "450",
			status:  fiber.StatusConflict,
			message: "Maximum investment per user is 500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newIdoFixture(t)
			pool := f.seedPool(t, tt.mutate)
			if tt.prior != "" {
				f.seedConfirmed(t, pool.ID, "user-1", tt.prior)
			}

			_, err := f.svc.AdmitInvestment(context.Background(), pool.ID, "user-1", investRequest(tt.amount))
			requireAppError(t, err, tt.status, tt.message)
			assert.Empty(t, f.sink.names())

			stored, err := f.repo.GetPool(context.Background(), pool.ID)
			require.NoError(t, err)
			assert.True(t, stored.TotalRaised.IsZero())
		})
	}
}

func TestAdmitInvestmentUnknownPool(t *testing.T) {
	f := newIdoFixture(t)
	_, err := f.svc.AdmitInvestment(context.Background(), "missing", "user-1", investRequest("50"))
	requireAppError(t, err, fiber.StatusNotFound, "IDO pool not found")
}

func TestAdmitInvestmentPendingDoesNotCountTowardsMaximum(t *testing.T) {
	f := newIdoFixture(t)
	ctx := context.Background()
	pool := f.seedPool(t, nil)

	_, err := f.svc.AdmitInvestment(ctx, pool.ID, "user-1", investRequest("400"))
	require.NoError(t, err)
	_, err = f.svc.AdmitInvestment(ctx, pool.ID, "user-1", investRequest("400"))
	require.NoError(t, err)

	stored, err := f.repo.GetPool(ctx, pool.ID)
	require.NoError(t, err)
	assert.True(t, dec("800").Equal(stored.TotalRaised))
	assert.Equal(t, int64(1), stored.ParticipantCount, "a returning investor is counted once")

	_, err = f.svc.AdmitInvestment(ctx, pool.ID, "user-2", investRequest("250"))
	requireAppError(t, err, fiber.StatusConflict, "Investment would exceed hard cap")
}

func TestGetPoolCachesSharedDetailOnly(t *testing.T) {
	f := newIdoFixture(t)
	ctx := context.Background()
	pool := f.seedPool(t, func(p *model.IdoPool) { p.TotalRaised = dec("250") })
	f.seedConfirmed(t, pool.ID, "user-1", "200")

	detail, err := f.svc.GetPool(ctx, pool.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Nebula", *detail.ProjectName)
	assert.Equal(t, model.PoolStatusActive, detail.ComputedStatus)
	assert.True(t, dec("25").Equal(detail.ProgressPercentage))
	assert.Equal(t, int64(time.Hour/time.Millisecond), detail.TimeRemaining)
	require.Len(t, detail.VestingSchedule, 1)
	require.NotNil(t, detail.UserInvestment)
	assert.True(t, dec("300").Equal(detail.UserInvestment.RemainingAllocation))
	assert.Equal(t, int64(1), detail.UserInvestment.InvestmentCount)

	raw := f.cache.data[poolCacheKey(pool.ID)]
	require.NotEmpty(t, raw)
	assert.NotContains(t, raw, "user_investment")
	assert.Equal(t, poolDetailTTL, f.cache.ttls[poolCacheKey(pool.ID)])

	anonymous, err := f.svc.GetPool(ctx, pool.ID, "")
	require.NoError(t, err)
	assert.Nil(t, anonymous.UserInvestment)
	assert.Equal(t, pool.ID, anonymous.ID)

	assert.Equal(t, []string{"ido_pool_viewed", "ido_pool_viewed"}, f.sink.names())
}

func TestGetPoolNotFound(t *testing.T) {
	f := newIdoFixture(t)
	_, err := f.svc.GetPool(context.Background(), "missing", "")
	requireAppError(t, err, fiber.StatusNotFound, "IDO pool not found")
}

func TestListPoolsUsesCache(t *testing.T) {
	f := newIdoFixture(t)
	ctx := context.Background()
	f.seedPool(t, nil)
	f.seedPool(t, func(p *model.IdoPool) { p.Status = model.PoolStatusUpcoming })

	q := dto.PoolListQuery{Status: model.PoolStatusActive}
	q.Defaults()

	resp, cached, err := f.svc.ListPools(ctx, q, "")
	require.NoError(t, err)
	assert.False(t, cached)
	require.Len(t, resp.Pools, 1)
	assert.Equal(t, int64(1), resp.Pagination.Total)
	assert.Equal(t, poolListTTL, f.cache.ttls[poolListCacheKey(q)])

	resp, cached, err = f.svc.ListPools(ctx, q, "user-1")
	require.NoError(t, err)
	assert.True(t, cached)
	require.Len(t, resp.Pools, 1)
	assert.Equal(t, []string{"ido_pools_viewed", "ido_pools_viewed"}, f.sink.names())
}

func TestCreatePool(t *testing.T) {
	f := newIdoFixture(t)
	ctx := context.Background()
	project := f.seedProject(t)

	req := dto.CreatePoolRequest{
		ProjectID:       project.ID,
		Name:            " Nebula Public ",
		Symbol:          "nbl",
		TotalTokens:     dec("1000000"),
		TokenPrice:      dec("0.05"),
		MinInvestment:   dec("10"),
		MaxInvestment:   dec("1000"),
		SoftCap:         dec("10000"),
		HardCap:         dec("50000"),
		StartTime:       f.clock.now().Add(24 * time.Hour).UnixMilli(),
		EndTime:         f.clock.now().Add(48 * time.Hour).UnixMilli(),
		VestingSchedule: []dto.VestingEntry{{Cliff: 0, Duration: 30, Percentage: 100}},
	}

	created, err := f.svc.CreatePool(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "Nebula Public", created.Name)
	assert.Equal(t, "NBL", created.Symbol)
	assert.Equal(t, model.PoolStatusUpcoming, created.Status)
	assert.Equal(t, req.VestingSchedule, created.VestingSchedule)

	stored, err := f.repo.GetPool(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, stored.TotalRaised.IsZero())

	req.ProjectID = "missing"
	_, err = f.svc.CreatePool(ctx, req)
	requireAppError(t, err, fiber.StatusNotFound, "Project not found")
}

func TestUpdatePoolStatusTransitions(t *testing.T) {
	f := newIdoFixture(t)
	ctx := context.Background()
	pool := f.seedPool(t, func(p *model.IdoPool) { p.Status = model.PoolStatusUpcoming })
	f.cache.data[poolCacheKey(pool.ID)] = "{}"

	_, err := f.svc.UpdatePoolStatus(ctx, pool.ID, dto.UpdatePoolStatusRequest{Status: model.PoolStatusCompleted})
	requireAppError(t, err, fiber.StatusConflict, "Cannot change pool status from upcoming to completed")

	updated, err := f.svc.UpdatePoolStatus(ctx, pool.ID, dto.UpdatePoolStatusRequest{Status: model.PoolStatusActive})
	require.NoError(t, err)
	assert.Equal(t, model.PoolStatusActive, updated.Status)
	assert.False(t, f.cache.has(poolCacheKey(pool.ID)))

	_, err = f.svc.UpdatePoolStatus(ctx, pool.ID, dto.UpdatePoolStatusRequest{Status: model.PoolStatusCancelled})
	require.NoError(t, err)

	_, err = f.svc.UpdatePoolStatus(ctx, pool.ID, dto.UpdatePoolStatusRequest{Status: model.PoolStatusActive})
	requireAppError(t, err, fiber.StatusConflict, "Cannot change pool status from cancelled to active")

	_, err = f.svc.UpdatePoolStatus(ctx, "missing", dto.UpdatePoolStatusRequest{Status: model.PoolStatusActive})
	requireAppError(t, err, fiber.StatusNotFound, "IDO pool not found")
}

func TestGetMyInvestments(t *testing.T) {
	f := newIdoFixture(t)
	ctx := context.Background()
	pool := f.seedPool(t, nil)
	f.seedConfirmed(t, pool.ID, "user-1", "100")
	_, err := f.svc.AdmitInvestment(ctx, pool.ID, "user-1", investRequest("20"))
	require.NoError(t, err)

	page := dto.PageQuery{}
	page.Defaults()
	resp, err := f.svc.GetMyInvestments(ctx, "user-1", page)
	require.NoError(t, err)
	assert.Len(t, resp.Investments, 2)
	assert.Equal(t, int64(2), resp.Pagination.Total)
	assert.Equal(t, int64(1), resp.Summary.PendingInvestments)

	mine, err := f.svc.GetPoolInvestments(ctx, pool.ID, "user-1")
	require.NoError(t, err)
	assert.Len(t, mine.Investments, 2)
	assert.True(t, dec("100").Equal(mine.Summary.TotalAmount))
}
