package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lac-hong-legacy/ido_api/dto"
	"github.com/lac-hong-legacy/ido_api/model"
	"gorm.io/gorm"
)

var (
	// ErrHardCapExceeded means the conditional pool update matched no row: the
	// pool left the active state or the investment would push it past its hard cap.
	ErrHardCapExceeded = errors.New("investment would exceed hard cap")

	// ErrPoolStatusChanged means the pool's status moved between read and write.
	ErrPoolStatusChanged = errors.New("pool status changed concurrently")
)

var poolSortColumns = map[string]string{
	"created_at":        "ido_pools.created_at",
	"start_time":        "ido_pools.start_time",
	"end_time":          "ido_pools.end_time",
	"total_raised":      "ido_pools.total_raised",
	"participant_count": "ido_pools.participant_count",
}

const poolWithProjectColumns = `ido_pools.*,
	projects.name AS project_name,
	projects.logo AS project_logo,
	projects.website AS project_website,
	projects.category AS project_category`

type IdoRepository struct {
	BaseRepository
}

func NewIdoRepository(db *gorm.DB) *IdoRepository {
	return &IdoRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// ==================== POOLS ====================

func (ds *IdoRepository) GetPool(ctx context.Context, poolID string) (*model.IdoPool, error) {
	var pool model.IdoPool
	if err := ds.db.WithContext(ctx).Where("id = ?", poolID).First(&pool).Error; err != nil {
		return nil, err
	}
	return &pool, nil
}

func (ds *IdoRepository) GetPoolWithProject(ctx context.Context, poolID string) (*model.PoolWithProject, error) {
	var rows []model.PoolWithProject
	err := ds.poolsWithProject(ctx).
		Select(poolWithProjectColumns).
		Where("ido_pools.id = ?", poolID).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &rows[0], nil
}

func (ds *IdoRepository) ListPools(ctx context.Context, q dto.PoolListQuery) ([]model.PoolWithProject, int64, error) {
	query := ds.poolsWithProject(ctx)

	if q.Status != "" {
		query = query.Where("ido_pools.status = ?", q.Status)
	}
	if q.Category != "" {
		query = query.Where("projects.category = ?", q.Category)
	}
	if q.Search != "" {
		term := "%" + strings.ToLower(q.Search) + "%"
		query = query.Where(
			"(LOWER(ido_pools.name) LIKE ? OR LOWER(ido_pools.symbol) LIKE ? OR LOWER(projects.name) LIKE ?)",
			term, term, term,
		)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Distinct("ido_pools.id").Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := poolSortColumns[q.Sort]
	if !ok {
		column = poolSortColumns["start_time"]
	}
	order := "ASC"
	if q.Order == "desc" {
		order = "DESC"
	}

	pools := []model.PoolWithProject{}
	err := query.
		Select(poolWithProjectColumns).
		Order(column + " " + order).
		Scopes(Paginate(q.PageQuery)).
		Scan(&pools).Error
	if err != nil {
		return nil, 0, err
	}

	return pools, total, nil
}

func (ds *IdoRepository) poolsWithProject(ctx context.Context) *gorm.DB {
	return ds.db.WithContext(ctx).
		Table("ido_pools").
		Joins("LEFT JOIN projects ON projects.id = ido_pools.project_id")
}

func (ds *IdoRepository) ProjectExists(ctx context.Context, projectID string) (bool, error) {
	var count int64
	err := ds.db.WithContext(ctx).Model(&model.Project{}).Where("id = ?", projectID).Count(&count).Error
	return count > 0, err
}

func (ds *IdoRepository) CreatePool(ctx context.Context, pool *model.IdoPool) error {
	return ds.db.WithContext(ctx).Create(pool).Error
}

// UpdatePoolStatus moves the pool to status only while it is still in one of from.
func (ds *IdoRepository) UpdatePoolStatus(ctx context.Context, poolID string, from []string, status string) error {
	result := ds.db.WithContext(ctx).
		Model(&model.IdoPool{}).
		Where("id = ? AND status IN ?", poolID, from).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPoolStatusChanged
	}
	return nil
}

func (ds *IdoRepository) GetPoolStatistics(ctx context.Context, poolID string) (model.PoolStatistics, error) {
	var stats model.PoolStatistics
	err := ds.db.WithContext(ctx).
		Model(&model.UserInvestment{}).
		Select(`COUNT(DISTINCT user_id) AS unique_investors,
			COALESCE(AVG(amount), 0) AS avg_investment,
			COALESCE(MIN(amount), 0) AS min_investment_actual,
			COALESCE(MAX(amount), 0) AS max_investment_actual`).
		Where("ido_pool_id = ? AND status = ?", poolID, model.InvestmentStatusConfirmed).
		Scan(&stats).Error
	return stats, err
}

// ==================== INVESTMENTS ====================

// GetConfirmedSummary totals the user's confirmed investments in a pool.
func (ds *IdoRepository) GetConfirmedSummary(ctx context.Context, userID, poolID string) (model.InvestmentSummary, error) {
	var summary model.InvestmentSummary
	err := ds.db.WithContext(ctx).
		Model(&model.UserInvestment{}).
		Select(`COALESCE(SUM(amount), 0) AS total_amount,
			COALESCE(SUM(token_amount), 0) AS total_tokens,
			COUNT(*) AS investment_count`).
		Where("user_id = ? AND ido_pool_id = ? AND status = ?", userID, poolID, model.InvestmentStatusConfirmed).
		Scan(&summary).Error
	return summary, err
}

func (ds *IdoRepository) ListUserPoolInvestments(ctx context.Context, userID, poolID string) ([]model.UserInvestment, error) {
	investments := []model.UserInvestment{}
	err := ds.db.WithContext(ctx).
		Where("user_id = ? AND ido_pool_id = ?", userID, poolID).
		Order("created_at DESC").
		Find(&investments).Error
	return investments, err
}

func (ds *IdoRepository) ListUserInvestments(ctx context.Context, userID string, page dto.PageQuery) ([]model.InvestmentWithPool, int64, error) {
	var total int64
	if err := ds.db.WithContext(ctx).
		Model(&model.UserInvestment{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	investments := []model.InvestmentWithPool{}
	err := ds.db.WithContext(ctx).
		Table("user_investments").
		Select(`user_investments.*,
			ido_pools.name AS pool_name,
			ido_pools.symbol AS token_symbol,
			ido_pools.token_price AS token_price,
			ido_pools.status AS pool_status,
			projects.name AS project_name,
			projects.logo AS project_logo`).
		Joins("JOIN ido_pools ON ido_pools.id = user_investments.ido_pool_id").
		Joins("LEFT JOIN projects ON projects.id = ido_pools.project_id").
		Where("user_investments.user_id = ?", userID).
		Order("user_investments.created_at DESC").
		Scopes(Paginate(page)).
		Scan(&investments).Error
	if err != nil {
		return nil, 0, err
	}

	return investments, total, nil
}

func (ds *IdoRepository) GetPortfolioSummary(ctx context.Context, userID string) (model.PortfolioSummary, error) {
	var summary model.PortfolioSummary
	err := ds.db.WithContext(ctx).
		Model(&model.UserInvestment{}).
		Select(`COUNT(DISTINCT ido_pool_id) AS pools_invested,
			COALESCE(SUM(CASE WHEN status = 'confirmed' THEN amount ELSE 0 END), 0) AS total_invested,
			COALESCE(SUM(CASE WHEN status = 'confirmed' THEN token_amount ELSE 0 END), 0) AS total_tokens,
			COUNT(CASE WHEN status = 'pending' THEN 1 END) AS pending_investments,
			COUNT(*) AS total_investments`).
		Where("user_id = ?", userID).
		Scan(&summary).Error
	return summary, err
}

// CommitInvestment records a pending investment and reserves its amount against
// the pool's hard cap in one transaction. The conditional UPDATE is the admission
// decision: if it matches no row nothing is written and ErrHardCapExceeded is
// returned. It runs first so the pool row lock orders concurrent commits, and
// the prior-investment count that decides participant_count sees every commit
// that won the lock before it.
func (ds *IdoRepository) CommitInvestment(ctx context.Context, inv *model.UserInvestment) error {
	return ds.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		result := tx.Model(&model.IdoPool{}).
			Where("id = ? AND status = ? AND total_raised + ? <= hard_cap", inv.IdoPoolID, model.PoolStatusActive, inv.Amount).
			Updates(map[string]interface{}{
				"total_raised": gorm.Expr("total_raised + ?", inv.Amount),
				"updated_at":   now,
			})
		if result.Error != nil {
			return fmt.Errorf("reserve pool allocation: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrHardCapExceeded
		}

		var prior int64
		if err := tx.Model(&model.UserInvestment{}).
			Where("user_id = ? AND ido_pool_id = ? AND status <> ?", inv.UserID, inv.IdoPoolID, model.InvestmentStatusFailed).
			Count(&prior).Error; err != nil {
			return fmt.Errorf("count prior investments: %w", err)
		}

		if err := tx.Create(inv).Error; err != nil {
			return fmt.Errorf("insert investment: %w", err)
		}

		if prior > 0 {
			return nil
		}
		if err := tx.Model(&model.IdoPool{}).
			Where("id = ?", inv.IdoPoolID).
			Update("participant_count", gorm.Expr("participant_count + 1")).Error; err != nil {
			return fmt.Errorf("count participant: %w", err)
		}
		return nil
	})
}

// SetInvestmentStatus confirms or fails an investment. The investment seeder uses it to create confirmed rows.
func (ds *IdoRepository) SetInvestmentStatus(ctx context.Context, investmentID, status string) error {
	return ds.db.WithContext(ctx).
		Model(&model.UserInvestment{}).
		Where("id = ?", investmentID).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		}).Error
}
