package repositories

import (
	"context"
	"strings"

	"github.com/lac-hong-legacy/ido_api/dto"
	"github.com/lac-hong-legacy/ido_api/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var projectSortColumns = map[string]string{
	"name":      "name",
	"price":     "price",
	"marketCap": "market_cap",
	"volume24h": "volume_24h",
	"createdAt": "created_at",
}

// ProjectTrend is a project with its trending score.
type ProjectTrend struct {
	model.Project
	TrendScore decimal.Decimal `gorm:"column:trend_score"`
}

type ProjectRepository struct {
	BaseRepository
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

func (ds *ProjectRepository) GetProject(ctx context.Context, projectID string) (*model.Project, error) {
	var project model.Project
	if err := ds.db.WithContext(ctx).Where("id = ?", projectID).First(&project).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

func (ds *ProjectRepository) ListProjects(ctx context.Context, q dto.ProjectListQuery) ([]model.Project, int64, error) {
	var total int64
	projects := []model.Project{}

	query := ds.db.WithContext(ctx).Model(&model.Project{})

	if q.Category != "" {
		query = query.Where("category = ?", q.Category)
	}
	if q.Status != "" {
		query = query.Where("status = ?", q.Status)
	}
	if q.Search != "" {
		term := "%" + strings.ToLower(q.Search) + "%"
		query = query.Where("(LOWER(name) LIKE ? OR LOWER(symbol) LIKE ? OR LOWER(description) LIKE ?)", term, term, term)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := projectSortColumns[q.Sort]
	if !ok {
		column = "created_at"
	}
	order := "DESC"
	if q.Order == "asc" {
		order = "ASC"
	}

	err := query.Order(column + " " + order).
		Scopes(Paginate(q.PageQuery)).
		Find(&projects).Error
	if err != nil {
		return nil, 0, err
	}

	return projects, total, nil
}

// TrendingProjects ranks active projects by 0.4*volume + 0.3*|change| + 0.3*market cap.
func (ds *ProjectRepository) TrendingProjects(ctx context.Context, limit int) ([]ProjectTrend, error) {
	rows := []ProjectTrend{}
	err := ds.db.WithContext(ctx).
		Model(&model.Project{}).
		Select("projects.*, (volume_24h * 0.4 + ABS(change_24h) * 0.3 + market_cap * 0.3) AS trend_score").
		Where("status = ?", "active").
		Order("trend_score DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// SearchProjects orders name prefix matches first, then symbol prefix, then description matches.
func (ds *ProjectRepository) SearchProjects(ctx context.Context, term string, limit int) ([]model.Project, error) {
	contains := "%" + strings.ToLower(term) + "%"
	prefix := strings.ToLower(term) + "%"

	projects := []model.Project{}
	err := ds.db.WithContext(ctx).
		Where("LOWER(name) LIKE ? OR LOWER(symbol) LIKE ? OR LOWER(description) LIKE ?", contains, contains, contains).
		Order(clause.OrderBy{Expression: clause.Expr{
			SQL: "CASE WHEN LOWER(name) LIKE ? THEN 3 WHEN LOWER(symbol) LIKE ? THEN 2 WHEN LOWER(description) LIKE ? THEN 1 ELSE 0 END DESC, market_cap DESC",
			Vars: []interface{}{prefix, prefix, contains},
			WithoutParentheses: true,
		}}).
		Limit(limit).
		Find(&projects).Error
	return projects, err
}

// UpsertProject is used by the seeders.
func (ds *ProjectRepository) UpsertProject(ctx context.Context, project *model.Project) error {
	return ds.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(project).Error
}
