package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/lac-hong-legacy/ido_api/dto"
	"github.com/lac-hong-legacy/ido_api/model"
	"github.com/lac-hong-legacy/ido_api/services/repositories"
	"github.com/lac-hong-legacy/ido_api/shared"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	PROJECT_SVC = "project_svc"

	projectTTL         = 300 * time.Second
	trendingProjectTTL = 600 * time.Second
	projectSearchTTL   = 180 * time.Second

	maxTrendingProjects = 50
	maxSearchResults    = 50
	minSearchLength     = 2
)

type ProjectStore interface {
	GetProject(ctx context.Context, projectID string) (*model.Project, error)
	ListProjects(ctx context.Context, q dto.ProjectListQuery) ([]model.Project, int64, error)
	TrendingProjects(ctx context.Context, limit int) ([]repositories.ProjectTrend, error)
	SearchProjects(ctx context.Context, term string, limit int) ([]model.Project, error)
}

// ProjectService serves the read-only project catalogue. Every read reports
// whether it was answered from the counter store.
type ProjectService struct {
	appContext.DefaultService

	store ProjectStore
	cache CounterStore
	now   func() time.Time
}

func NewProjectService(store ProjectStore, cache CounterStore, now func() time.Time) *ProjectService {
	if now == nil {
		now = time.Now
	}
	return &ProjectService{store: store, cache: cache, now: now}
}

func (svc ProjectService) Id() string {
	return PROJECT_SVC
}

func (svc *ProjectService) Configure(ctx *appContext.Context) error {
	svc.now = time.Now
	return svc.DefaultService.Configure(ctx)
}

func (svc *ProjectService) Start() error {
	svc.store = repositories.NewProjectRepository(svc.Service(POSTGRES_SVC).(*PostgresService).Db())
	svc.cache = svc.Service(REDIS_SVC).(*RedisService)
	return nil
}

func (svc *ProjectService) ListProjects(ctx context.Context, q dto.ProjectListQuery) (*dto.ProjectListResponse, bool, error) {
	key := fmt.Sprintf("projects:%s:%s:%s:%s:%s:%d:%d",
		q.Category, q.Status, strings.ToLower(q.Search), q.Sort, q.Order, q.Page, q.Limit)

	var cached dto.ProjectListResponse
	if readCache(ctx, svc.cache, key, &cached) {
		return &cached, true, nil
	}

	projects, total, err := svc.store.ListProjects(ctx, q)
	if err != nil {
		return nil, false, shared.NewInternalError(err, "Failed to list projects")
	}

	resp := &dto.ProjectListResponse{
		Projects:   toProjectResponses(projects),
		Pagination: dto.NewPagination(q.Page, q.Limit, total),
	}
	writeCache(ctx, svc.cache, key, resp, projectTTL)
	return resp, false, nil
}

func (svc *ProjectService) GetProject(ctx context.Context, projectID string) (*dto.ProjectResponse, bool, error) {
	key := "project:" + projectID

	var cached dto.ProjectResponse
	if readCache(ctx, svc.cache, key, &cached) {
		return &cached, true, nil
	}

	project, err := svc.store.GetProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, shared.NewNotFoundError(err, "Project not found")
		}
		return nil, false, shared.NewInternalError(err, "Failed to load project")
	}

	resp := toProjectResponse(*project)
	writeCache(ctx, svc.cache, key, resp, projectTTL)
	return &resp, false, nil
}

// Trending ranks active projects; limit defaults to 10 and is capped at 50.
func (svc *ProjectService) Trending(ctx context.Context, limit int) ([]dto.TrendingProject, bool, error) {
	limit = clampLimit(limit, 10, maxTrendingProjects)
	key := fmt.Sprintf("trending:%d", limit)

	var cached []dto.TrendingProject
	if readCache(ctx, svc.cache, key, &cached) {
		return cached, true, nil
	}

	rows, err := svc.store.TrendingProjects(ctx, limit)
	if err != nil {
		return nil, false, shared.NewInternalError(err, "Failed to load trending projects")
	}

	nowMs := svc.now().UnixMilli()
	trending := make([]dto.TrendingProject, 0, len(rows))
	for i, row := range rows {
		trending = append(trending, dto.TrendingProject{
			ProjectID:   row.ID,
			Name:        row.Name,
			Symbol:      row.Symbol,
			Logo:        row.Logo,
			Price:       row.Price,
			Change24h:   row.Change24h,
			Volume24h:   row.Volume24h,
			MarketCap:   row.MarketCap,
			Rank:        i + 1,
			Score:       row.TrendScore,
			LastUpdated: nowMs,
		})
	}

	writeCache(ctx, svc.cache, key, trending, trendingProjectTTL)
	return trending, false, nil
}

func (svc *ProjectService) Search(ctx context.Context, term string, limit int) ([]dto.ProjectResponse, bool, error) {
	term = strings.TrimSpace(term)
	if len(term) < minSearchLength {
		return nil, false, shared.NewValidationError(nil, "Search query must be at least 2 characters long")
	}
	limit = clampLimit(limit, 20, maxSearchResults)
	key := fmt.Sprintf("search:%s:%d", strings.ToLower(term), limit)

	var cached []dto.ProjectResponse
	if readCache(ctx, svc.cache, key, &cached) {
		return cached, true, nil
	}

	projects, err := svc.store.SearchProjects(ctx, term, limit)
	if err != nil {
		return nil, false, shared.NewInternalError(err, "Search query failed")
	}

	results := toProjectResponses(projects)
	writeCache(ctx, svc.cache, key, results, projectSearchTTL)
	return results, false, nil
}

func toProjectResponses(projects []model.Project) []dto.ProjectResponse {
	out := make([]dto.ProjectResponse, 0, len(projects))
	for _, p := range projects {
		out = append(out, toProjectResponse(p))
	}
	return out
}

func toProjectResponse(p model.Project) dto.ProjectResponse {
	tags := []string{}
	if p.Tags != "" {
		if err := shared.JSONAPI.UnmarshalFromString(p.Tags, &tags); err != nil {
			log.Warn().Err(err).Str("project_id", p.ID).Msg("Invalid project tags")
			tags = []string{}
		}
	}
	return dto.ProjectResponse{
		ID:                p.ID,
		Name:              p.Name,
		Symbol:            p.Symbol,
		Description:       p.Description,
		Website:           p.Website,
		Whitepaper:        p.Whitepaper,
		Logo:              p.Logo,
		Banner:            p.Banner,
		Category:          p.Category,
		Tags:              tags,
		TotalSupply:       p.TotalSupply,
		CirculatingSupply: p.CirculatingSupply,
		MarketCap:         p.MarketCap,
		Price:             p.Price,
		Change24h:         p.Change24h,
		Volume24h:         p.Volume24h,
		Status:            p.Status,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
