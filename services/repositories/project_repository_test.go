package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lac-hong-legacy/ido_api/dto"
	"github.com/lac-hong-legacy/ido_api/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedProject(t *testing.T, repo *ProjectRepository, name, symbol string, volume, change, marketCap int64) *model.Project {
	t.Helper()
	now := time.Now()
	project := &model.Project{
		ID:          uuid.NewString(),
		Name:        name,
		Symbol:      symbol,
		Description: name + " protocol",
		Category:    "defi",
		Tags:        `["defi"]`,
		Price:       decimal.NewFromInt(1),
		Volume24h:   decimal.NewFromInt(volume),
		Change24h:   decimal.NewFromInt(change),
		MarketCap:   decimal.NewFromInt(marketCap),
		Status:      "active",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, repo.UpsertProject(context.Background(), project))
	return project
}

func TestTrendingProjectsScore(t *testing.T) {
	repo := NewProjectRepository(newTestDB(t))
	ctx := context.Background()

	low := seedProject(t, repo, "Quiet", "QT", 10, 1, 10)
	high := seedProject(t, repo, "Loud", "LD", 1000, -50, 100)

	rows, err := repo.TrendingProjects(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, high.ID, rows[0].ID)
	assert.Equal(t, low.ID, rows[1].ID)
	// 1000*0.4 + 50*0.3 + 100*0.3
	assertDecimal(t, "445", rows[0].TrendScore)
}

func TestSearchProjectsRanksPrefixMatches(t *testing.T) {
	repo := NewProjectRepository(newTestDB(t))
	ctx := context.Background()

	seedProject(t, repo, "Stellar Swap", "SSW", 1, 1, 1)
	seedProject(t, repo, "Nova", "STL", 1, 1, 5)

	projects, err := repo.SearchProjects(ctx, "st", 20)
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "Stellar Swap", projects[0].Name)
	assert.Equal(t, "Nova", projects[1].Name)
}

func TestListProjectsSortsAndPaginates(t *testing.T) {
	repo := NewProjectRepository(newTestDB(t))
	ctx := context.Background()

	seedProject(t, repo, "A", "A", 1, 1, 300)
	seedProject(t, repo, "B", "B", 1, 1, 100)
	seedProject(t, repo, "C", "C", 1, 1, 200)

	q := dto.ProjectListQuery{Sort: "marketCap", Order: "desc", PageQuery: dto.PageQuery{Page: 1, Limit: 2}}
	projects, total, err := repo.ListProjects(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, projects, 2)
	assert.Equal(t, "A", projects[0].Name)
	assert.Equal(t, "C", projects[1].Name)
}
