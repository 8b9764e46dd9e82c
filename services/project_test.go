package services

import (
	"context"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/ido_api/dto"
	"github.com/lac-hong-legacy/ido_api/model"
	"github.com/lac-hong-legacy/ido_api/services/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProjectFixture(t *testing.T) (*ProjectService, *memoryStore) {
	t.Helper()
	db := newTestPostgres(t)
	repo := repositories.NewProjectRepository(db.Db())
	now := time.Unix(1_767_225_600, 0)

	for _, p := range []model.Project{
		{ID: "p-nebula", Name: "Nebula", Symbol: "NBL", Description: "Cross-chain liquidity", Category: "defi", Tags: `["defi","bridge"]`,
			Price: dec("0.5"), Change24h: dec("12"), Volume24h: dec("1000"), MarketCap: dec("50000"), Status: "active"},
		{ID: "p-orbit", Name: "Orbit", Symbol: "ORB", Description: "Nebula indexer", Category: "infra",
			Price: dec("2"), Change24h: dec("-1"), Volume24h: dec("10"), MarketCap: dec("900"), Status: "active"},
		{ID: "p-later", Name: "Later", Symbol: "LTR", Category: "gaming", Status: "upcoming"},
	} {
		p.CreatedAt, p.UpdatedAt = now, now
		require.NoError(t, repo.UpsertProject(context.Background(), &p))
	}

	cache := newMemoryStore()
	return NewProjectService(repo, cache, func() time.Time { return now }), cache
}

func TestListProjectsCaches(t *testing.T) {
	svc, _ := newProjectFixture(t)
	ctx := context.Background()

	q := dto.ProjectListQuery{Status: "active", Sort: "marketCap"}
	q.Defaults()

	resp, hit, err := svc.ListProjects(ctx, q)
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, resp.Projects, 2)
	assert.Equal(t, "Nebula", resp.Projects[0].Name)
	assert.Equal(t, []string{"defi", "bridge"}, resp.Projects[0].Tags)
	assert.Equal(t, []string{}, resp.Projects[1].Tags)
	assert.Equal(t, int64(2), resp.Pagination.Total)

	_, hit, err = svc.ListProjects(ctx, q)
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestGetProject(t *testing.T) {
	svc, cache := newProjectFixture(t)
	ctx := context.Background()

	project, hit, err := svc.GetProject(ctx, "p-orbit")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "ORB", project.Symbol)
	assert.Equal(t, projectTTL, cache.ttls["project:p-orbit"])

	_, _, err = svc.GetProject(ctx, "missing")
	requireAppError(t, err, fiber.StatusNotFound, "Project not found")
}

func TestTrendingProjects(t *testing.T) {
	svc, _ := newProjectFixture(t)

	trending, _, err := svc.Trending(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, trending, 2)
	assert.Equal(t, "p-nebula", trending[0].ProjectID)
	assert.Equal(t, 1, trending[0].Rank)
	assert.Equal(t, 2, trending[1].Rank)
	assert.Equal(t, int64(1_767_225_600_000), trending[0].LastUpdated)
}

func TestSearchProjects(t *testing.T) {
	svc, _ := newProjectFixture(t)
	ctx := context.Background()

	_, _, err := svc.Search(ctx, "n", 0)
	requireAppError(t, err, fiber.StatusBadRequest, "Search query must be at least 2 characters long")

	results, hit, err := svc.Search(ctx, "nebula", 0)
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, results, 2)
	assert.Equal(t, "p-nebula", results[0].ID, "name prefix match ranks first")
	assert.Equal(t, "p-orbit", results[1].ID)

	_, hit, err = svc.Search(ctx, "Nebula", 0)
	require.NoError(t, err)
	assert.True(t, hit)
}
