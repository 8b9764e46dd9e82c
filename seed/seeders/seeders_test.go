package seeders

import (
	"fmt"
	"strings"
	"testing"

	"github.com/lac-hong-legacy/ido_api/config"
	"github.com/lac-hong-legacy/ido_api/model"
	"github.com/lac-hong-legacy/ido_api/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	ds := services.NewPostgresService(&config.Config{
		DBDriver:   services.DriverSqlite,
		SqlitePath: fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
	})
	require.NoError(t, ds.Connect())
	require.NoError(t, ds.Migrate())
	t.Cleanup(ds.Shutdown)
	return ds.Db()
}

func count(t *testing.T, db *gorm.DB, m interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(m).Count(&n).Error)
	return n
}

func TestSeedAllIsRepeatable(t *testing.T) {
	db := newTestDB(t)
	seeder := NewMainSeeder(db, "Admin@Example.com", "Admin@123456")

	require.NoError(t, seeder.SeedAll())
	require.NoError(t, seeder.SeedAll())

	assert.EqualValues(t, 1, count(t, db, &model.User{}))
	assert.EqualValues(t, len(projectSeeds), count(t, db, &model.Project{}))
	assert.EqualValues(t, 3, count(t, db, &model.IdoPool{}))
	assert.EqualValues(t, len(priceSeeds), count(t, db, &model.PriceCache{}))

	var admin model.User
	require.NoError(t, db.Where("role = ?", model.RoleAdmin).First(&admin).Error)
	assert.Equal(t, "admin@example.com", admin.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("Admin@123456")))

	var inv model.UserInvestment
	require.NoError(t, db.First(&inv, "id = ?", seedInvestmentID).Error)
	assert.Equal(t, model.InvestmentStatusConfirmed, inv.Status)
	assert.Equal(t, admin.ID, inv.UserID)
	assert.EqualValues(t, 1, count(t, db, &model.UserInvestment{}))

	var pool model.IdoPool
	require.NoError(t, db.First(&pool, "id = ?", "pool_nebula_seed").Error)
	assert.True(t, decimal.NewFromInt(1000).Equal(pool.TotalRaised), "total raised %s", pool.TotalRaised)
	assert.Equal(t, int64(1), pool.ParticipantCount)
}

func TestSeededPoolsHaveVesting(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, NewProjectSeeder(db).SeedProjects())
	require.NoError(t, NewPoolSeeder(db).SeedPools())

	var pool model.IdoPool
	require.NoError(t, db.First(&pool, "id = ?", "pool_nebula_seed").Error)
	assert.Equal(t, model.PoolStatusActive, pool.Status)
	assert.Contains(t, pool.VestingSchedule, `"percentage":20`)
	assert.True(t, pool.StartTime < pool.EndTime)
}

func TestClearKeepsUsers(t *testing.T) {
	db := newTestDB(t)
	seeder := NewMainSeeder(db, "admin@example.com", "Admin@123456")
	require.NoError(t, seeder.SeedAll())

	require.NoError(t, seeder.Clear())

	assert.EqualValues(t, 1, count(t, db, &model.User{}))
	assert.Zero(t, count(t, db, &model.Project{}))
	assert.Zero(t, count(t, db, &model.IdoPool{}))
	assert.Zero(t, count(t, db, &model.PriceCache{}))
	assert.Zero(t, count(t, db, &model.UserInvestment{}))
}
