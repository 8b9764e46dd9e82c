package services

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lac-hong-legacy/ido_api/config"
	"github.com/lac-hong-legacy/ido_api/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// newTestPostgres returns a migrated store backed by a private in-memory SQLite database.
func newTestPostgres(t *testing.T) *PostgresService {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	ds := NewPostgresService(&config.Config{
		DBDriver:   DriverSqlite,
		SqlitePath: fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
	})
	require.NoError(t, ds.Connect())
	require.NoError(t, ds.Migrate())
	t.Cleanup(ds.Shutdown)
	return ds
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(gorm.ErrDuplicatedKey))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.True(t, IsUniqueViolation(errors.New("UNIQUE constraint failed: users.email")))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
}

func TestHandleErrorClassifies(t *testing.T) {
	ds := &PostgresService{}

	assert.Nil(t, ds.HandleError(nil))

	err := ds.HandleError(gorm.ErrRecordNotFound)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
	assert.True(t, strings.HasPrefix(err.Error(), "NOT_FOUND"))

	err = ds.HandleError(&pgconn.PgError{Code: "23505"})
	assert.True(t, strings.HasPrefix(err.Error(), "UNIQUE_CONSTRAINT"))

	err = ds.HandleError(errors.New("dial tcp: connection refused"))
	assert.True(t, strings.HasPrefix(err.Error(), "DATABASE_CONNECTION_ERROR"))
}

func TestCleanupExpiredData(t *testing.T) {
	ds := newTestPostgres(t)
	now := time.Now()

	require.NoError(t, ds.Db().Create([]model.PriceCache{
		{Symbol: "BTC", Price: decimal.NewFromInt(65000), LastUpdated: now.UnixMilli()},
		{Symbol: "OLD", Price: decimal.NewFromInt(1), LastUpdated: now.Add(-8 * 24 * time.Hour).UnixMilli()},
	}).Error)

	require.NoError(t, ds.CleanupExpiredData())

	var symbols []string
	require.NoError(t, ds.Db().Model(&model.PriceCache{}).Pluck("symbol", &symbols).Error)
	assert.Equal(t, []string{"BTC"}, symbols)
	assert.NoError(t, ds.Ping())
}
