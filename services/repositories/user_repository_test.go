package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lac-hong-legacy/ido_api/dto"
	"github.com/lac-hong-legacy/ido_api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedUser(t *testing.T, repo *UserRepository, username, role string) *model.User {
	t.Helper()
	now := time.Now()
	user := &model.User{
		ID:           uuid.NewString(),
		Email:        username + "@example.com",
		Username:     username,
		PasswordHash: "hash",
		Role:         role,
		Status:       model.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, repo.CreateUser(context.Background(), user))
	return user
}

func TestCreateUserStoresDefaultSettings(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()
	user := seedUser(t, repo, "alice", model.RoleUser)

	settings, err := repo.GetSettings(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "en", settings.Language)
	assert.True(t, settings.EmailNotifications)

	settings.Theme = "dark"
	require.NoError(t, repo.SaveSettings(ctx, settings))

	settings, err = repo.GetSettings(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "dark", settings.Theme)
}

func TestUserLookupsAreCaseInsensitive(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()
	user := seedUser(t, repo, "Bob_99", model.RoleUser)

	got, err := repo.GetUserByEmail(ctx, "BOB_99@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	available, err := repo.IsUsernameAvailable(ctx, "bob_99", "")
	require.NoError(t, err)
	assert.False(t, available)

	available, err = repo.IsUsernameAvailable(ctx, "bob_99", user.ID)
	require.NoError(t, err)
	assert.True(t, available, "own username stays available to its owner")

	_, err = repo.GetUserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestAdminUserManagement(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()
	seedUser(t, repo, "carol", model.RoleUser)
	admin := seedUser(t, repo, "dave", model.RoleAdmin)

	q := dto.AdminUserQuery{Role: model.RoleAdmin}
	q.Defaults()
	users, total, err := repo.AdminGetUsers(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, users, 1)
	assert.Equal(t, admin.ID, users[0].ID)

	require.NoError(t, repo.AdminUpdateUserStatus(ctx, admin.ID, model.UserStatusSuspended))
	got, err := repo.GetUserByID(ctx, admin.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive())

	assert.ErrorIs(t, repo.AdminUpdateUserStatus(ctx, "missing", model.UserStatusActive), gorm.ErrRecordNotFound)
}
