package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/lac-hong-legacy/ido_api/dto"
	"github.com/lac-hong-legacy/ido_api/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var userSortColumns = map[string]string{
	"created_at": "created_at",
	"last_login": "last_login",
	"email":      "email",
	"username":   "username",
}

// UserRepository handles user-related database operations
type UserRepository struct {
	BaseRepository
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// CreateUser inserts the user together with default settings.
func (ds *UserRepository) CreateUser(ctx context.Context, user *model.User) error {
	return ds.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		settings := model.DefaultUserSettings(user.ID)
		settings.UpdatedAt = user.CreatedAt
		return tx.Create(&settings).Error
	})
}

func (ds *UserRepository) GetUserByID(ctx context.Context, userID string) (*model.User, error) {
	var user model.User
	if err := ds.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (ds *UserRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := ds.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (ds *UserRepository) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := ds.db.WithContext(ctx).Where("LOWER(username) = LOWER(?)", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// IsUsernameAvailable ignores the row belonging to excludeUserID so a user can keep their own name.
func (ds *UserRepository) IsUsernameAvailable(ctx context.Context, username, excludeUserID string) (bool, error) {
	var count int64
	query := ds.db.WithContext(ctx).Model(&model.User{}).Where("LOWER(username) = LOWER(?)", username)
	if excludeUserID != "" {
		query = query.Where("id <> ?", excludeUserID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count == 0, nil
}

func (ds *UserRepository) IsEmailAvailable(ctx context.Context, email string) (bool, error) {
	var count int64
	err := ds.db.WithContext(ctx).Model(&model.User{}).Where("LOWER(email) = LOWER(?)", email).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

func (ds *UserRepository) UpdateUserProfile(ctx context.Context, userID string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	return ds.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Updates(updates).Error
}

func (ds *UserRepository) UpdateUserPassword(ctx context.Context, userID, hashedPassword string) error {
	return ds.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"password_hash": hashedPassword,
		"updated_at":    time.Now(),
	}).Error
}

func (ds *UserRepository) UpdateLastLogin(ctx context.Context, userID string) error {
	now := time.Now()
	return ds.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"last_login": &now,
		"updated_at": now,
	}).Error
}

// ==================== SETTINGS ====================

// GetSettings returns the stored settings, or the defaults when the user never saved any.
func (ds *UserRepository) GetSettings(ctx context.Context, userID string) (*model.UserSettings, error) {
	var settings model.UserSettings
	err := ds.db.WithContext(ctx).Where("user_id = ?", userID).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		defaults := model.DefaultUserSettings(userID)
		return &defaults, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (ds *UserRepository) SaveSettings(ctx context.Context, settings *model.UserSettings) error {
	settings.UpdatedAt = time.Now()
	return ds.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		}).
		Create(settings).Error
}

// ==================== STATISTICS ====================

func (ds *UserRepository) GetUserStatistics(ctx context.Context, userID string) (dto.UserStatistics, error) {
	var stats dto.UserStatistics
	err := ds.db.WithContext(ctx).
		Model(&model.UserInvestment{}).
		Select(`COUNT(DISTINCT ido_pool_id) AS pools_invested,
			COALESCE(SUM(amount), 0) AS total_invested,
			COUNT(*) AS total_investments`).
		Where("user_id = ? AND status = ?", userID, model.InvestmentStatusConfirmed).
		Scan(&stats).Error
	return stats, err
}

// ==================== ADMIN USER MANAGEMENT ====================

func (ds *UserRepository) AdminGetUsers(ctx context.Context, q dto.AdminUserQuery) ([]model.User, int64, error) {
	var total int64
	users := []model.User{}

	query := ds.db.WithContext(ctx).Model(&model.User{})

	if q.Role != "" {
		query = query.Where("role = ?", q.Role)
	}
	if q.Status != "" {
		query = query.Where("status = ?", q.Status)
	}
	if q.Search != "" {
		searchPattern := "%" + strings.ToLower(q.Search) + "%"
		query = query.Where("(LOWER(username) LIKE ? OR LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?)",
			searchPattern, searchPattern, searchPattern, searchPattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := userSortColumns[q.Sort]
	if !ok {
		column = "created_at"
	}
	order := "DESC"
	if q.Order == "asc" {
		order = "ASC"
	}

	err := query.Order(column + " " + order).
		Scopes(Paginate(q.PageQuery)).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (ds *UserRepository) AdminUpdateUserStatus(ctx context.Context, userID, status string) error {
	result := ds.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
