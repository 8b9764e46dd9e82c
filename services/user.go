package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/lac-hong-legacy/ido_api/dto"
	"github.com/lac-hong-legacy/ido_api/model"
	"github.com/lac-hong-legacy/ido_api/services/repositories"
	"github.com/lac-hong-legacy/ido_api/shared"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	USER_SVC = "user_svc"

	maxAvatarSize = 5 * 1024 * 1024
	// Longest presign lifetime S3-compatible stores accept.
	avatarURLExpiry = 7 * 24 * time.Hour
)

// BlobStore is where uploaded avatars live.
type BlobStore interface {
	PutObject(ctx context.Context, objectName string, reader io.Reader, objectSize int64, contentType string) error
	PresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)
	RemoveObject(ctx context.Context, objectName string) error
}

type UserService struct {
	appContext.DefaultService

	users UserStore
	blobs BlobStore
	sink  EventSink
	now   func() time.Time
}

func NewUserService(users UserStore, blobs BlobStore, sink EventSink) *UserService {
	if sink == nil {
		sink = discardSink{}
	}
	return &UserService{users: users, blobs: blobs, sink: sink, now: time.Now}
}

func (svc UserService) Id() string {
	return USER_SVC
}

func (svc *UserService) Configure(ctx *appContext.Context) error {
	svc.now = time.Now
	return svc.DefaultService.Configure(ctx)
}

func (svc *UserService) Start() error {
	svc.users = repositories.NewUserRepository(svc.Service(POSTGRES_SVC).(*PostgresService).Db())
	svc.blobs = svc.Service(MINIO_SVC).(*MinIOService)
	svc.sink = svc.Service(ANALYTICS_SVC).(*AnalyticsService)
	return nil
}

// ==================== USER PROFILE METHODS ====================

func (svc *UserService) GetProfile(ctx context.Context, userID string) (*dto.UserProfileResponse, error) {
	user, err := svc.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	settings, err := svc.users.GetSettings(ctx, userID)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to get user settings")
	}

	stats, err := svc.users.GetUserStatistics(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("userID", userID).Error("Failed to get user statistics")
		stats = dto.UserStatistics{}
	}

	profile := toUserProfile(user)
	profile.Settings = settings
	profile.Statistics = &stats
	return profile, nil
}

func (svc *UserService) UpdateProfile(ctx context.Context, userID string, req dto.UpdateProfileRequest) (*dto.UserProfileResponse, error) {
	updates := make(map[string]interface{})

	if req.Username != nil {
		available, err := svc.users.IsUsernameAvailable(ctx, *req.Username, userID)
		if err != nil {
			return nil, shared.NewInternalError(err, "Failed to check username availability")
		}
		if !available {
			return nil, shared.NewConflictError(nil, "Username already taken")
		}
		updates["username"] = *req.Username
	}

	setTrimmed := func(column string, value *string) {
		if value != nil {
			updates[column] = strings.TrimSpace(*value)
		}
	}
	setTrimmed("first_name", req.FirstName)
	setTrimmed("last_name", req.LastName)
	setTrimmed("bio", req.Bio)
	setTrimmed("website", req.Website)
	setTrimmed("location", req.Location)
	setTrimmed("avatar", req.Avatar)

	if req.SocialLinks != nil {
		links, err := shared.JSONAPI.MarshalToString(req.SocialLinks)
		if err != nil {
			return nil, shared.NewInternalError(err, "Failed to encode social links")
		}
		updates["social_links"] = links
	}

	if len(updates) > 0 {
		if err := svc.users.UpdateUserProfile(ctx, userID, updates); err != nil {
			if IsUniqueViolation(err) {
				return nil, shared.NewConflictError(err, "Username already taken")
			}
			return nil, shared.NewInternalError(err, "Failed to update profile")
		}
		svc.track("profile_updated", userID)
	}

	return svc.GetProfile(ctx, userID)
}

// GetPublicProfile is what anyone can see about a user.
func (svc *UserService) GetPublicProfile(ctx context.Context, username string) (*dto.PublicProfileResponse, error) {
	user, err := svc.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError(err, "User not found")
		}
		return nil, shared.NewInternalError(err, "Failed to get user")
	}

	stats, err := svc.users.GetUserStatistics(ctx, user.ID)
	if err != nil {
		log.WithError(err).WithField("userID", user.ID).Error("Failed to get user statistics")
	}
	// Invested amounts stay private.
	stats.TotalInvested = nil

	svc.sink.WriteDataPoint(model.AnalyticsEvent{
		Name:    "profile_viewed",
		Blobs:   []string{"profile_viewed", user.ID, username},
		Doubles: []float64{float64(svc.now().UnixMilli())},
		Indexes: []string{user.ID},
	})

	return &dto.PublicProfileResponse{
		ID:          user.ID,
		Username:    user.Username,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Bio:         user.Bio,
		Website:     user.Website,
		Location:    user.Location,
		Avatar:      user.Avatar,
		SocialLinks: socialLinks(user),
		JoinedAt:    user.CreatedAt,
		Statistics:  stats,
	}, nil
}

// ==================== SETTINGS ====================

func (svc *UserService) GetSettings(ctx context.Context, userID string) (*model.UserSettings, error) {
	settings, err := svc.users.GetSettings(ctx, userID)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to get user settings")
	}
	return settings, nil
}

// UpdateSettings merges the supplied fields into the stored settings.
func (svc *UserService) UpdateSettings(ctx context.Context, userID string, req dto.UpdateSettingsRequest) (*model.UserSettings, error) {
	settings, err := svc.users.GetSettings(ctx, userID)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to get user settings")
	}

	if req.EmailNotifications != nil {
		settings.EmailNotifications = *req.EmailNotifications
	}
	if req.PushNotifications != nil {
		settings.PushNotifications = *req.PushNotifications
	}
	if req.MarketingEmails != nil {
		settings.MarketingEmails = *req.MarketingEmails
	}
	if req.TwoFactorEnabled != nil {
		settings.TwoFactorEnabled = *req.TwoFactorEnabled
	}
	if req.Language != nil {
		settings.Language = *req.Language
	}
	if req.Timezone != nil {
		settings.Timezone = *req.Timezone
	}
	if req.Currency != nil {
		settings.Currency = *req.Currency
	}
	if req.Theme != nil {
		settings.Theme = *req.Theme
	}

	if err := svc.users.SaveSettings(ctx, settings); err != nil {
		return nil, shared.NewInternalError(err, "Failed to update settings")
	}
	return settings, nil
}

// ==================== SECURITY ====================

func (svc *UserService) ChangePassword(ctx context.Context, userID string, req dto.ChangePasswordRequest) error {
	user, err := svc.loadUser(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return shared.NewForbiddenError(nil, "Current password is incorrect")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return shared.NewInternalError(err, "Failed to hash password")
	}

	if err := svc.users.UpdateUserPassword(ctx, userID, string(hashedPassword)); err != nil {
		return shared.NewInternalError(err, "Failed to update password")
	}

	svc.track("password_changed", userID)
	return nil
}

// ==================== AVATAR ====================

var avatarExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true}

func (svc *UserService) UploadAvatar(ctx context.Context, userID string, file dto.AvatarUpload) (*dto.AvatarResponse, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !avatarExtensions[ext] {
		return nil, shared.NewBadRequestError(nil, "Invalid image file format. Supported: JPG, PNG, WEBP, GIF")
	}
	if file.Size > maxAvatarSize {
		return nil, shared.NewBadRequestError(nil, "Avatar file too large. Maximum size: 5MB")
	}

	objectName := fmt.Sprintf("avatars/%s_%d%s", userID, svc.now().Unix(), ext)

	if err := svc.blobs.PutObject(ctx, objectName, file.Body, file.Size, file.ContentType); err != nil {
		return nil, shared.NewInternalError(err, "Failed to upload file to storage")
	}

	url, err := svc.blobs.PresignedURL(ctx, objectName, avatarURLExpiry)
	if err != nil {
		svc.removeBlob(objectName)
		return nil, shared.NewInternalError(err, "Failed to generate avatar URL")
	}

	if err := svc.users.UpdateUserProfile(ctx, userID, map[string]interface{}{"avatar": url}); err != nil {
		svc.removeBlob(objectName)
		return nil, shared.NewInternalError(err, "Failed to update profile")
	}

	log.WithFields(log.Fields{"userID": userID, "object": objectName}).Info("Avatar uploaded")
	return &dto.AvatarResponse{Avatar: url}, nil
}

func (svc *UserService) removeBlob(objectName string) {
	if err := svc.blobs.RemoveObject(context.Background(), objectName); err != nil {
		log.WithError(err).WithField("object", objectName).Warn("Failed to clean up uploaded file")
	}
}

// ==================== ADMIN USER MANAGEMENT ====================

func (svc *UserService) AdminGetUsers(ctx context.Context, q dto.AdminUserQuery) (*dto.AdminUserListResponse, error) {
	users, total, err := svc.users.AdminGetUsers(ctx, q)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to get users")
	}

	infos := make([]dto.AdminUserInfo, len(users))
	for i, user := range users {
		infos[i] = dto.AdminUserInfo{
			ID:            user.ID,
			Email:         user.Email,
			Username:      user.Username,
			FirstName:     user.FirstName,
			LastName:      user.LastName,
			Role:          user.Role,
			Status:        user.Status,
			EmailVerified: user.EmailVerified,
			CreatedAt:     user.CreatedAt,
			LastLogin:     user.LastLogin,
			UpdatedAt:     user.UpdatedAt,
		}
	}

	return &dto.AdminUserListResponse{
		Users:      infos,
		Pagination: dto.NewPagination(q.Page, q.Limit, total),
	}, nil
}

func (svc *UserService) AdminUpdateUserStatus(ctx context.Context, adminID, userID, status string) error {
	if err := svc.users.AdminUpdateUserStatus(ctx, userID, status); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return shared.NewNotFoundError(err, "User not found")
		}
		return shared.NewInternalError(err, "Failed to update user status")
	}

	svc.sink.WriteDataPoint(model.AnalyticsEvent{
		Name:    "user_status_updated",
		Blobs:   []string{"user_status_updated", userID, status, adminID},
		Doubles: []float64{float64(svc.now().UnixMilli())},
		Indexes: []string{userID, adminID},
	})

	log.WithFields(log.Fields{"userID": userID, "status": status, "adminID": adminID}).Info("User status updated")
	return nil
}

// ==================== HELPERS ====================

func (svc *UserService) loadUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := svc.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError(err, "User not found")
		}
		return nil, shared.NewInternalError(err, "Failed to get user profile")
	}
	return user, nil
}

func (svc *UserService) track(event, userID string) {
	svc.sink.WriteDataPoint(model.AnalyticsEvent{
		Name:    event,
		Blobs:   []string{event, userID},
		Doubles: []float64{float64(svc.now().UnixMilli())},
		Indexes: []string{userID},
	})
}

func socialLinks(user *model.User) dto.SocialLinks {
	var links dto.SocialLinks
	if user.SocialLinks != "" {
		if err := shared.JSONAPI.UnmarshalFromString(user.SocialLinks, &links); err != nil {
			log.WithError(err).WithField("userID", user.ID).Warn("Invalid social links")
		}
	}
	return links
}

func toUserProfile(user *model.User) *dto.UserProfileResponse {
	return &dto.UserProfileResponse{
		ID:            user.ID,
		Email:         user.Email,
		Username:      user.Username,
		FirstName:     user.FirstName,
		LastName:      user.LastName,
		Bio:           user.Bio,
		Website:       user.Website,
		Location:      user.Location,
		Avatar:        user.Avatar,
		SocialLinks:   socialLinks(user),
		Role:          user.Role,
		Status:        user.Status,
		EmailVerified: user.EmailVerified,
		LastLogin:     user.LastLogin,
		CreatedAt:     user.CreatedAt,
		UpdatedAt:     user.UpdatedAt,
	}
}
