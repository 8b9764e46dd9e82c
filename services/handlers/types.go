package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/ido_api/dto"
	"github.com/lac-hong-legacy/ido_api/model"
	"github.com/lac-hong-legacy/ido_api/shared"
)

type AuthServiceInterface interface {
	Register(ctx context.Context, req dto.RegisterRequest, clientIP, userAgent string) (*dto.AuthResponse, error)
	Login(ctx context.Context, req dto.LoginRequest, clientIP, userAgent string) (*dto.AuthResponse, error)
	RefreshToken(ctx context.Context, req dto.RefreshTokenRequest) (*dto.RefreshResponse, error)
	Logout(ctx context.Context, authHeader, clientIP string)
	ForgotPassword(ctx context.Context, email, clientIP string) error
	ResetPassword(ctx context.Context, req dto.ResetPasswordRequest, clientIP string) error
}

type UserServiceInterface interface {
	GetProfile(ctx context.Context, userID string) (*dto.UserProfileResponse, error)
	UpdateProfile(ctx context.Context, userID string, req dto.UpdateProfileRequest) (*dto.UserProfileResponse, error)
	GetPublicProfile(ctx context.Context, username string) (*dto.PublicProfileResponse, error)
	GetSettings(ctx context.Context, userID string) (*model.UserSettings, error)
	UpdateSettings(ctx context.Context, userID string, req dto.UpdateSettingsRequest) (*model.UserSettings, error)
	ChangePassword(ctx context.Context, userID string, req dto.ChangePasswordRequest) error
	UploadAvatar(ctx context.Context, userID string, file dto.AvatarUpload) (*dto.AvatarResponse, error)
	AdminGetUsers(ctx context.Context, q dto.AdminUserQuery) (*dto.AdminUserListResponse, error)
	AdminUpdateUserStatus(ctx context.Context, adminID, userID, status string) error
}

type IdoServiceInterface interface {
	AdmitInvestment(ctx context.Context, poolID, userID string, req dto.InvestRequest) (*dto.InvestResponse, error)
	ListPools(ctx context.Context, q dto.PoolListQuery, viewerID string) (*dto.PoolListResponse, bool, error)
	GetPool(ctx context.Context, poolID, viewerID string) (*dto.PoolDetailResponse, error)
	GetPoolInvestments(ctx context.Context, poolID, userID string) (*dto.PoolInvestmentsResponse, error)
	GetMyInvestments(ctx context.Context, userID string, page dto.PageQuery) (*dto.MyInvestmentsResponse, error)
	CreatePool(ctx context.Context, req dto.CreatePoolRequest) (*dto.PoolSummary, error)
	UpdatePoolStatus(ctx context.Context, poolID string, req dto.UpdatePoolStatusRequest) (*dto.PoolSummary, error)
}

type ProjectServiceInterface interface {
	ListProjects(ctx context.Context, q dto.ProjectListQuery) (*dto.ProjectListResponse, bool, error)
	GetProject(ctx context.Context, projectID string) (*dto.ProjectResponse, bool, error)
	Trending(ctx context.Context, limit int) ([]dto.TrendingProject, bool, error)
	Search(ctx context.Context, term string, limit int) ([]dto.ProjectResponse, bool, error)
}

type PriceServiceInterface interface {
	GetPrices(ctx context.Context, q dto.PriceQuery) (map[string]dto.PriceData, bool, error)
	GetPrice(ctx context.Context, symbol, vsCurrency string) (*dto.PriceData, bool, error)
	Compare(ctx context.Context, symbols string) (*dto.PriceComparison, error)
	Trending(ctx context.Context, limit int, timeframe string) ([]dto.TrendingPrice, bool, error)
}

type HealthServiceInterface interface {
	Check(ctx context.Context) *dto.HealthResponse
	Detailed(ctx context.Context) *dto.DetailedHealthResponse
	Ready(ctx context.Context) *dto.ProbeResponse
	Live() *dto.ProbeResponse
}

// parseBody decodes the JSON body and runs the DTO's validation rules.
func parseBody(c *fiber.Ctx, req dto.Validator) error {
	if err := c.BodyParser(req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request body")
	}
	if err := req.Validate(); err != nil {
		return dto.CreateValidationError(err, "Validation failed")
	}
	return nil
}

func parseQuery(c *fiber.Ctx, q dto.Validator) error {
	if err := c.QueryParser(q); err != nil {
		return shared.NewBadRequestError(err, "Invalid query parameters")
	}
	if d, ok := q.(interface{ Defaults() }); ok {
		d.Defaults()
	}
	if err := q.Validate(); err != nil {
		return dto.CreateValidationError(err, "Invalid query parameters")
	}
	return nil
}

func setCacheHeader(c *fiber.Ctx, hit bool) {
	if hit {
		c.Set(shared.HeaderCache, shared.CacheHit)
		return
	}
	c.Set(shared.HeaderCache, shared.CacheMiss)
}
