package dto

import (
	"io"
	"time"

	"github.com/shopspring/decimal"
)

type SocialLinks struct {
	Twitter  string `json:"twitter,omitempty"`
	Telegram string `json:"telegram,omitempty"`
	Discord  string `json:"discord,omitempty"`
	Linkedin string `json:"linkedin,omitempty"`
}

// UpdateProfileRequest uses pointers so omitted fields are left untouched.
type UpdateProfileRequest struct {
	FirstName   *string      `json:"firstName,omitempty" validate:"omitempty,min=1,max=50"`
	LastName    *string      `json:"lastName,omitempty" validate:"omitempty,min=1,max=50"`
	Username    *string      `json:"username,omitempty" validate:"omitempty,username"`
	Bio         *string      `json:"bio,omitempty" validate:"omitempty,max=500"`
	Website     *string      `json:"website,omitempty" validate:"omitempty,url"`
	Location    *string      `json:"location,omitempty" validate:"omitempty,max=100"`
	Avatar      *string      `json:"avatar,omitempty" validate:"omitempty,url"`
	SocialLinks *SocialLinks `json:"socialLinks,omitempty"`
}

func (r UpdateProfileRequest) Validate() error {
	return GetValidator().Struct(r)
}

type UpdateSettingsRequest struct {
	EmailNotifications *bool   `json:"emailNotifications,omitempty"`
	PushNotifications  *bool   `json:"pushNotifications,omitempty"`
	MarketingEmails    *bool   `json:"marketingEmails,omitempty"`
	TwoFactorEnabled   *bool   `json:"twoFactorEnabled,omitempty"`
	Language           *string `json:"language,omitempty" validate:"omitempty,oneof=en zh es fr de ja ko"`
	Timezone           *string `json:"timezone,omitempty" validate:"omitempty,max=64"`
	Currency           *string `json:"currency,omitempty" validate:"omitempty,oneof=USD EUR CNY JPY KRW"`
	Theme              *string `json:"theme,omitempty" validate:"omitempty,oneof=light dark auto"`
}

func (r UpdateSettingsRequest) Validate() error {
	return GetValidator().Struct(r)
}

type UserStatistics struct {
	PoolsInvested    int64            `json:"pools_invested"`
	TotalInvested    *decimal.Decimal `json:"total_invested,omitempty"`
	TotalInvestments int64            `json:"total_investments"`
}

type UserProfileResponse struct {
	ID            string          `json:"id"`
	Email         string          `json:"email"`
	Username      string          `json:"username"`
	FirstName     string          `json:"first_name"`
	LastName      string          `json:"last_name"`
	Bio           string          `json:"bio"`
	Website       string          `json:"website"`
	Location      string          `json:"location"`
	Avatar        string          `json:"avatar"`
	SocialLinks   SocialLinks     `json:"social_links"`
	Role          string          `json:"role"`
	Status        string          `json:"status"`
	EmailVerified bool            `json:"email_verified"`
	LastLogin     *time.Time      `json:"last_login"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Settings      interface{}     `json:"settings,omitempty"`
	Statistics    *UserStatistics `json:"statistics,omitempty"`
}

type PublicProfileResponse struct {
	ID          string         `json:"id"`
	Username    string         `json:"username"`
	FirstName   string         `json:"firstName"`
	LastName    string         `json:"lastName"`
	Bio         string         `json:"bio"`
	Website     string         `json:"website"`
	Location    string         `json:"location"`
	Avatar      string         `json:"avatar"`
	SocialLinks SocialLinks    `json:"socialLinks"`
	JoinedAt    time.Time      `json:"joinedAt"`
	Statistics  UserStatistics `json:"statistics"`
}

// AvatarUpload is an uploaded image as received from the HTTP layer.
type AvatarUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type AvatarResponse struct {
	Avatar string `json:"avatar"`
}

// ==================== ADMIN DTOs ====================

type AdminUserQuery struct {
	PageQuery
	Role   string `query:"role" validate:"omitempty,oneof=user admin moderator"`
	Status string `query:"status" validate:"omitempty,oneof=active inactive suspended"`
	Search string `query:"search" validate:"omitempty,max=100"`
	Sort   string `query:"sort" validate:"omitempty,oneof=created_at last_login email username"`
	Order  string `query:"order" validate:"omitempty,oneof=asc desc"`
}

func (q *AdminUserQuery) Defaults() {
	q.PageQuery.Defaults()
	if q.Sort == "" {
		q.Sort = "created_at"
	}
	if q.Order == "" {
		q.Order = "desc"
	}
}

func (q AdminUserQuery) Validate() error {
	return GetValidator().Struct(q)
}

type AdminUserInfo struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	Username      string     `json:"username"`
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name"`
	Role          string     `json:"role"`
	Status        string     `json:"status"`
	EmailVerified bool       `json:"email_verified"`
	CreatedAt     time.Time  `json:"created_at"`
	LastLogin     *time.Time `json:"last_login"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type AdminUserListResponse struct {
	Users      []AdminUserInfo `json:"users"`
	Pagination Pagination      `json:"pagination"`
}

type UpdateUserStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active inactive suspended" example:"suspended"`
}

func (r UpdateUserStatusRequest) Validate() error {
	return GetValidator().Struct(r)
}
