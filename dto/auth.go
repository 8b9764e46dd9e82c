package dto

// ==================== AUTHENTICATION REQUEST DTOs ====================

type RegisterRequest struct {
	Email           string `json:"email" validate:"required,email" example:"user@example.com"`
	Username        string `json:"username" validate:"required,username" example:"johndoe"`
	Password        string `json:"password" validate:"required,strong_password" example:"SecurePass123!"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password" example:"SecurePass123!"`
	FirstName       string `json:"firstName" validate:"required,max=50" example:"John"`
	LastName        string `json:"lastName" validate:"required,max=50" example:"Doe"`
	AcceptTerms     bool   `json:"acceptTerms" validate:"required" example:"true"`
}

func (r RegisterRequest) Validate() error {
	return GetValidator().Struct(r)
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" example:"user@example.com"`
	Password string `json:"password" validate:"required,min=8" example:"SecurePass123!"`
	Remember bool   `json:"remember,omitempty" example:"false"`
}

func (l LoginRequest) Validate() error {
	return GetValidator().Struct(l)
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

func (r RefreshTokenRequest) Validate() error {
	return GetValidator().Struct(r)
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email" example:"user@example.com"`
}

func (f ForgotPasswordRequest) Validate() error {
	return GetValidator().Struct(f)
}

type ResetPasswordRequest struct {
	Token           string `json:"token" validate:"required" example:"01926f1e-..."`
	Password        string `json:"password" validate:"required,strong_password" example:"NewPass123!"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password" example:"NewPass123!"`
}

func (r ResetPasswordRequest) Validate() error {
	return GetValidator().Struct(r)
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required" example:"OldPass123!"`
	NewPassword     string `json:"newPassword" validate:"required,strong_password" example:"NewPass123!"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword" example:"NewPass123!"`
}

func (c ChangePasswordRequest) Validate() error {
	return GetValidator().Struct(c)
}

// ==================== AUTHENTICATION RESPONSE DTOs ====================

type AuthUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Username      string `json:"username"`
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Role          string `json:"role"`
	EmailVerified bool   `json:"emailVerified"`
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type AuthResponse struct {
	User      AuthUser  `json:"user"`
	Tokens    TokenPair `json:"tokens"`
	SessionID string    `json:"sessionId"`
}

type RefreshResponse struct {
	AccessToken string `json:"accessToken"`
}
