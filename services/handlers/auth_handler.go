package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/ido_api/dto"
	"github.com/lac-hong-legacy/ido_api/shared"
)

type AuthHandler struct {
	authSvc AuthServiceInterface
}

func NewAuthHandler(authSvc AuthServiceInterface) *AuthHandler {
	return &AuthHandler{
		authSvc: authSvc,
	}
}

// @Summary Register a new user
// @Description Create a new account and open a session
// @Tags auth
// @Accept json
// @Produce json
// @Param registerRequest body dto.RegisterRequest true "Registration details with password confirmation"
// @Success 201 {object} shared.Response{data=dto.AuthResponse}
// @Failure 400 {object} shared.ErrorResponse
// @Failure 409 {object} shared.ErrorResponse
// @Failure 429 {object} dto.RateLimitExceededResponse
// @Router /api/auth/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	resp, err := h.authSvc.Register(c.UserContext(), req, shared.ClientIP(c), shared.UserAgent(c))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusCreated, "User registered successfully", resp)
}

// @Summary Login user
// @Description Authenticate with email and password and return a token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param loginRequest body dto.LoginRequest true "Login credentials"
// @Success 200 {object} shared.Response{data=dto.AuthResponse}
// @Failure 401 {object} shared.ErrorResponse
// @Failure 429 {object} dto.RateLimitExceededResponse
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	resp, err := h.authSvc.Login(c.UserContext(), req, shared.ClientIP(c), shared.UserAgent(c))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Login successful", resp)
}

// @Summary Refresh access token
// @Description Generate a new access token using a refresh token
// @Tags auth
// @Accept json
// @Produce json
// @Param refreshRequest body dto.RefreshTokenRequest true "Refresh token"
// @Success 200 {object} shared.Response{data=dto.RefreshResponse}
// @Failure 401 {object} shared.ErrorResponse
// @Router /api/auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	var req dto.RefreshTokenRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	resp, err := h.authSvc.RefreshToken(c.UserContext(), req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Token refreshed successfully", resp)
}

// @Summary Logout user
// @Description Invalidate the current session. Always succeeds.
// @Tags auth
// @Produce json
// @Security Bearer
// @Param Authorization header string false "User Bearer Token" default(Bearer <user_token>)
// @Success 200 {object} shared.Response
// @Router /api/auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	h.authSvc.Logout(c.UserContext(), c.Get(fiber.HeaderAuthorization), shared.ClientIP(c))

	return shared.ResponseMessage(c, "Logged out successfully")
}

// @Summary Request a password reset
// @Description Send a reset link when the account exists. The response never reveals whether it does.
// @Tags auth
// @Accept json
// @Produce json
// @Param forgotPasswordRequest body dto.ForgotPasswordRequest true "Account email"
// @Success 200 {object} shared.Response
// @Failure 429 {object} dto.RateLimitExceededResponse
// @Router /api/auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req dto.ForgotPasswordRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	if err := h.authSvc.ForgotPassword(c.UserContext(), req.Email, shared.ClientIP(c)); err != nil {
		return err
	}

	return shared.ResponseMessage(c, "If an account with this email exists, a password reset link has been sent.")
}

// @Summary Reset password
// @Description Set a new password with a reset token
// @Tags auth
// @Accept json
// @Produce json
// @Param resetPasswordRequest body dto.ResetPasswordRequest true "Reset token and new password"
// @Success 200 {object} shared.Response
// @Failure 400 {object} shared.ErrorResponse
// @Router /api/auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	if err := h.authSvc.ResetPassword(c.UserContext(), req, shared.ClientIP(c)); err != nil {
		return err
	}

	return shared.ResponseMessage(c, "Password reset successfully")
}
