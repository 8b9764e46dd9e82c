package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/ido_api/dto"
	"github.com/lac-hong-legacy/ido_api/shared"
)

type UserHandler struct {
	userSvc UserServiceInterface
}

func NewUserHandler(userSvc UserServiceInterface) *UserHandler {
	return &UserHandler{
		userSvc: userSvc,
	}
}

// @Summary Get current user profile
// @Description Profile, settings and investment statistics of the caller
// @Tags users
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Success 200 {object} shared.Response{data=dto.UserProfileResponse}
// @Failure 401 {object} shared.ErrorResponse
// @Router /api/users/me [get]
func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	profile, err := h.userSvc.GetProfile(c.UserContext(), shared.CurrentUserID(c))
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, profile)
}

// @Summary Update current user profile
// @Tags users
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param updateRequest body dto.UpdateProfileRequest true "Profile fields to change"
// @Success 200 {object} shared.Response{data=dto.UserProfileResponse}
// @Failure 409 {object} shared.ErrorResponse
// @Router /api/users/me [put]
func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	var req dto.UpdateProfileRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	profile, err := h.userSvc.UpdateProfile(c.UserContext(), shared.CurrentUserID(c), req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Profile updated successfully", profile)
}

// @Summary Get current user settings
// @Tags users
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Success 200 {object} shared.Response{data=model.UserSettings}
// @Router /api/users/me/settings [get]
func (h *UserHandler) GetSettings(c *fiber.Ctx) error {
	settings, err := h.userSvc.GetSettings(c.UserContext(), shared.CurrentUserID(c))
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, settings)
}

// @Summary Update current user settings
// @Description Fields left out of the body keep their stored value
// @Tags users
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param settingsRequest body dto.UpdateSettingsRequest true "Settings to change"
// @Success 200 {object} shared.Response{data=model.UserSettings}
// @Router /api/users/me/settings [put]
func (h *UserHandler) UpdateSettings(c *fiber.Ctx) error {
	var req dto.UpdateSettingsRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	settings, err := h.userSvc.UpdateSettings(c.UserContext(), shared.CurrentUserID(c), req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Settings updated successfully", settings)
}

// @Summary Change password
// @Tags users
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param changePasswordRequest body dto.ChangePasswordRequest true "Current and new password"
// @Success 200 {object} shared.Response
// @Failure 403 {object} shared.ErrorResponse
// @Router /api/users/me/change-password [post]
func (h *UserHandler) ChangePassword(c *fiber.Ctx) error {
	var req dto.ChangePasswordRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	if err := h.userSvc.ChangePassword(c.UserContext(), shared.CurrentUserID(c), req); err != nil {
		return err
	}

	return shared.ResponseMessage(c, "Password changed successfully")
}

// @Summary Upload avatar
// @Description JPG, PNG, WEBP or GIF up to 5MB
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param avatar formData file true "Avatar image"
// @Success 200 {object} shared.Response{data=dto.AvatarResponse}
// @Failure 400 {object} shared.ErrorResponse
// @Router /api/users/me/avatar [post]
func (h *UserHandler) UploadAvatar(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		return shared.NewBadRequestError(err, "Avatar file is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return shared.NewBadRequestError(err, "Failed to read avatar file")
	}
	defer file.Close()

	resp, err := h.userSvc.UploadAvatar(c.UserContext(), shared.CurrentUserID(c), dto.AvatarUpload{
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get(fiber.HeaderContentType),
		Size:        fileHeader.Size,
		Body:        file,
	})
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Avatar uploaded successfully", resp)
}

// @Summary Get public profile
// @Tags users
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} shared.Response{data=dto.PublicProfileResponse}
// @Failure 404 {object} shared.ErrorResponse
// @Router /api/users/{username} [get]
func (h *UserHandler) GetPublicProfile(c *fiber.Ctx) error {
	profile, err := h.userSvc.GetPublicProfile(c.UserContext(), c.Params("username"))
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, profile)
}
