package handlers

import (
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/ido_api/dto"
	"github.com/lac-hong-legacy/ido_api/shared"
)

type AdminHandler struct {
	userSvc UserServiceInterface
}

func NewAdminHandler(userSvc UserServiceInterface) *AdminHandler {
	return &AdminHandler{
		userSvc: userSvc,
	}
}

// @Summary List users (Admin)
// @Description Paginated user list with role, status and search filters (admin only)
// @Tags admin
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Admin Bearer Token" default(Bearer <admin_token>)
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Param role query string false "Role filter" Enums(user, admin, moderator)
// @Param status query string false "Status filter" Enums(active, inactive, suspended)
// @Param search query string false "Matches email, username or name"
// @Param sort query string false "Sort column" Enums(created_at, last_login, email, username)
// @Param order query string false "Sort order" Enums(asc, desc)
// @Success 200 {object} shared.Response{data=dto.AdminUserListResponse}
// @Failure 403 {object} shared.ErrorResponse
// @Router /api/users [get]
func (h *AdminHandler) AdminGetUsers(c *fiber.Ctx) error {
	var q dto.AdminUserQuery
	if err := parseQuery(c, &q); err != nil {
		return err
	}

	users, err := h.userSvc.AdminGetUsers(c.UserContext(), q)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Users retrieved successfully", users)
}

// @Summary Update user status (Admin)
// @Tags admin
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Admin Bearer Token" default(Bearer <admin_token>)
// @Param id path string true "User ID"
// @Param statusRequest body dto.UpdateUserStatusRequest true "New status"
// @Success 200 {object} shared.Response
// @Failure 404 {object} shared.ErrorResponse
// @Router /api/users/{id}/status [put]
func (h *AdminHandler) AdminUpdateUserStatus(c *fiber.Ctx) error {
	var req dto.UpdateUserStatusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	if err := h.userSvc.AdminUpdateUserStatus(c.UserContext(), shared.CurrentUserID(c), c.Params("id"), req.Status); err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, fmt.Sprintf("User status updated to %s", req.Status), nil)
}
