package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/ido_api/dto"
	"github.com/lac-hong-legacy/ido_api/shared"
)

type IdoHandler struct {
	idoSvc IdoServiceInterface
}

func NewIdoHandler(idoSvc IdoServiceInterface) *IdoHandler {
	return &IdoHandler{
		idoSvc: idoSvc,
	}
}

// @Summary List IDO pools
// @Description Pools with project info, computed status and progress. Cached; X-Cache reports HIT or MISS.
// @Tags ido
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Param status query string false "Pool status" Enums(upcoming, active, completed, cancelled)
// @Param category query string false "Project category"
// @Param search query string false "Matches pool name, symbol or project name"
// @Param sort query string false "Sort column" Enums(created_at, start_time, end_time, total_raised, participant_count)
// @Param order query string false "Sort order" Enums(asc, desc)
// @Success 200 {object} shared.Response{data=dto.PoolListResponse}
// @Router /api/ido/pools [get]
func (h *IdoHandler) ListPools(c *fiber.Ctx) error {
	var q dto.PoolListQuery
	if err := parseQuery(c, &q); err != nil {
		return err
	}

	resp, hit, err := h.idoSvc.ListPools(c.UserContext(), q, shared.CurrentUserID(c))
	if err != nil {
		return err
	}

	setCacheHeader(c, hit)
	return shared.ResponseOK(c, resp)
}

// @Summary Get IDO pool
// @Description Pool detail with confirmed statistics. Authenticated callers also get their own investments and remaining allocation.
// @Tags ido
// @Produce json
// @Param Authorization header string false "User Bearer Token" default(Bearer <user_token>)
// @Param id path string true "Pool ID"
// @Success 200 {object} shared.Response{data=dto.PoolDetailResponse}
// @Failure 404 {object} shared.ErrorResponse
// @Router /api/ido/pools/{id} [get]
func (h *IdoHandler) GetPool(c *fiber.Ctx) error {
	resp, err := h.idoSvc.GetPool(c.UserContext(), c.Params("id"), shared.CurrentUserID(c))
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, resp)
}

// @Summary Invest in an IDO pool
// @Description Admits a pending investment when the pool is active, inside its window and below its hard cap, and the amount respects the per-user limits.
// @Tags ido
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param id path string true "Pool ID"
// @Param investRequest body dto.InvestRequest true "Investment"
// @Success 201 {object} shared.Response{data=dto.InvestResponse}
// @Failure 400 {object} shared.ErrorResponse
// @Failure 404 {object} shared.ErrorResponse
// @Failure 409 {object} shared.ErrorResponse
// @Failure 429 {object} dto.RateLimitExceededResponse
// @Router /api/ido/pools/{id}/invest [post]
func (h *IdoHandler) Invest(c *fiber.Ctx) error {
	var req dto.InvestRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	resp, err := h.idoSvc.AdmitInvestment(c.UserContext(), c.Params("id"), shared.CurrentUserID(c), req)
	if err != nil {
		return err
	}

	return shared.ResponseCreated(c, resp)
}

// @Summary Get my investments in a pool
// @Tags ido
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param id path string true "Pool ID"
// @Success 200 {object} shared.Response{data=dto.PoolInvestmentsResponse}
// @Router /api/ido/pools/{id}/investments [get]
func (h *IdoHandler) GetPoolInvestments(c *fiber.Ctx) error {
	resp, err := h.idoSvc.GetPoolInvestments(c.UserContext(), c.Params("id"), shared.CurrentUserID(c))
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, resp)
}

// @Summary Get my investment portfolio
// @Tags ido
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} shared.Response{data=dto.MyInvestmentsResponse}
// @Router /api/ido/my-investments [get]
func (h *IdoHandler) GetMyInvestments(c *fiber.Ctx) error {
	var q dto.PageQuery
	if err := parseQuery(c, &q); err != nil {
		return err
	}

	resp, err := h.idoSvc.GetMyInvestments(c.UserContext(), shared.CurrentUserID(c), q)
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, resp)
}

// @Summary Create IDO pool (Admin)
// @Tags ido
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Admin Bearer Token" default(Bearer <admin_token>)
// @Param createPoolRequest body dto.CreatePoolRequest true "Pool definition"
// @Success 201 {object} shared.Response{data=dto.PoolSummary}
// @Failure 400 {object} shared.ErrorResponse
// @Failure 404 {object} shared.ErrorResponse
// @Router /api/ido/pools [post]
func (h *IdoHandler) CreatePool(c *fiber.Ctx) error {
	var req dto.CreatePoolRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	pool, err := h.idoSvc.CreatePool(c.UserContext(), req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusCreated, "IDO pool created successfully", pool)
}

// @Summary Change IDO pool status (Admin)
// @Description Allowed: upcoming to active, active to completed, upcoming or active to cancelled
// @Tags ido
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Admin Bearer Token" default(Bearer <admin_token>)
// @Param id path string true "Pool ID"
// @Param statusRequest body dto.UpdatePoolStatusRequest true "New status"
// @Success 200 {object} shared.Response{data=dto.PoolSummary}
// @Failure 409 {object} shared.ErrorResponse
// @Router /api/ido/pools/{id}/status [put]
func (h *IdoHandler) UpdatePoolStatus(c *fiber.Ctx) error {
	var req dto.UpdatePoolStatusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	pool, err := h.idoSvc.UpdatePoolStatus(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "IDO pool status updated", pool)
}
