package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/ido_api/dto"
)

// HealthHandler answers load balancer and orchestrator probes. Bodies are
// written bare, without the response envelope.
type HealthHandler struct {
	healthSvc HealthServiceInterface
}

func NewHealthHandler(healthSvc HealthServiceInterface) *HealthHandler {
	return &HealthHandler{
		healthSvc: healthSvc,
	}
}

func statusCode(status string) int {
	if status == dto.HealthStatusHealthy || status == "ready" {
		return fiber.StatusOK
	}
	return fiber.StatusServiceUnavailable
}

// @Summary Health check
// @Description Database, cache and storage status
// @Tags health
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Failure 503 {object} dto.HealthResponse
// @Router /api/health [get]
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	resp := h.healthSvc.Check(c.UserContext())
	return c.Status(statusCode(resp.Status)).JSON(resp)
}

// @Summary Detailed health check
// @Description Per dependency latency and details plus runtime memory statistics
// @Tags health
// @Produce json
// @Success 200 {object} dto.DetailedHealthResponse
// @Failure 503 {object} dto.DetailedHealthResponse
// @Router /api/health/detailed [get]
func (h *HealthHandler) Detailed(c *fiber.Ctx) error {
	resp := h.healthSvc.Detailed(c.UserContext())
	return c.Status(statusCode(resp.Status)).JSON(resp)
}

// @Summary Readiness probe
// @Tags health
// @Produce json
// @Success 200 {object} dto.ProbeResponse
// @Failure 503 {object} dto.ProbeResponse
// @Router /api/health/ready [get]
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	resp := h.healthSvc.Ready(c.UserContext())
	return c.Status(statusCode(resp.Status)).JSON(resp)
}

// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} dto.ProbeResponse
// @Router /api/health/live [get]
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(h.healthSvc.Live())
}
