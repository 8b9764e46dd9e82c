package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/ido_api/dto"
	"github.com/lac-hong-legacy/ido_api/shared"
)

type ProjectHandler struct {
	projectSvc ProjectServiceInterface
}

func NewProjectHandler(projectSvc ProjectServiceInterface) *ProjectHandler {
	return &ProjectHandler{
		projectSvc: projectSvc,
	}
}

// @Summary List projects
// @Tags projects
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Param category query string false "Category"
// @Param status query string false "Status" Enums(active, upcoming, completed, cancelled)
// @Param sort query string false "Sort column" Enums(name, price, marketCap, volume24h, createdAt)
// @Param order query string false "Sort order" Enums(asc, desc)
// @Param search query string false "Matches name, symbol or description"
// @Success 200 {object} shared.Response{data=dto.ProjectListResponse}
// @Header 200 {string} X-Cache "HIT or MISS"
// @Router /api/projects [get]
func (h *ProjectHandler) ListProjects(c *fiber.Ctx) error {
	var q dto.ProjectListQuery
	if err := parseQuery(c, &q); err != nil {
		return err
	}

	resp, hit, err := h.projectSvc.ListProjects(c.UserContext(), q)
	if err != nil {
		return err
	}

	setCacheHeader(c, hit)
	return shared.ResponseOK(c, resp)
}

// @Summary Trending projects
// @Description Ranked by a 24h change and volume score
// @Tags projects
// @Produce json
// @Param limit query int false "Number of projects (max 50)" default(10)
// @Success 200 {object} shared.Response{data=[]dto.TrendingProject}
// @Header 200 {string} X-Cache "HIT or MISS"
// @Router /api/projects/trending [get]
func (h *ProjectHandler) Trending(c *fiber.Ctx) error {
	projects, hit, err := h.projectSvc.Trending(c.UserContext(), c.QueryInt("limit"))
	if err != nil {
		return err
	}

	setCacheHeader(c, hit)
	return shared.ResponseOK(c, projects)
}

// @Summary Search projects
// @Tags projects
// @Produce json
// @Param q query string true "Search term (at least 2 characters)"
// @Param limit query int false "Number of results (max 50)" default(20)
// @Success 200 {object} shared.Response{data=[]dto.ProjectResponse}
// @Failure 400 {object} shared.ErrorResponse
// @Failure 429 {object} dto.RateLimitExceededResponse
// @Router /api/projects/search [get]
func (h *ProjectHandler) Search(c *fiber.Ctx) error {
	projects, hit, err := h.projectSvc.Search(c.UserContext(), c.Query("q"), c.QueryInt("limit"))
	if err != nil {
		return err
	}

	setCacheHeader(c, hit)
	return shared.ResponseOK(c, projects)
}

// @Summary Get project
// @Tags projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} shared.Response{data=dto.ProjectResponse}
// @Failure 404 {object} shared.ErrorResponse
// @Router /api/projects/{id} [get]
func (h *ProjectHandler) GetProject(c *fiber.Ctx) error {
	project, hit, err := h.projectSvc.GetProject(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}

	setCacheHeader(c, hit)
	return shared.ResponseOK(c, project)
}
