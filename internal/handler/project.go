package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/adstudio/api/internal/middleware"
	"github.com/adstudio/api/internal/model"
	"github.com/adstudio/api/internal/service"
	"github.com/adstudio/api/pkg/response"
)

type ProjectHandler struct {
	projects *service.ProjectService
	log      *logrus.Logger
}

func NewProjectHandler(projects *service.ProjectService, log *logrus.Logger) *ProjectHandler {
	return &ProjectHandler{
		projects: projects,
		log:      log,
	}
}

// Create handles POST /api/projects
// @Summary      Create project
// @Tags         Projects
// @Accept       json
// @Produce      json
// @Param        request body model.ProjectCreateRequest true "Project"
// @Success      201 {object} model.ProjectResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      422 {object} response.ErrorResponse
// @Failure      503 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/projects [post]
func (h *ProjectHandler) Create(c *fiber.Ctx) error {
	var req model.ProjectCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	project, err := h.projects.Create(c.UserContext(), middleware.GetUserID(c), &req)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return response.Created(c, model.ProjectResponse{Success: true, Project: project})
}

// List handles GET /api/projects
// @Summary      List projects
// @Tags         Projects
// @Produce      json
// @Success      200 {object} model.ProjectListResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      503 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/projects [get]
func (h *ProjectHandler) List(c *fiber.Ctx) error {
	projects, err := h.projects.List(c.UserContext(), middleware.GetUserID(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return response.OK(c, model.ProjectListResponse{Success: true, Projects: projects})
}

// Get handles GET /api/projects/:id
// @Summary      Get project
// @Tags         Projects
// @Produce      json
// @Param        id path string true "Project ID"
// @Success      200 {object} model.ProjectResponse
// @Failure      404 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/projects/{id} [get]
func (h *ProjectHandler) Get(c *fiber.Ctx) error {
	project, err := h.projects.Get(c.UserContext(), middleware.GetUserID(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return response.OK(c, model.ProjectResponse{Success: true, Project: project})
}

// Update handles PUT /api/projects/:id
// @Summary      Update project
// @Tags         Projects
// @Accept       json
// @Produce      json
// @Param        id path string true "Project ID"
// @Param        request body model.ProjectUpdateRequest true "Fields to change"
// @Success      200 {object} model.ProjectResponse
// @Failure      404 {object} response.ErrorResponse
// @Failure      422 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/projects/{id} [put]
func (h *ProjectHandler) Update(c *fiber.Ctx) error {
	var req model.ProjectUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	project, err := h.projects.Update(c.UserContext(), middleware.GetUserID(c), c.Params("id"), &req)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return response.OK(c, model.ProjectResponse{Success: true, Project: project})
}

// Delete handles DELETE /api/projects/:id
// @Summary      Delete project
// @Tags         Projects
// @Param        id path string true "Project ID"
// @Success      204
// @Failure      404 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/projects/{id} [delete]
func (h *ProjectHandler) Delete(c *fiber.Ctx) error {
	if err := h.projects.Delete(c.UserContext(), middleware.GetUserID(c), c.Params("id")); err != nil {
		return writeError(c, h.log, err)
	}
	return response.NoContent(c)
}

// Subscription handles GET /api/subscription
// @Summary      Get subscription
// @Description  Current plan and monthly video usage of the caller
// @Tags         Projects
// @Produce      json
// @Success      200 {object} model.SubscriptionResponse
// @Failure      404 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/subscription [get]
func (h *ProjectHandler) Subscription(c *fiber.Ctx) error {
	sub, err := h.projects.Subscription(c.UserContext(), middleware.GetUserID(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return response.OK(c, model.SubscriptionResponse{Success: true, Subscription: sub})
}

// Usage handles GET /api/usage
// @Summary      Get API usage
// @Description  Provider units and estimated spend of the caller since the start of the month
// @Tags         Projects
// @Produce      json
// @Success      200 {object} model.UsageResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      503 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/usage [get]
func (h *ProjectHandler) Usage(c *fiber.Ctx) error {
	usage, err := h.projects.Usage(c.UserContext(), middleware.GetUserID(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return response.OK(c, model.UsageResponse{Success: true, Usage: usage})
}
