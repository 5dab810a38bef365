package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/adstudio/api/internal/middleware"
	"github.com/adstudio/api/internal/model"
	"github.com/adstudio/api/internal/service"
	"github.com/adstudio/api/pkg/response"
)

type VideoHandler struct {
	validator *service.BriefValidator
	videos    *service.VideoService
	projects  *service.ProjectService
	log       *logrus.Logger
}

func NewVideoHandler(v *service.BriefValidator, videos *service.VideoService, projects *service.ProjectService, log *logrus.Logger) *VideoHandler {
	return &VideoHandler{
		validator: v,
		videos:    videos,
		projects:  projects,
		log:       log,
	}
}

// Generate handles POST /api/generate-video
// @Summary      Generate video
// @Description  Render a storyboard with the configured provider within the request timeout
// @Tags         Video
// @Accept       json
// @Produce      json
// @Param        request body model.VideoRequest true "Scenes and brief"
// @Success      200 {object} model.VideoResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      403 {object} response.ErrorResponse
// @Failure      422 {object} response.ErrorResponse
// @Failure      502 {object} response.ErrorResponse
// @Failure      503 {object} response.ErrorResponse
// @Failure      504 {object} response.ErrorResponse
// @Router       /api/generate-video [post]
func (h *VideoHandler) Generate(c *fiber.Ctx) error {
	var req model.VideoRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	brief, scenes, err := h.validator.ValidateVideoRequest(&req)
	if err != nil {
		return writeError(c, h.log, err)
	}

	ctx := c.UserContext()
	userID := middleware.GetUserID(c)
	if err := h.projects.CheckVideoAllowance(ctx, userID); err != nil {
		return writeError(c, h.log, err)
	}

	result, err := h.videos.Generate(ctx, brief, scenes)
	if err != nil {
		return writeError(c, h.log, err)
	}

	h.projects.RecordVideo(ctx, userID)
	h.projects.RecordGeneration(ctx, userID, req.ProjectID, scenes, result)
	h.projects.AttachVideo(ctx, userID, req.ProjectID, result)

	return response.OK(c, model.VideoResponse{Success: true, VideoResult: *result})
}
