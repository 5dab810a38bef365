package handler

import (
	"context"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/adstudio/api/internal/middleware"
	"github.com/adstudio/api/internal/model"
	"github.com/adstudio/api/internal/service"
	ws "github.com/adstudio/api/internal/websocket"
	"github.com/adstudio/api/pkg/response"
)

const snapshotTimeout = 2 * time.Second

type VideoJobHandler struct {
	validator *service.BriefValidator
	jobs      *service.VideoJobService
	projects  *service.ProjectService
	hub       *ws.Hub
	log       *logrus.Logger
}

func NewVideoJobHandler(v *service.BriefValidator, jobs *service.VideoJobService, projects *service.ProjectService, hub *ws.Hub, log *logrus.Logger) *VideoJobHandler {
	return &VideoJobHandler{
		validator: v,
		jobs:      jobs,
		projects:  projects,
		hub:       hub,
		log:       log,
	}
}

// Start handles POST /api/video/jobs
// @Summary      Start video job
// @Description  Queue a storyboard for background rendering; progress is streamed on /ws/jobs/{jobId}
// @Tags         Video
// @Accept       json
// @Produce      json
// @Param        request body model.VideoRequest true "Scenes and brief"
// @Success      202 {object} model.VideoJobStartResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      403 {object} response.ErrorResponse
// @Failure      422 {object} response.ErrorResponse
// @Failure      429 {object} response.ErrorResponse
// @Failure      503 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/video/jobs [post]
func (h *VideoJobHandler) Start(c *fiber.Ctx) error {
	if h.jobs == nil {
		return response.ConfigurationError(c, "Background jobs are not available")
	}

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

	result, err := h.jobs.Start(ctx, userID, &model.VideoJobPayload{
		ProjectID: req.ProjectID,
		Brief:     *brief,
		Scenes:    scenes,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return response.Accepted(c, result)
}

// Status handles GET /api/video/jobs/:jobId
// @Summary      Get video job status
// @Tags         Video
// @Produce      json
// @Param        jobId path string true "Job ID"
// @Success      200 {object} model.VideoJobStatusResponse
// @Failure      404 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/video/jobs/{jobId} [get]
func (h *VideoJobHandler) Status(c *fiber.Ctx) error {
	if h.jobs == nil {
		return response.ConfigurationError(c, "Background jobs are not available")
	}
	result, err := h.jobs.GetStatus(c.UserContext(), c.Params("jobId"), middleware.GetUserID(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return response.OK(c, result)
}

// Result handles GET /api/video/jobs/:jobId/result
// @Summary      Get video job result
// @Tags         Video
// @Produce      json
// @Param        jobId path string true "Job ID"
// @Success      200 {object} model.VideoResponse
// @Failure      404 {object} response.ErrorResponse
// @Failure      409 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/video/jobs/{jobId}/result [get]
func (h *VideoJobHandler) Result(c *fiber.Ctx) error {
	if h.jobs == nil {
		return response.ConfigurationError(c, "Background jobs are not available")
	}
	result, err := h.jobs.GetResult(c.UserContext(), c.Params("jobId"), middleware.GetUserID(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return response.OK(c, result)
}

// Cancel handles POST /api/video/jobs/:jobId/cancel
// @Summary      Cancel video job
// @Tags         Video
// @Produce      json
// @Param        jobId path string true "Job ID"
// @Success      200 {object} model.VideoJobCancelResponse
// @Failure      404 {object} response.ErrorResponse
// @Failure      409 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/video/jobs/{jobId}/cancel [post]
func (h *VideoJobHandler) Cancel(c *fiber.Ctx) error {
	if h.jobs == nil {
		return response.ConfigurationError(c, "Background jobs are not available")
	}
	result, err := h.jobs.Cancel(c.UserContext(), c.Params("jobId"), middleware.GetUserID(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return response.OK(c, result)
}

// Upgrade rejects non-websocket requests to /ws
func (h *VideoJobHandler) Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Subscribe handles GET /ws/jobs/:jobId. The current job status is sent
// first, then live progress.
func (h *VideoJobHandler) Subscribe() fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		jobID := c.Params("jobId")

		var snapshot interface{}
		if h.jobs != nil {
			ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
			job, err := h.jobs.Job(ctx, jobID)
			cancel()
			if err == nil {
				snapshot = model.WSProgressMessage{
					Type:        model.WSMessageTypeProgress,
					JobID:       job.ID,
					Progress:    job.Progress,
					Status:      job.Status,
					Provider:    job.Provider,
					CurrentStep: job.CurrentStep,
				}
			}
		}
		h.hub.HandleConnection(c, jobID, snapshot)
	})
}
