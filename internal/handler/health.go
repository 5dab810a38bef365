package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/adstudio/api/internal/model"
)

// ServiceStatus reports which optional components are wired
type ServiceStatus struct {
	Provider   model.ProviderChoice `json:"videoProvider"`
	Narration  bool                 `json:"narration"`
	Storage    string               `json:"storage"`
	Jobs       bool                 `json:"jobs"`
	Database   bool                 `json:"database"`
	Auth       bool                 `json:"auth"`
	RateLimits bool                 `json:"rateLimits"`
}

type HealthHandler struct {
	status ServiceStatus
}

func NewHealthHandler(status ServiceStatus) *HealthHandler {
	return &HealthHandler{status: status}
}

// Root handles GET /
func (h *HealthHandler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message":   "AI Ad Video Generator API",
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
	})
}

// Health handles GET /health
// @Summary      Health check
// @Tags         Health
// @Produce      json
// @Success      200 {object} map[string]interface{}
// @Router       /health [get]
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":   "healthy",
		"services": h.status,
	})
}
