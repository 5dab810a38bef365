package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/adstudio/api/internal/model"
	"github.com/adstudio/api/internal/service"
	"github.com/adstudio/api/pkg/response"
)

type ScriptHandler struct {
	scripts *service.ScriptService
	log     *logrus.Logger
}

func NewScriptHandler(scripts *service.ScriptService, log *logrus.Logger) *ScriptHandler {
	return &ScriptHandler{
		scripts: scripts,
		log:     log,
	}
}

// Generate handles POST /api/generate-script
// @Summary      Generate ad script
// @Description  Validate a creative brief and synthesize the script and six-scene storyboard
// @Tags         Script
// @Accept       json
// @Produce      json
// @Param        request body model.BriefInput true "Creative brief"
// @Success      200 {object} model.ScriptResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      422 {object} response.ErrorResponse
// @Failure      429 {object} response.ErrorResponse
// @Router       /api/generate-script [post]
func (h *ScriptHandler) Generate(c *fiber.Ctx) error {
	var req model.BriefInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	result, err := h.scripts.Generate(&req)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return response.OK(c, result)
}

// Archetypes handles GET /api/archetypes
// @Summary      List story archetypes
// @Tags         Script
// @Produce      json
// @Success      200 {object} model.ArchetypesResponse
// @Router       /api/archetypes [get]
func (h *ScriptHandler) Archetypes(c *fiber.Ctx) error {
	return response.OK(c, model.ArchetypesResponse{Archetypes: model.ArchetypeCatalog})
}

// Styles handles GET /api/styles
// @Summary      List visual styles
// @Tags         Script
// @Produce      json
// @Success      200 {object} model.StylesResponse
// @Router       /api/styles [get]
func (h *ScriptHandler) Styles(c *fiber.Ctx) error {
	return response.OK(c, model.StylesResponse{Styles: model.StyleCatalog})
}
