package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/adstudio/api/internal/auth"
)

// AuthHandler handles ForwardAuth verification for the API gateway
type AuthHandler struct {
	verifier auth.TokenVerifier
}

func NewAuthHandler(verifier auth.TokenVerifier) *AuthHandler {
	return &AuthHandler{verifier: verifier}
}

// Verify handles GET /auth/verify, called by the gateway's ForwardAuth.
// Returns 200 with X-User-* headers on success, 401 otherwise.
func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	if h.verifier == nil {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	token, err := auth.BearerToken(c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	claims, err := h.verifier.Validate(token)
	if err != nil {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	c.Set("X-User-Id", claims.UserID)
	c.Set("X-User-Email", claims.Email)
	c.Set("X-User-Name", claims.DisplayName())
	return c.SendStatus(fiber.StatusOK)
}
