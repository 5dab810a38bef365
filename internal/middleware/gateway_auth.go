package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/adstudio/api/pkg/response"
)

// GatewayAuthMiddleware reads user identity from X-User-* headers set by
// the gateway's ForwardAuth call to /auth/verify. With required false,
// requests without identity headers pass through anonymously.
func GatewayAuthMiddleware(required bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Get("X-User-Id")
		if userID == "" {
			if required {
				return response.Unauthorized(c, "Missing user identity headers")
			}
			return c.Next()
		}

		c.Locals("userId", userID)
		c.Locals("email", c.Get("X-User-Email"))
		c.Locals("name", c.Get("X-User-Name"))
		return c.Next()
	}
}
