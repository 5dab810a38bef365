package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/adstudio/api/internal/auth"
	"github.com/adstudio/api/pkg/response"
)

// AuthMiddleware handles JWT authentication
type AuthMiddleware struct {
	verifier auth.TokenVerifier
}

// NewAuthMiddleware creates auth middleware. A nil verifier rejects every
// token.
func NewAuthMiddleware(verifier auth.TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// Authenticate requires a valid bearer token
func (m *AuthMiddleware) Authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := auth.BearerToken(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return response.Unauthorized(c, "Missing or malformed authorization header")
		}
		return m.verify(c, token)
	}
}

// Optional authenticates when a token is present and lets anonymous
// requests through. A token that is present but invalid is still rejected.
func (m *AuthMiddleware) Optional() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get(fiber.HeaderAuthorization) == "" {
			return c.Next()
		}
		token, err := auth.BearerToken(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return response.Unauthorized(c, "Malformed authorization header")
		}
		return m.verify(c, token)
	}
}

func (m *AuthMiddleware) verify(c *fiber.Ctx, token string) error {
	if m.verifier == nil {
		return response.Unauthorized(c, "Authentication not configured")
	}
	claims, err := m.verifier.Validate(token)
	if err != nil {
		return response.Unauthorized(c, "Invalid or expired token")
	}

	c.Locals("userId", claims.UserID)
	c.Locals("email", claims.Email)
	c.Locals("name", claims.DisplayName())
	c.Locals("claims", claims)
	return c.Next()
}

// GetUserID extracts user ID from context
func GetUserID(c *fiber.Ctx) string {
	if userID, ok := c.Locals("userId").(string); ok {
		return userID
	}
	return ""
}

// GetUserEmail extracts user email from context
func GetUserEmail(c *fiber.Ctx) string {
	if email, ok := c.Locals("email").(string); ok {
		return email
	}
	return ""
}

// GetUserName extracts user name from context
func GetUserName(c *fiber.Ctx) string {
	if name, ok := c.Locals("name").(string); ok {
		return name
	}
	return ""
}
