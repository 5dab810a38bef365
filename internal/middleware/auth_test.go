package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adstudio/api/internal/auth"
	"github.com/adstudio/api/internal/logger"
)

const testSecret = "middleware-test-secret"

func whoami(c *fiber.Ctx) error {
	return c.SendString(GetUserID(c) + "|" + GetUserEmail(c) + "|" + GetUserName(c))
}

func call(t *testing.T, app *fiber.App, header map[string]string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func bearer(t *testing.T) map[string]string {
	t.Helper()
	token, err := auth.SignHS256(testSecret, "", "user-1", "a@b.test", time.Hour)
	require.NoError(t, err)
	return map[string]string{"Authorization": "Bearer " + token}
}

func TestAuthenticate(t *testing.T) {
	m := NewAuthMiddleware(auth.NewHMACVerifier(testSecret, ""))
	app := fiber.New()
	app.Get("/", m.Authenticate(), whoami)

	status, _ := call(t, app, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = call(t, app, map[string]string{"Authorization": "Bearer nope"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := call(t, app, bearer(t))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "user-1|a@b.test|", body)
}

func TestOptional(t *testing.T) {
	m := NewAuthMiddleware(auth.NewHMACVerifier(testSecret, ""))
	app := fiber.New()
	app.Get("/", m.Optional(), whoami)

	status, body := call(t, app, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "||", body)

	status, _ = call(t, app, map[string]string{"Authorization": "Token abc"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = call(t, app, map[string]string{"Authorization": "Bearer nope"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = call(t, app, bearer(t))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "user-1|a@b.test|", body)
}

func TestAuthenticate_NoVerifier(t *testing.T) {
	app := fiber.New()
	app.Get("/", NewAuthMiddleware(nil).Authenticate(), whoami)

	status, body := call(t, app, bearer(t))
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Contains(t, body, "Authentication not configured")
}

func TestGatewayAuth(t *testing.T) {
	required := fiber.New()
	required.Get("/", GatewayAuthMiddleware(true), whoami)

	status, _ := call(t, required, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := call(t, required, map[string]string{
		"X-User-Id":    "user-9",
		"X-User-Email": "g@w.test",
		"X-User-Name":  "Gate",
	})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "user-9|g@w.test|Gate", body)

	optional := fiber.New()
	optional.Get("/", GatewayAuthMiddleware(false), whoami)
	status, body = call(t, optional, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "||", body)
}

func TestRateLimiter_NoRedisPassesThrough(t *testing.T) {
	rl := NewRateLimiter(nil, logger.Discard())
	app := fiber.New()
	app.Get("/", rl.ScriptLimit(1), whoami)

	for i := 0; i < 3; i++ {
		status, _ := call(t, app, nil)
		assert.Equal(t, http.StatusOK, status)
	}
}
