package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/lumina-school/lumina-api/internal/middleware"
)

func newGuardedApp() *fiber.App {
	app := fiber.New()
	app.Get("/admin", middleware.JWTProtected(testSecret), middleware.RequireRole("admin", "teacher"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func roleRequest(t *testing.T, claims jwt.MapClaims) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, claims))
	return req
}

func TestRequireRoleAdmitsStaff(t *testing.T) {
	app := newGuardedApp()

	for _, role := range []string{"admin", "teacher", "Teacher"} {
		resp, err := app.Test(roleRequest(t, jwt.MapClaims{
			"sub":       float64(7),
			"school_id": float64(1),
			"role":      role,
			"exp":       time.Now().Add(time.Hour).Unix(),
		}))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode, role)
	}
}

func TestRequireRoleRejectsStudents(t *testing.T) {
	app := newGuardedApp()

	resp, err := app.Test(roleRequest(t, jwt.MapClaims{
		"sub":       float64(100),
		"school_id": float64(1),
		"role":      "student",
		"exp":       time.Now().Add(time.Hour).Unix(),
	}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestRequireRoleRejectsMissingRoleClaim(t *testing.T) {
	app := newGuardedApp()

	resp, err := app.Test(roleRequest(t, jwt.MapClaims{
		"sub":       float64(100),
		"school_id": float64(1),
		"exp":       time.Now().Add(time.Hour).Unix(),
	}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
