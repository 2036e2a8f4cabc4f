package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lumina-school/lumina-api/internal/utils"
)

// RequireRole admits only requests whose token carried one of the given
// roles. It must run after JWTProtected, which stores the normalized role
// claim; a missing or unknown role is rejected.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		role, _ := c.Locals("user_role").(string)
		if _, ok := allowed[role]; !ok {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient role")
		}
		return c.Next()
	}
}
