package middleware

import (
	"github.com/gofiber/fiber/v2"
)

// Role names, ordered from most to least privileged. ADMIN passes every
// role check; the rest only pass checks that name them explicitly.
const (
	RolAdmin       = "ADMIN"
	RolGerencia    = "GERENCIA"
	RolPresupuesto = "PRESUPUESTO"
	RolLogistica   = "LOGISTICA"
	RolConsulta    = "CONSULTA"
)

// GetUserID extracts the authenticated user id set by JWTMiddleware.
func GetUserID(c *fiber.Ctx) (int, error) {
	userID, ok := c.Locals("user_id").(int)
	if !ok {
		return 0, fiber.NewError(fiber.StatusUnauthorized, "user ID not found in context")
	}
	return userID, nil
}

// GetUserRole returns the role claim set by JWTMiddleware, or "" if absent.
func GetUserRole(c *fiber.Ctx) string {
	rol, _ := c.Locals("rol").(string)
	return rol
}

// RequireRole creates a Fiber middleware allowing only the listed roles.
// ADMIN is implicitly allowed everywhere. Must run after JWTMiddleware.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		if _, err := GetUserID(c); err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}

		rol := GetUserRole(c)
		if rol == RolAdmin {
			return c.Next()
		}
		if _, ok := allowed[rol]; !ok {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
		}
		return c.Next()
	}
}
