package middleware

import (
	"github.com/gofiber/fiber/v2"
)

// RequirePermission rejects the request unless the authenticated claims
// carry the named permission. Wildcard "*" grants everything.
func RequirePermission(permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := ClaimsFromCtx(c)
		if claims == nil {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Access denied: No identity in request",
			})
		}

		if claims.HasPermission("*") || claims.HasPermission(permission) {
			return c.Next()
		}

		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Access denied: Insufficient permissions for this action",
		})
	}
}

// RequireAnyPermission passes when the claims carry at least one of the
// listed permissions. Used for endpoints shared by makers and checkers.
func RequireAnyPermission(permissions ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := ClaimsFromCtx(c)
		if claims == nil {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Access denied: No identity in request",
			})
		}

		if claims.HasPermission("*") {
			return c.Next()
		}
		for _, p := range permissions {
			if claims.HasPermission(p) {
				return c.Next()
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Access denied: Insufficient permissions for this action",
		})
	}
}
