package middleware

import (
	"go-paygate/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware validates JWT tokens and injects user claims into context
func AuthMiddleware(skipAuth bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if skipAuth {
			// Inject dummy context for dev
			dummyClaims := &utils.UserClaims{
				Username:    "dev-admin",
				Role:        "ADMIN",
				Permissions: []string{"*"},
			}
			c.Locals(string(utils.UserClaimsKey), dummyClaims)
			return c.Next()
		}

		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authorization header required",
			})
		}

		// Extract token from "Bearer <token>"
		if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid authorization header format",
			})
		}

		token := authHeader[7:]
		claims, err := utils.ValidateToken(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}

		c.Locals(string(utils.UserClaimsKey), claims)
		return c.Next()
	}
}

// ClaimsFromCtx returns the authenticated claims stored by AuthMiddleware
func ClaimsFromCtx(c *fiber.Ctx) *utils.UserClaims {
	if claims, ok := c.Locals(string(utils.UserClaimsKey)).(*utils.UserClaims); ok {
		return claims
	}
	return nil
}
