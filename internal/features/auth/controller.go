package auth

import (
	"go-paygate/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AuthController struct {
	AuthService AuthService
	Log         *zap.Logger
}

func NewAuthController(authService AuthService, log *zap.Logger) *AuthController {
	return &AuthController{
		AuthService: authService,
		Log:         log,
	}
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string      `json:"token"`
	User  interface{} `json:"user"`
}

// Login godoc
// @Summary      Authenticate and obtain a JWT
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body body LoginRequest true "Credentials"
// @Success      200  {object} LoginResponse
// @Failure      401  {object} map[string]string
// @Router       /api/auth/login [post]
func (ctrl *AuthController) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	token, u, err := ctrl.AuthService.Login(c.Context(), req.Username, req.Password)
	if err != nil {
		ctrl.Log.Warn("login failed",
			zap.String("username", req.Username),
			zap.String("ip", c.IP()))
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid username or password"})
	}

	return c.JSON(LoginResponse{Token: token, User: u})
}

// Me godoc
// @Summary      Return the authenticated user's claims
// @Tags         auth
// @Produce      json
// @Success      200  {object} map[string]interface{}
// @Router       /api/auth/me [get]
func (ctrl *AuthController) Me(c *fiber.Ctx) error {
	claims := middleware.ClaimsFromCtx(c)
	if claims == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthenticated"})
	}
	return c.JSON(fiber.Map{
		"username":    claims.Username,
		"email":       claims.Email,
		"name":        claims.Name,
		"role":        claims.Role,
		"permissions": claims.Permissions,
	})
}
