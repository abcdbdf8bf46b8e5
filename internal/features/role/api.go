package role

import (
	"go-paygate/internal/config"
	"go-paygate/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type RoleApi struct {
	controller *RoleController
	config     *config.Config
}

func NewRoleApi(controller *RoleController, config *config.Config) *RoleApi {
	return &RoleApi{
		controller: controller,
		config:     config,
	}
}

func (h *RoleApi) Setup(app *fiber.App) {
	roles := app.Group("/api/roles", middleware.AuthMiddleware(h.config.SkipAuth))

	roles.Get("/", middleware.RequirePermission("roles:read"), h.controller.ListRoles)
	roles.Get("/:id", middleware.RequirePermission("roles:read"), h.controller.GetRole)
	roles.Post("/", middleware.RequirePermission("roles:create"), h.controller.CreateRole)
	roles.Put("/:id", middleware.RequirePermission("roles:update"), h.controller.UpdateRole)
	roles.Delete("/:id", middleware.RequirePermission("roles:delete"), h.controller.DeleteRole)
}
