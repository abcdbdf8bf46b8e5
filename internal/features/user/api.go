package user

import (
	"go-paygate/internal/config"
	"go-paygate/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type UserApi struct {
	controller *UserController
	config     *config.Config
}

func NewUserApi(controller *UserController, config *config.Config) *UserApi {
	return &UserApi{
		controller: controller,
		config:     config,
	}
}

func (h *UserApi) Setup(app *fiber.App) {
	users := app.Group("/api/users", middleware.AuthMiddleware(h.config.SkipAuth))

	users.Post("/", middleware.RequirePermission("users:create"), h.controller.CreateUser)
	users.Get("/", middleware.RequirePermission("users:read"), h.controller.ListUsers)
	users.Get("/:id", middleware.RequirePermission("users:read"), h.controller.GetUser)
	users.Put("/:id", middleware.RequirePermission("users:update"), h.controller.UpdateUser)
	users.Put("/:id/status", middleware.RequirePermission("users:update"), h.controller.UpdateUserStatus)
	users.Delete("/:id", middleware.RequirePermission("users:delete"), h.controller.DeleteUser)
}
