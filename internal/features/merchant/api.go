package merchant

import (
	"go-paygate/internal/config"
	"go-paygate/internal/features/workflow"
	"go-paygate/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type MerchantApi struct {
	controller *MerchantController
	config     *config.Config
}

func NewMerchantApi(controller *MerchantController, config *config.Config) *MerchantApi {
	return &MerchantApi{
		controller: controller,
		config:     config,
	}
}

func (h *MerchantApi) Setup(app *fiber.App) {
	merchants := app.Group("/api/merchants", middleware.AuthMiddleware(h.config.SkipAuth))

	merchants.Get("/", middleware.RequirePermission("merchants:read"), h.controller.ListMerchants)
	merchants.Get("/:id", middleware.RequirePermission("merchants:read"), h.controller.GetMerchant)
	merchants.Post("/", middleware.RequirePermission("merchants:create"), h.controller.CreateMerchant)

	// Maker, checker and custodian all enter through the same route;
	// the engine decides what the caller is allowed to do.
	merchants.Put("/:id/profile", middleware.RequireAnyPermission(
		ProfileMakerPermission, ProfileCheckerPermission, workflow.BypassPermission,
	), h.controller.UpdateProfile)
}
