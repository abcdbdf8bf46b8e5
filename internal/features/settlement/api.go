package settlement

import (
	"go-paygate/internal/config"
	"go-paygate/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type SettlementApi struct {
	controller *SettlementController
	config     *config.Config
}

func NewSettlementApi(controller *SettlementController, config *config.Config) *SettlementApi {
	return &SettlementApi{
		controller: controller,
		config:     config,
	}
}

func (h *SettlementApi) Setup(app *fiber.App) {
	group := app.Group("/api/settlements", middleware.AuthMiddleware(h.config.SkipAuth))

	group.Get("/", middleware.RequirePermission("settlements:read"), h.controller.ListBatches)
	group.Get("/export", middleware.RequirePermission("settlements:export"), h.controller.Export)
	group.Get("/:id", middleware.RequirePermission("settlements:read"), h.controller.GetBatch)
	group.Post("/", middleware.RequirePermission("settlements:create"), h.controller.CreateBatch)
	group.Post("/:id/paid", middleware.RequirePermission("settlements:update"), h.controller.MarkPaid)
}
