package dispute

import (
	"go-paygate/internal/config"
	"go-paygate/internal/features/workflow"
	"go-paygate/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type DisputeApi struct {
	controller *DisputeController
	config     *config.Config
}

func NewDisputeApi(controller *DisputeController, config *config.Config) *DisputeApi {
	return &DisputeApi{
		controller: controller,
		config:     config,
	}
}

func (h *DisputeApi) Setup(app *fiber.App) {
	disputes := app.Group("/api/disputes", middleware.AuthMiddleware(h.config.SkipAuth))

	disputes.Get("/", middleware.RequirePermission("disputes:read"), h.controller.ListDisputes)
	disputes.Get("/:id", middleware.RequirePermission("disputes:read"), h.controller.GetDispute)
	disputes.Post("/", middleware.RequirePermission("disputes:create"), h.controller.OpenDispute)
	disputes.Post("/:id/evidence", middleware.RequirePermission("disputes:update"), h.controller.AttachEvidence)

	disputes.Post("/:id/resolve", middleware.RequireAnyPermission(
		ResolveMakerPermission, ResolveCheckerPermission, workflow.BypassPermission,
	), h.controller.Resolve)
}
