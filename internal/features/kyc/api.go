package kyc

import (
	"go-paygate/internal/config"
	"go-paygate/internal/features/workflow"
	"go-paygate/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type KYCApi struct {
	controller *KYCController
	config     *config.Config
}

func NewKYCApi(controller *KYCController, config *config.Config) *KYCApi {
	return &KYCApi{
		controller: controller,
		config:     config,
	}
}

func (h *KYCApi) Setup(app *fiber.App) {
	group := app.Group("/api/kyc", middleware.AuthMiddleware(h.config.SkipAuth))

	group.Get("/", middleware.RequirePermission("kyc:read"), h.controller.ListCases)
	group.Get("/:merchantId", middleware.RequirePermission("kyc:read"), h.controller.GetCase)
	group.Post("/", middleware.RequirePermission("kyc:create"), h.controller.OpenCase)
	group.Post("/:merchantId/documents", middleware.RequirePermission("kyc:update"), h.controller.AddDocument)

	group.Put("/:merchantId/status", middleware.RequireAnyPermission(
		StatusMakerPermission, StatusCheckerPermission, workflow.BypassPermission,
	), h.controller.ChangeStatus)
}
