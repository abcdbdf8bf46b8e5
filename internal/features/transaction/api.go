package transaction

import (
	"go-paygate/internal/config"
	"go-paygate/internal/features/workflow"
	"go-paygate/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type TransactionApi struct {
	controller *TransactionController
	config     *config.Config
}

func NewTransactionApi(controller *TransactionController, config *config.Config) *TransactionApi {
	return &TransactionApi{
		controller: controller,
		config:     config,
	}
}

func (h *TransactionApi) Setup(app *fiber.App) {
	txs := app.Group("/api/transactions", middleware.AuthMiddleware(h.config.SkipAuth))

	txs.Get("/", middleware.RequirePermission("transactions:read"), h.controller.ListTransactions)
	txs.Get("/:id", middleware.RequirePermission("transactions:read"), h.controller.GetTransaction)
	txs.Get("/:id/refunds", middleware.RequirePermission("transactions:read"), h.controller.ListRefunds)

	txs.Post("/:id/refund", middleware.RequireAnyPermission(
		RefundMakerPermission, RefundCheckerPermission, workflow.BypassPermission,
	), h.controller.Refund)
}
