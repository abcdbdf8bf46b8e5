package transaction

import (
	"strconv"

	"go-paygate/internal/features/workflow"
	"go-paygate/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type TransactionController struct {
	Service TransactionService
}

func NewTransactionController(service TransactionService) *TransactionController {
	return &TransactionController{Service: service}
}

// ListTransactions godoc
// @Summary      List transactions
// @Tags         transactions
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        limit query int false "Items per page" default(20)
// @Param        merchant_id query string false "Filter by merchant"
// @Param        status query string false "Filter by status"
// @Success      200  {object} map[string]interface{}
// @Router       /api/transactions [get]
func (ctrl *TransactionController) ListTransactions(c *fiber.Ctx) error {
	page, _ := strconv.ParseInt(c.Query("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.Query("limit", "20"), 10, 64)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	filter := map[string]interface{}{}
	if merchantID := c.Query("merchant_id"); merchantID != "" {
		filter["merchant_id"] = merchantID
	}
	if status := c.Query("status"); status != "" {
		filter["status"] = status
	}

	txs, total, err := ctrl.Service.ListTransactions(c.Context(), filter, page, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list transactions"})
	}
	return c.JSON(fiber.Map{"data": txs, "total": total, "page": page, "limit": limit})
}

// GetTransaction godoc
// @Summary      Get a transaction
// @Tags         transactions
// @Produce      json
// @Param        id path string true "Transaction ID"
// @Success      200  {object} Transaction
// @Router       /api/transactions/{id} [get]
func (ctrl *TransactionController) GetTransaction(c *fiber.Ctx) error {
	t, err := ctrl.Service.GetTransaction(c.Context(), c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "transaction not found"})
	}
	return c.JSON(t)
}

// ListRefunds godoc
// @Summary      List refunds executed against a transaction
// @Tags         transactions
// @Produce      json
// @Param        id path string true "Transaction ID"
// @Success      200  {array} Refund
// @Router       /api/transactions/{id}/refunds [get]
func (ctrl *TransactionController) ListRefunds(c *fiber.Ctx) error {
	refunds, err := ctrl.Service.ListRefunds(c.Context(), c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list refunds"})
	}
	return c.JSON(refunds)
}

type refundBody struct {
	AmountMinor int64  `json:"amount_minor"`
	Currency    string `json:"currency,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// Refund godoc
// @Summary      Propose a refund
// @Description  Routed through the approval workflow; rule selection
// @Description  is banded on the refund amount.
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Param        id path string true "Transaction ID"
// @Param        body body refundBody true "Refund"
// @Success      200  {object} workflow.Result
// @Failure      403  {object} map[string]string
// @Failure      422  {object} map[string]string
// @Router       /api/transactions/{id}/refund [post]
func (ctrl *TransactionController) Refund(c *fiber.Ctx) error {
	var body refundBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	req := &RefundRequest{
		TransactionID: c.Params("id"),
		Amount:        body.AmountMinor,
		Currency:      body.Currency,
		Reason:        body.Reason,
	}

	actor := workflow.ActorFromClaims(middleware.ClaimsFromCtx(c))
	result, err := ctrl.Service.Refund(c.Context(), actor, req)
	if err != nil {
		return workflow.HTTPError(c, err)
	}
	return c.JSON(result)
}
