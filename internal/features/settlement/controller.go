package settlement

import (
	"strconv"

	"go-paygate/internal/features/workflow"
	"go-paygate/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type SettlementController struct {
	Service SettlementService
}

func NewSettlementController(service SettlementService) *SettlementController {
	return &SettlementController{Service: service}
}

func queryFilter(c *fiber.Ctx) map[string]interface{} {
	filter := map[string]interface{}{}
	if merchantID := c.Query("merchant_id"); merchantID != "" {
		filter["merchant_id"] = merchantID
	}
	if status := c.Query("status"); status != "" {
		filter["status"] = status
	}
	if currency := c.Query("currency"); currency != "" {
		filter["currency"] = currency
	}
	return filter
}

// ListBatches godoc
// @Summary      List settlement batches
// @Tags         settlements
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        limit query int false "Items per page" default(20)
// @Param        merchant_id query string false "Filter by merchant"
// @Param        status query string false "Filter by status"
// @Success      200  {object} map[string]interface{}
// @Router       /api/settlements [get]
func (ctrl *SettlementController) ListBatches(c *fiber.Ctx) error {
	page, _ := strconv.ParseInt(c.Query("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.Query("limit", "20"), 10, 64)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	batches, total, err := ctrl.Service.ListBatches(c.Context(), queryFilter(c), page, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list settlement batches"})
	}
	return c.JSON(fiber.Map{"data": batches, "total": total, "page": page, "limit": limit})
}

// GetBatch godoc
// @Summary      Get a settlement batch
// @Tags         settlements
// @Produce      json
// @Param        id path string true "Batch ID"
// @Success      200  {object} Batch
// @Router       /api/settlements/{id} [get]
func (ctrl *SettlementController) GetBatch(c *fiber.Ctx) error {
	b, err := ctrl.Service.GetBatch(c.Context(), c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "settlement batch not found"})
	}
	return c.JSON(b)
}

// CreateBatch godoc
// @Summary      Register a settlement batch
// @Tags         settlements
// @Accept       json
// @Produce      json
// @Param        body body Batch true "Batch"
// @Success      201  {object} Batch
// @Router       /api/settlements [post]
func (ctrl *SettlementController) CreateBatch(c *fiber.Ctx) error {
	var b Batch
	if err := c.BodyParser(&b); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	actor := workflow.ActorFromClaims(middleware.ClaimsFromCtx(c))
	if err := ctrl.Service.CreateBatch(c.Context(), actor, &b); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(b)
}

// MarkPaid godoc
// @Summary      Mark a batch as paid out
// @Tags         settlements
// @Produce      json
// @Param        id path string true "Batch ID"
// @Success      200  {object} map[string]string
// @Router       /api/settlements/{id}/paid [post]
func (ctrl *SettlementController) MarkPaid(c *fiber.Ctx) error {
	actor := workflow.ActorFromClaims(middleware.ClaimsFromCtx(c))
	if err := ctrl.Service.MarkPaid(c.Context(), actor, c.Params("id")); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"status": "paid"})
}

// Export godoc
// @Summary      Export settlement batches as XLSX
// @Tags         settlements
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        merchant_id query string false "Filter by merchant"
// @Param        status query string false "Filter by status"
// @Success      200 {file} binary
// @Router       /api/settlements/export [get]
func (ctrl *SettlementController) Export(c *fiber.Ctx) error {
	actor := workflow.ActorFromClaims(middleware.ClaimsFromCtx(c))
	data, filename, err := ctrl.Service.ExportToExcel(c.Context(), actor, queryFilter(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "export failed"})
	}

	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	return c.Send(data)
}
