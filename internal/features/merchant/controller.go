package merchant

import (
	"strconv"

	"go-paygate/internal/features/workflow"
	"go-paygate/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type MerchantController struct {
	Service MerchantService
}

func NewMerchantController(service MerchantService) *MerchantController {
	return &MerchantController{Service: service}
}

// ListMerchants godoc
// @Summary      List merchants
// @Tags         merchants
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        limit query int false "Items per page" default(20)
// @Param        status query string false "Filter by status"
// @Param        country query string false "Filter by country"
// @Success      200  {object} map[string]interface{}
// @Router       /api/merchants [get]
func (ctrl *MerchantController) ListMerchants(c *fiber.Ctx) error {
	page, _ := strconv.ParseInt(c.Query("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.Query("limit", "20"), 10, 64)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	filter := map[string]interface{}{}
	if status := c.Query("status"); status != "" {
		filter["status"] = status
	}
	if country := c.Query("country"); country != "" {
		filter["country"] = country
	}

	merchants, total, err := ctrl.Service.ListMerchants(c.Context(), filter, page, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list merchants"})
	}
	return c.JSON(fiber.Map{"data": merchants, "total": total, "page": page, "limit": limit})
}

// GetMerchant godoc
// @Summary      Get a merchant by merchant ID
// @Tags         merchants
// @Produce      json
// @Param        id path string true "Merchant ID"
// @Success      200  {object} Merchant
// @Router       /api/merchants/{id} [get]
func (ctrl *MerchantController) GetMerchant(c *fiber.Ctx) error {
	m, err := ctrl.Service.GetMerchant(c.Context(), c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "merchant not found"})
	}
	return c.JSON(m)
}

// CreateMerchant godoc
// @Summary      Onboard a merchant
// @Tags         merchants
// @Accept       json
// @Produce      json
// @Param        body body Merchant true "Merchant"
// @Success      201  {object} Merchant
// @Router       /api/merchants [post]
func (ctrl *MerchantController) CreateMerchant(c *fiber.Ctx) error {
	var m Merchant
	if err := c.BodyParser(&m); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	actor := workflow.ActorFromClaims(middleware.ClaimsFromCtx(c))
	if err := ctrl.Service.CreateMerchant(c.Context(), actor, &m); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(m)
}

// UpdateProfile godoc
// @Summary      Propose or apply a merchant profile change
// @Description  Routed through the approval workflow. A maker gets a
// @Description  pending request back; a privileged caller gets the
// @Description  applied profile.
// @Tags         merchants
// @Accept       json
// @Produce      json
// @Param        id path string true "Merchant ID"
// @Param        body body ProfileUpdate true "Proposed profile"
// @Success      200  {object} workflow.Result
// @Failure      403  {object} map[string]string
// @Failure      422  {object} map[string]string
// @Router       /api/merchants/{id}/profile [put]
func (ctrl *MerchantController) UpdateProfile(c *fiber.Ctx) error {
	var upd ProfileUpdate
	if err := c.BodyParser(&upd); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	upd.MerchantID = c.Params("id")

	actor := workflow.ActorFromClaims(middleware.ClaimsFromCtx(c))
	result, err := ctrl.Service.UpdateProfile(c.Context(), actor, &upd)
	if err != nil {
		return workflow.HTTPError(c, err)
	}
	return c.JSON(result)
}
