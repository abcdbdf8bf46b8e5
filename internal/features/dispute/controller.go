package dispute

import (
	"strconv"

	"go-paygate/internal/features/workflow"
	"go-paygate/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type DisputeController struct {
	Service DisputeService
}

func NewDisputeController(service DisputeService) *DisputeController {
	return &DisputeController{Service: service}
}

// ListDisputes godoc
// @Summary      List disputes
// @Tags         disputes
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        limit query int false "Items per page" default(20)
// @Param        merchant_id query string false "Filter by merchant"
// @Param        status query string false "Filter by status"
// @Success      200  {object} map[string]interface{}
// @Router       /api/disputes [get]
func (ctrl *DisputeController) ListDisputes(c *fiber.Ctx) error {
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

	disputes, total, err := ctrl.Service.ListDisputes(c.Context(), filter, page, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list disputes"})
	}
	return c.JSON(fiber.Map{"data": disputes, "total": total, "page": page, "limit": limit})
}

// GetDispute godoc
// @Summary      Get a dispute
// @Tags         disputes
// @Produce      json
// @Param        id path string true "Dispute ID"
// @Success      200  {object} Dispute
// @Router       /api/disputes/{id} [get]
func (ctrl *DisputeController) GetDispute(c *fiber.Ctx) error {
	d, err := ctrl.Service.GetDispute(c.Context(), c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "dispute not found"})
	}
	return c.JSON(d)
}

// OpenDispute godoc
// @Summary      Register an incoming dispute
// @Tags         disputes
// @Accept       json
// @Produce      json
// @Param        body body Dispute true "Dispute"
// @Success      201  {object} Dispute
// @Router       /api/disputes [post]
func (ctrl *DisputeController) OpenDispute(c *fiber.Ctx) error {
	var d Dispute
	if err := c.BodyParser(&d); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	actor := workflow.ActorFromClaims(middleware.ClaimsFromCtx(c))
	if err := ctrl.Service.OpenDispute(c.Context(), actor, &d); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(d)
}

type evidenceBody struct {
	Evidence []string `json:"evidence"`
}

// AttachEvidence godoc
// @Summary      Attach evidence documents to a dispute
// @Tags         disputes
// @Accept       json
// @Produce      json
// @Param        id path string true "Dispute ID"
// @Param        body body evidenceBody true "Evidence references"
// @Success      200  {object} map[string]string
// @Router       /api/disputes/{id}/evidence [post]
func (ctrl *DisputeController) AttachEvidence(c *fiber.Ctx) error {
	var body evidenceBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	actor := workflow.ActorFromClaims(middleware.ClaimsFromCtx(c))
	if err := ctrl.Service.AttachEvidence(c.Context(), actor, c.Params("id"), body.Evidence); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

type resolutionBody struct {
	Outcome     string `json:"outcome"`
	Note        string `json:"note,omitempty"`
	AmountMinor int64  `json:"amount_minor,omitempty"`
}

// Resolve godoc
// @Summary      Propose a dispute resolution
// @Description  Routed through the approval workflow; rule selection
// @Description  is banded on the disputed amount.
// @Tags         disputes
// @Accept       json
// @Produce      json
// @Param        id path string true "Dispute ID"
// @Param        body body resolutionBody true "Resolution"
// @Success      200  {object} workflow.Result
// @Failure      403  {object} map[string]string
// @Failure      422  {object} map[string]string
// @Router       /api/disputes/{id}/resolve [post]
func (ctrl *DisputeController) Resolve(c *fiber.Ctx) error {
	var body resolutionBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	res := &Resolution{
		DisputeID: c.Params("id"),
		Outcome:   body.Outcome,
		Note:      body.Note,
		Amount:    body.AmountMinor,
	}

	actor := workflow.ActorFromClaims(middleware.ClaimsFromCtx(c))
	result, err := ctrl.Service.Resolve(c.Context(), actor, res)
	if err != nil {
		return workflow.HTTPError(c, err)
	}
	return c.JSON(result)
}
