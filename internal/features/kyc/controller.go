package kyc

import (
	"strconv"

	"go-paygate/internal/features/workflow"
	"go-paygate/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type KYCController struct {
	Service KYCService
}

func NewKYCController(service KYCService) *KYCController {
	return &KYCController{Service: service}
}

// ListCases godoc
// @Summary      List KYC cases
// @Tags         kyc
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        limit query int false "Items per page" default(20)
// @Param        status query string false "Filter by status"
// @Success      200  {object} map[string]interface{}
// @Router       /api/kyc [get]
func (ctrl *KYCController) ListCases(c *fiber.Ctx) error {
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

	cases, total, err := ctrl.Service.ListCases(c.Context(), filter, page, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list kyc cases"})
	}
	return c.JSON(fiber.Map{"data": cases, "total": total, "page": page, "limit": limit})
}

// GetCase godoc
// @Summary      Get a merchant's KYC case
// @Tags         kyc
// @Produce      json
// @Param        merchantId path string true "Merchant ID"
// @Success      200  {object} Case
// @Router       /api/kyc/{merchantId} [get]
func (ctrl *KYCController) GetCase(c *fiber.Ctx) error {
	kycCase, err := ctrl.Service.GetCase(c.Context(), c.Params("merchantId"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "kyc case not found"})
	}
	return c.JSON(kycCase)
}

// OpenCase godoc
// @Summary      Open a KYC case for a merchant
// @Tags         kyc
// @Accept       json
// @Produce      json
// @Param        body body Case true "Case"
// @Success      201  {object} Case
// @Router       /api/kyc [post]
func (ctrl *KYCController) OpenCase(c *fiber.Ctx) error {
	var kycCase Case
	if err := c.BodyParser(&kycCase); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	actor := workflow.ActorFromClaims(middleware.ClaimsFromCtx(c))
	if err := ctrl.Service.OpenCase(c.Context(), actor, &kycCase); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(kycCase)
}

// AddDocument godoc
// @Summary      Attach a document to a KYC case
// @Tags         kyc
// @Accept       json
// @Produce      json
// @Param        merchantId path string true "Merchant ID"
// @Param        body body Document true "Document"
// @Success      200  {object} map[string]string
// @Router       /api/kyc/{merchantId}/documents [post]
func (ctrl *KYCController) AddDocument(c *fiber.Ctx) error {
	var doc Document
	if err := c.BodyParser(&doc); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	actor := workflow.ActorFromClaims(middleware.ClaimsFromCtx(c))
	if err := ctrl.Service.AddDocument(c.Context(), actor, c.Params("merchantId"), doc); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

type statusChangeBody struct {
	NewStatus string `json:"new_status"`
	Note      string `json:"note,omitempty"`
}

// ChangeStatus godoc
// @Summary      Propose a KYC verdict
// @Description  Routed through the approval workflow.
// @Tags         kyc
// @Accept       json
// @Produce      json
// @Param        merchantId path string true "Merchant ID"
// @Param        body body statusChangeBody true "Verdict"
// @Success      200  {object} workflow.Result
// @Failure      403  {object} map[string]string
// @Failure      422  {object} map[string]string
// @Router       /api/kyc/{merchantId}/status [put]
func (ctrl *KYCController) ChangeStatus(c *fiber.Ctx) error {
	var body statusChangeBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	change := &StatusChange{
		MerchantID: c.Params("merchantId"),
		NewStatus:  body.NewStatus,
		Note:       body.Note,
	}

	actor := workflow.ActorFromClaims(middleware.ClaimsFromCtx(c))
	result, err := ctrl.Service.ChangeStatus(c.Context(), actor, change)
	if err != nil {
		return workflow.HTTPError(c, err)
	}
	return c.JSON(result)
}
