package workflow

import (
	"errors"

	"go-paygate/internal/middleware"
	"go-paygate/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

type Controller struct {
	Service *Service
}

func NewController(service *Service) *Controller {
	return &Controller{Service: service}
}

// ActorFromClaims converts authenticated JWT claims into the explicit
// actor the engine requires.
func ActorFromClaims(claims *utils.UserClaims) Actor {
	if claims == nil {
		return Actor{}
	}
	return Actor{
		Username:    claims.Username,
		Role:        claims.Role,
		Email:       claims.Email,
		Name:        claims.Name,
		Permissions: claims.Permissions,
		System:      claims.System,
	}
}

// HTTPError maps engine error codes onto HTTP statuses. Unknown errors
// fall through as 500.
func HTTPError(c *fiber.Ctx, err error) error {
	var wfErr *Error
	if errors.As(err, &wfErr) {
		status := fiber.StatusInternalServerError
		switch wfErr.Code {
		case CodeUnauthorized:
			status = fiber.StatusForbidden
		case CodeConfigurationRequired:
			status = fiber.StatusUnprocessableEntity
		case CodeAlreadyTreated, "STALE_REQUEST":
			status = fiber.StatusConflict
		case CodeNotFound:
			status = fiber.StatusNotFound
		}
		return c.Status(status).JSON(fiber.Map{"code": wfErr.Code, "error": wfErr.Message})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}

// SaveRuleConfig godoc
// @Summary Create or update an approval rule set
// @Description Rule changes are dual-controlled under EDIT/APPROVAL_RULE
// @Tags workflow
// @Accept json
// @Produce json
// @Param config body RuleConfig true "Rule configuration"
// @Success 200 {object} Result
// @Failure 403 {object} map[string]string "Unauthorized"
// @Router /api/workflow/rules [post]
func (ctl *Controller) SaveRuleConfig(c *fiber.Ctx) error {
	var cfg RuleConfig
	if err := c.BodyParser(&cfg); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	actor := ActorFromClaims(middleware.ClaimsFromCtx(c))
	result, err := ctl.Service.SaveRuleConfig(c.UserContext(), actor, &cfg)
	if err != nil {
		return HTTPError(c, err)
	}
	return c.JSON(result)
}

// ListRuleConfigs godoc
// @Summary List approval rule sets
// @Tags workflow
// @Produce json
// @Success 200 {array} RuleConfig
// @Router /api/workflow/rules [get]
func (ctl *Controller) ListRuleConfigs(c *fiber.Ctx) error {
	configs, err := ctl.Service.ListRuleConfigs(c.UserContext())
	if err != nil {
		return HTTPError(c, err)
	}
	return c.JSON(configs)
}

// GetRuleConfig godoc
// @Summary Get one approval rule set
// @Tags workflow
// @Produce json
// @Param id path string true "Rule config ID"
// @Success 200 {object} RuleConfig
// @Router /api/workflow/rules/{id} [get]
func (ctl *Controller) GetRuleConfig(c *fiber.Ctx) error {
	cfg, err := ctl.Service.GetRuleConfig(c.UserContext(), c.Params("id"))
	if err != nil {
		return HTTPError(c, err)
	}
	if cfg == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Rule config not found"})
	}
	return c.JSON(cfg)
}

// DeleteRuleConfig godoc
// @Summary Delete an approval rule set
// @Tags workflow
// @Param id path string true "Rule config ID"
// @Success 204 {object} nil "No Content"
// @Router /api/workflow/rules/{id} [delete]
func (ctl *Controller) DeleteRuleConfig(c *fiber.Ctx) error {
	if err := ctl.Service.DeleteRuleConfig(c.UserContext(), c.Params("id")); err != nil {
		return HTTPError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type decisionBody struct {
	Approve bool   `json:"approve"`
	Comment string `json:"comment,omitempty"`
}

// Decide godoc
// @Summary Approve or decline a pending request
// @Tags workflow
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param decision body decisionBody true "Decision"
// @Success 200 {object} Result
// @Failure 409 {object} map[string]string "Already treated"
// @Router /api/workflow/requests/{id}/decide [post]
func (ctl *Controller) Decide(c *fiber.Ctx) error {
	var body decisionBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	actor := ActorFromClaims(middleware.ClaimsFromCtx(c))
	result, err := ctl.Service.Decide(c.UserContext(), actor, Decision{
		RequestID: c.Params("id"),
		Approve:   body.Approve,
		Comment:   body.Comment,
	})
	if err != nil {
		return HTTPError(c, err)
	}
	return c.JSON(result)
}

// ListRequests godoc
// @Summary List approval requests
// @Tags workflow
// @Produce json
// @Param status query string false "Filter by status"
// @Param module query string false "Filter by module"
// @Success 200 {array} Request
// @Router /api/workflow/requests [get]
func (ctl *Controller) ListRequests(c *fiber.Ctx) error {
	filter := RequestFilter{
		Status:    Status(c.Query("status")),
		Module:    c.Query("module"),
		Requester: c.Query("requester"),
		Limit:     int64(c.QueryInt("limit", 100)),
	}
	requests, err := ctl.Service.ListRequests(c.UserContext(), filter)
	if err != nil {
		return HTTPError(c, err)
	}
	return c.JSON(requests)
}

// GetRequest godoc
// @Summary Get one approval request
// @Tags workflow
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} Request
// @Router /api/workflow/requests/{id} [get]
func (ctl *Controller) GetRequest(c *fiber.Ctx) error {
	req, err := ctl.Service.GetRequest(c.UserContext(), c.Params("id"))
	if err != nil {
		return HTTPError(c, err)
	}
	return c.JSON(req)
}
