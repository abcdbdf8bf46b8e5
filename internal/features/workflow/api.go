package workflow

import (
	"go-paygate/internal/config"
	"go-paygate/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type Api struct {
	controller *Controller
	config     *config.Config
}

func NewApi(controller *Controller, cfg *config.Config) *Api {
	return &Api{
		controller: controller,
		config:     cfg,
	}
}

func (h *Api) Setup(app *fiber.App) {
	rules := app.Group("/api/workflow/rules", middleware.AuthMiddleware(h.config.SkipAuth))

	// Writes go through the engine; the maker/checker split is
	// enforced inside, so the route only needs one of the two.
	rules.Post("/", middleware.RequireAnyPermission(RuleMakerPermission, RuleCheckerPermission, BypassPermission), h.controller.SaveRuleConfig)
	rules.Get("/", middleware.RequireAnyPermission(RuleMakerPermission, RuleCheckerPermission), h.controller.ListRuleConfigs)
	rules.Get("/:id", middleware.RequireAnyPermission(RuleMakerPermission, RuleCheckerPermission), h.controller.GetRuleConfig)
	rules.Delete("/:id", middleware.RequirePermission(BypassPermission), h.controller.DeleteRuleConfig)

	requests := app.Group("/api/workflow/requests", middleware.AuthMiddleware(h.config.SkipAuth))

	requests.Get("/", middleware.RequirePermission(RequestReadPermission), h.controller.ListRequests)
	requests.Get("/:id", middleware.RequirePermission(RequestReadPermission), h.controller.GetRequest)
	// The engine verifies the operation's own checker capability, which
	// varies per request type; the route only needs authentication.
	requests.Post("/:id/decide", h.controller.Decide)
}
