package workflow

import (
	"context"
	"fmt"
)

// Rule configuration changes are themselves dual-controlled: saving a
// rule set goes through the engine under EDIT/APPROVAL_RULE.
const (
	RuleSaveOperation = "workflow.rule.save"

	RuleMakerPermission   = "workflow:rule:maker"
	RuleCheckerPermission = "workflow:rule:checker"
)

var ruleSaveMarker = Marker{
	MakerPermission:   RuleMakerPermission,
	CheckerPermission: RuleCheckerPermission,
	Activity:          "EDIT",
	Module:            "APPROVAL_RULE",
	PayloadType:       RuleSaveOperation,
	OperationName:     RuleSaveOperation,
}

// Service fronts the engine for the workflow feature's own HTTP
// surface: rule-config management and the checker decision endpoint.
type Service struct {
	engine *Engine
	rules  RuleStore
}

func NewService(engine *Engine, rules RuleStore) *Service {
	s := &Service{engine: engine, rules: rules}

	engine.Registry().RegisterPayload(RuleSaveOperation, JSONPayload[RuleConfig]())
	engine.Registry().RegisterOperation(ruleSaveMarker, func(ctx context.Context, payload any) (any, error) {
		cfg, ok := payload.(*RuleConfig)
		if !ok {
			return nil, fmt.Errorf("unexpected payload type %T", payload)
		}
		if err := s.rules.Save(ctx, cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	})

	return s
}

// SaveRuleConfig routes a rule-set change through the interception
// point; depending on the caller it submits, decides or bypasses.
func (s *Service) SaveRuleConfig(ctx context.Context, actor Actor, cfg *RuleConfig) (*Result, error) {
	var initial *RuleConfig
	if !cfg.ID.IsZero() {
		prev, err := s.rules.GetByID(ctx, cfg.ID.Hex())
		if err != nil {
			return nil, err
		}
		initial = prev
	}

	return s.engine.Intercept(ctx, actor, ruleSaveMarker, Invocation{
		Payload: cfg,
		Initial: initial,
	})
}

func (s *Service) GetRuleConfig(ctx context.Context, id string) (*RuleConfig, error) {
	return s.rules.GetByID(ctx, id)
}

func (s *Service) ListRuleConfigs(ctx context.Context) ([]RuleConfig, error) {
	return s.rules.List(ctx)
}

func (s *Service) DeleteRuleConfig(ctx context.Context, id string) error {
	return s.rules.Delete(ctx, id)
}

func (s *Service) Decide(ctx context.Context, actor Actor, d Decision) (*Result, error) {
	return s.engine.Decide(ctx, actor, d)
}

func (s *Service) GetRequest(ctx context.Context, id string) (*Request, error) {
	return s.engine.GetRequest(ctx, id)
}

func (s *Service) ListRequests(ctx context.Context, filter RequestFilter) ([]Request, error) {
	return s.engine.ListRequests(ctx, filter)
}
