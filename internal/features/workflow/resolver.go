package workflow

import (
	"context"
	"fmt"
)

// Resolver selects the applicable rule set and band for a request.
type Resolver struct {
	store RuleStore
}

func NewResolver(store RuleStore) *Resolver {
	return &Resolver{store: store}
}

// ResolveConfig picks the rule set for (activity, module). A scoped
// (non-global) set always wins over the global default; with neither
// present the operation needs no workflow and (nil, nil) is returned.
func (r *Resolver) ResolveConfig(ctx context.Context, activity, module string) (*RuleConfig, error) {
	configs, err := r.store.Find(ctx, activity, module)
	if err != nil {
		return nil, err
	}
	if len(configs) == 0 {
		return nil, nil
	}

	for i := range configs {
		if !configs[i].Global {
			return &configs[i], nil
		}
	}
	return &configs[0], nil
}

// SelectRule picks the applicable rule inside a set. With threshold
// banding the payload amount is matched against the inclusive bands in
// list order; the first match wins. Without banding the single
// configured rule applies.
func (r *Resolver) SelectRule(cfg *RuleConfig, payload any) (*Rule, error) {
	if len(cfg.Rules) == 0 {
		return nil, &Error{
			Code:    CodeConfigurationRequired,
			Message: fmt.Sprintf("rule set for %s/%s has no rules", cfg.Activity, cfg.Module),
		}
	}

	if !cfg.SupportsThresholdBanding {
		return &cfg.Rules[0], nil
	}

	banded, ok := payload.(Banded)
	if !ok {
		return nil, &Error{
			Code:    CodeConfigurationRequired,
			Message: fmt.Sprintf("threshold banding is enabled for %s/%s but the payload carries no amount", cfg.Activity, cfg.Module),
		}
	}

	amount := banded.AmountMinor()
	for i := range cfg.Rules {
		rule := &cfg.Rules[i]
		if amount >= rule.LowerBoundMinor && amount <= rule.UpperBoundMinor {
			return rule, nil
		}
	}

	return nil, &Error{
		Code:    CodeConfigurationRequired,
		Message: fmt.Sprintf("no approval band matches amount %d for %s/%s", amount, cfg.Activity, cfg.Module),
	}
}
