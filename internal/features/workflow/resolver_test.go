package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestResolveConfigScopedBeatsGlobal(t *testing.T) {
	global := RuleConfig{ID: primitive.NewObjectID(), Activity: "REFUND", Module: "TRANSACTION", Global: true}
	scoped := RuleConfig{ID: primitive.NewObjectID(), Activity: "REFUND", Module: "TRANSACTION", Global: false}

	r := NewResolver(&memRuleStore{configs: []RuleConfig{global, scoped}})
	cfg, err := r.ResolveConfig(context.Background(), "REFUND", "TRANSACTION")
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, scoped.ID, cfg.ID)
}

func TestResolveConfigGlobalFallback(t *testing.T) {
	global := RuleConfig{ID: primitive.NewObjectID(), Activity: "REFUND", Module: "TRANSACTION", Global: true}

	r := NewResolver(&memRuleStore{configs: []RuleConfig{global}})
	cfg, err := r.ResolveConfig(context.Background(), "REFUND", "TRANSACTION")
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, global.ID, cfg.ID)
}

func TestResolveConfigNoneMeansNoWorkflow(t *testing.T) {
	r := NewResolver(&memRuleStore{})
	cfg, err := r.ResolveConfig(context.Background(), "REFUND", "TRANSACTION")
	require.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestSelectRuleWithoutBanding(t *testing.T) {
	r := NewResolver(&memRuleStore{})
	cfg := &RuleConfig{
		Activity: "EDIT",
		Module:   "MERCHANT_PROFILE",
		Rules: []Rule{
			{MinApprovalsRequired: 1, Approvers: []string{"ops-checker"}},
			{MinApprovalsRequired: 2, Approvers: []string{"ops-supervisor"}},
		},
	}

	rule, err := r.SelectRule(cfg, struct{}{})
	require.NoError(t, err)
	assert.Same(t, &cfg.Rules[0], rule, "without banding the first rule applies")
}

func TestSelectRuleEmptyRuleSet(t *testing.T) {
	r := NewResolver(&memRuleStore{})
	_, err := r.SelectRule(&RuleConfig{Activity: "EDIT", Module: "MERCHANT_PROFILE"}, struct{}{})
	require.ErrorIs(t, err, ErrConfigurationRequired)
}

func TestSelectRuleBandedPayloadRequired(t *testing.T) {
	r := NewResolver(&memRuleStore{})
	cfg := &RuleConfig{
		Activity:                 "REFUND",
		Module:                   "TRANSACTION",
		SupportsThresholdBanding: true,
		Rules:                    []Rule{{LowerBoundMinor: 0, UpperBoundMinor: 100}},
	}

	_, err := r.SelectRule(cfg, struct{}{})
	require.ErrorIs(t, err, ErrConfigurationRequired)
}

func TestSelectRuleBands(t *testing.T) {
	r := NewResolver(&memRuleStore{})
	cfg := &RuleConfig{
		Activity:                 "REFUND",
		Module:                   "TRANSACTION",
		SupportsThresholdBanding: true,
		Rules: []Rule{
			{LowerBoundMinor: 0, UpperBoundMinor: 10_000, MinApprovalsRequired: 1},
			{LowerBoundMinor: 10_001, UpperBoundMinor: 1_000_000, MinApprovalsRequired: 2},
		},
	}

	tests := []struct {
		name    string
		amount  int64
		want    int // index into cfg.Rules
		wantErr bool
	}{
		{"lower edge of the first band", 0, 0, false},
		{"inside the first band", 5_000, 0, false},
		{"upper edge is inclusive", 10_000, 0, false},
		{"first minor unit of the second band", 10_001, 1, false},
		{"upper edge of the second band", 1_000_000, 1, false},
		{"above every band", 1_000_001, 0, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rule, err := r.SelectRule(cfg, refundPayload{Amount: tc.amount})
			if tc.wantErr {
				require.ErrorIs(t, err, ErrConfigurationRequired)
				return
			}
			require.NoError(t, err)
			assert.Same(t, &cfg.Rules[tc.want], rule)
		})
	}
}

func TestSelectRuleBandEdgesNonZeroLowerBound(t *testing.T) {
	r := NewResolver(&memRuleStore{})
	cfg := &RuleConfig{
		Activity:                 "REFUND",
		Module:                   "TRANSACTION",
		SupportsThresholdBanding: true,
		Rules:                    []Rule{{LowerBoundMinor: 100, UpperBoundMinor: 500, MinApprovalsRequired: 1}},
	}

	for _, amount := range []int64{100, 250, 500} {
		rule, err := r.SelectRule(cfg, refundPayload{Amount: amount})
		require.NoError(t, err, "amount %d", amount)
		assert.Same(t, &cfg.Rules[0], rule)
	}
	for _, amount := range []int64{99, 501} {
		_, err := r.SelectRule(cfg, refundPayload{Amount: amount})
		require.ErrorIs(t, err, ErrConfigurationRequired, "amount %d", amount)
	}
}

func TestSelectRuleOverlappingBandsFirstMatchWins(t *testing.T) {
	r := NewResolver(&memRuleStore{})
	cfg := &RuleConfig{
		Activity:                 "REFUND",
		Module:                   "TRANSACTION",
		SupportsThresholdBanding: true,
		Rules: []Rule{
			{LowerBoundMinor: 0, UpperBoundMinor: 50_000, MinApprovalsRequired: 1},
			{LowerBoundMinor: 10_000, UpperBoundMinor: 100_000, MinApprovalsRequired: 2},
		},
	}

	rule, err := r.SelectRule(cfg, refundPayload{Amount: 20_000})
	require.NoError(t, err)
	assert.Same(t, &cfg.Rules[0], rule)
}
