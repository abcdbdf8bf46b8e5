package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingRequest(flows ...Flow) *Request {
	return &Request{
		Status:           StatusPending,
		RequiresWorkflow: true,
		Flows:            flows,
	}
}

func TestStrategyForFallsBackToBasedType(t *testing.T) {
	tests := []struct {
		name string
		rule Rule
		want FlowStrategy
	}{
		{"explicit role based", Rule{ApprovalFlowType: FlowTypeRoleBased}, roleBasedStrategy{}},
		{"explicit user based", Rule{ApprovalFlowType: FlowTypeUserBased}, userBasedStrategy{}},
		{"user based type, no flow type", Rule{ApprovalBasedType: BasedTypeUser}, userBasedStrategy{}},
		{"role based type, no flow type", Rule{ApprovalBasedType: BasedTypeRole}, roleBasedStrategy{}},
		{"nothing configured defaults to role", Rule{}, roleBasedStrategy{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, err := StrategyFor(&tc.rule)
			require.NoError(t, err)
			assert.Equal(t, tc.want, s)
		})
	}
}

func TestStrategyForUnknownFlowType(t *testing.T) {
	_, err := StrategyFor(&Rule{ApprovalFlowType: "QUORUM"})
	require.ErrorIs(t, err, ErrConfigurationRequired)
}

func TestRoleBasedFirstApprover(t *testing.T) {
	s := roleBasedStrategy{}

	first, err := s.FirstApprover(&Rule{Approvers: []string{"ops-checker", "ops-supervisor"}})
	require.NoError(t, err)
	assert.Equal(t, "ops-checker", first)

	_, err = s.FirstApprover(&Rule{})
	require.ErrorIs(t, err, ErrConfigurationRequired)
}

func TestRoleBasedEvaluate(t *testing.T) {
	rule := &Rule{
		MinApprovalsRequired: 2,
		ApprovalBasedType:    BasedTypeRole,
		Approvers:            []string{"ops-checker", "ops-supervisor"},
	}

	t.Run("wrong role is rejected", func(t *testing.T) {
		req := pendingRequest(Flow{Status: FlowStatusPending, NextApproval: "ops-checker"})
		actor := Actor{Username: "bob", Role: "ops-supervisor"}

		_, err := roleBasedStrategy{}.Evaluate(rule, req, actor, Decision{Approve: true})
		require.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("decline wins immediately", func(t *testing.T) {
		req := pendingRequest(Flow{Status: FlowStatusPending, NextApproval: "ops-checker"})
		actor := Actor{Username: "bob", Role: "ops-checker"}

		out, err := roleBasedStrategy{}.Evaluate(rule, req, actor, Decision{Approve: false})
		require.NoError(t, err)
		assert.True(t, out.Declined)
		assert.False(t, out.Completed)
	})

	t.Run("intermediate approval names the next role", func(t *testing.T) {
		req := pendingRequest(Flow{Status: FlowStatusPending, NextApproval: "ops-checker"})
		actor := Actor{Username: "bob", Role: "ops-checker"}

		out, err := roleBasedStrategy{}.Evaluate(rule, req, actor, Decision{Approve: true})
		require.NoError(t, err)
		assert.False(t, out.Completed)
		assert.Equal(t, "ops-supervisor", out.NextApprover)
	})

	t.Run("final approval completes", func(t *testing.T) {
		req := pendingRequest(
			Flow{Status: FlowStatusApproved, ApproverUsername: "bob", NextApproval: "ops-checker"},
			Flow{Status: FlowStatusPending, NextApproval: "ops-supervisor"},
		)
		req.NextApprovalIndex = 1
		actor := Actor{Username: "dave", Role: "ops-supervisor"}

		out, err := roleBasedStrategy{}.Evaluate(rule, req, actor, Decision{Approve: true})
		require.NoError(t, err)
		assert.True(t, out.Completed)
	})

	t.Run("prior approver is rejected regardless of role", func(t *testing.T) {
		req := pendingRequest(
			Flow{Status: FlowStatusApproved, ApproverUsername: "bob", NextApproval: "ops-checker"},
			Flow{Status: FlowStatusPending, NextApproval: "ops-supervisor"},
		)
		req.NextApprovalIndex = 1
		actor := Actor{Username: "bob", Role: "ops-supervisor"}

		_, err := roleBasedStrategy{}.Evaluate(rule, req, actor, Decision{Approve: true})
		require.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("no pending step is rejected", func(t *testing.T) {
		req := pendingRequest(Flow{Status: FlowStatusApproved, ApproverUsername: "bob"})
		actor := Actor{Username: "dave", Role: "ops-checker"}

		_, err := roleBasedStrategy{}.Evaluate(rule, req, actor, Decision{Approve: true})
		require.ErrorIs(t, err, ErrUnauthorized)
	})
}

func TestRoleAtRepeatsLastRole(t *testing.T) {
	rule := &Rule{Approvers: []string{"ops-checker", "ops-supervisor"}}

	assert.Equal(t, "ops-checker", roleAt(rule, 0))
	assert.Equal(t, "ops-supervisor", roleAt(rule, 1))
	// chains shorter than the approval count keep asking the last role
	assert.Equal(t, "ops-supervisor", roleAt(rule, 2))
	assert.Equal(t, "ops-supervisor", roleAt(rule, 7))
}

func TestUserBasedEvaluate(t *testing.T) {
	rule := &Rule{
		MinApprovalsRequired: 3,
		ApprovalBasedType:    BasedTypeUser,
		Approvers:            []string{"bob", "carol", "dave"},
	}

	t.Run("out of turn user is rejected", func(t *testing.T) {
		req := pendingRequest(Flow{Status: FlowStatusPending, NextApproval: "bob"})

		_, err := userBasedStrategy{}.Evaluate(rule, req, Actor{Username: "carol"}, Decision{Approve: true})
		require.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("decline wins immediately", func(t *testing.T) {
		req := pendingRequest(Flow{Status: FlowStatusPending, NextApproval: "bob"})

		out, err := userBasedStrategy{}.Evaluate(rule, req, Actor{Username: "bob"}, Decision{Approve: false})
		require.NoError(t, err)
		assert.True(t, out.Declined)
	})

	t.Run("chain advances in stored order", func(t *testing.T) {
		req := pendingRequest(Flow{Status: FlowStatusPending, NextApproval: "bob"})

		out, err := userBasedStrategy{}.Evaluate(rule, req, Actor{Username: "bob"}, Decision{Approve: true})
		require.NoError(t, err)
		assert.False(t, out.Completed)
		assert.Equal(t, "carol", out.NextApprover)
	})

	t.Run("completes at the end of the chain", func(t *testing.T) {
		req := pendingRequest(
			Flow{Status: FlowStatusApproved, ApproverUsername: "bob"},
			Flow{Status: FlowStatusApproved, ApproverUsername: "carol"},
			Flow{Status: FlowStatusPending, NextApproval: "dave"},
		)
		req.NextApprovalIndex = 2

		out, err := userBasedStrategy{}.Evaluate(rule, req, Actor{Username: "dave"}, Decision{Approve: true})
		require.NoError(t, err)
		assert.True(t, out.Completed)
	})

	t.Run("completes early when the minimum is lower than the chain", func(t *testing.T) {
		short := &Rule{
			MinApprovalsRequired: 1,
			ApprovalBasedType:    BasedTypeUser,
			Approvers:            []string{"bob", "carol"},
		}
		req := pendingRequest(Flow{Status: FlowStatusPending, NextApproval: "bob"})

		out, err := userBasedStrategy{}.Evaluate(short, req, Actor{Username: "bob"}, Decision{Approve: true})
		require.NoError(t, err)
		assert.True(t, out.Completed)
	})
}
