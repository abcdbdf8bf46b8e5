package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestInterceptRejectsUnknownCaller(t *testing.T) {
	env := newTestEnv(t, singleApproverConfig(), false)

	nobody := Actor{Username: "mallory", Role: "viewer", Permissions: []string{"transactions:read"}}
	_, err := env.engine.Intercept(context.Background(), nobody, refundMarker(false), Invocation{
		Payload: refundPayload{TransactionID: "tx-1", Amount: 500},
	})

	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Zero(t, env.requests.count(), "no request may be persisted for a rejected caller")
	assert.Empty(t, env.audit.actions())
}

func TestInterceptCheckerMustSupplyDecision(t *testing.T) {
	env := newTestEnv(t, singleApproverConfig(), false)

	_, err := env.engine.Intercept(context.Background(), checker("bob", checkerRole), refundMarker(false), Invocation{
		Payload: refundPayload{TransactionID: "tx-1", Amount: 500},
	})

	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Zero(t, env.op.count())
}

func TestDualCapabilityActorSubmitsWithoutDecision(t *testing.T) {
	env := newTestEnv(t, singleApproverConfig(), false)

	riley := Actor{Username: "riley", Role: "rule-maker", Permissions: []string{makerPerm, checkerPerm}}
	res, err := env.engine.Intercept(context.Background(), riley, refundMarker(false), Invocation{
		Payload: refundPayload{TransactionID: "tx-1", Amount: 2500},
	})
	require.NoError(t, err)
	require.Equal(t, StatusSubmitted, res.Status)

	req, err := env.engine.GetRequest(context.Background(), res.RequestID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, req.Status)
	assert.Equal(t, "riley", req.RequesterUsername)

	// With a decision attached the same capability set decides instead
	morgan := Actor{Username: "morgan", Role: checkerRole, Permissions: []string{makerPerm, checkerPerm}}
	out, err := env.engine.Intercept(context.Background(), morgan, refundMarker(false), Invocation{
		Decision: &Decision{RequestID: res.RequestID, Approve: true},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusExecuted, out.Status)
	assert.Equal(t, 1, env.op.count())
}

func TestSubmitCreatesPendingRequest(t *testing.T) {
	env := newTestEnv(t, singleApproverConfig(), false)

	res, err := env.engine.Intercept(context.Background(), maker(), refundMarker(false), Invocation{
		Payload: refundPayload{TransactionID: "tx-1", Amount: 2500, Reason: "duplicate charge"},
	})
	require.NoError(t, err)
	require.Equal(t, StatusSubmitted, res.Status)
	require.NotEmpty(t, res.RequestID)

	req, err := env.engine.GetRequest(context.Background(), res.RequestID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, req.Status)
	assert.True(t, req.RequiresWorkflow)
	assert.Equal(t, "alice", req.RequesterUsername)
	assert.Equal(t, testOperation, req.RequestType)
	assert.Equal(t, 0, req.NextApprovalIndex)

	require.Len(t, req.Flows, 1)
	assert.Equal(t, FlowStatusPending, req.Flows[0].Status)
	assert.Equal(t, checkerRole, req.Flows[0].NextApproval)
	assert.True(t, req.Flows[0].RoleBasedApproval)

	assert.Equal(t, []string{"SUBMIT"}, env.audit.actions())
	assert.Equal(t, []string{checkerRole}, env.notify.recipients())
	assert.Zero(t, env.op.count(), "operation must not run before approval")
}

func TestSubmitWithoutRuleSetSkipsWorkflow(t *testing.T) {
	env := newTestEnv(t, nil, false)

	res, err := env.engine.Intercept(context.Background(), maker(), refundMarker(false), Invocation{
		Payload: refundPayload{TransactionID: "tx-1", Amount: 500},
	})
	require.NoError(t, err)
	require.Equal(t, StatusSubmitted, res.Status)

	req, err := env.engine.GetRequest(context.Background(), res.RequestID)
	require.NoError(t, err)
	assert.Equal(t, StatusSubmitted, req.Status)
	assert.False(t, req.RequiresWorkflow)
	assert.Empty(t, req.Flows)
	assert.Empty(t, env.notify.recipients())
}

func TestNoWorkflowDecisionExecutes(t *testing.T) {
	env := newTestEnv(t, nil, false)

	res, err := env.engine.Intercept(context.Background(), maker(), refundMarker(false), Invocation{
		Payload: refundPayload{TransactionID: "tx-1", Amount: 500},
	})
	require.NoError(t, err)

	out, err := env.engine.Decide(context.Background(), checker("bob", checkerRole), Decision{
		RequestID: res.RequestID,
		Approve:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusExecuted, out.Status)
	assert.Equal(t, "refund-ok", out.Output)
	assert.Equal(t, 1, env.op.count())
}

func TestSubmitInitiatorRoleRestriction(t *testing.T) {
	configs := singleApproverConfig()
	configs[0].Rules[0].InitiatorRoles = []string{"treasury"}
	env := newTestEnv(t, configs, false)

	_, err := env.engine.Intercept(context.Background(), maker(), refundMarker(false), Invocation{
		Payload: refundPayload{TransactionID: "tx-1", Amount: 500},
	})

	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Zero(t, env.requests.count())
}

func TestSingleApprovalExecutes(t *testing.T) {
	env := newTestEnv(t, singleApproverConfig(), false)

	res, err := env.engine.Intercept(context.Background(), maker(), refundMarker(false), Invocation{
		Payload: refundPayload{TransactionID: "tx-1", Amount: 2500},
	})
	require.NoError(t, err)

	out, err := env.engine.Intercept(context.Background(), checker("bob", checkerRole), refundMarker(false), Invocation{
		Decision: &Decision{RequestID: res.RequestID, Approve: true, Comment: "verified against the capture"},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusExecuted, out.Status)
	assert.Equal(t, "refund-ok", out.Output)
	assert.Equal(t, 1, env.op.count())

	decoded, ok := env.op.last.(*refundPayload)
	require.True(t, ok, "operation must receive the reconstructed payload")
	assert.Equal(t, "tx-1", decoded.TransactionID)
	assert.EqualValues(t, 2500, decoded.Amount)

	req, err := env.engine.GetRequest(context.Background(), res.RequestID)
	require.NoError(t, err)
	assert.Equal(t, StatusExecuted, req.Status)
	assert.True(t, req.Approved)
	assert.Equal(t, "bob", req.ApprovalUsername)
	require.NotNil(t, req.ApprovedDate)
	require.Len(t, req.Flows, 1)
	assert.Equal(t, FlowStatusApproved, req.Flows[0].Status)
	assert.Equal(t, "bob", req.Flows[0].ApproverUsername)

	assert.Equal(t, []string{"SUBMIT", "EXECUTE"}, env.audit.actions())
	// first note goes to the approver role, the second back to the requester
	assert.Equal(t, []string{checkerRole, "alice"}, env.notify.recipients())
}

func TestDeclineIsTerminal(t *testing.T) {
	env := newTestEnv(t, singleApproverConfig(), false)

	res, err := env.engine.Intercept(context.Background(), maker(), refundMarker(false), Invocation{
		Payload: refundPayload{TransactionID: "tx-1", Amount: 2500},
	})
	require.NoError(t, err)

	out, err := env.engine.Decide(context.Background(), checker("bob", checkerRole), Decision{
		RequestID: res.RequestID,
		Approve:   false,
		Comment:   "amount exceeds the captured total",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusDeclined, out.Status)
	assert.Zero(t, env.op.count(), "a declined operation must never run")

	req, err := env.engine.GetRequest(context.Background(), res.RequestID)
	require.NoError(t, err)
	assert.Equal(t, StatusDeclined, req.Status)
	assert.False(t, req.Approved)
	require.NotNil(t, req.ApprovedDate)

	_, err = env.engine.Decide(context.Background(), checker("carol", checkerRole), Decision{
		RequestID: res.RequestID,
		Approve:   true,
	})
	require.ErrorIs(t, err, ErrAlreadyTreated)
	assert.Zero(t, env.op.count())
}

func TestTwoStepApproval(t *testing.T) {
	env := newTestEnv(t, twoStepConfig(), false)

	res, err := env.engine.Intercept(context.Background(), maker(), refundMarker(false), Invocation{
		Payload: refundPayload{TransactionID: "tx-1", Amount: 50_000},
	})
	require.NoError(t, err)

	out, err := env.engine.Decide(context.Background(), checker("bob", checkerRole), Decision{
		RequestID: res.RequestID,
		Approve:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, out.Status)
	assert.Zero(t, env.op.count(), "operation must not run before the final approval")

	req, err := env.engine.GetRequest(context.Background(), res.RequestID)
	require.NoError(t, err)
	assert.Equal(t, 1, req.NextApprovalIndex)
	require.Len(t, req.Flows, 2)
	assert.Equal(t, FlowStatusApproved, req.Flows[0].Status)
	assert.Equal(t, "bob", req.Flows[0].ApproverUsername)
	assert.Equal(t, FlowStatusPending, req.Flows[1].Status)
	assert.Equal(t, supervisorRole, req.Flows[1].NextApproval)

	out, err = env.engine.Decide(context.Background(), checker("dave", supervisorRole), Decision{
		RequestID: res.RequestID,
		Approve:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusExecuted, out.Status)
	assert.Equal(t, 1, env.op.count())

	assert.Equal(t, []string{"SUBMIT", "APPROVE_STEP", "EXECUTE"}, env.audit.actions())
}

func TestSameUserCannotApproveTwice(t *testing.T) {
	env := newTestEnv(t, twoStepConfig(), false)

	res, err := env.engine.Intercept(context.Background(), maker(), refundMarker(false), Invocation{
		Payload: refundPayload{TransactionID: "tx-1", Amount: 50_000},
	})
	require.NoError(t, err)

	_, err = env.engine.Decide(context.Background(), checker("bob", checkerRole), Decision{
		RequestID: res.RequestID,
		Approve:   true,
	})
	require.NoError(t, err)

	// bob's role rotated, but his earlier approval still disqualifies him
	_, err = env.engine.Decide(context.Background(), checker("bob", supervisorRole), Decision{
		RequestID: res.RequestID,
		Approve:   true,
	})
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Zero(t, env.op.count())
}

func TestBypassExecutesImmediately(t *testing.T) {
	env := newTestEnv(t, singleApproverConfig(), false)

	res, err := env.engine.Intercept(context.Background(), custodian(), refundMarker(false), Invocation{
		Payload: &refundPayload{TransactionID: "tx-9", Amount: 100},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusExecuted, res.Status)
	assert.Equal(t, "refund-ok", res.Output)
	assert.Equal(t, 1, env.op.count())

	assert.Zero(t, env.requests.count(), "bypass must not create an approval request")
	assert.Equal(t, []string{"BYPASS"}, env.audit.actions())
}

func TestSystemActorBypassesWithoutPermissions(t *testing.T) {
	env := newTestEnv(t, singleApproverConfig(), false)

	machine := Actor{Username: "reconciliation-batch", System: true}
	res, err := env.engine.Intercept(context.Background(), machine, refundMarker(false), Invocation{
		Payload: &refundPayload{TransactionID: "tx-9", Amount: 100},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusExecuted, res.Status)
	assert.Equal(t, 1, env.op.count())
	assert.Zero(t, env.requests.count())
	assert.Equal(t, []string{"BYPASS"}, env.audit.actions())
}

func TestBypassOperationFailureIsAudited(t *testing.T) {
	env := newTestEnv(t, singleApproverConfig(), false)
	env.op.err = errors.New("acquirer rejected the refund")

	_, err := env.engine.Intercept(context.Background(), custodian(), refundMarker(false), Invocation{
		Payload: &refundPayload{TransactionID: "tx-9", Amount: 100},
	})
	require.ErrorIs(t, err, ErrOperationFailure)
	assert.Equal(t, []string{"BYPASS"}, env.audit.actions())
}

func TestBandedRuleSelection(t *testing.T) {
	configs := []RuleConfig{{
		ID:                       primitive.NewObjectID(),
		Activity:                 testActivity,
		Module:                   testModule,
		Global:                   true,
		SupportsThresholdBanding: true,
		Rules: []Rule{
			{
				LowerBoundMinor:      0,
				UpperBoundMinor:      10_000,
				MinApprovalsRequired: 1,
				ApprovalBasedType:    BasedTypeRole,
				Approvers:            []string{checkerRole},
			},
			{
				LowerBoundMinor:      10_001,
				UpperBoundMinor:      1_000_000,
				MinApprovalsRequired: 2,
				ApprovalBasedType:    BasedTypeRole,
				Approvers:            []string{checkerRole, supervisorRole},
			},
		},
	}}

	t.Run("upper band edge stays in the single-approval band", func(t *testing.T) {
		env := newTestEnv(t, configs, false)
		res, err := env.engine.Intercept(context.Background(), maker(), refundMarker(false), Invocation{
			Payload: refundPayload{TransactionID: "tx-1", Amount: 10_000},
		})
		require.NoError(t, err)

		out, err := env.engine.Decide(context.Background(), checker("bob", checkerRole), Decision{
			RequestID: res.RequestID,
			Approve:   true,
		})
		require.NoError(t, err)
		assert.Equal(t, StatusExecuted, out.Status)
		assert.Equal(t, 1, env.op.count())
	})

	t.Run("one minor unit above needs a second approval", func(t *testing.T) {
		env := newTestEnv(t, configs, false)
		res, err := env.engine.Intercept(context.Background(), maker(), refundMarker(false), Invocation{
			Payload: refundPayload{TransactionID: "tx-2", Amount: 10_001},
		})
		require.NoError(t, err)

		out, err := env.engine.Decide(context.Background(), checker("bob", checkerRole), Decision{
			RequestID: res.RequestID,
			Approve:   true,
		})
		require.NoError(t, err)
		assert.Equal(t, StatusPending, out.Status)
		assert.Zero(t, env.op.count())
	})
}

func TestSubmitSeedsApproverFromSelectedBand(t *testing.T) {
	configs := []RuleConfig{{
		ID:                       primitive.NewObjectID(),
		Activity:                 testActivity,
		Module:                   testModule,
		Global:                   true,
		SupportsThresholdBanding: true,
		Rules: []Rule{
			{
				LowerBoundMinor:      0,
				UpperBoundMinor:      100,
				MinApprovalsRequired: 1,
				ApprovalBasedType:    BasedTypeRole,
				Approvers:            []string{checkerRole},
			},
			{
				LowerBoundMinor:      101,
				UpperBoundMinor:      1000,
				MinApprovalsRequired: 2,
				ApprovalBasedType:    BasedTypeRole,
				Approvers:            []string{supervisorRole, checkerRole},
			},
		},
	}}
	env := newTestEnv(t, configs, false)

	res, err := env.engine.Intercept(context.Background(), maker(), refundMarker(false), Invocation{
		Payload: refundPayload{TransactionID: "tx-1", Amount: 250},
	})
	require.NoError(t, err)

	req, err := env.engine.GetRequest(context.Background(), res.RequestID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, req.Status)
	require.Len(t, req.Flows, 1)
	assert.Equal(t, supervisorRole, req.Flows[0].NextApproval,
		"the first approver must come from the band matching the amount")
}

func TestOperationFailureLeavesProcessing(t *testing.T) {
	env := newTestEnv(t, singleApproverConfig(), false)
	env.op.err = errors.New("acquirer timeout")

	res, err := env.engine.Intercept(context.Background(), maker(), refundMarker(false), Invocation{
		Payload: refundPayload{TransactionID: "tx-1", Amount: 2500},
	})
	require.NoError(t, err)

	_, err = env.engine.Decide(context.Background(), checker("bob", checkerRole), Decision{
		RequestID: res.RequestID,
		Approve:   true,
	})
	require.ErrorIs(t, err, ErrOperationFailure)

	req, err := env.engine.GetRequest(context.Background(), res.RequestID)
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, req.Status, "a failed replay must stay in PROCESSING for manual intervention")
	assert.False(t, req.Approved)
	assert.Nil(t, req.ApprovedDate)
}

func TestBackgroundApprovalReturnsProcessing(t *testing.T) {
	env := newTestEnv(t, singleApproverConfig(), true)

	res, err := env.engine.Intercept(context.Background(), maker(), refundMarker(true), Invocation{
		Payload: refundPayload{TransactionID: "tx-1", Amount: 2500},
	})
	require.NoError(t, err)

	out, err := env.engine.Decide(context.Background(), checker("bob", checkerRole), Decision{
		RequestID: res.RequestID,
		Approve:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, out.Status)

	require.Eventually(t, func() bool { return env.op.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		req, err := env.engine.GetRequest(context.Background(), res.RequestID)
		return err == nil && req.Status == StatusExecuted
	}, 2*time.Second, 10*time.Millisecond)
}

// staleOnceStore loses the first compare-and-swap, as a concurrent
// checker racing on the same request would cause.
type staleOnceStore struct {
	*memRequestStore
	failed bool
}

func (s *staleOnceStore) ApplyDecision(ctx context.Context, id primitive.ObjectID, observedIndex int, update bson.M) (*Request, error) {
	if !s.failed {
		s.failed = true
		return nil, ErrStaleRequest
	}
	return s.memRequestStore.ApplyDecision(ctx, id, observedIndex, update)
}

func TestDecideRetriesAfterLostRace(t *testing.T) {
	requests := &staleOnceStore{memRequestStore: newMemRequestStore()}
	registry := NewRegistry()
	op := &countingOp{}
	registry.RegisterPayload(testPayload, JSONPayload[refundPayload]())
	registry.RegisterOperation(refundMarker(false), op.run)

	pool := NewReplayPool(1, zap.NewNop())
	pool.Start()
	t.Cleanup(pool.Stop)

	engine := NewEngine(&memRuleStore{configs: singleApproverConfig()}, requests, registry,
		&recordingAudit{}, &recordingNotify{}, nil, pool, zap.NewNop())

	res, err := engine.Intercept(context.Background(), maker(), refundMarker(false), Invocation{
		Payload: refundPayload{TransactionID: "tx-1", Amount: 2500},
	})
	require.NoError(t, err)

	out, err := engine.Decide(context.Background(), checker("bob", checkerRole), Decision{
		RequestID: res.RequestID,
		Approve:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusExecuted, out.Status)
	assert.Equal(t, 1, op.count())
	assert.True(t, requests.failed)
}

func TestDecideUnknownRequest(t *testing.T) {
	env := newTestEnv(t, singleApproverConfig(), false)

	_, err := env.engine.Decide(context.Background(), checker("bob", checkerRole), Decision{
		RequestID: primitive.NewObjectID().Hex(),
		Approve:   true,
	})
	require.ErrorIs(t, err, ErrRequestNotFound)
}

func TestDecideRequiresCheckerPermission(t *testing.T) {
	env := newTestEnv(t, singleApproverConfig(), false)

	res, err := env.engine.Intercept(context.Background(), maker(), refundMarker(false), Invocation{
		Payload: refundPayload{TransactionID: "tx-1", Amount: 2500},
	})
	require.NoError(t, err)

	reader := Actor{Username: "eve", Role: checkerRole, Permissions: []string{"transactions:read"}}
	_, err = env.engine.Decide(context.Background(), reader, Decision{
		RequestID: res.RequestID,
		Approve:   true,
	})
	require.ErrorIs(t, err, ErrUnauthorized)
}
