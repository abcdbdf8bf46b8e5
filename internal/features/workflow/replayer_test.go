package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-paygate/internal/config"
)

func processingRequest(t *testing.T, env *testEnv, proposed string) *Request {
	t.Helper()
	req := &Request{
		Status:            StatusProcessing,
		RequiresWorkflow:  true,
		ProposedData:      []byte(proposed),
		RequesterUsername: "alice",
		RequestType:       testOperation,
		Activity:          testActivity,
		Module:            testModule,
		Flows: []Flow{{
			ID:           "flow-1",
			NextApproval: checkerRole,
			Status:       FlowStatusApproved,
		}},
	}
	require.NoError(t, env.requests.Create(context.Background(), req))
	return req
}

func TestExecuteApprovedSuccess(t *testing.T) {
	env := newTestEnv(t, singleApproverConfig(), false)
	req := processingRequest(t, env, `{"transaction_id":"tx-1","amount_minor":2500}`)

	out, err := env.engine.executeApproved(context.Background(), checker("bob", checkerRole), refundMarker(false), req, "")
	require.NoError(t, err)
	assert.Equal(t, "refund-ok", out)
	assert.Equal(t, 1, env.op.count())

	stored := env.requests.mustGet(t, req.ID)
	assert.Equal(t, StatusExecuted, stored.Status)
	assert.True(t, stored.Approved)
	assert.Equal(t, "bob", stored.ApprovalUsername)
	require.NotNil(t, stored.ApprovedDate)

	assert.Equal(t, []string{"EXECUTE"}, env.audit.actions())
	assert.Equal(t, []string{"alice"}, env.notify.recipients())
}

func TestExecuteApprovedReconstructionFailureStaysProcessing(t *testing.T) {
	env := newTestEnv(t, singleApproverConfig(), false)
	req := processingRequest(t, env, `{"transaction_id":`)

	_, err := env.engine.executeApproved(context.Background(), checker("bob", checkerRole), refundMarker(false), req, "")
	require.ErrorIs(t, err, ErrReconstructionFailure)
	assert.Zero(t, env.op.count(), "operation must not run when the payload cannot be rebuilt")

	stored := env.requests.mustGet(t, req.ID)
	assert.Equal(t, StatusProcessing, stored.Status)
	assert.False(t, stored.Approved)
	assert.Nil(t, stored.ApprovedDate)
	assert.Empty(t, env.audit.actions())
}

func TestExecuteApprovedOperationFailureStaysProcessing(t *testing.T) {
	env := newTestEnv(t, singleApproverConfig(), false)
	env.op.err = errors.New("acquirer unreachable")
	req := processingRequest(t, env, `{"transaction_id":"tx-1","amount_minor":2500}`)

	_, err := env.engine.executeApproved(context.Background(), checker("bob", checkerRole), refundMarker(false), req, "")
	require.ErrorIs(t, err, ErrOperationFailure)
	assert.Equal(t, 1, env.op.count())

	stored := env.requests.mustGet(t, req.ID)
	assert.Equal(t, StatusProcessing, stored.Status)
	assert.False(t, stored.Approved)
	assert.Nil(t, stored.ApprovedDate)
	assert.Empty(t, env.audit.actions())
}

func TestExecuteApprovedUnregisteredPayload(t *testing.T) {
	env := newTestEnv(t, singleApproverConfig(), false)
	req := processingRequest(t, env, `{"transaction_id":"tx-1","amount_minor":2500}`)

	m := refundMarker(false)
	m.PayloadType = "unregistered"

	_, err := env.engine.executeApproved(context.Background(), checker("bob", checkerRole), m, req, "")
	require.ErrorIs(t, err, ErrReconstructionFailure)
	assert.Equal(t, StatusProcessing, env.requests.mustGet(t, req.ID).Status)
}

type recordingHooks struct {
	mu     sync.Mutex
	script string
	count  int
}

func (h *recordingHooks) Run(_ context.Context, _, _, script string, _ map[string]any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.script = script
	h.count++
}

func TestExecuteApprovedRunsHookScript(t *testing.T) {
	env := newTestEnv(t, singleApproverConfig(), false)
	hooks := &recordingHooks{}
	env.engine.hooks = hooks
	req := processingRequest(t, env, `{"transaction_id":"tx-1","amount_minor":2500}`)

	_, err := env.engine.executeApproved(context.Background(), checker("bob", checkerRole), refundMarker(false), req,
		`notify := "treasury"`)
	require.NoError(t, err)

	hooks.mu.Lock()
	defer hooks.mu.Unlock()
	assert.Equal(t, 1, hooks.count)
	assert.Equal(t, `notify := "treasury"`, hooks.script)
}

func TestReplayPoolRunsJobs(t *testing.T) {
	pool := NewReplayPool(2, zap.NewNop())
	pool.Start()

	var mu sync.Mutex
	ran := 0
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		pool.Submit(func(ctx context.Context) {
			defer wg.Done()
			require.NotNil(t, ctx.Done())
			mu.Lock()
			ran++
			mu.Unlock()
		})
	}
	wg.Wait()
	pool.Stop()

	assert.Equal(t, 10, ran)
}

func TestReplayPoolRecoversFromPanic(t *testing.T) {
	pool := NewReplayPool(1, zap.NewNop())
	pool.Start()

	pool.Submit(func(context.Context) { panic("boom") })

	done := make(chan struct{})
	pool.Submit(func(context.Context) { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not survive a panicking job")
	}
	pool.Stop()
}

func TestReplayPoolDropsJobsAfterStop(t *testing.T) {
	pool := NewReplayPool(1, zap.NewNop())
	pool.Start()
	pool.Stop()

	ran := make(chan struct{}, 1)
	pool.Submit(func(context.Context) { ran <- struct{}{} })

	select {
	case <-ran:
		t.Fatal("job must not run after the pool stopped")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestReconcilerSweepSurfacesStuckRequests(t *testing.T) {
	requests := newMemRequestStore()
	notify := &recordingNotify{}

	stuck := &Request{
		Status:            StatusProcessing,
		RequesterUsername: "alice",
		RequestType:       testOperation,
	}
	require.NoError(t, requests.Create(context.Background(), stuck))
	fresh := &Request{
		Status:            StatusPending,
		RequesterUsername: "carol",
		RequestType:       testOperation,
	}
	require.NoError(t, requests.Create(context.Background(), fresh))

	requests.mu.Lock()
	requests.byID[stuck.ID].UpdatedAt = time.Now().Add(-time.Hour)
	requests.mu.Unlock()

	cfg := &config.Config{ReconcileSchedule: "*/5 * * * *", StaleAfterMinutes: 30}
	r := NewReconciler(requests, notify, cfg, zap.NewNop())
	r.Sweep()

	require.Len(t, notify.notes, 1)
	assert.Equal(t, "alice", notify.notes[0].Recipient)
	assert.Contains(t, notify.notes[0].Message, stuck.ID.Hex())
}
