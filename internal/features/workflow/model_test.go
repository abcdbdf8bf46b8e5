package workflow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusTerminal(t *testing.T) {
	assert.True(t, StatusExecuted.Terminal())
	assert.True(t, StatusDeclined.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusSubmitted.Terminal())
	assert.False(t, StatusProcessing.Terminal())
	assert.False(t, StatusNotTreated.Terminal())
}

func TestActorHasPermission(t *testing.T) {
	a := Actor{Permissions: []string{"transactions:read", "transactions:refund:maker"}}
	assert.True(t, a.HasPermission("transactions:read"))
	assert.False(t, a.HasPermission("transactions:refund:checker"))

	admin := Actor{Permissions: []string{"*"}}
	assert.True(t, admin.HasPermission("anything:at:all"))

	assert.False(t, Actor{}.HasPermission("transactions:read"))
}

func TestRequestFlowHelpers(t *testing.T) {
	req := &Request{Flows: []Flow{
		{Status: FlowStatusApproved, ApproverUsername: "bob"},
		{Status: FlowStatusApproved, ApproverUsername: "carol"},
		{Status: FlowStatusPending, NextApproval: "ops-supervisor"},
	}}

	assert.Equal(t, "ops-supervisor", req.ExpectedApprover())
	assert.Equal(t, 2, req.ApprovalCount())
	assert.True(t, req.HasApprovalBy("bob"))
	assert.False(t, req.HasApprovalBy("dave"))

	empty := &Request{}
	assert.Empty(t, empty.ExpectedApprover())
	assert.Zero(t, empty.ApprovalCount())
}

func TestErrorComparesByCode(t *testing.T) {
	err := &Error{Code: CodeUnauthorized, Message: "decision requires role \"ops-checker\""}
	assert.True(t, errors.Is(err, ErrUnauthorized))
	assert.False(t, errors.Is(err, ErrAlreadyTreated))

	wrapped := operationFailure("transaction.refund", errors.New("acquirer timeout"))
	assert.True(t, errors.Is(wrapped, ErrOperationFailure))
	assert.EqualError(t, errors.Unwrap(wrapped), "acquirer timeout")
}
