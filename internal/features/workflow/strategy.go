package workflow

import (
	"fmt"
	"sync"
)

// Outcome is the result of evaluating one checker decision against the
// flow state.
type Outcome struct {
	Completed    bool
	Declined     bool
	NextApprover string
}

// FlowStrategy computes the next required approver identity and
// evaluates whether a decision completes the workflow.
type FlowStrategy interface {
	// FirstApprover returns the identity seeded into the initial flow record
	FirstApprover(rule *Rule) (string, error)
	// Evaluate validates the actor against the expected approver and
	// returns the resulting outcome. It never mutates the request.
	Evaluate(rule *Rule, req *Request, actor Actor, d Decision) (Outcome, error)
}

var (
	strategyMu sync.RWMutex
	strategies = map[string]FlowStrategy{}
)

// RegisterStrategy adds a strategy under a rule-config key. The two
// built-in variants are registered at init; the registry only exists
// for rule-config-driven selection.
func RegisterStrategy(name string, s FlowStrategy) {
	strategyMu.Lock()
	defer strategyMu.Unlock()
	strategies[name] = s
}

// StrategyFor resolves the strategy for a rule, falling back to the
// based-type when no explicit flow type is configured.
func StrategyFor(rule *Rule) (FlowStrategy, error) {
	name := rule.ApprovalFlowType
	if name == "" {
		switch rule.ApprovalBasedType {
		case BasedTypeUser:
			name = FlowTypeUserBased
		default:
			name = FlowTypeRoleBased
		}
	}

	strategyMu.RLock()
	defer strategyMu.RUnlock()
	s, ok := strategies[name]
	if !ok {
		return nil, &Error{
			Code:    CodeConfigurationRequired,
			Message: fmt.Sprintf("unknown approval flow type %q", name),
		}
	}
	return s, nil
}

func init() {
	RegisterStrategy(FlowTypeRoleBased, roleBasedStrategy{})
	RegisterStrategy(FlowTypeUserBased, userBasedStrategy{})
}

// roleBasedStrategy expects approvers by role name. Completion occurs
// once the number of distinct qualifying approvals reaches
// MinApprovalsRequired; a username may never approve twice even if its
// role rotates between steps.
type roleBasedStrategy struct{}

func (roleBasedStrategy) FirstApprover(rule *Rule) (string, error) {
	if len(rule.Approvers) == 0 {
		return "", &Error{Code: CodeConfigurationRequired, Message: "rule has no approver roles configured"}
	}
	return rule.Approvers[0], nil
}

func (roleBasedStrategy) Evaluate(rule *Rule, req *Request, actor Actor, d Decision) (Outcome, error) {
	expected := req.ExpectedApprover()
	if expected == "" || actor.Role != expected {
		return Outcome{}, &Error{
			Code:    CodeUnauthorized,
			Message: fmt.Sprintf("decision requires role %q", expected),
		}
	}
	if req.HasApprovalBy(actor.Username) {
		return Outcome{}, &Error{
			Code:    CodeUnauthorized,
			Message: "user has already approved a step of this request",
		}
	}

	if !d.Approve {
		return Outcome{Declined: true}, nil
	}

	approvals := req.ApprovalCount() + 1
	if approvals >= rule.MinApprovalsRequired {
		return Outcome{Completed: true}, nil
	}

	return Outcome{NextApprover: roleAt(rule, req.NextApprovalIndex+1)}, nil
}

// roleAt returns the role expected at a chain position. Chains shorter
// than the required approval count repeat their last role.
func roleAt(rule *Rule, index int) string {
	if index >= len(rule.Approvers) {
		return rule.Approvers[len(rule.Approvers)-1]
	}
	return rule.Approvers[index]
}

// userBasedStrategy expects a specific username per step, in the order
// stored on the rule. An out-of-turn decision is rejected.
type userBasedStrategy struct{}

func (userBasedStrategy) FirstApprover(rule *Rule) (string, error) {
	if len(rule.Approvers) == 0 {
		return "", &Error{Code: CodeConfigurationRequired, Message: "rule has no approver users configured"}
	}
	return rule.Approvers[0], nil
}

func (userBasedStrategy) Evaluate(rule *Rule, req *Request, actor Actor, d Decision) (Outcome, error) {
	expected := req.ExpectedApprover()
	if expected == "" || actor.Username != expected {
		return Outcome{}, &Error{
			Code:    CodeUnauthorized,
			Message: fmt.Sprintf("decision requires user %q", expected),
		}
	}

	if !d.Approve {
		return Outcome{Declined: true}, nil
	}

	next := req.NextApprovalIndex + 1
	if next >= rule.MinApprovalsRequired || next >= len(rule.Approvers) {
		return Outcome{Completed: true}, nil
	}

	return Outcome{NextApprover: rule.Approvers[next]}, nil
}
