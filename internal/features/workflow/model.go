package workflow

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Status of an ApprovalRequest. EXECUTED and DECLINED are terminal.
type Status string

const (
	StatusNotTreated Status = "NOT_TREATED"
	StatusPending    Status = "PENDING"
	StatusSubmitted  Status = "SUBMITTED"
	StatusProcessing Status = "PROCESSING"
	StatusExecuted   Status = "EXECUTED"
	StatusDeclined   Status = "DECLINED"
)

// Terminal reports whether no further decision may act on this status
func (s Status) Terminal() bool {
	return s == StatusExecuted || s == StatusDeclined
}

// BasedType selects how the next approver identity is interpreted
type BasedType string

const (
	BasedTypeRole BasedType = "ROLE"
	BasedTypeUser BasedType = "USER"
)

// Flow strategy registry keys for the built-in variants
const (
	FlowTypeRoleBased = "ROLE_BASED"
	FlowTypeUserBased = "USER_BASED"
)

// Flow step statuses
const (
	FlowStatusPending  = "PENDING"
	FlowStatusApproved = "APPROVED"
	FlowStatusDeclined = "DECLINED"
)

// Rule is a single approval rule inside a rule set. Bands are inclusive
// on both ends, in minor currency units.
type Rule struct {
	LowerBoundMinor      int64     `bson:"lower_bound_minor" json:"lowerBoundMinor"`
	UpperBoundMinor      int64     `bson:"upper_bound_minor" json:"upperBoundMinor"`
	MinApprovalsRequired int       `bson:"min_approvals_required" json:"minApprovalsRequired"`
	ApprovalBasedType    BasedType `bson:"approval_based_type" json:"approvalBasedType"`
	ApprovalFlowType     string    `bson:"approval_flow_type" json:"approvalFlowType"`
	InitiatorRoles       []string  `bson:"initiator_roles" json:"initiatorRoles"`
	// Approvers holds role names (ROLE) or usernames (USER) in chain order
	Approvers []string `bson:"approvers" json:"approvers"`
	// HookScript is an optional automation script run after the request
	// reaches a terminal state
	HookScript string `bson:"hook_script,omitempty" json:"hookScript,omitempty"`
}

// RuleConfig is the versioned rule set for one (activity, module) pair.
// A global config is the tenant-wide default; a non-global (scoped) one
// overrides it.
type RuleConfig struct {
	ID                       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Activity                 string             `bson:"activity" json:"activity"`
	Module                   string             `bson:"module" json:"module"`
	Global                   bool               `bson:"global" json:"global"`
	SupportsThresholdBanding bool               `bson:"supports_threshold_banding" json:"supportsThresholdBanding"`
	Rules                    []Rule             `bson:"rules" json:"rules"`
	Version                  int                `bson:"version" json:"version"`
	CreatedAt                time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt                time.Time          `bson:"updated_at" json:"updated_at"`
}

// Flow is one approval step record, owned exclusively by its Request.
type Flow struct {
	ID                string     `bson:"id" json:"id"`
	ApproverRole      string     `bson:"approver_role,omitempty" json:"approver_role,omitempty"`
	ApproverUsername  string     `bson:"approver_username,omitempty" json:"approver_username,omitempty"`
	RoleBasedApproval bool       `bson:"role_based_approval" json:"role_based_approval"`
	NextApproval      string     `bson:"next_approval" json:"next_approval"`
	Status            string     `bson:"status" json:"status"`
	Comment           string     `bson:"comment,omitempty" json:"comment,omitempty"`
	DecidedAt         *time.Time `bson:"decided_at,omitempty" json:"decided_at,omitempty"`
}

// Request is the durable record of a workflow-guarded operation from
// submission to execution or decline.
type Request struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Status            Status             `bson:"status" json:"status"`
	RequiresWorkflow  bool               `bson:"requires_workflow" json:"requires_workflow"`
	InitialData       []byte             `bson:"initial_data,omitempty" json:"-"`
	ProposedData      []byte             `bson:"proposed_data" json:"-"`
	RequesterUsername string             `bson:"requester_username" json:"requester_username"`
	RequestType       string             `bson:"request_type" json:"request_type"`
	Activity          string             `bson:"activity" json:"activity"`
	Module            string             `bson:"module" json:"module"`
	NextApprovalIndex int                `bson:"next_approval_index" json:"next_approval_index"`
	Approved          bool               `bson:"approved" json:"approved"`
	ApprovalUsername  string             `bson:"approval_username,omitempty" json:"approval_username,omitempty"`
	ApprovedDate      *time.Time         `bson:"approved_date,omitempty" json:"approved_date,omitempty"`
	Permission        string             `bson:"permission" json:"permission"`
	Flows             []Flow             `bson:"flows" json:"flows"`
	CreatedAt         time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time          `bson:"updated_at" json:"updated_at"`
}

// ExpectedApprover returns the identity the pending step is waiting on
func (r *Request) ExpectedApprover() string {
	for i := len(r.Flows) - 1; i >= 0; i-- {
		if r.Flows[i].Status == FlowStatusPending {
			return r.Flows[i].NextApproval
		}
	}
	return ""
}

// ApprovalCount counts completed approvals on this request
func (r *Request) ApprovalCount() int {
	n := 0
	for _, f := range r.Flows {
		if f.Status == FlowStatusApproved {
			n++
		}
	}
	return n
}

// HasApprovalBy reports whether username already approved a step
func (r *Request) HasApprovalBy(username string) bool {
	for _, f := range r.Flows {
		if f.Status == FlowStatusApproved && f.ApproverUsername == username {
			return true
		}
	}
	return false
}

// Decision is the ephemeral checker input. It is consumed once and
// never persisted as its own entity.
type Decision struct {
	RequestID string `json:"request_id"`
	Approve   bool   `json:"approve"`
	Comment   string `json:"comment,omitempty"`
}

// Actor is the explicit caller identity. The engine never reads ambient
// security context; every call receives one of these.
type Actor struct {
	Username    string
	Role        string
	Email       string
	Name        string
	Permissions []string
	System      bool
}

// HasPermission reports whether the actor carries the permission.
// Wildcard "*" grants everything.
func (a Actor) HasPermission(perm string) bool {
	for _, p := range a.Permissions {
		if p == "*" || p == perm {
			return true
		}
	}
	return false
}

// Marker is the declarative contract surrounding every workflow-guarded
// operation.
type Marker struct {
	MakerPermission   string
	CheckerPermission string
	Activity          string
	Module            string
	// PayloadType keys the decode function used to reconstruct the
	// decision-time argument
	PayloadType string
	// OperationName keys the invoker for the underlying operation and
	// identifies the request type
	OperationName   string
	RunInBackground bool
}

// Invocation carries the concrete call the interceptor wraps
type Invocation struct {
	// Payload is the proposed operation argument (maker/bypass path)
	Payload any
	// Initial is an optional snapshot of the pre-change state
	Initial any
	// Decision is set on the checker path instead of a payload
	Decision *Decision
}

// Result is what the caller of an intercepted operation receives
type Result struct {
	Status    Status `json:"status"`
	RequestID string `json:"request_id,omitempty"`
	// Output is the operation's own result on the bypass path and on
	// synchronous execution
	Output any `json:"output,omitempty"`
}

// Banded payloads expose the monetary amount used for threshold banding
type Banded interface {
	AmountMinor() int64
}
