package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// BypassPermission is the privileged capability that routes a caller
// straight to the custodian bypass, skipping the workflow entirely.
const BypassPermission = "workflow:bypass"

// RequestReadPermission gates the approval-request inbox routes.
const RequestReadPermission = "workflow:requests:read"

// AuditSink receives an audit entry for every workflow transition.
// Fire-and-forget: implementations must never fail the transition.
type AuditSink interface {
	Log(ctx context.Context, actor Actor, action, activity, module string, snapshot any)
}

// NotificationSink delivers best-effort notifications
type NotificationSink interface {
	Notify(ctx context.Context, requestType, recipient, message string)
}

// HookRunner executes a rule's optional automation script after a
// request reaches a terminal state
type HookRunner interface {
	Run(ctx context.Context, activity, module, script string, payload map[string]any)
}

// Engine is the dual-control interception point. It routes a guarded
// call to the custodian bypass, the checker decision path or the maker
// submission path depending on the caller's capabilities.
type Engine struct {
	resolver *Resolver
	requests RequestStore
	registry *Registry
	audit    AuditSink
	notify   NotificationSink
	hooks    HookRunner
	pool     *ReplayPool
	log      *zap.Logger
}

func NewEngine(
	rules RuleStore,
	requests RequestStore,
	registry *Registry,
	audit AuditSink,
	notify NotificationSink,
	hooks HookRunner,
	pool *ReplayPool,
	log *zap.Logger,
) *Engine {
	return &Engine{
		resolver: NewResolver(rules),
		requests: requests,
		registry: registry,
		audit:    audit,
		notify:   notify,
		hooks:    hooks,
		pool:     pool,
		log:      log,
	}
}

// Registry exposes the engine's registry so features can register
// their guarded operations at construction time.
func (e *Engine) Registry() *Registry { return e.registry }

// Intercept wraps one call to a guarded operation. Capability routing:
// bypass capability or system flag wins, then checker, then maker; a
// caller holding neither is rejected before any persistence occurs. An
// actor holding both maker and checker capabilities submits unless the
// call carries a decision.
func (e *Engine) Intercept(ctx context.Context, actor Actor, m Marker, inv Invocation) (*Result, error) {
	switch {
	case actor.System || actor.HasPermission(BypassPermission):
		return e.bypass(ctx, actor, m, inv)
	case actor.HasPermission(m.CheckerPermission):
		if inv.Decision != nil {
			return e.Decide(ctx, actor, *inv.Decision)
		}
		if actor.HasPermission(m.MakerPermission) {
			return e.submit(ctx, actor, m, inv)
		}
		return nil, &Error{Code: CodeUnauthorized, Message: "checker must supply a decision"}
	case actor.HasPermission(m.MakerPermission):
		return e.submit(ctx, actor, m, inv)
	default:
		return nil, ErrUnauthorized
	}
}

// ── Submission path (maker) ───────────────────────────────────────────

func (e *Engine) submit(ctx context.Context, actor Actor, m Marker, inv Invocation) (*Result, error) {
	proposed, err := json.Marshal(inv.Payload)
	if err != nil {
		return nil, fmt.Errorf("serialize proposed payload: %w", err)
	}
	var initial []byte
	if inv.Initial != nil {
		if initial, err = json.Marshal(inv.Initial); err != nil {
			return nil, fmt.Errorf("serialize initial payload: %w", err)
		}
	}

	req := &Request{
		Status:            StatusSubmitted,
		RequiresWorkflow:  false,
		InitialData:       initial,
		ProposedData:      proposed,
		RequesterUsername: actor.Username,
		RequestType:       m.OperationName,
		Activity:          m.Activity,
		Module:            m.Module,
		Permission:        m.CheckerPermission,
	}

	cfg, err := e.resolver.ResolveConfig(ctx, m.Activity, m.Module)
	if err != nil {
		return nil, err
	}

	if cfg == nil {
		// No rule set configured: the operation needs no workflow.
		// The request is persisted for audit purposes only and the
		// checker path short-circuits straight to execution.
		if err := e.requests.Create(ctx, req); err != nil {
			return nil, err
		}
		e.auditLog(ctx, actor, "SUBMIT", m, req)
		return &Result{Status: StatusSubmitted, RequestID: req.ID.Hex()}, nil
	}

	rule, err := e.resolver.SelectRule(cfg, inv.Payload)
	if err != nil {
		return nil, err
	}
	if len(rule.InitiatorRoles) > 0 && !containsString(rule.InitiatorRoles, actor.Role) {
		return nil, &Error{
			Code:    CodeUnauthorized,
			Message: fmt.Sprintf("role %q may not initiate %s/%s", actor.Role, m.Activity, m.Module),
		}
	}

	strategy, err := StrategyFor(rule)
	if err != nil {
		return nil, err
	}
	first, err := strategy.FirstApprover(rule)
	if err != nil {
		return nil, err
	}

	req.Status = StatusPending
	req.RequiresWorkflow = true
	req.NextApprovalIndex = 0
	req.Flows = []Flow{{
		ID:                uuid.NewString(),
		RoleBasedApproval: rule.ApprovalBasedType != BasedTypeUser,
		NextApproval:      first,
		Status:            FlowStatusPending,
	}}

	if err := e.requests.Create(ctx, req); err != nil {
		return nil, err
	}

	e.auditLog(ctx, actor, "SUBMIT", m, req)
	e.notifyBesteffort(ctx, m.OperationName, first,
		fmt.Sprintf("approval requested by %s for %s/%s", actor.Username, m.Activity, m.Module))

	e.log.Info("approval request submitted",
		zap.String("request_id", req.ID.Hex()),
		zap.String("operation", m.OperationName),
		zap.String("actor", actor.Username))

	return &Result{Status: StatusSubmitted, RequestID: req.ID.Hex()}, nil
}

// ── Decision path (checker) ───────────────────────────────────────────

// Decide evaluates a checker decision. The load→evaluate→persist cycle
// runs under a compare-and-swap guard on the request's flow index: a
// lost race reloads the updated flow state and re-evaluates, so two
// checkers racing on the same request can never both succeed.
func (e *Engine) Decide(ctx context.Context, actor Actor, d Decision) (*Result, error) {
	const maxAttempts = 3

	for attempt := 0; attempt < maxAttempts; attempt++ {
		req, err := e.requests.Get(ctx, d.RequestID)
		if err != nil {
			return nil, err
		}

		m, ok := e.registry.MarkerFor(req.RequestType)
		if !ok {
			return nil, &Error{
				Code:    CodeConfigurationRequired,
				Message: fmt.Sprintf("no operation registered for request type %q", req.RequestType),
			}
		}

		if !actor.System && !actor.HasPermission(m.CheckerPermission) {
			return nil, ErrUnauthorized
		}
		if req.ApprovedDate != nil || req.Status.Terminal() {
			return nil, ErrAlreadyTreated
		}

		if !req.RequiresWorkflow {
			// Submitted for audit only: a decision short-circuits to
			// approved (or declined) without flow evaluation.
			res, err := e.concludeNoWorkflow(ctx, actor, m, req, d)
			if err == ErrStaleRequest {
				continue
			}
			return res, err
		}

		res, err := e.evaluateDecision(ctx, actor, m, req, d)
		if err == ErrStaleRequest {
			continue
		}
		return res, err
	}

	return nil, ErrStaleRequest
}

func (e *Engine) evaluateDecision(ctx context.Context, actor Actor, m Marker, req *Request, d Decision) (*Result, error) {
	cfg, err := e.resolver.ResolveConfig(ctx, req.Activity, req.Module)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, &Error{
			Code:    CodeConfigurationRequired,
			Message: fmt.Sprintf("rule set for %s/%s was removed after submission", req.Activity, req.Module),
		}
	}

	payload, err := e.registry.Decode(m.PayloadType, req.ProposedData)
	if err != nil {
		return nil, err
	}
	rule, err := e.resolver.SelectRule(cfg, payload)
	if err != nil {
		return nil, err
	}
	strategy, err := StrategyFor(rule)
	if err != nil {
		return nil, err
	}

	outcome, err := strategy.Evaluate(rule, req, actor, d)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	flows := decideCurrentFlow(req.Flows, actor, d, now)

	switch {
	case outcome.Declined:
		update := bson.M{"$set": bson.M{
			"status":            StatusDeclined,
			"flows":             flows,
			"approved":          false,
			"approval_username": actor.Username,
			"approved_date":     now,
		}}
		updated, err := e.requests.ApplyDecision(ctx, req.ID, req.NextApprovalIndex, update)
		if err != nil {
			return nil, err
		}

		e.auditLog(ctx, actor, "DECLINE", m, updated)
		e.runHook(rule, updated)
		e.notifyBesteffort(ctx, req.RequestType, req.RequesterUsername,
			fmt.Sprintf("request %s was declined by %s", req.ID.Hex(), actor.Username))

		return &Result{Status: StatusDeclined, RequestID: req.ID.Hex()}, nil

	case !outcome.Completed:
		flows = append(flows, Flow{
			ID:                uuid.NewString(),
			RoleBasedApproval: rule.ApprovalBasedType != BasedTypeUser,
			NextApproval:      outcome.NextApprover,
			Status:            FlowStatusPending,
		})
		update := bson.M{"$set": bson.M{
			"status":              StatusPending,
			"flows":               flows,
			"next_approval_index": req.NextApprovalIndex + 1,
		}}
		if _, err := e.requests.ApplyDecision(ctx, req.ID, req.NextApprovalIndex, update); err != nil {
			return nil, err
		}

		e.auditLog(ctx, actor, "APPROVE_STEP", m, req)
		e.notifyBesteffort(ctx, req.RequestType, outcome.NextApprover,
			fmt.Sprintf("request %s awaits your approval", req.ID.Hex()))

		return &Result{Status: StatusPending, RequestID: req.ID.Hex()}, nil

	default:
		// Final approval: move to PROCESSING, then replay the
		// captured operation.
		update := bson.M{"$set": bson.M{
			"status": StatusProcessing,
			"flows":  flows,
		}}
		updated, err := e.requests.ApplyDecision(ctx, req.ID, req.NextApprovalIndex, update)
		if err != nil {
			return nil, err
		}

		if m.RunInBackground {
			e.pool.Submit(func(jobCtx context.Context) {
				if _, err := e.executeApproved(jobCtx, actor, m, updated, rule.HookScript); err != nil {
					e.log.Error("background replay failed",
						zap.String("request_id", updated.ID.Hex()),
						zap.Error(err))
				}
			})
			return &Result{Status: StatusProcessing, RequestID: req.ID.Hex()}, nil
		}

		out, err := e.executeApproved(ctx, actor, m, updated, rule.HookScript)
		if err != nil {
			return nil, err
		}
		return &Result{Status: StatusExecuted, RequestID: req.ID.Hex(), Output: out}, nil
	}
}

func (e *Engine) concludeNoWorkflow(ctx context.Context, actor Actor, m Marker, req *Request, d Decision) (*Result, error) {
	now := time.Now()

	if !d.Approve {
		update := bson.M{"$set": bson.M{
			"status":            StatusDeclined,
			"approved":          false,
			"approval_username": actor.Username,
			"approved_date":     now,
		}}
		if _, err := e.requests.ApplyDecision(ctx, req.ID, req.NextApprovalIndex, update); err != nil {
			return nil, err
		}
		e.auditLog(ctx, actor, "DECLINE", m, req)
		return &Result{Status: StatusDeclined, RequestID: req.ID.Hex()}, nil
	}

	update := bson.M{"$set": bson.M{"status": StatusProcessing}}
	updated, err := e.requests.ApplyDecision(ctx, req.ID, req.NextApprovalIndex, update)
	if err != nil {
		return nil, err
	}

	if m.RunInBackground {
		e.pool.Submit(func(jobCtx context.Context) {
			if _, err := e.executeApproved(jobCtx, actor, m, updated, ""); err != nil {
				e.log.Error("background replay failed",
					zap.String("request_id", updated.ID.Hex()),
					zap.Error(err))
			}
		})
		return &Result{Status: StatusProcessing, RequestID: req.ID.Hex()}, nil
	}

	out, err := e.executeApproved(ctx, actor, m, updated, "")
	if err != nil {
		return nil, err
	}
	return &Result{Status: StatusExecuted, RequestID: req.ID.Hex(), Output: out}, nil
}

// ── Request queries (checker inbox) ───────────────────────────────────

func (e *Engine) GetRequest(ctx context.Context, id string) (*Request, error) {
	return e.requests.Get(ctx, id)
}

func (e *Engine) ListRequests(ctx context.Context, filter RequestFilter) ([]Request, error) {
	return e.requests.List(ctx, filter)
}

// ── Helpers ───────────────────────────────────────────────────────────

// decideCurrentFlow stamps the pending flow record with the deciding
// actor. The full flow slice is replaced under the store's CAS guard.
func decideCurrentFlow(flows []Flow, actor Actor, d Decision, now time.Time) []Flow {
	out := make([]Flow, len(flows))
	copy(out, flows)
	for i := len(out) - 1; i >= 0; i-- {
		if out[i].Status != FlowStatusPending {
			continue
		}
		out[i].ApproverRole = actor.Role
		out[i].ApproverUsername = actor.Username
		out[i].Comment = d.Comment
		out[i].DecidedAt = &now
		if d.Approve {
			out[i].Status = FlowStatusApproved
		} else {
			out[i].Status = FlowStatusDeclined
		}
		break
	}
	return out
}

func (e *Engine) auditLog(ctx context.Context, actor Actor, action string, m Marker, snapshot any) {
	if e.audit == nil {
		return
	}
	e.audit.Log(ctx, actor, action, m.Activity, m.Module, snapshot)
}

func (e *Engine) notifyBesteffort(ctx context.Context, requestType, recipient, message string) {
	if e.notify == nil || recipient == "" {
		return
	}
	e.notify.Notify(ctx, requestType, recipient, message)
}

func (e *Engine) runHook(rule *Rule, req *Request) {
	if e.hooks == nil || rule == nil || rule.HookScript == "" {
		return
	}
	e.hooks.Run(context.Background(), req.Activity, req.Module, rule.HookScript, map[string]any{
		"request_id": req.ID.Hex(),
		"status":     string(req.Status),
		"requester":  req.RequesterUsername,
	})
}

func containsString(list []string, item string) bool {
	for _, s := range list {
		if s == item {
			return true
		}
	}
	return false
}
