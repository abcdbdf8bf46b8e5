package workflow

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// memRequestStore mirrors the Mongo store's ApplyDecision contract: the
// mutation only lands when the request is non-terminal, undecided and
// still at the flow index the caller observed.
type memRequestStore struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]*Request
}

func newMemRequestStore() *memRequestStore {
	return &memRequestStore{byID: map[primitive.ObjectID]*Request{}}
}

func (s *memRequestStore) Create(_ context.Context, req *Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if req.ID.IsZero() {
		req.ID = primitive.NewObjectID()
	}
	now := time.Now()
	req.CreatedAt = now
	req.UpdatedAt = now
	cp := *req
	s.byID[req.ID] = &cp
	return nil
}

func (s *memRequestStore) Get(_ context.Context, id string) (*Request, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrRequestNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.byID[oid]
	if !ok {
		return nil, ErrRequestNotFound
	}
	cp := *req
	return &cp, nil
}

func (s *memRequestStore) List(_ context.Context, filter RequestFilter) ([]Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Request
	for _, req := range s.byID {
		if filter.Status != "" && req.Status != filter.Status {
			continue
		}
		if filter.Module != "" && req.Module != filter.Module {
			continue
		}
		if filter.Requester != "" && req.RequesterUsername != filter.Requester {
			continue
		}
		out = append(out, *req)
	}
	return out, nil
}

func (s *memRequestStore) ApplyDecision(_ context.Context, id primitive.ObjectID, observedIndex int, update bson.M) (*Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.byID[id]
	if !ok || req.ApprovedDate != nil || req.NextApprovalIndex != observedIndex {
		return nil, ErrStaleRequest
	}
	switch req.Status {
	case StatusPending, StatusSubmitted, StatusProcessing:
	default:
		return nil, ErrStaleRequest
	}

	set, _ := update["$set"].(bson.M)
	for k, v := range set {
		switch k {
		case "status":
			req.Status = v.(Status)
		case "flows":
			req.Flows = v.([]Flow)
		case "approved":
			req.Approved = v.(bool)
		case "approval_username":
			req.ApprovalUsername = v.(string)
		case "approved_date":
			t := v.(time.Time)
			req.ApprovedDate = &t
		case "next_approval_index":
			req.NextApprovalIndex = v.(int)
		}
	}
	req.UpdatedAt = time.Now()
	cp := *req
	return &cp, nil
}

func (s *memRequestStore) ListStale(_ context.Context, statuses []Status, age time.Duration) ([]Request, error) {
	cutoff := time.Now().Add(-age)
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Request
	for _, req := range s.byID {
		for _, st := range statuses {
			if req.Status == st && req.UpdatedAt.Before(cutoff) {
				out = append(out, *req)
				break
			}
		}
	}
	return out, nil
}

// mustGet returns the stored request by object id, failing the test when absent
func (s *memRequestStore) mustGet(t *testing.T, id primitive.ObjectID) *Request {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.byID[id]
	if !ok {
		t.Fatalf("request %s not found in store", id.Hex())
	}
	cp := *req
	return &cp
}

func (s *memRequestStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

type memRuleStore struct {
	configs []RuleConfig
}

func (s *memRuleStore) Save(_ context.Context, cfg *RuleConfig) error {
	if cfg.ID.IsZero() {
		cfg.ID = primitive.NewObjectID()
	}
	s.configs = append(s.configs, *cfg)
	return nil
}

func (s *memRuleStore) GetByID(_ context.Context, id string) (*RuleConfig, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrRequestNotFound
	}
	for i := range s.configs {
		if s.configs[i].ID == oid {
			cp := s.configs[i]
			return &cp, nil
		}
	}
	return nil, ErrRequestNotFound
}

func (s *memRuleStore) Find(_ context.Context, activity, module string) ([]RuleConfig, error) {
	var out []RuleConfig
	for _, cfg := range s.configs {
		if cfg.Activity == activity && cfg.Module == module {
			out = append(out, cfg)
		}
	}
	return out, nil
}

func (s *memRuleStore) List(_ context.Context) ([]RuleConfig, error) {
	return append([]RuleConfig(nil), s.configs...), nil
}

func (s *memRuleStore) Delete(_ context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrRequestNotFound
	}
	for i := range s.configs {
		if s.configs[i].ID == oid {
			s.configs = append(s.configs[:i], s.configs[i+1:]...)
			return nil
		}
	}
	return ErrRequestNotFound
}

type auditEntry struct {
	Actor    Actor
	Action   string
	Activity string
	Module   string
}

type recordingAudit struct {
	mu      sync.Mutex
	entries []auditEntry
}

func (a *recordingAudit) Log(_ context.Context, actor Actor, action, activity, module string, _ any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, auditEntry{Actor: actor, Action: action, Activity: activity, Module: module})
}

func (a *recordingAudit) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.entries))
	for i, e := range a.entries {
		out[i] = e.Action
	}
	return out
}

type sentNote struct {
	RequestType string
	Recipient   string
	Message     string
}

type recordingNotify struct {
	mu    sync.Mutex
	notes []sentNote
}

func (n *recordingNotify) Notify(_ context.Context, requestType, recipient, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, sentNote{RequestType: requestType, Recipient: recipient, Message: message})
}

func (n *recordingNotify) recipients() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.notes))
	for i, note := range n.notes {
		out[i] = note.Recipient
	}
	return out
}

// refundPayload is the guarded-operation argument used across the
// engine tests. It carries an amount so banded rule sets apply.
type refundPayload struct {
	TransactionID string `json:"transaction_id"`
	Amount        int64  `json:"amount_minor"`
	Reason        string `json:"reason,omitempty"`
}

func (p refundPayload) AmountMinor() int64 { return p.Amount }

const (
	testOperation  = "transaction.refund"
	testPayload    = "transaction.refund.payload"
	makerPerm      = "transactions:refund:maker"
	checkerPerm    = "transactions:refund:checker"
	testActivity   = "REFUND"
	testModule     = "TRANSACTION"
	checkerRole    = "ops-checker"
	supervisorRole = "ops-supervisor"
)

func refundMarker(background bool) Marker {
	return Marker{
		MakerPermission:   makerPerm,
		CheckerPermission: checkerPerm,
		Activity:          testActivity,
		Module:            testModule,
		PayloadType:       testPayload,
		OperationName:     testOperation,
		RunInBackground:   background,
	}
}

func maker() Actor {
	return Actor{Username: "alice", Role: "ops-maker", Permissions: []string{makerPerm}}
}

func checker(username, role string) Actor {
	return Actor{Username: username, Role: role, Permissions: []string{checkerPerm}}
}

func custodian() Actor {
	return Actor{Username: "root", Role: "platform-admin", Permissions: []string{BypassPermission}}
}

// countingOp records how many times the guarded operation ran
type countingOp struct {
	mu    sync.Mutex
	calls int
	last  any
	err   error
}

func (o *countingOp) run(_ context.Context, payload any) (any, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls++
	o.last = payload
	if o.err != nil {
		return nil, o.err
	}
	return "refund-ok", nil
}

func (o *countingOp) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.calls
}

type testEnv struct {
	engine   *Engine
	requests *memRequestStore
	audit    *recordingAudit
	notify   *recordingNotify
	op       *countingOp
}

func newTestEnv(t *testing.T, configs []RuleConfig, background bool) *testEnv {
	t.Helper()

	requests := newMemRequestStore()
	audit := &recordingAudit{}
	notify := &recordingNotify{}
	registry := NewRegistry()

	op := &countingOp{}
	registry.RegisterPayload(testPayload, JSONPayload[refundPayload]())
	registry.RegisterOperation(refundMarker(background), op.run)

	pool := NewReplayPool(2, zap.NewNop())
	pool.Start()
	t.Cleanup(pool.Stop)

	engine := NewEngine(&memRuleStore{configs: configs}, requests, registry, audit, notify, nil, pool, zap.NewNop())
	return &testEnv{engine: engine, requests: requests, audit: audit, notify: notify, op: op}
}

// singleApproverConfig requires one approval from checkerRole
func singleApproverConfig() []RuleConfig {
	return []RuleConfig{{
		ID:       primitive.NewObjectID(),
		Activity: testActivity,
		Module:   testModule,
		Global:   true,
		Rules: []Rule{{
			MinApprovalsRequired: 1,
			ApprovalBasedType:    BasedTypeRole,
			ApprovalFlowType:     FlowTypeRoleBased,
			Approvers:            []string{checkerRole},
		}},
	}}
}

// twoStepConfig requires checkerRole then supervisorRole
func twoStepConfig() []RuleConfig {
	return []RuleConfig{{
		ID:       primitive.NewObjectID(),
		Activity: testActivity,
		Module:   testModule,
		Global:   true,
		Rules: []Rule{{
			MinApprovalsRequired: 2,
			ApprovalBasedType:    BasedTypeRole,
			ApprovalFlowType:     FlowTypeRoleBased,
			Approvers:            []string{checkerRole, supervisorRole},
		}},
	}}
}
