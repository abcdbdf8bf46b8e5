package dispute

import (
	"context"
	"fmt"

	"go-paygate/internal/common/models"
	"go-paygate/internal/features/audit"
	"go-paygate/internal/features/workflow"
)

const (
	ResolveOperation = "dispute.resolve"

	ResolveMakerPermission   = "disputes:resolve:maker"
	ResolveCheckerPermission = "disputes:resolve:checker"
)

var resolveMarker = workflow.Marker{
	MakerPermission:   ResolveMakerPermission,
	CheckerPermission: ResolveCheckerPermission,
	Activity:          "RESOLVE",
	Module:            "DISPUTE",
	PayloadType:       ResolveOperation,
	OperationName:     ResolveOperation,
}

type DisputeService interface {
	OpenDispute(ctx context.Context, actor workflow.Actor, d *Dispute) error
	GetDispute(ctx context.Context, disputeID string) (*Dispute, error)
	ListDisputes(ctx context.Context, filter map[string]interface{}, page, limit int64) ([]Dispute, int64, error)
	AttachEvidence(ctx context.Context, actor workflow.Actor, disputeID string, evidence []string) error
	Resolve(ctx context.Context, actor workflow.Actor, res *Resolution) (*workflow.Result, error)
}

type DisputeServiceImpl struct {
	Repo         DisputeRepository
	Engine       *workflow.Engine
	AuditService audit.AuditService
}

func NewDisputeService(repo DisputeRepository, engine *workflow.Engine, auditService audit.AuditService) DisputeService {
	s := &DisputeServiceImpl{
		Repo:         repo,
		Engine:       engine,
		AuditService: auditService,
	}

	engine.Registry().RegisterPayload(ResolveOperation, workflow.JSONPayload[Resolution]())
	engine.Registry().RegisterOperation(resolveMarker, func(ctx context.Context, payload any) (any, error) {
		res, ok := payload.(*Resolution)
		if !ok {
			return nil, fmt.Errorf("unexpected payload type %T", payload)
		}
		return s.Repo.ApplyResolution(ctx, res)
	})

	return s
}

func (s *DisputeServiceImpl) OpenDispute(ctx context.Context, actor workflow.Actor, d *Dispute) error {
	if d.DisputeID == "" || d.TransactionID == "" {
		return fmt.Errorf("dispute_id and transaction_id are required")
	}
	if err := s.Repo.Create(ctx, d); err != nil {
		return err
	}
	_ = s.AuditService.LogChange(ctx, actor, models.AuditActionCreate, "DISPUTE", d.DisputeID, map[string]models.Change{
		"transaction_id": {New: d.TransactionID},
		"amount_minor":   {New: d.AmountMinor},
		"reason_code":    {New: d.ReasonCode},
	})
	return nil
}

func (s *DisputeServiceImpl) GetDispute(ctx context.Context, disputeID string) (*Dispute, error) {
	return s.Repo.FindByDisputeID(ctx, disputeID)
}

func (s *DisputeServiceImpl) ListDisputes(ctx context.Context, filter map[string]interface{}, page, limit int64) ([]Dispute, int64, error) {
	if filter == nil {
		filter = map[string]interface{}{}
	}
	offset := (page - 1) * limit
	return s.Repo.List(ctx, filter, limit, offset)
}

func (s *DisputeServiceImpl) AttachEvidence(ctx context.Context, actor workflow.Actor, disputeID string, evidence []string) error {
	if len(evidence) == 0 {
		return fmt.Errorf("evidence is required")
	}
	if err := s.Repo.AttachEvidence(ctx, disputeID, evidence); err != nil {
		return err
	}
	_ = s.AuditService.LogChange(ctx, actor, models.AuditActionUpdate, "DISPUTE", disputeID, map[string]models.Change{
		"evidence": {New: evidence},
	})
	return nil
}

func (s *DisputeServiceImpl) Resolve(ctx context.Context, actor workflow.Actor, res *Resolution) (*workflow.Result, error) {
	d, err := s.Repo.FindByDisputeID(ctx, res.DisputeID)
	if err != nil {
		return nil, fmt.Errorf("dispute %s not found", res.DisputeID)
	}
	if d.Status == StatusResolved {
		return nil, fmt.Errorf("dispute %s is already resolved", res.DisputeID)
	}
	if res.Outcome != OutcomeMerchant && res.Outcome != OutcomeCardholder {
		return nil, fmt.Errorf("outcome must be %s or %s", OutcomeMerchant, OutcomeCardholder)
	}
	if res.Amount == 0 {
		res.Amount = d.AmountMinor
	}

	return s.Engine.Intercept(ctx, actor, resolveMarker, workflow.Invocation{
		Payload: res,
		Initial: d,
	})
}
