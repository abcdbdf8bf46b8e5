package kyc

import (
	"context"
	"fmt"

	"go-paygate/internal/common/models"
	"go-paygate/internal/features/audit"
	"go-paygate/internal/features/workflow"
)

const (
	StatusChangeOperation = "kyc.status.change"

	StatusMakerPermission   = "kyc:status:maker"
	StatusCheckerPermission = "kyc:status:checker"
)

var statusChangeMarker = workflow.Marker{
	MakerPermission:   StatusMakerPermission,
	CheckerPermission: StatusCheckerPermission,
	Activity:          "STATUS_CHANGE",
	Module:            "KYC",
	PayloadType:       StatusChangeOperation,
	OperationName:     StatusChangeOperation,
}

// MerchantStatusWriter propagates the verdict onto the merchant record.
// Implemented by the merchant repository.
type MerchantStatusWriter interface {
	SetKYCStatus(ctx context.Context, merchantID, status string) error
}

type KYCService interface {
	OpenCase(ctx context.Context, actor workflow.Actor, c *Case) error
	GetCase(ctx context.Context, merchantID string) (*Case, error)
	ListCases(ctx context.Context, filter map[string]interface{}, page, limit int64) ([]Case, int64, error)
	AddDocument(ctx context.Context, actor workflow.Actor, merchantID string, doc Document) error
	ChangeStatus(ctx context.Context, actor workflow.Actor, change *StatusChange) (*workflow.Result, error)
}

type KYCServiceImpl struct {
	Repo         KYCRepository
	Merchants    MerchantStatusWriter
	Engine       *workflow.Engine
	AuditService audit.AuditService
}

func NewKYCService(repo KYCRepository, merchants MerchantStatusWriter, engine *workflow.Engine, auditService audit.AuditService) KYCService {
	s := &KYCServiceImpl{
		Repo:         repo,
		Merchants:    merchants,
		Engine:       engine,
		AuditService: auditService,
	}

	engine.Registry().RegisterPayload(StatusChangeOperation, workflow.JSONPayload[StatusChange]())
	engine.Registry().RegisterOperation(statusChangeMarker, func(ctx context.Context, payload any) (any, error) {
		change, ok := payload.(*StatusChange)
		if !ok {
			return nil, fmt.Errorf("unexpected payload type %T", payload)
		}
		kycCase, err := s.Repo.SetStatus(ctx, change.MerchantID, change.NewStatus, change.Note)
		if err != nil {
			return nil, err
		}
		if err := s.Merchants.SetKYCStatus(ctx, change.MerchantID, change.NewStatus); err != nil {
			return nil, err
		}
		return kycCase, nil
	})

	return s
}

func (s *KYCServiceImpl) OpenCase(ctx context.Context, actor workflow.Actor, c *Case) error {
	if c.MerchantID == "" {
		return fmt.Errorf("merchant_id is required")
	}
	if existing, _ := s.Repo.FindByMerchantID(ctx, c.MerchantID); existing != nil {
		return fmt.Errorf("kyc case for merchant %s already exists", c.MerchantID)
	}
	if err := s.Repo.Create(ctx, c); err != nil {
		return err
	}
	_ = s.AuditService.LogChange(ctx, actor, models.AuditActionCreate, "KYC", c.MerchantID, map[string]models.Change{
		"level": {New: c.Level},
	})
	return nil
}

func (s *KYCServiceImpl) GetCase(ctx context.Context, merchantID string) (*Case, error) {
	return s.Repo.FindByMerchantID(ctx, merchantID)
}

func (s *KYCServiceImpl) ListCases(ctx context.Context, filter map[string]interface{}, page, limit int64) ([]Case, int64, error) {
	if filter == nil {
		filter = map[string]interface{}{}
	}
	offset := (page - 1) * limit
	return s.Repo.List(ctx, filter, limit, offset)
}

func (s *KYCServiceImpl) AddDocument(ctx context.Context, actor workflow.Actor, merchantID string, doc Document) error {
	if doc.Type == "" || doc.Reference == "" {
		return fmt.Errorf("document type and reference are required")
	}
	if err := s.Repo.AddDocument(ctx, merchantID, doc); err != nil {
		return err
	}
	_ = s.AuditService.LogChange(ctx, actor, models.AuditActionUpdate, "KYC", merchantID, map[string]models.Change{
		"document": {New: doc.Reference},
	})
	return nil
}

func (s *KYCServiceImpl) ChangeStatus(ctx context.Context, actor workflow.Actor, change *StatusChange) (*workflow.Result, error) {
	if change.NewStatus != StatusApproved && change.NewStatus != StatusRejected {
		return nil, fmt.Errorf("new_status must be %s or %s", StatusApproved, StatusRejected)
	}
	initial, err := s.Repo.FindByMerchantID(ctx, change.MerchantID)
	if err != nil {
		return nil, fmt.Errorf("kyc case for merchant %s not found", change.MerchantID)
	}

	return s.Engine.Intercept(ctx, actor, statusChangeMarker, workflow.Invocation{
		Payload: change,
		Initial: initial,
	})
}
