package merchant

import (
	"context"
	"fmt"

	"go-paygate/internal/common/models"
	"go-paygate/internal/features/audit"
	"go-paygate/internal/features/workflow"
)

const (
	ProfileUpdateOperation = "merchant.profile.update"

	ProfileMakerPermission   = "merchants:profile:maker"
	ProfileCheckerPermission = "merchants:profile:checker"
)

var profileUpdateMarker = workflow.Marker{
	MakerPermission:   ProfileMakerPermission,
	CheckerPermission: ProfileCheckerPermission,
	Activity:          "EDIT",
	Module:            "MERCHANT_PROFILE",
	PayloadType:       ProfileUpdateOperation,
	OperationName:     ProfileUpdateOperation,
}

type MerchantService interface {
	CreateMerchant(ctx context.Context, actor workflow.Actor, m *Merchant) error
	GetMerchant(ctx context.Context, merchantID string) (*Merchant, error)
	ListMerchants(ctx context.Context, filter map[string]interface{}, page, limit int64) ([]Merchant, int64, error)

	// UpdateProfile routes the change through the dual-control
	// interception point. The caller receives the request status, not
	// necessarily the applied change.
	UpdateProfile(ctx context.Context, actor workflow.Actor, upd *ProfileUpdate) (*workflow.Result, error)
}

type MerchantServiceImpl struct {
	Repo         MerchantRepository
	Engine       *workflow.Engine
	AuditService audit.AuditService
}

func NewMerchantService(repo MerchantRepository, engine *workflow.Engine, auditService audit.AuditService) MerchantService {
	s := &MerchantServiceImpl{
		Repo:         repo,
		Engine:       engine,
		AuditService: auditService,
	}

	engine.Registry().RegisterPayload(ProfileUpdateOperation, workflow.JSONPayload[ProfileUpdate]())
	engine.Registry().RegisterOperation(profileUpdateMarker, func(ctx context.Context, payload any) (any, error) {
		upd, ok := payload.(*ProfileUpdate)
		if !ok {
			return nil, fmt.Errorf("unexpected payload type %T", payload)
		}
		return s.Repo.ApplyProfileUpdate(ctx, upd)
	})

	return s
}

func (s *MerchantServiceImpl) CreateMerchant(ctx context.Context, actor workflow.Actor, m *Merchant) error {
	if m.MerchantID == "" {
		return fmt.Errorf("merchant_id is required")
	}
	if existing, _ := s.Repo.FindByMerchantID(ctx, m.MerchantID); existing != nil {
		return fmt.Errorf("merchant %s already exists", m.MerchantID)
	}
	if err := s.Repo.Create(ctx, m); err != nil {
		return err
	}
	_ = s.AuditService.LogChange(ctx, actor, models.AuditActionCreate, "MERCHANT", m.MerchantID, map[string]models.Change{
		"legal_name": {New: m.LegalName},
		"country":    {New: m.Country},
	})
	return nil
}

func (s *MerchantServiceImpl) GetMerchant(ctx context.Context, merchantID string) (*Merchant, error) {
	return s.Repo.FindByMerchantID(ctx, merchantID)
}

func (s *MerchantServiceImpl) ListMerchants(ctx context.Context, filter map[string]interface{}, page, limit int64) ([]Merchant, int64, error) {
	if filter == nil {
		filter = map[string]interface{}{}
	}
	offset := (page - 1) * limit
	return s.Repo.List(ctx, filter, limit, offset)
}

func (s *MerchantServiceImpl) UpdateProfile(ctx context.Context, actor workflow.Actor, upd *ProfileUpdate) (*workflow.Result, error) {
	initial, err := s.Repo.FindByMerchantID(ctx, upd.MerchantID)
	if err != nil {
		return nil, fmt.Errorf("merchant %s not found", upd.MerchantID)
	}

	return s.Engine.Intercept(ctx, actor, profileUpdateMarker, workflow.Invocation{
		Payload: upd,
		Initial: initial,
	})
}
