package role

import (
	"context"
	"errors"

	"go-paygate/internal/common/models"
	"go-paygate/internal/features/audit"
	"go-paygate/internal/features/workflow"
)

type RoleService interface {
	// ResolvePermissions returns the permission codes for a role name.
	// Unknown roles resolve to no permissions rather than an error so
	// that a deleted role locks its users out instead of breaking login.
	ResolvePermissions(ctx context.Context, roleName string) []string

	ListRoles(ctx context.Context) ([]Role, error)
	GetRole(ctx context.Context, id string) (*Role, error)
	CreateRole(ctx context.Context, actor workflow.Actor, role *Role) error
	UpdateRole(ctx context.Context, actor workflow.Actor, id string, role *Role) error
	DeleteRole(ctx context.Context, actor workflow.Actor, id string) error
}

type RoleServiceImpl struct {
	Repo         RoleRepository
	AuditService audit.AuditService
}

func NewRoleService(repo RoleRepository, auditService audit.AuditService) RoleService {
	return &RoleServiceImpl{
		Repo:         repo,
		AuditService: auditService,
	}
}

func (s *RoleServiceImpl) ResolvePermissions(ctx context.Context, roleName string) []string {
	if roleName == "" {
		return nil
	}
	role, err := s.Repo.FindByName(ctx, roleName)
	if err != nil || role == nil {
		return nil
	}
	return role.Permissions
}

func (s *RoleServiceImpl) ListRoles(ctx context.Context) ([]Role, error) {
	return s.Repo.List(ctx)
}

func (s *RoleServiceImpl) GetRole(ctx context.Context, id string) (*Role, error) {
	return s.Repo.FindByID(ctx, id)
}

func (s *RoleServiceImpl) CreateRole(ctx context.Context, actor workflow.Actor, role *Role) error {
	if role.Name == "" {
		return errors.New("role name is required")
	}
	if existing, _ := s.Repo.FindByName(ctx, role.Name); existing != nil {
		return errors.New("role already exists")
	}
	if err := s.Repo.Create(ctx, role); err != nil {
		return err
	}
	_ = s.AuditService.LogChange(ctx, actor, models.AuditActionCreate, "ROLE", role.ID.Hex(), map[string]models.Change{
		"name":        {New: role.Name},
		"permissions": {New: role.Permissions},
	})
	return nil
}

func (s *RoleServiceImpl) UpdateRole(ctx context.Context, actor workflow.Actor, id string, role *Role) error {
	existing, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Repo.Update(ctx, id, role); err != nil {
		return err
	}
	_ = s.AuditService.LogChange(ctx, actor, models.AuditActionUpdate, "ROLE", id, map[string]models.Change{
		"permissions": {Old: existing.Permissions, New: role.Permissions},
	})
	return nil
}

func (s *RoleServiceImpl) DeleteRole(ctx context.Context, actor workflow.Actor, id string) error {
	existing, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if existing.IsSystem {
		return errors.New("system roles cannot be deleted")
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	_ = s.AuditService.LogChange(ctx, actor, models.AuditActionDelete, "ROLE", id, map[string]models.Change{
		"name": {Old: existing.Name},
	})
	return nil
}
