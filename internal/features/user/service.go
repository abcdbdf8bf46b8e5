package user

import (
	"context"
	"errors"
	"time"

	"go-paygate/internal/common/models"
	"go-paygate/internal/features/audit"
	"go-paygate/internal/features/workflow"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

type UserService interface {
	ListUsers(ctx context.Context, filter map[string]interface{}, page, limit int64) ([]models.User, int64, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	CreateUser(ctx context.Context, actor workflow.Actor, user *models.User) error
	UpdateUser(ctx context.Context, actor workflow.Actor, id string, user *models.User) error
	UpdateUserStatus(ctx context.Context, actor workflow.Actor, id string, status string) error
	DeleteUser(ctx context.Context, actor workflow.Actor, id string) error
}

type UserServiceImpl struct {
	UserRepo     UserRepository
	AuditService audit.AuditService
}

func NewUserService(userRepo UserRepository, auditService audit.AuditService) UserService {
	return &UserServiceImpl{
		UserRepo:     userRepo,
		AuditService: auditService,
	}
}

func (s *UserServiceImpl) ListUsers(ctx context.Context, filter map[string]interface{}, page, limit int64) ([]models.User, int64, error) {
	if filter == nil {
		filter = make(map[string]interface{})
	}
	offset := (page - 1) * limit
	return s.UserRepo.List(ctx, filter, limit, offset)
}

func (s *UserServiceImpl) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.UserRepo.FindByID(ctx, id)
}

func (s *UserServiceImpl) CreateUser(ctx context.Context, actor workflow.Actor, user *models.User) error {
	if user.Username == "" || user.Password == "" {
		return errors.New("username and password are required")
	}
	if existing, _ := s.UserRepo.FindByUsername(ctx, user.Username); existing != nil {
		return errors.New("username already taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.Password = string(hash)

	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if user.Status == "" {
		user.Status = "active"
	}

	if err := s.UserRepo.Create(ctx, user); err != nil {
		return err
	}

	changes := map[string]models.Change{
		"username": {New: user.Username},
		"email":    {New: user.Email},
		"role":     {New: user.Role},
	}
	_ = s.AuditService.LogChange(ctx, actor, models.AuditActionCreate, "USER", user.ID.Hex(), changes)
	return nil
}

func (s *UserServiceImpl) UpdateUser(ctx context.Context, actor workflow.Actor, id string, user *models.User) error {
	existing, err := s.UserRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.UserRepo.Update(ctx, id, user); err != nil {
		return err
	}

	changes := map[string]models.Change{}
	if existing.Email != user.Email {
		changes["email"] = models.Change{Old: existing.Email, New: user.Email}
	}
	if existing.Role != user.Role {
		changes["role"] = models.Change{Old: existing.Role, New: user.Role}
	}
	if existing.Status != user.Status {
		changes["status"] = models.Change{Old: existing.Status, New: user.Status}
	}
	if len(changes) > 0 {
		_ = s.AuditService.LogChange(ctx, actor, models.AuditActionUpdate, "USER", id, changes)
	}
	return nil
}

func (s *UserServiceImpl) UpdateUserStatus(ctx context.Context, actor workflow.Actor, id string, status string) error {
	existing, err := s.UserRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if status != "active" && status != "inactive" && status != "suspended" {
		return errors.New("invalid status")
	}
	existing.Status = status
	existing.UpdatedAt = time.Now()
	if err := s.UserRepo.Update(ctx, id, existing); err != nil {
		return err
	}
	_ = s.AuditService.LogChange(ctx, actor, models.AuditActionUpdate, "USER", id, map[string]models.Change{
		"status": {New: status},
	})
	return nil
}

func (s *UserServiceImpl) DeleteUser(ctx context.Context, actor workflow.Actor, id string) error {
	if err := s.UserRepo.Delete(ctx, id); err != nil {
		return err
	}
	_ = s.AuditService.LogChange(ctx, actor, models.AuditActionDelete, "USER", id, nil)
	return nil
}
