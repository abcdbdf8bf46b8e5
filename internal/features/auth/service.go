package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"go-paygate/internal/common/models"
	"go-paygate/internal/features/role"
	"go-paygate/internal/features/user"
	"go-paygate/pkg/utils"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

type AuthService interface {
	Login(ctx context.Context, username, password string) (string, *models.User, error)
}

type AuthServiceImpl struct {
	UserRepo    user.UserRepository
	RoleService role.RoleService
}

func NewAuthService(userRepo user.UserRepository, roleService role.RoleService) AuthService {
	return &AuthServiceImpl{
		UserRepo:    userRepo,
		RoleService: roleService,
	}
}

func (s *AuthServiceImpl) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	u, err := s.UserRepo.FindByUsername(ctx, username)
	if err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if u.Status != "active" {
		return "", nil, errors.New("account is not active")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	permissions := s.RoleService.ResolvePermissions(ctx, u.Role)

	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	token, err := utils.GenerateToken(u.Username, u.Email, name, u.Role, permissions, false)
	if err != nil {
		return "", nil, err
	}

	now := time.Now()
	u.LastLogin = &now
	_ = s.UserRepo.Update(ctx, u.ID.Hex(), u)

	return token, u, nil
}
