package services

import (
	"context"
	"fmt"

	"github.com/akinalp/gaduly/models"
	"github.com/akinalp/gaduly/pkg"
	"github.com/akinalp/gaduly/repository"
)

// RoleService creates and lists roles. Permissions are stored for clients;
// nothing on the server enforces them.
type RoleService interface {
	Create(ctx context.Context, req *models.CreateRoleRequest) (*models.Role, error)
	List(ctx context.Context) ([]models.Role, error)
}

type roleService struct {
	roleRepo repository.RoleRepository
}

func NewRoleService(roleRepo repository.RoleRepository) RoleService {
	return &roleService{roleRepo: roleRepo}
}

func (s *roleService) Create(ctx context.Context, req *models.CreateRoleRequest) (*models.Role, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	role := &models.Role{
		ServerID:    req.ServerID,
		Name:        req.Name,
		Permissions: req.Permissions,
	}
	if err := s.roleRepo.Create(ctx, role); err != nil {
		return nil, err
	}
	return role, nil
}

func (s *roleService) List(ctx context.Context) ([]models.Role, error) {
	return s.roleRepo.List(ctx)
}
