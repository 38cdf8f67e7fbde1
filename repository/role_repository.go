package repository

import (
	"context"

	"github.com/akinalp/gaduly/models"
)

// RoleRepository stores roles. Permissions are kept as a JSON array.
type RoleRepository interface {
	Create(ctx context.Context, role *models.Role) error
	List(ctx context.Context) ([]models.Role, error)
	// GetDefaultByServer returns the lowest id role of the server.
	GetDefaultByServer(ctx context.Context, serverID int64) (*models.Role, error)
}
