package repository

import (
	"context"

	"github.com/akinalp/gaduly/models"
)

// ServerRepository stores the workspace and its membership rows.
type ServerRepository interface {
	List(ctx context.Context) ([]models.Server, error)
	// GetFirst returns the lowest id server, the one new accounts join.
	GetFirst(ctx context.Context) (*models.Server, error)
	AddMember(ctx context.Context, member *models.ServerMember) error
	IsMember(ctx context.Context, serverID, userID int64) (bool, error)
}
