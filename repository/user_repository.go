// Package repository is the data access layer.
//
// Services never write SQL; they depend on the interfaces declared in the
// *_repository.go files. The sqlite_*.go files implement them on top of
// database.TxQuerier, so the same repository works against the connection
// pool or inside database.WithTx.
//
// Driver errors are translated here: sql.ErrNoRows becomes pkg.ErrNotFound,
// UNIQUE violations become pkg.ErrAlreadyExists and channel kind trigger
// aborts become pkg.ErrBadRequest.
package repository

import (
	"context"

	"github.com/akinalp/gaduly/models"
)

// UserRepository stores accounts.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateProfile(ctx context.Context, id int64, req *models.UpdateProfileRequest) error
}
