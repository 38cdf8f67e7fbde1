package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/akinalp/gaduly/database"
	"github.com/akinalp/gaduly/models"
	"github.com/akinalp/gaduly/pkg"
)

type sqliteRoleRepo struct {
	db database.TxQuerier
}

// NewSQLiteRoleRepo returns the SQLite RoleRepository.
func NewSQLiteRoleRepo(db database.TxQuerier) RoleRepository {
	return &sqliteRoleRepo{db: db}
}

func (r *sqliteRoleRepo) Create(ctx context.Context, role *models.Role) error {
	if role.Permissions == nil {
		role.Permissions = []string{}
	}
	perms, err := json.Marshal(role.Permissions)
	if err != nil {
		return fmt.Errorf("failed to encode permissions: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO roles (server_id, name, permissions) VALUES (?, ?, ?)`,
		role.ServerID, role.Name, string(perms),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: server", pkg.ErrNotFound)
		}
		return fmt.Errorf("failed to create role: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read role id: %w", err)
	}
	role.ID = id
	return nil
}

func (r *sqliteRoleRepo) List(ctx context.Context) ([]models.Role, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, server_id, name, permissions FROM roles ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer rows.Close()

	roles := []models.Role{}
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, *role)
	}
	return roles, rows.Err()
}

func (r *sqliteRoleRepo) GetDefaultByServer(ctx context.Context, serverID int64) (*models.Role, error) {
	role, err := scanRole(r.db.QueryRowContext(ctx,
		`SELECT id, server_id, name, permissions FROM roles WHERE server_id = ? ORDER BY id LIMIT 1`,
		serverID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: role", pkg.ErrNotFound)
	}
	return role, err
}

func scanRole(row interface{ Scan(...any) error }) (*models.Role, error) {
	var role models.Role
	var perms string
	if err := row.Scan(&role.ID, &role.ServerID, &role.Name, &perms); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan role row: %w", err)
	}

	if err := json.Unmarshal([]byte(perms), &role.Permissions); err != nil {
		return nil, fmt.Errorf("failed to decode permissions of role %d: %w", role.ID, err)
	}
	if role.Permissions == nil {
		role.Permissions = []string{}
	}
	return &role, nil
}
