package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/akinalp/gaduly/database"
	"github.com/akinalp/gaduly/models"
	"github.com/akinalp/gaduly/pkg"
)

type sqliteServerRepo struct {
	db database.TxQuerier
}

// NewSQLiteServerRepo returns the SQLite ServerRepository.
func NewSQLiteServerRepo(db database.TxQuerier) ServerRepository {
	return &sqliteServerRepo{db: db}
}

func (r *sqliteServerRepo) List(ctx context.Context) ([]models.Server, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM servers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list servers: %w", err)
	}
	defer rows.Close()

	servers := []models.Server{}
	for rows.Next() {
		var s models.Server
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, fmt.Errorf("failed to scan server row: %w", err)
		}
		servers = append(servers, s)
	}
	return servers, rows.Err()
}

func (r *sqliteServerRepo) GetFirst(ctx context.Context) (*models.Server, error) {
	var s models.Server
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name FROM servers ORDER BY id LIMIT 1`,
	).Scan(&s.ID, &s.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: server", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get server: %w", err)
	}
	return &s, nil
}

// AddMember inserts the membership row. Joining twice is a no-op.
func (r *sqliteServerRepo) AddMember(ctx context.Context, member *models.ServerMember) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO server_members (server_id, user_id, role_id) VALUES (?, ?, ?)`,
		member.ServerID, member.UserID, member.RoleID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: server or user", pkg.ErrNotFound)
		}
		return fmt.Errorf("failed to add member: %w", err)
	}
	return nil
}

func (r *sqliteServerRepo) IsMember(ctx context.Context, serverID, userID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM server_members WHERE server_id = ? AND user_id = ?)`,
		serverID, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return exists, nil
}
