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

type sqliteMessageRepo struct {
	db database.TxQuerier
}

// NewSQLiteMessageRepo returns the SQLite MessageRepository.
func NewSQLiteMessageRepo(db database.TxQuerier) MessageRepository {
	return &sqliteMessageRepo{db: db}
}

// messageSelect joins the author so every read carries the display fields.
const messageSelect = `
	SELECT m.id, m.channel_id, m.user_id, m.content, m.image_url, m.emojis,
	       m.created_at, m.updated_at,
	       u.username, u.nickname, u.avatar_url
	FROM messages m
	INNER JOIN users u ON u.id = m.user_id`

func scanMessage(row interface{ Scan(...any) error }) (*models.Message, error) {
	var m models.Message
	var updatedAt sql.NullTime
	err := row.Scan(
		&m.ID, &m.ChannelID, &m.UserID, &m.Content, &m.ImageURL, &m.Emojis,
		&m.CreatedAt, &updatedAt,
		&m.Username, &m.Nickname, &m.AvatarURL,
	)
	if err != nil {
		return nil, err
	}
	if updatedAt.Valid {
		m.UpdatedAt = &updatedAt.Time
	}
	return &m, nil
}

// Create inserts the message and reloads it so the caller gets the
// stored timestamps and author fields.
func (r *sqliteMessageRepo) Create(ctx context.Context, message *models.Message) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO messages (channel_id, user_id, content, image_url, emojis) VALUES (?, ?, ?, ?, ?)`,
		message.ChannelID, message.UserID, message.Content, message.ImageURL, message.Emojis,
	)
	if err != nil {
		if kindErr := channelKindError(err); kindErr != err {
			return kindErr
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: channel or user", pkg.ErrNotFound)
		}
		return fmt.Errorf("failed to create message: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read message id: %w", err)
	}

	stored, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	*message = *stored
	return nil
}

func (r *sqliteMessageRepo) GetByID(ctx context.Context, id int64) (*models.Message, error) {
	m, err := scanMessage(r.db.QueryRowContext(ctx, messageSelect+` WHERE m.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: message", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message by id: %w", err)
	}
	return m, nil
}

func (r *sqliteMessageRepo) ListByChannel(ctx context.Context, channelID int64) ([]models.Message, error) {
	rows, err := r.db.QueryContext(ctx, messageSelect+` WHERE m.channel_id = ? ORDER BY m.id ASC`, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		messages = append(messages, *m)
	}
	return messages, rows.Err()
}

// Update writes content and emojis, then reloads the row into message.
func (r *sqliteMessageRepo) Update(ctx context.Context, message *models.Message) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE messages SET content = ?, emojis = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		message.Content, message.Emojis, message.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update message: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: message", pkg.ErrNotFound)
	}

	stored, err := r.GetByID(ctx, message.ID)
	if err != nil {
		return err
	}
	*message = *stored
	return nil
}

func (r *sqliteMessageRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: message", pkg.ErrNotFound)
	}
	return nil
}
