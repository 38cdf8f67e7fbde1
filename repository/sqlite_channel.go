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

type sqliteChannelRepo struct {
	db database.TxQuerier
}

// NewSQLiteChannelRepo returns the SQLite ChannelRepository.
func NewSQLiteChannelRepo(db database.TxQuerier) ChannelRepository {
	return &sqliteChannelRepo{db: db}
}

const channelColumns = `id, server_id, name, type, max_users, bitrate_kbps, password`

func scanChannel(row interface{ Scan(...any) error }) (*models.Channel, error) {
	var ch models.Channel
	err := row.Scan(&ch.ID, &ch.ServerID, &ch.Name, &ch.Type, &ch.MaxUsers, &ch.BitrateKbps, &ch.Password)
	if err != nil {
		return nil, err
	}
	ch.HasPassword = ch.Password != ""
	return &ch, nil
}

func (r *sqliteChannelRepo) GetByID(ctx context.Context, id int64) (*models.Channel, error) {
	ch, err := scanChannel(r.db.QueryRowContext(ctx,
		`SELECT `+channelColumns+` FROM channels WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: channel", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get channel by id: %w", err)
	}
	return ch, nil
}

func (r *sqliteChannelRepo) List(ctx context.Context) ([]models.Channel, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+channelColumns+` FROM channels ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	defer rows.Close()

	channels := []models.Channel{}
	for rows.Next() {
		ch, err := scanChannel(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan channel row: %w", err)
		}
		channels = append(channels, *ch)
	}
	return channels, rows.Err()
}

func (r *sqliteChannelRepo) UpdateVoiceSettings(ctx context.Context, channel *models.Channel) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE channels SET name = ?, max_users = ?, bitrate_kbps = ?, password = ?
		 WHERE id = ? AND type = 'voice'`,
		channel.Name, channel.MaxUsers, channel.BitrateKbps, channel.Password, channel.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update voice settings: %w", channelKindError(err))
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	// Nothing matched: either the channel is gone or it is a text channel.
	if _, err := r.GetByID(ctx, channel.ID); err != nil {
		return err
	}
	return fmt.Errorf("%w: voice settings require a voice channel", pkg.ErrBadRequest)
}
