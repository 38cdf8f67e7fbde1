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

type sqliteVoicePresenceRepo struct {
	db database.TxQuerier
}

// NewSQLiteVoicePresenceRepo returns the SQLite VoicePresenceRepository.
func NewSQLiteVoicePresenceRepo(db database.TxQuerier) VoicePresenceRepository {
	return &sqliteVoicePresenceRepo{db: db}
}

func (r *sqliteVoicePresenceRepo) Upsert(ctx context.Context, presence *models.VoicePresence) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO voice_presence (channel_id, user_id, muted_mic, muted_all)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (channel_id, user_id) DO UPDATE SET
			muted_mic = excluded.muted_mic,
			muted_all = excluded.muted_all`,
		presence.ChannelID, presence.UserID, presence.MutedMic, presence.MutedAll,
	)
	if err != nil {
		if kindErr := channelKindError(err); kindErr != err {
			return kindErr
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: channel or user", pkg.ErrNotFound)
		}
		return fmt.Errorf("failed to upsert voice presence: %w", err)
	}
	return nil
}

func (r *sqliteVoicePresenceRepo) Get(ctx context.Context, channelID, userID int64) (*models.VoicePresence, error) {
	var p models.VoicePresence
	err := r.db.QueryRowContext(ctx,
		`SELECT channel_id, user_id, muted_mic, muted_all FROM voice_presence
		 WHERE channel_id = ? AND user_id = ?`,
		channelID, userID,
	).Scan(&p.ChannelID, &p.UserID, &p.MutedMic, &p.MutedAll)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: voice presence", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get voice presence: %w", err)
	}
	return &p, nil
}

func (r *sqliteVoicePresenceRepo) ListByChannel(ctx context.Context, channelID int64) ([]models.VoicePresence, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT channel_id, user_id, muted_mic, muted_all FROM voice_presence
		 WHERE channel_id = ? ORDER BY user_id`,
		channelID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list voice presence: %w", err)
	}
	defer rows.Close()

	list := []models.VoicePresence{}
	for rows.Next() {
		var p models.VoicePresence
		if err := rows.Scan(&p.ChannelID, &p.UserID, &p.MutedMic, &p.MutedAll); err != nil {
			return nil, fmt.Errorf("failed to scan voice presence row: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}
