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

type sqliteUserRepo struct {
	db database.TxQuerier
}

// NewSQLiteUserRepo returns the SQLite UserRepository.
func NewSQLiteUserRepo(db database.TxQuerier) UserRepository {
	return &sqliteUserRepo{db: db}
}

const userColumns = `id, username, password_hash, nickname, avatar_url, audio_input, audio_output,
	mic_sensitivity, automatic_voice_gain, speaker_volume, mic_volume, created_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.Nickname, &u.AvatarURL,
		&u.AudioInput, &u.AudioOutput,
		&u.MicSensitivity, &u.AutomaticVoiceGain, &u.SpeakerVolume, &u.MicVolume,
		&u.CreatedAt,
	)
	return u, err
}

// Create inserts the account and sets user.ID. Audio preferences take the
// column defaults.
func (r *sqliteUserRepo) Create(ctx context.Context, user *models.User) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, nickname) VALUES (?, ?, ?)`,
		user.Username, user.PasswordHash, user.Nickname,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: username already taken", pkg.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read user id: %w", err)
	}
	user.ID = id
	return nil
}

func (r *sqliteUserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return user, nil
}

func (r *sqliteUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	return user, nil
}

// UpdateProfile applies a partial update: COALESCE keeps every column whose
// request field is nil.
func (r *sqliteUserRepo) UpdateProfile(ctx context.Context, id int64, req *models.UpdateProfileRequest) error {
	query := `
		UPDATE users SET
			nickname             = COALESCE(?, nickname),
			avatar_url           = COALESCE(?, avatar_url),
			audio_input          = COALESCE(?, audio_input),
			audio_output         = COALESCE(?, audio_output),
			mic_sensitivity      = COALESCE(?, mic_sensitivity),
			automatic_voice_gain = COALESCE(?, automatic_voice_gain),
			speaker_volume       = COALESCE(?, speaker_volume),
			mic_volume           = COALESCE(?, mic_volume)
		WHERE id = ?`

	res, err := r.db.ExecContext(ctx, query,
		req.Nickname,
		req.AvatarURL,
		req.AudioInput,
		req.AudioOutput,
		req.MicSensitivity,
		req.AutomaticVoiceGain,
		req.SpeakerVolume,
		req.MicVolume,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: user", pkg.ErrNotFound)
	}
	return nil
}
