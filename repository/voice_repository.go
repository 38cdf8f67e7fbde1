package repository

import (
	"context"

	"github.com/akinalp/gaduly/models"
)

// VoicePresenceRepository stores one mute-state row per (channel, user).
type VoicePresenceRepository interface {
	// Upsert inserts the row or overwrites both flags of the existing one.
	Upsert(ctx context.Context, presence *models.VoicePresence) error
	Get(ctx context.Context, channelID, userID int64) (*models.VoicePresence, error)
	ListByChannel(ctx context.Context, channelID int64) ([]models.VoicePresence, error)
}
