package repository

import (
	"context"

	"github.com/akinalp/gaduly/models"
)

// ChannelRepository stores channels. Channels are created by the seed
// migration; the API only reads them and updates voice settings.
type ChannelRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Channel, error)
	List(ctx context.Context) ([]models.Channel, error)
	// UpdateVoiceSettings writes name, max_users, bitrate_kbps and password.
	// Only voice channels are touched; a text channel yields ErrBadRequest.
	UpdateVoiceSettings(ctx context.Context, channel *models.Channel) error
}
