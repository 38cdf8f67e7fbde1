package repository

import (
	"context"

	"github.com/akinalp/gaduly/models"
)

// MessageRepository stores messages. Reads return the message joined with
// its author's username, nickname and avatar_url.
type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	GetByID(ctx context.Context, id int64) (*models.Message, error)
	// ListByChannel returns every message of the channel in ascending id order.
	ListByChannel(ctx context.Context, channelID int64) ([]models.Message, error)
	// Update replaces content and emojis and stamps updated_at.
	Update(ctx context.Context, message *models.Message) error
	Delete(ctx context.Context, id int64) error
}
