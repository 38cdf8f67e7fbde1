package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/akinalp/gaduly/models"
	"github.com/akinalp/gaduly/pkg"
	"github.com/akinalp/gaduly/pkg/keylock"
	"github.com/akinalp/gaduly/repository"
	"github.com/akinalp/gaduly/ws"
)

// MessageService handles the message history and its three mutations.
type MessageService interface {
	List(ctx context.Context, channelID int64) ([]models.Message, error)
	Create(ctx context.Context, userID, channelID int64, req *models.CreateMessageRequest) (*models.Message, error)
	Update(ctx context.Context, userID, messageID int64, req *models.UpdateMessageRequest) (*models.Message, error)
	Delete(ctx context.Context, userID, messageID int64) error
}

type messageService struct {
	messageRepo repository.MessageRepository
	channelRepo repository.ChannelRepository
	hub         ws.EventPublisher
	locks       *keylock.Locker
	policy      Policy
}

// NewMessageService is the constructor.
func NewMessageService(
	messageRepo repository.MessageRepository,
	channelRepo repository.ChannelRepository,
	hub ws.EventPublisher,
	locks *keylock.Locker,
	policy Policy,
) MessageService {
	return &messageService{
		messageRepo: messageRepo,
		channelRepo: channelRepo,
		hub:         hub,
		locks:       locks,
		policy:      policy,
	}
}

func (s *messageService) List(ctx context.Context, channelID int64) ([]models.Message, error) {
	if _, err := s.textChannel(ctx, channelID); err != nil {
		return nil, err
	}
	return s.messageRepo.ListByChannel(ctx, channelID)
}

// Create stores the message and pushes the stored record to the channel.
// The returned message is the same value that was published.
func (s *messageService) Create(ctx context.Context, userID, channelID int64, req *models.CreateMessageRequest) (*models.Message, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	if _, err := s.textChannel(ctx, channelID); err != nil {
		return nil, err
	}

	message := &models.Message{
		ChannelID: channelID,
		UserID:    userID,
		Content:   req.Content,
		ImageURL:  req.ImageURL,
		Emojis:    req.Emojis,
	}

	scope := ws.ChannelScope(channelID)
	unlock := s.locks.Lock(scope)
	defer unlock()

	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, err
	}

	s.hub.PublishToScope(scope, ws.Event{Op: ws.OpNewMessage, Data: message})
	return message, nil
}

// Update replaces the text of a message the caller owns.
func (s *messageService) Update(ctx context.Context, userID, messageID int64, req *models.UpdateMessageRequest) (*models.Message, error) {
	existing, err := s.ownedMessage(ctx, userID, messageID)
	if err != nil {
		return nil, err
	}

	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	scope := ws.ChannelScope(existing.ChannelID)
	unlock := s.locks.Lock(scope)
	defer unlock()

	existing.Content = req.Content
	existing.Emojis = req.Emojis
	if err := s.messageRepo.Update(ctx, existing); err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, errPermissionDenied
		}
		return nil, err
	}

	s.hub.PublishToScope(scope, ws.Event{Op: ws.OpUpdatedMessage, Data: existing})
	return existing, nil
}

// Delete removes a message the caller owns and pushes its id.
func (s *messageService) Delete(ctx context.Context, userID, messageID int64) error {
	existing, err := s.ownedMessage(ctx, userID, messageID)
	if err != nil {
		return err
	}

	scope := ws.ChannelScope(existing.ChannelID)
	unlock := s.locks.Lock(scope)
	defer unlock()

	if err := s.messageRepo.Delete(ctx, messageID); err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return errPermissionDenied
		}
		return err
	}

	s.hub.PublishToScope(scope, ws.Event{Op: ws.OpDeletedMessage, Data: models.DeletedMessage{ID: messageID}})
	return nil
}

// errPermissionDenied is returned for a missing message as well as for one
// owned by someone else, so callers cannot learn which ids exist.
var errPermissionDenied = fmt.Errorf("%w: permission denied", pkg.ErrForbidden)

func (s *messageService) ownedMessage(ctx context.Context, userID, messageID int64) (*models.Message, error) {
	message, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, errPermissionDenied
		}
		return nil, err
	}
	if !s.policy.CanModifyMessage(userID, message) {
		return nil, errPermissionDenied
	}
	return message, nil
}

func (s *messageService) textChannel(ctx context.Context, channelID int64) (*models.Channel, error) {
	channel, err := s.channelRepo.GetByID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if !channel.IsText() {
		return nil, fmt.Errorf("%w: not a text channel", pkg.ErrBadRequest)
	}
	return channel, nil
}
