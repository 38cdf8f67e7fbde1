package services

import (
	"context"
	"fmt"

	"github.com/akinalp/gaduly/models"
	"github.com/akinalp/gaduly/pkg"
	"github.com/akinalp/gaduly/pkg/keylock"
	"github.com/akinalp/gaduly/repository"
	"github.com/akinalp/gaduly/ws"
)

// VoiceService stores per-user mute state in voice channels. Media
// transport is out of its hands; it only tracks and announces the flags.
type VoiceService interface {
	Toggle(ctx context.Context, userID, channelID int64, req *models.VoiceToggleRequest) (*models.VoiceState, error)
	ListPresence(ctx context.Context, channelID int64) ([]models.VoicePresence, error)
}

type voiceService struct {
	presenceRepo repository.VoicePresenceRepository
	channelRepo  repository.ChannelRepository
	hub          ws.EventPublisher
	locks        *keylock.Locker
}

// NewVoiceService is the constructor.
func NewVoiceService(
	presenceRepo repository.VoicePresenceRepository,
	channelRepo repository.ChannelRepository,
	hub ws.EventPublisher,
	locks *keylock.Locker,
) VoiceService {
	return &voiceService{
		presenceRepo: presenceRepo,
		channelRepo:  channelRepo,
		hub:          hub,
		locks:        locks,
	}
}

// Toggle overwrites both flags of the caller's row. Sending the same
// payload twice leaves the same single row.
func (s *voiceService) Toggle(ctx context.Context, userID, channelID int64, req *models.VoiceToggleRequest) (*models.VoiceState, error) {
	if _, err := s.voiceChannel(ctx, channelID); err != nil {
		return nil, err
	}

	presence := &models.VoicePresence{
		ChannelID: channelID,
		UserID:    userID,
		MutedMic:  bool(req.MutedMic),
		MutedAll:  bool(req.MutedAll),
	}

	scope := ws.ChannelScope(channelID)
	unlock := s.locks.Lock(scope)
	defer unlock()

	if err := s.presenceRepo.Upsert(ctx, presence); err != nil {
		return nil, err
	}

	state := presence.State()
	s.hub.PublishToScope(scope, ws.Event{Op: ws.OpVoiceState, Data: state})
	return state, nil
}

// ListPresence returns the stored mute state of a voice channel. Clients
// fetch it after joining since the push channel does not replay.
func (s *voiceService) ListPresence(ctx context.Context, channelID int64) ([]models.VoicePresence, error) {
	if _, err := s.voiceChannel(ctx, channelID); err != nil {
		return nil, err
	}
	return s.presenceRepo.ListByChannel(ctx, channelID)
}

func (s *voiceService) voiceChannel(ctx context.Context, channelID int64) (*models.Channel, error) {
	channel, err := s.channelRepo.GetByID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if !channel.IsVoice() {
		return nil, fmt.Errorf("%w: not a voice channel", pkg.ErrBadRequest)
	}
	return channel, nil
}
