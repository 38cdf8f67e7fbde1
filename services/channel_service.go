package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/akinalp/gaduly/models"
	"github.com/akinalp/gaduly/pkg"
	"github.com/akinalp/gaduly/pkg/cache"
	"github.com/akinalp/gaduly/pkg/crypto"
	"github.com/akinalp/gaduly/pkg/keylock"
	"github.com/akinalp/gaduly/repository"
	"github.com/akinalp/gaduly/ws"
)

// joinCacheTTL bounds how long a join decision is reused. Membership only
// grows, so a stale "yes" is harmless.
const joinCacheTTL = 30 * time.Second

// ChannelService serves the workspace snapshot, voice channel settings and
// join checks of the realtime gateway.
type ChannelService interface {
	Bootstrap(ctx context.Context, userID int64) (*models.Bootstrap, error)
	UpdateVoiceSettings(ctx context.Context, channelID int64, req *models.VoiceSettingsRequest) (*models.Channel, error)
	// CanJoin satisfies ws.ChannelAccess.
	CanJoin(ctx context.Context, userID, channelID int64) (bool, error)
	Close()
}

type joinKey struct {
	userID    int64
	channelID int64
}

type channelService struct {
	channelRepo repository.ChannelRepository
	serverRepo  repository.ServerRepository
	userRepo    repository.UserRepository
	roleRepo    repository.RoleRepository
	hub         ws.EventPublisher
	locks       *keylock.Locker
	// encryptionKey encrypts voice channel passwords at rest; nil stores
	// them as given.
	encryptionKey []byte
	joins         *cache.TTLCache[joinKey, bool]
}

// NewChannelService is the constructor.
func NewChannelService(
	channelRepo repository.ChannelRepository,
	serverRepo repository.ServerRepository,
	userRepo repository.UserRepository,
	roleRepo repository.RoleRepository,
	hub ws.EventPublisher,
	locks *keylock.Locker,
	encryptionKey []byte,
) ChannelService {
	return &channelService{
		channelRepo:   channelRepo,
		serverRepo:    serverRepo,
		userRepo:      userRepo,
		roleRepo:      roleRepo,
		hub:           hub,
		locks:         locks,
		encryptionKey: encryptionKey,
		joins:         cache.New[joinKey, bool](joinCacheTTL, time.Minute),
	}
}

// Bootstrap returns everything a client loads after login.
func (s *channelService) Bootstrap(ctx context.Context, userID int64) (*models.Bootstrap, error) {
	servers, err := s.serverRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	channels, err := s.channelRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	me, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	roles, err := s.roleRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	return &models.Bootstrap{
		Servers:  servers,
		Channels: channels,
		Me:       me,
		Roles:    roles,
	}, nil
}

// UpdateVoiceSettings applies a partial settings update to a voice channel
// and announces the new channel to every connection.
func (s *channelService) UpdateVoiceSettings(ctx context.Context, channelID int64, req *models.VoiceSettingsRequest) (*models.Channel, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	scope := ws.ChannelScope(channelID)
	unlock := s.locks.Lock(scope)
	defer unlock()

	channel, err := s.channelRepo.GetByID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if !channel.IsVoice() {
		return nil, fmt.Errorf("%w: voice settings require a voice channel", pkg.ErrBadRequest)
	}

	req.Apply(channel)

	if req.Password != nil && *req.Password != "" && s.encryptionKey != nil {
		encrypted, err := crypto.Encrypt(*req.Password, s.encryptionKey)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt channel password: %w", err)
		}
		channel.Password = encrypted
	}

	if err := s.channelRepo.UpdateVoiceSettings(ctx, channel); err != nil {
		return nil, err
	}

	s.hub.PublishToAll(ws.Event{Op: ws.OpVoiceChannelUpdated, Data: channel})
	return channel, nil
}

// CanJoin allows a join when the channel exists and the user is a member of
// its server.
func (s *channelService) CanJoin(ctx context.Context, userID, channelID int64) (bool, error) {
	if userID == 0 {
		return false, nil
	}

	key := joinKey{userID: userID, channelID: channelID}
	if ok, hit := s.joins.Get(key); hit {
		return ok, nil
	}

	channel, err := s.channelRepo.GetByID(ctx, channelID)
	if errors.Is(err, pkg.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	ok, err := s.serverRepo.IsMember(ctx, channel.ServerID, userID)
	if err != nil {
		return false, err
	}
	if ok {
		s.joins.Set(key, true)
	}
	return ok, nil
}

func (s *channelService) Close() {
	s.joins.Close()
}
