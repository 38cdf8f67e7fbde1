package main

import (
	"fmt"

	"github.com/akinalp/gaduly/config"
	"github.com/akinalp/gaduly/database"
	"github.com/akinalp/gaduly/pkg/crypto"
	"github.com/akinalp/gaduly/pkg/keylock"
	"github.com/akinalp/gaduly/services"
	"github.com/akinalp/gaduly/ws"
)

// Services groups the service layer.
type Services struct {
	Auth    services.AuthService
	Message services.MessageService
	Channel services.ChannelService
	Voice   services.VoiceService
	Member  services.MemberService
	Role    services.RoleService
	Upload  services.UploadService
}

func initServices(db *database.DB, repos *Repositories, hub ws.EventPublisher, cfg *config.Config) (*Services, error) {
	var channelKey []byte
	if cfg.Crypto.ChannelKey != "" {
		key, err := crypto.DeriveKey(cfg.Crypto.ChannelKey)
		if err != nil {
			return nil, fmt.Errorf("invalid CHANNEL_SECRET_KEY: %w", err)
		}
		channelKey = key
	}

	// One lock set for every service that publishes to channel scopes.
	locks := keylock.New()

	return &Services{
		Auth:    services.NewAuthService(db.Conn, repos.User, cfg.JWT.Secret, cfg.JWT.ExpiryHours),
		Message: services.NewMessageService(repos.Message, repos.Channel, hub, locks, services.OwnershipPolicy{}),
		Channel: services.NewChannelService(repos.Channel, repos.Server, repos.User, repos.Role, hub, locks, channelKey),
		Voice:   services.NewVoiceService(repos.Presence, repos.Channel, hub, locks),
		Member:  services.NewMemberService(repos.User),
		Role:    services.NewRoleService(repos.Role),
		Upload:  services.NewUploadService(cfg.Upload.Dir, cfg.Upload.MaxSize),
	}, nil
}
