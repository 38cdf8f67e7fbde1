package main

import (
	"github.com/akinalp/gaduly/config"
	"github.com/akinalp/gaduly/handlers"
	"github.com/akinalp/gaduly/ws"
)

// Handlers groups the HTTP handlers.
type Handlers struct {
	Auth    *handlers.AuthHandler
	Channel *handlers.ChannelHandler
	Message *handlers.MessageHandler
	Voice   *handlers.VoiceHandler
	Member  *handlers.MemberHandler
	Role    *handlers.RoleHandler
	Uploads *handlers.UploadsHandler
	WS      *ws.Handler
}

func initHandlers(s *Services, limiters *Limiters, hub *ws.Hub, cfg *config.Config) *Handlers {
	return &Handlers{
		Auth:    handlers.NewAuthHandler(s.Auth, limiters.Login, cfg.Server.TrustProxy),
		Channel: handlers.NewChannelHandler(s.Channel),
		Message: handlers.NewMessageHandler(s.Message, s.Upload, limiters.Message, cfg.Upload.MaxSize),
		Voice:   handlers.NewVoiceHandler(s.Voice),
		Member:  handlers.NewMemberHandler(s.Member, s.Upload, cfg.Upload.MaxSize),
		Role:    handlers.NewRoleHandler(s.Role),
		Uploads: handlers.NewUploadsHandler(cfg.Upload.Dir),
		WS:      ws.NewHandler(hub, s.Auth, s.Channel, cfg.WS.RequireAuth),
	}
}
