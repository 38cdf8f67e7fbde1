package main

import (
	"net/http"

	"github.com/akinalp/gaduly/middleware"
	"github.com/akinalp/gaduly/repository"
	"github.com/akinalp/gaduly/services"
)

func initRoutes(
	mux *http.ServeMux,
	h *Handlers,
	authService services.AuthService,
	userRepo repository.UserRepository,
) {
	authMw := middleware.NewAuthMiddleware(authService, userRepo)

	auth := func(handler http.HandlerFunc) http.Handler {
		return authMw.Require(http.HandlerFunc(handler))
	}

	// ─── Health ───
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok"))
	})

	// ─── Auth (public) ───
	mux.HandleFunc("POST /api/auth/register", h.Auth.Register)
	mux.HandleFunc("POST /api/auth/login", h.Auth.Login)

	// ─── Workspace ───
	mux.Handle("GET /api/bootstrap", auth(h.Channel.Bootstrap))
	mux.Handle("PUT /api/me", auth(h.Member.UpdateProfile))
	mux.Handle("GET /api/roles", auth(h.Role.List))
	mux.Handle("POST /api/roles", auth(h.Role.Create))

	// ─── Messages ───
	mux.Handle("GET /api/channels/{id}/messages", auth(h.Message.List))
	mux.Handle("POST /api/channels/{id}/messages", auth(h.Message.Create))
	mux.Handle("PUT /api/messages/{id}", auth(h.Message.Update))
	mux.Handle("DELETE /api/messages/{id}", auth(h.Message.Delete))

	// ─── Voice ───
	mux.Handle("PUT /api/channels/{id}/voice-settings", auth(h.Channel.UpdateVoiceSettings))
	mux.Handle("POST /api/channels/{id}/voice-toggle", auth(h.Voice.Toggle))
	mux.Handle("GET /api/channels/{id}/voice-presence", auth(h.Voice.Presence))

	// ─── Files & push channel ───
	mux.HandleFunc("GET /uploads/{name}", h.Uploads.Serve)
	mux.HandleFunc("GET /ws", h.WS.HandleConnection)
}
