package ws

import (
	"context"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/akinalp/gaduly/models"
)

// TokenValidator verifies the ?token= credential of the handshake.
// Declared here instead of importing services, which already imports ws.
type TokenValidator interface {
	ValidateAccessToken(tokenString string) (*models.TokenClaims, error)
}

// ChannelAccess decides whether a user may join a channel's scope.
type ChannelAccess interface {
	CanJoin(ctx context.Context, userID, channelID int64) (bool, error)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin policy is enforced by CORS on the HTTP API; browsers may
	// connect from any origin the client is served from.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler serves GET /ws.
type Handler struct {
	hub         *Hub
	tokens      TokenValidator
	access      ChannelAccess
	requireAuth bool
}

// NewHandler creates the upgrade handler.
//
// With requireAuth false the handshake is anonymous and every join is
// accepted. With requireAuth true the handshake needs a valid ?token= and
// each join is checked with access.
func NewHandler(hub *Hub, tokens TokenValidator, access ChannelAccess, requireAuth bool) *Handler {
	return &Handler{
		hub:         hub,
		tokens:      tokens,
		access:      access,
		requireAuth: requireAuth,
	}
}

// HandleConnection upgrades the request and runs the client until it
// disconnects.
//
// Browsers cannot set headers on a WebSocket handshake, so the token
// travels as a query parameter: ws://host/ws?token=JWT
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	var userID int64
	token := r.URL.Query().Get("token")

	if h.requireAuth {
		if token == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}
		claims, err := h.tokens.ValidateAccessToken(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		userID = claims.UserID
	} else if token != "" && h.tokens != nil {
		// anonymous mode still records who connected when it can
		if claims, err := h.tokens.ValidateAccessToken(token); err == nil {
			userID = claims.UserID
		}
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed: %v", err)
		return
	}

	var access ChannelAccess
	if h.requireAuth {
		access = h.access
	}
	client := newClient(h.hub, conn, userID, access)

	if !h.hub.Register(client) {
		conn.Close()
		return
	}

	go client.WritePump()
	client.ReadPump() // blocks until the connection closes
}
