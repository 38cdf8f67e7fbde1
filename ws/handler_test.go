package ws

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/gaduly/models"
)

type fakeTokens struct{}

func (fakeTokens) ValidateAccessToken(token string) (*models.TokenClaims, error) {
	if token != "good" {
		return nil, errors.New("bad token")
	}
	return &models.TokenClaims{UserID: 9, Username: "alice"}, nil
}

// fakeAccess allows only channel 1.
type fakeAccess struct{}

func (fakeAccess) CanJoin(_ context.Context, userID, channelID int64) (bool, error) {
	return userID == 9 && channelID == 1, nil
}

func serve(t *testing.T, requireAuth bool) (*Hub, string) {
	t.Helper()
	hub := startHub(t)
	handler := NewHandler(hub, fakeTokens{}, fakeAccess{}, requireAuth)
	srv := httptest.NewServer(http.HandlerFunc(handler.HandleConnection))
	t.Cleanup(srv.Close)
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func TestHandlerAnonymousJoinAndReceive(t *testing.T) {
	hub, url := serve(t, false)
	conn := dial(t, url)

	require.NoError(t, conn.WriteJSON(map[string]any{"op": OpJoinChannel, "d": "1"}))
	assert.Eventually(t, func() bool { return hub.ScopeSize(ChannelScope(1)) == 1 },
		time.Second, 10*time.Millisecond)

	hub.PublishToScope(ChannelScope(1), Event{Op: OpNewMessage, Data: map[string]any{"id": 1, "content": "hi"}})

	f := readFrame(t, conn)
	assert.Equal(t, OpNewMessage, f.Op)
	assert.JSONEq(t, `{"id":1,"content":"hi"}`, string(f.Data))
}

func TestHandlerHeartbeat(t *testing.T) {
	_, url := serve(t, false)
	conn := dial(t, url)

	require.NoError(t, conn.WriteJSON(map[string]any{"op": OpHeartbeat}))
	assert.Equal(t, OpHeartbeatAck, readFrame(t, conn).Op)
}

func TestHandlerDisconnectLeavesScopes(t *testing.T) {
	hub, url := serve(t, false)
	conn := dial(t, url)

	require.NoError(t, conn.WriteJSON(map[string]any{"op": OpJoinChannel, "d": 1}))
	require.Eventually(t, func() bool { return hub.ScopeSize(ChannelScope(1)) == 1 },
		time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.ScopeSize(ChannelScope(1)) == 0 },
		time.Second, 10*time.Millisecond)
}

func TestHandlerRequireAuth(t *testing.T) {
	t.Run("missing token", func(t *testing.T) {
		_, url := serve(t, true)
		_, resp, err := websocket.DefaultDialer.Dial(url, nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("invalid token", func(t *testing.T) {
		_, url := serve(t, true)
		_, resp, err := websocket.DefaultDialer.Dial(url+"?token=nope", nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("joins are checked", func(t *testing.T) {
		hub, url := serve(t, true)
		conn := dial(t, url+"?token=good")

		require.NoError(t, conn.WriteJSON(map[string]any{"op": OpJoinChannel, "d": 2}))
		require.NoError(t, conn.WriteJSON(map[string]any{"op": OpJoinChannel, "d": 1}))

		assert.Eventually(t, func() bool { return hub.ScopeSize(ChannelScope(1)) == 1 },
			time.Second, 10*time.Millisecond)
		assert.Equal(t, 0, hub.ScopeSize(ChannelScope(2)))
	})
}
