package ws

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// writeWait bounds a single frame write.
	writeWait = 10 * time.Second

	// pongWait is how long the connection may stay silent. Any inbound
	// frame, heartbeat or pong extends it.
	pongWait = 90 * time.Second

	// pingPeriod must be shorter than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize caps inbound frames. Content travels over HTTP; the
	// socket only carries small control ops.
	maxMessageSize = 4096

	// sendBufferSize is the per-client outbound queue. When it fills up the
	// client is dropped.
	sendBufferSize = 256

	joinCheckTimeout = 5 * time.Second
)

// Client is one WebSocket connection.
//
// ReadPump and WritePump each run in their own goroutine since gorilla
// allows one concurrent reader and one concurrent writer.
//
// Lifecycle: the handler registers the client with the hub, starts
// WritePump and then blocks in ReadPump. ReadPump turns inbound frames into
// hub requests (join-channel) or direct replies (heartbeat_ack). When the
// peer goes away or stops answering pings, ReadPump unregisters the client;
// the hub then closes send, which ends WritePump and the connection.
type Client struct {
	id     string
	hub    *Hub
	conn   *websocket.Conn
	userID int64 // 0 for an anonymous connection

	// access validates joins; nil accepts every join.
	access ChannelAccess

	send chan []byte

	// scopes is read and written by the hub's Run goroutine only.
	scopes map[string]struct{}

	mu sync.Mutex // serializes conn writes
}

func newClient(hub *Hub, conn *websocket.Conn, userID int64, access ChannelAccess) *Client {
	return &Client{
		id:     uuid.NewString(),
		hub:    hub,
		conn:   conn,
		userID: userID,
		access: access,
		send:   make(chan []byte, sendBufferSize),
		scopes: make(map[string]struct{}),
	}
}

// ReadPump reads client ops until the connection fails, then unregisters.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.extendDeadline(); err != nil {
		log.Printf("[ws] failed to set read deadline for client %s: %v", c.id, err)
		return
	}
	c.conn.SetPongHandler(func(string) error { return c.extendDeadline() })

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] unexpected close for client %s: %v", c.id, err)
			}
			return
		}

		if err := c.extendDeadline(); err != nil {
			return
		}

		var event inboundEvent
		if err := json.Unmarshal(raw, &event); err != nil {
			log.Printf("[ws] invalid frame from client %s: %v", c.id, err)
			continue
		}

		c.handleEvent(event)
	}
}

func (c *Client) handleEvent(event inboundEvent) {
	switch event.Op {
	case OpHeartbeat:
		c.hub.sendTo(c, Event{Op: OpHeartbeatAck})

	case OpJoinChannel:
		c.handleJoin(event.Data)

	default:
		log.Printf("[ws] unknown op from client %s: %s", c.id, event.Op)
	}
}

// handleJoin puts the connection into the channel's scope. Invalid or
// rejected joins are logged and otherwise ignored; the push channel never
// answers with errors.
func (c *Client) handleJoin(data json.RawMessage) {
	channelID, err := parseChannelID(data)
	if err != nil {
		log.Printf("[ws] bad join-channel from client %s: %v", c.id, err)
		return
	}

	if c.access != nil {
		ctx, cancel := context.WithTimeout(context.Background(), joinCheckTimeout)
		defer cancel()

		ok, err := c.access.CanJoin(ctx, c.userID, channelID)
		if err != nil {
			log.Printf("[ws] join check failed for client %s channel %d: %v", c.id, channelID, err)
			return
		}
		if !ok {
			log.Printf("[ws] join rejected: user=%d channel=%d", c.userID, channelID)
			return
		}
	}

	c.hub.Join(c, ChannelScope(channelID))
}

// parseChannelID accepts a JSON number or a numeric string.
func parseChannelID(data json.RawMessage) (int64, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return 0, fmt.Errorf("missing channel id")
	}

	var raw string
	if data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return 0, err
		}
	} else {
		raw = string(data)
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid channel id %q", raw)
	}
	return id, nil
}

func (c *Client) extendDeadline() error {
	return c.conn.SetReadDeadline(time.Now().Add(pongWait))
}

// WritePump writes queued frames and periodic pings. It exits when the hub
// closes the send channel or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				c.writeMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.writeMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.writeMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) writeMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}
