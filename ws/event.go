// Package ws is the realtime push channel.
//
//   - Hub: the single goroutine that owns every connection and scope
//   - Client: one WebSocket connection and the scopes it joined
//   - Handler: the GET /ws upgrade endpoint
//
// Delivery flow:
//  1. a client sends join-channel and enters scope channel-<id>
//  2. an HTTP mutation commits and the service calls PublishToScope
//  3. the hub stamps seq, encodes once and queues the bytes on every client in the scope
//  4. each client's WritePump writes the frame
//
// Nothing is replayed: a client only sees events published after it joined.
package ws

import (
	"encoding/json"
	"fmt"
)

// Event is the frame exchanged over the socket.
//
// Seq increases by one for every outbound event of the process, so a
// client can spot a gap after a reconnect.
type Event struct {
	Op   string `json:"op"`
	Data any    `json:"d,omitempty"`
	Seq  int64  `json:"seq,omitempty"`
}

// inboundEvent keeps d raw; its shape depends on the op.
type inboundEvent struct {
	Op   string          `json:"op"`
	Data json.RawMessage `json:"d"`
}

// Client → server
const (
	OpHeartbeat   = "heartbeat"
	OpJoinChannel = "join-channel"
)

// Server → client
const (
	OpHeartbeatAck        = "heartbeat_ack"
	OpNewMessage          = "new-message"
	OpUpdatedMessage      = "updated-message"
	OpDeletedMessage      = "deleted-message"
	OpVoiceChannelUpdated = "voice-channel-updated"
	OpVoiceState          = "voice-state"
)

// ChannelScope names the delivery scope of a channel.
func ChannelScope(channelID int64) string {
	return fmt.Sprintf("channel-%d", channelID)
}
