package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Flag is a boolean that accepts the loose encodings clients send for
// mute toggles: JSON booleans, numbers (non-zero is true) and the strings
// "true", "1", "on" and "yes". null decodes to false.
type Flag bool

// UnmarshalJSON implements json.Unmarshaler.
func (f *Flag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	switch {
	case bytes.Equal(data, []byte("null")):
		*f = false
		return nil
	case bytes.Equal(data, []byte("true")):
		*f = true
		return nil
	case bytes.Equal(data, []byte("false")):
		*f = false
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = ParseFlag(s)
		return nil
	}

	n, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return err
	}
	*f = n != 0
	return nil
}

// ParseFlag coerces a form or query value the same way UnmarshalJSON does.
func ParseFlag(s string) Flag {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "on", "yes":
		return true
	}
	if n, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		return n != 0
	}
	return false
}

// VoiceToggleRequest sets the caller's mute state in a voice channel.
// Absent fields decode to false (unmuted), never "unchanged".
type VoiceToggleRequest struct {
	MutedMic Flag `json:"muted_mic"`
	MutedAll Flag `json:"muted_all"`
}

// VoicePresence is the stored mute state of a user in a voice channel.
type VoicePresence struct {
	ChannelID int64 `json:"channel_id"`
	UserID    int64 `json:"user_id"`
	MutedMic  bool  `json:"muted_mic"`
	MutedAll  bool  `json:"muted_all"`
}

// VoiceState is the payload of voice-state.
type VoiceState struct {
	UserID    int64 `json:"userId"`
	ChannelID int64 `json:"channelId"`
	MutedMic  bool  `json:"muted_mic"`
	MutedAll  bool  `json:"muted_all"`
}

// State converts a stored presence row into its push payload.
func (p *VoicePresence) State() *VoiceState {
	return &VoiceState{
		UserID:    p.UserID,
		ChannelID: p.ChannelID,
		MutedMic:  p.MutedMic,
		MutedAll:  p.MutedAll,
	}
}
