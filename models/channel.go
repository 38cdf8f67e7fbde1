package models

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ChannelType is the immutable kind of a channel.
type ChannelType string

const (
	ChannelTypeText  ChannelType = "text"
	ChannelTypeVoice ChannelType = "voice"
)

// Voice channel limits accepted by a settings update.
const (
	MaxVoiceUsers  = 99
	MinBitrateKbps = 8
	MaxBitrateKbps = 384
)

// Channel is a text or voice channel of a server.
//
// MaxUsers, BitrateKbps and Password only mean something for voice
// channels. The password is stored (optionally encrypted) but never
// serialized; clients only learn whether one is set.
type Channel struct {
	ID          int64       `json:"id"`
	ServerID    int64       `json:"server_id"`
	Name        string      `json:"name"`
	Type        ChannelType `json:"type"`
	MaxUsers    int         `json:"max_users"`
	BitrateKbps int         `json:"bitrate_kbps"`
	Password    string      `json:"-"`
	HasPassword bool        `json:"has_password"`
}

// IsText reports whether messages may be posted to the channel.
func (c *Channel) IsText() bool { return c.Type == ChannelTypeText }

// IsVoice reports whether the channel carries voice presence.
func (c *Channel) IsVoice() bool { return c.Type == ChannelTypeVoice }

// VoiceSettingsRequest updates a voice channel's metadata.
//
// Bitrate is accepted both as "bitrate" and "bitrate_kbps".
// A nil field keeps the stored value; an empty password clears it.
type VoiceSettingsRequest struct {
	Name        *string `json:"name"`
	MaxUsers    *int    `json:"max_users"`
	Bitrate     *int    `json:"bitrate"`
	BitrateKbps *int    `json:"bitrate_kbps"`
	Password    *string `json:"password"`
}

// Validate normalizes the bitrate alias and checks the ranges.
func (r *VoiceSettingsRequest) Validate() error {
	if r.Bitrate == nil {
		r.Bitrate = r.BitrateKbps
	}

	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		r.Name = &name
		nameLen := utf8.RuneCountInString(name)
		if nameLen < 1 || nameLen > 100 {
			return fmt.Errorf("channel name must be between 1 and 100 characters")
		}
	}

	if r.MaxUsers != nil && (*r.MaxUsers < 1 || *r.MaxUsers > MaxVoiceUsers) {
		return fmt.Errorf("max_users must be between 1 and %d", MaxVoiceUsers)
	}

	if r.Bitrate != nil && (*r.Bitrate < MinBitrateKbps || *r.Bitrate > MaxBitrateKbps) {
		return fmt.Errorf("bitrate must be between %d and %d kbps", MinBitrateKbps, MaxBitrateKbps)
	}

	if r.Password != nil && utf8.RuneCountInString(*r.Password) > 64 {
		return fmt.Errorf("password must be at most 64 characters")
	}
	return nil
}

// Apply copies the provided fields onto the channel.
func (r *VoiceSettingsRequest) Apply(ch *Channel) {
	if r.Name != nil {
		ch.Name = *r.Name
	}
	if r.MaxUsers != nil {
		ch.MaxUsers = *r.MaxUsers
	}
	if r.Bitrate != nil {
		ch.BitrateKbps = *r.Bitrate
	}
	if r.Password != nil {
		ch.Password = *r.Password
	}
	ch.HasPassword = ch.Password != ""
}
