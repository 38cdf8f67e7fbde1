// Package models holds the domain types shared by every layer.
//
// Each struct mirrors a table (or a joined view of one) and doubles as the
// JSON shape used by the HTTP API and the push channel. `json:"-"` keeps
// secrets such as password hashes out of every response.
package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// User is a registered account together with its audio preferences.
type User struct {
	ID                 int64     `json:"id"`
	Username           string    `json:"username"`
	PasswordHash       string    `json:"-"`
	Nickname           *string   `json:"nickname"`
	AvatarURL          *string   `json:"avatar_url"`
	AudioInput         string    `json:"audio_input"`
	AudioOutput        string    `json:"audio_output"`
	MicSensitivity     int       `json:"mic_sensitivity"`
	AutomaticVoiceGain int       `json:"automatic_voice_gain"`
	SpeakerVolume      int       `json:"speaker_volume"`
	MicVolume          int       `json:"mic_volume"`
	CreatedAt          time.Time `json:"created_at"`
}

// PublicUser is the profile other members are allowed to see.
type PublicUser struct {
	ID        int64   `json:"id"`
	Username  string  `json:"username"`
	Nickname  *string `json:"nickname"`
	AvatarURL *string `json:"avatar_url"`
}

// Public strips the account down to its public profile.
func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		Nickname:  u.Nickname,
		AvatarURL: u.AvatarURL,
	}
}

// CreateUserRequest is the registration payload.
type CreateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
}

// Validate trims the username and checks the minimum credential rules.
//   - Username: required, at most 32 characters
//   - Password: at least 6 characters
func (r *CreateUserRequest) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	if r.Username == "" {
		return fmt.Errorf("username is required")
	}
	if utf8.RuneCountInString(r.Username) > 32 {
		return fmt.Errorf("username must be at most 32 characters")
	}
	if utf8.RuneCountInString(r.Password) < 6 {
		return fmt.Errorf("password must be at least 6 characters")
	}

	r.Nickname = strings.TrimSpace(r.Nickname)
	if utf8.RuneCountInString(r.Nickname) > 32 {
		return fmt.Errorf("nickname must be at most 32 characters")
	}
	return nil
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate checks that both credentials are present.
func (r *LoginRequest) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	if r.Username == "" {
		return fmt.Errorf("username is required")
	}
	if r.Password == "" {
		return fmt.Errorf("password is required")
	}
	return nil
}

// UpdateProfileRequest is a partial profile update.
// A nil field leaves the stored value untouched.
type UpdateProfileRequest struct {
	Nickname           *string `json:"nickname"`
	AvatarURL          *string `json:"-"` // set from the uploaded avatar file, never from the body
	AudioInput         *string `json:"audio_input"`
	AudioOutput        *string `json:"audio_output"`
	MicSensitivity     *int    `json:"mic_sensitivity"`
	AutomaticVoiceGain *int    `json:"automatic_voice_gain"`
	SpeakerVolume      *int    `json:"speaker_volume"`
	MicVolume          *int    `json:"mic_volume"`
}

// Validate checks the ranges of the fields that were provided.
func (r *UpdateProfileRequest) Validate() error {
	if r.Nickname != nil {
		trimmed := strings.TrimSpace(*r.Nickname)
		r.Nickname = &trimmed
		if utf8.RuneCountInString(trimmed) > 32 {
			return fmt.Errorf("nickname must be at most 32 characters")
		}
	}

	percent := map[string]*int{
		"mic_sensitivity": r.MicSensitivity,
		"speaker_volume":  r.SpeakerVolume,
		"mic_volume":      r.MicVolume,
	}
	for name, v := range percent {
		if v != nil && (*v < 0 || *v > 100) {
			return fmt.Errorf("%s must be between 0 and 100", name)
		}
	}

	if r.AutomaticVoiceGain != nil && *r.AutomaticVoiceGain != 0 && *r.AutomaticVoiceGain != 1 {
		return fmt.Errorf("automatic_voice_gain must be 0 or 1")
	}
	return nil
}

// SeedUser is one entry of the bulk user import file.
type SeedUser struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Nickname string `yaml:"nickname"`
}
