package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxMessageLength caps the content of a single message.
const MaxMessageLength = 4000

// Message is a chat message joined with its author's display fields.
//
// The same struct is the HTTP response body and the push payload of
// new-message and updated-message, so both serialize identically.
type Message struct {
	ID        int64      `json:"id"`
	ChannelID int64      `json:"channel_id"`
	UserID    int64      `json:"user_id"`
	Content   string     `json:"content"`
	ImageURL  *string    `json:"image_url"`
	Emojis    string     `json:"emojis"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`

	// Author fields, filled by a JOIN on users.
	Username  string  `json:"username"`
	Nickname  *string `json:"nickname"`
	AvatarURL *string `json:"avatar_url"`
}

// DeletedMessage is the payload of deleted-message.
type DeletedMessage struct {
	ID int64 `json:"id"`
}

// CreateMessageRequest is a new message. ImageURL is set by the handler
// after the optional image upload was stored.
type CreateMessageRequest struct {
	Content  string  `json:"content"`
	Emojis   string  `json:"emojis"`
	ImageURL *string `json:"-"`
}

// Validate requires either text or an image and caps the lengths.
func (r *CreateMessageRequest) Validate() error {
	if strings.TrimSpace(r.Content) == "" && r.ImageURL == nil {
		return fmt.Errorf("message content or image is required")
	}
	return validateMessageBody(r.Content, r.Emojis)
}

// UpdateMessageRequest replaces the text and emoji annotation of a message.
type UpdateMessageRequest struct {
	Content string `json:"content"`
	Emojis  string `json:"emojis"`
}

// Validate caps the lengths. Empty content is allowed so an image-only
// message can drop its caption.
func (r *UpdateMessageRequest) Validate() error {
	return validateMessageBody(r.Content, r.Emojis)
}

func validateMessageBody(content, emojis string) error {
	if utf8.RuneCountInString(content) > MaxMessageLength {
		return fmt.Errorf("message content must be at most %d characters", MaxMessageLength)
	}
	if utf8.RuneCountInString(emojis) > 256 {
		return fmt.Errorf("emojis must be at most 256 characters")
	}
	return nil
}
