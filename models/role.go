package models

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Permission names stored on a role. They are carried for the client's
// benefit; request authorization does not consult them.
const (
	PermManageServer   = "MANAGE_SERVER"
	PermManageChannels = "MANAGE_CHANNELS"
	PermManageRoles    = "MANAGE_ROLES"
	PermViewChannel    = "VIEW_CHANNEL"
	PermSendMessages   = "SEND_MESSAGES"
	PermManageMessages = "MANAGE_MESSAGES"
	PermConnect        = "CONNECT"
	PermSpeak          = "SPEAK"
	PermMuteMembers    = "MUTE_MEMBERS"
	PermDeafenMembers  = "DEAFEN_MEMBERS"
)

// KnownPermissions lists every permission name a role may carry.
var KnownPermissions = []string{
	PermManageServer,
	PermManageChannels,
	PermManageRoles,
	PermViewChannel,
	PermSendMessages,
	PermManageMessages,
	PermConnect,
	PermSpeak,
	PermMuteMembers,
	PermDeafenMembers,
}

// Role is a named permission set inside a server.
// Permissions is persisted as a JSON array in a TEXT column.
type Role struct {
	ID          int64    `json:"id"`
	ServerID    int64    `json:"server_id"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

// CreateRoleRequest is the payload of POST /api/roles.
type CreateRoleRequest struct {
	ServerID    int64    `json:"server_id"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

// Validate checks the role name and rejects unknown permission names.
// A missing permission list becomes an empty one.
func (r *CreateRoleRequest) Validate() error {
	if r.ServerID <= 0 {
		return fmt.Errorf("server_id is required")
	}

	r.Name = strings.TrimSpace(r.Name)
	nameLen := utf8.RuneCountInString(r.Name)
	if nameLen < 1 || nameLen > 64 {
		return fmt.Errorf("role name must be between 1 and 64 characters")
	}

	if r.Permissions == nil {
		r.Permissions = []string{}
	}
	for _, p := range r.Permissions {
		if !isKnownPermission(p) {
			return fmt.Errorf("unknown permission: %s", p)
		}
	}
	return nil
}

func isKnownPermission(name string) bool {
	for _, p := range KnownPermissions {
		if p == name {
			return true
		}
	}
	return false
}
