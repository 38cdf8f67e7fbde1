package models

// Server is the single workspace every channel and member belongs to.
// One is seeded on first boot; the API never creates more.
type Server struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ServerMember links a user to a server with an optional role.
type ServerMember struct {
	ServerID int64  `json:"server_id"`
	UserID   int64  `json:"user_id"`
	RoleID   *int64 `json:"role_id"`
}

// Bootstrap is the initial state a client loads right after login.
type Bootstrap struct {
	Servers  []Server  `json:"servers"`
	Channels []Channel `json:"channels"`
	Me       *User     `json:"me"`
	Roles    []Role    `json:"roles"`
}
