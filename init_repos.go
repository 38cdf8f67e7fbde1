package main

import (
	"database/sql"

	"github.com/akinalp/gaduly/repository"
)

// Repositories groups every repository bound to the connection pool.
type Repositories struct {
	User     repository.UserRepository
	Server   repository.ServerRepository
	Role     repository.RoleRepository
	Channel  repository.ChannelRepository
	Message  repository.MessageRepository
	Presence repository.VoicePresenceRepository
}

func initRepositories(conn *sql.DB) *Repositories {
	return &Repositories{
		User:     repository.NewSQLiteUserRepo(conn),
		Server:   repository.NewSQLiteServerRepo(conn),
		Role:     repository.NewSQLiteRoleRepo(conn),
		Channel:  repository.NewSQLiteChannelRepo(conn),
		Message:  repository.NewSQLiteMessageRepo(conn),
		Presence: repository.NewSQLiteVoicePresenceRepo(conn),
	}
}
