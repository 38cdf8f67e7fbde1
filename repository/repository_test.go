package repository

import (
	"context"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/gaduly/database"
	"github.com/akinalp/gaduly/models"
	"github.com/akinalp/gaduly/pkg"
)

// Seeded by 002_seed.sql.
const (
	textChannelID  int64 = 1
	voiceChannelID int64 = 2
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()

	migrations, err := fs.Sub(database.EmbeddedMigrations, "migrations")
	require.NoError(t, err)

	db, err := database.New(filepath.Join(t.TempDir(), "gaduly.db"), migrations)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func createUser(t *testing.T, repo UserRepository, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username, PasswordHash: "hash"}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func TestUserRepo(t *testing.T) {
	db := openTestDB(t)
	repo := NewSQLiteUserRepo(db.Conn)
	ctx := context.Background()

	u := createUser(t, repo, "alice")
	assert.NotZero(t, u.ID)

	t.Run("duplicate username", func(t *testing.T) {
		err := repo.Create(ctx, &models.User{Username: "alice", PasswordHash: "x"})
		assert.ErrorIs(t, err, pkg.ErrAlreadyExists)
	})

	t.Run("defaults", func(t *testing.T) {
		got, err := repo.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)
		assert.Equal(t, "default", got.AudioInput)
		assert.Equal(t, 50, got.MicSensitivity)
		assert.Equal(t, 70, got.SpeakerVolume)
		assert.Nil(t, got.Nickname)
		assert.False(t, got.CreatedAt.IsZero())
	})

	t.Run("partial profile update", func(t *testing.T) {
		nick := "Ally"
		vol := 30
		require.NoError(t, repo.UpdateProfile(ctx, u.ID, &models.UpdateProfileRequest{
			Nickname:  &nick,
			MicVolume: &vol,
		}))

		got, err := repo.GetByID(ctx, u.ID)
		require.NoError(t, err)
		require.NotNil(t, got.Nickname)
		assert.Equal(t, "Ally", *got.Nickname)
		assert.Equal(t, 30, got.MicVolume)
		assert.Equal(t, 70, got.SpeakerVolume)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := repo.GetByID(ctx, 9999)
		assert.ErrorIs(t, err, pkg.ErrNotFound)
		err = repo.UpdateProfile(ctx, 9999, &models.UpdateProfileRequest{})
		assert.ErrorIs(t, err, pkg.ErrNotFound)
	})
}

func TestMessageRepo(t *testing.T) {
	db := openTestDB(t)
	users := NewSQLiteUserRepo(db.Conn)
	repo := NewSQLiteMessageRepo(db.Conn)
	ctx := context.Background()

	nick := "Bobby"
	author := &models.User{Username: "bob", PasswordHash: "h", Nickname: &nick}
	require.NoError(t, users.Create(ctx, author))

	first := &models.Message{ChannelID: textChannelID, UserID: author.ID, Content: "one"}
	require.NoError(t, repo.Create(ctx, first))
	second := &models.Message{ChannelID: textChannelID, UserID: author.ID, Content: "two", Emojis: ":)"}
	require.NoError(t, repo.Create(ctx, second))

	t.Run("create returns joined row", func(t *testing.T) {
		assert.Equal(t, "bob", first.Username)
		require.NotNil(t, first.Nickname)
		assert.Equal(t, "Bobby", *first.Nickname)
		assert.False(t, first.CreatedAt.IsZero())
		assert.Nil(t, first.UpdatedAt)
	})

	t.Run("list ascending by id", func(t *testing.T) {
		list, err := repo.ListByChannel(ctx, textChannelID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, first.ID, list[0].ID)
		assert.Equal(t, second.ID, list[1].ID)
		assert.Less(t, list[0].ID, list[1].ID)
	})

	t.Run("voice channel rejected", func(t *testing.T) {
		err := repo.Create(ctx, &models.Message{ChannelID: voiceChannelID, UserID: author.ID, Content: "x"})
		assert.ErrorIs(t, err, pkg.ErrBadRequest)
		assert.Contains(t, err.Error(), "text channel")
	})

	t.Run("update stamps updated_at", func(t *testing.T) {
		edit := &models.Message{ID: first.ID, Content: "edited", Emojis: "!"}
		require.NoError(t, repo.Update(ctx, edit))
		assert.Equal(t, "edited", edit.Content)
		assert.Equal(t, "bob", edit.Username)
		assert.NotNil(t, edit.UpdatedAt)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, second.ID))
		_, err := repo.GetByID(ctx, second.ID)
		assert.ErrorIs(t, err, pkg.ErrNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, second.ID), pkg.ErrNotFound)
	})
}

func TestVoicePresenceRepo(t *testing.T) {
	db := openTestDB(t)
	u := createUser(t, NewSQLiteUserRepo(db.Conn), "carol")
	repo := NewSQLiteVoicePresenceRepo(db.Conn)
	ctx := context.Background()

	t.Run("upsert is idempotent", func(t *testing.T) {
		p := &models.VoicePresence{ChannelID: voiceChannelID, UserID: u.ID, MutedMic: true}
		require.NoError(t, repo.Upsert(ctx, p))
		require.NoError(t, repo.Upsert(ctx, p))

		list, err := repo.ListByChannel(ctx, voiceChannelID)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.True(t, list[0].MutedMic)
		assert.False(t, list[0].MutedAll)
	})

	t.Run("upsert overwrites flags", func(t *testing.T) {
		require.NoError(t, repo.Upsert(ctx, &models.VoicePresence{ChannelID: voiceChannelID, UserID: u.ID, MutedAll: true}))
		got, err := repo.Get(ctx, voiceChannelID, u.ID)
		require.NoError(t, err)
		assert.False(t, got.MutedMic)
		assert.True(t, got.MutedAll)
	})

	t.Run("text channel rejected", func(t *testing.T) {
		err := repo.Upsert(ctx, &models.VoicePresence{ChannelID: textChannelID, UserID: u.ID})
		assert.ErrorIs(t, err, pkg.ErrBadRequest)
	})
}

func TestChannelRepo(t *testing.T) {
	db := openTestDB(t)
	repo := NewSQLiteChannelRepo(db.Conn)
	ctx := context.Background()

	channels, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, channels, 2)
	assert.Equal(t, models.ChannelTypeText, channels[0].Type)
	assert.Equal(t, models.ChannelTypeVoice, channels[1].Type)

	t.Run("update voice settings", func(t *testing.T) {
		ch, err := repo.GetByID(ctx, voiceChannelID)
		require.NoError(t, err)
		ch.Name = "Lounge"
		ch.BitrateKbps = 96
		ch.Password = "secret"
		require.NoError(t, repo.UpdateVoiceSettings(ctx, ch))

		got, err := repo.GetByID(ctx, voiceChannelID)
		require.NoError(t, err)
		assert.Equal(t, "Lounge", got.Name)
		assert.Equal(t, 96, got.BitrateKbps)
		assert.True(t, got.HasPassword)
	})

	t.Run("text channel rejected", func(t *testing.T) {
		ch, err := repo.GetByID(ctx, textChannelID)
		require.NoError(t, err)
		assert.ErrorIs(t, repo.UpdateVoiceSettings(ctx, ch), pkg.ErrBadRequest)
	})

	t.Run("missing channel", func(t *testing.T) {
		err := repo.UpdateVoiceSettings(ctx, &models.Channel{ID: 404, Name: "x"})
		assert.ErrorIs(t, err, pkg.ErrNotFound)
	})
}

func TestServerAndRoleRepo(t *testing.T) {
	db := openTestDB(t)
	servers := NewSQLiteServerRepo(db.Conn)
	roles := NewSQLiteRoleRepo(db.Conn)
	u := createUser(t, NewSQLiteUserRepo(db.Conn), "dave")
	ctx := context.Background()

	server, err := servers.GetFirst(ctx)
	require.NoError(t, err)

	role, err := roles.GetDefaultByServer(ctx, server.ID)
	require.NoError(t, err)
	assert.Equal(t, "Admin", role.Name)
	assert.Contains(t, role.Permissions, models.PermSendMessages)

	member := &models.ServerMember{ServerID: server.ID, UserID: u.ID, RoleID: &role.ID}
	require.NoError(t, servers.AddMember(ctx, member))
	require.NoError(t, servers.AddMember(ctx, member))

	ok, err := servers.IsMember(ctx, server.ID, u.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = servers.IsMember(ctx, server.ID, u.ID+1)
	require.NoError(t, err)
	assert.False(t, ok)

	created := &models.Role{ServerID: server.ID, Name: "Guest"}
	require.NoError(t, roles.Create(ctx, created))
	assert.Equal(t, []string{}, created.Permissions)

	list, err := roles.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Guest", list[1].Name)
	assert.Empty(t, list[1].Permissions)

	assert.ErrorIs(t, roles.Create(ctx, &models.Role{ServerID: 999, Name: "Ghost"}), pkg.ErrNotFound)
}
