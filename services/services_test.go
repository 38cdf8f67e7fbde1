package services

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/akinalp/gaduly/database"
	"github.com/akinalp/gaduly/models"
	"github.com/akinalp/gaduly/pkg"
	"github.com/akinalp/gaduly/pkg/crypto"
	"github.com/akinalp/gaduly/pkg/keylock"
	"github.com/akinalp/gaduly/repository"
	"github.com/akinalp/gaduly/ws"
)

func init() {
	bcryptCost = bcrypt.MinCost
}

// Seeded by the migrations.
const (
	textChannelID  int64 = 1
	voiceChannelID int64 = 2
)

type published struct {
	scope string // "" for PublishToAll
	event ws.Event
}

type fakePublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *fakePublisher) PublishToScope(scope string, event ws.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{scope: scope, event: event})
}

func (p *fakePublisher) PublishToAll(event ws.Event) {
	p.PublishToScope("", event)
}

func (p *fakePublisher) all() []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]published(nil), p.events...)
}

type fixture struct {
	db       *database.DB
	pub      *fakePublisher
	users    repository.UserRepository
	servers  repository.ServerRepository
	channels repository.ChannelRepository
	presence repository.VoicePresenceRepository
	auth     AuthService
	messages MessageService
	channel  ChannelService
	voice    VoiceService
}

func newFixture(t *testing.T, encryptionKey []byte) *fixture {
	t.Helper()

	migrations, err := fs.Sub(database.EmbeddedMigrations, "migrations")
	require.NoError(t, err)
	db, err := database.New(filepath.Join(t.TempDir(), "gaduly.db"), migrations)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &fixture{
		db:       db,
		pub:      &fakePublisher{},
		users:    repository.NewSQLiteUserRepo(db.Conn),
		servers:  repository.NewSQLiteServerRepo(db.Conn),
		channels: repository.NewSQLiteChannelRepo(db.Conn),
		presence: repository.NewSQLiteVoicePresenceRepo(db.Conn),
	}
	locks := keylock.New()
	roles := repository.NewSQLiteRoleRepo(db.Conn)

	f.auth = NewAuthService(db.Conn, f.users, "test-secret", 1)
	f.messages = NewMessageService(repository.NewSQLiteMessageRepo(db.Conn), f.channels, f.pub, locks, OwnershipPolicy{})
	f.channel = NewChannelService(f.channels, f.servers, f.users, roles, f.pub, locks, encryptionKey)
	f.voice = NewVoiceService(f.presence, f.channels, f.pub, locks)
	t.Cleanup(f.channel.Close)
	return f
}

func (f *fixture) register(t *testing.T, username string) int64 {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.auth.Register(ctx, &models.CreateUserRequest{Username: username, Password: "password1"}))
	u, err := f.users.GetByUsername(ctx, username)
	require.NoError(t, err)
	return u.ID
}

func TestAuthService(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	userID := f.register(t, "alice")

	t.Run("registration joins the workspace", func(t *testing.T) {
		server, err := f.servers.GetFirst(ctx)
		require.NoError(t, err)
		ok, err := f.servers.IsMember(ctx, server.ID, userID)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("duplicate username", func(t *testing.T) {
		err := f.auth.Register(ctx, &models.CreateUserRequest{Username: "alice", Password: "password1"})
		assert.ErrorIs(t, err, pkg.ErrAlreadyExists)
	})

	t.Run("invalid registration", func(t *testing.T) {
		err := f.auth.Register(ctx, &models.CreateUserRequest{Username: "bob", Password: "123"})
		assert.ErrorIs(t, err, pkg.ErrBadRequest)
	})

	t.Run("login and validate", func(t *testing.T) {
		res, err := f.auth.Login(ctx, &models.LoginRequest{Username: "alice", Password: "password1"})
		require.NoError(t, err)
		assert.Equal(t, userID, res.User.ID)
		assert.NotEmpty(t, res.Token)

		claims, err := f.auth.ValidateAccessToken(res.Token)
		require.NoError(t, err)
		assert.Equal(t, userID, claims.UserID)
		assert.Equal(t, "alice", claims.Username)
	})

	t.Run("wrong password and unknown user look the same", func(t *testing.T) {
		_, errWrong := f.auth.Login(ctx, &models.LoginRequest{Username: "alice", Password: "nope-nope"})
		_, errUnknown := f.auth.Login(ctx, &models.LoginRequest{Username: "ghost", Password: "nope-nope"})
		assert.ErrorIs(t, errWrong, pkg.ErrUnauthorized)
		assert.ErrorIs(t, errUnknown, pkg.ErrUnauthorized)
		assert.Equal(t, errWrong.Error(), errUnknown.Error())
	})

	t.Run("foreign token rejected", func(t *testing.T) {
		other := NewAuthService(f.db.Conn, f.users, "another-secret", 1)
		res, err := other.Login(ctx, &models.LoginRequest{Username: "alice", Password: "password1"})
		require.NoError(t, err)

		_, err = f.auth.ValidateAccessToken(res.Token)
		assert.ErrorIs(t, err, pkg.ErrUnauthorized)
	})
}

func TestMessageCreatePublishesStoredRecord(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	userID := f.register(t, "alice")

	msg, err := f.messages.Create(ctx, userID, textChannelID, &models.CreateMessageRequest{Content: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hi", msg.Content)
	assert.Equal(t, "alice", msg.Username)

	events := f.pub.all()
	require.Len(t, events, 1)
	assert.Equal(t, "channel-1", events[0].scope)
	assert.Equal(t, ws.OpNewMessage, events[0].event.Op)
	assert.Same(t, msg, events[0].event.Data)
}

func TestMessageCreateRejections(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	userID := f.register(t, "alice")

	_, err := f.messages.Create(ctx, userID, voiceChannelID, &models.CreateMessageRequest{Content: "hi"})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)

	_, err = f.messages.Create(ctx, userID, 999, &models.CreateMessageRequest{Content: "hi"})
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	_, err = f.messages.Create(ctx, userID, textChannelID, &models.CreateMessageRequest{Content: "   "})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)

	_, err = f.messages.List(ctx, voiceChannelID)
	assert.ErrorIs(t, err, pkg.ErrBadRequest)

	assert.Empty(t, f.pub.all())
}

func TestMessageEditRequiresOwnership(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")

	msg, err := f.messages.Create(ctx, alice, textChannelID, &models.CreateMessageRequest{Content: "mine"})
	require.NoError(t, err)

	_, errOther := f.messages.Update(ctx, bob, msg.ID, &models.UpdateMessageRequest{Content: "stolen"})
	_, errMissing := f.messages.Update(ctx, bob, msg.ID+100, &models.UpdateMessageRequest{Content: "x"})
	assert.ErrorIs(t, errOther, pkg.ErrForbidden)
	assert.ErrorIs(t, errMissing, pkg.ErrForbidden)
	assert.Equal(t, errOther.Error(), errMissing.Error())

	assert.ErrorIs(t, f.messages.Delete(ctx, bob, msg.ID), pkg.ErrForbidden)
	assert.ErrorIs(t, f.messages.Delete(ctx, bob, msg.ID+100), pkg.ErrForbidden)

	updated, err := f.messages.Update(ctx, alice, msg.ID, &models.UpdateMessageRequest{Content: "edited", Emojis: ":)"})
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Content)
	assert.NotNil(t, updated.UpdatedAt)

	events := f.pub.all()
	require.Len(t, events, 2)
	assert.Equal(t, ws.OpUpdatedMessage, events[1].event.Op)
	assert.Same(t, updated, events[1].event.Data)
}

func TestMessageDeleteEmitsOnce(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	alice := f.register(t, "alice")

	msg, err := f.messages.Create(ctx, alice, textChannelID, &models.CreateMessageRequest{Content: "bye"})
	require.NoError(t, err)

	require.NoError(t, f.messages.Delete(ctx, alice, msg.ID))
	assert.ErrorIs(t, f.messages.Delete(ctx, alice, msg.ID), pkg.ErrForbidden)

	var deletes []published
	for _, p := range f.pub.all() {
		if p.event.Op == ws.OpDeletedMessage {
			deletes = append(deletes, p)
		}
	}
	require.Len(t, deletes, 1)
	assert.Equal(t, "channel-1", deletes[0].scope)
	assert.Equal(t, models.DeletedMessage{ID: msg.ID}, deletes[0].event.Data)

	history, err := f.messages.List(ctx, textChannelID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestConcurrentCreatesPublishInIDOrder(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	alice := f.register(t, "alice")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.messages.Create(ctx, alice, textChannelID, &models.CreateMessageRequest{Content: "x"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	events := f.pub.all()
	require.Len(t, events, 20)
	var last int64
	for _, p := range events {
		msg := p.event.Data.(*models.Message)
		assert.Greater(t, msg.ID, last)
		last = msg.ID
	}
}

func TestVoiceToggle(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	alice := f.register(t, "alice")

	req := &models.VoiceToggleRequest{MutedMic: true}
	for i := 0; i < 2; i++ {
		state, err := f.voice.Toggle(ctx, alice, voiceChannelID, req)
		require.NoError(t, err)
		assert.Equal(t, &models.VoiceState{UserID: alice, ChannelID: voiceChannelID, MutedMic: true}, state)
	}

	rows, err := f.voice.ListPresence(ctx, voiceChannelID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].MutedMic)

	events := f.pub.all()
	require.Len(t, events, 2)
	assert.Equal(t, "channel-2", events[0].scope)
	assert.Equal(t, ws.OpVoiceState, events[0].event.Op)

	_, err = f.voice.Toggle(ctx, alice, textChannelID, req)
	assert.ErrorIs(t, err, pkg.ErrBadRequest)
	_, err = f.voice.Toggle(ctx, alice, 404, req)
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestUpdateVoiceSettings(t *testing.T) {
	key, err := crypto.DeriveKey("000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f")
	require.NoError(t, err)
	f := newFixture(t, key)
	ctx := context.Background()

	name := "Lounge"
	bitrate := 128
	password := "hunter2"
	ch, err := f.channel.UpdateVoiceSettings(ctx, voiceChannelID, &models.VoiceSettingsRequest{
		Name:        &name,
		BitrateKbps: &bitrate,
		Password:    &password,
	})
	require.NoError(t, err)
	assert.Equal(t, "Lounge", ch.Name)
	assert.Equal(t, 128, ch.BitrateKbps)
	assert.Equal(t, 10, ch.MaxUsers)
	assert.True(t, ch.HasPassword)

	stored, err := f.channels.GetByID(ctx, voiceChannelID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stored.Password, crypto.Prefix))
	assert.NotContains(t, stored.Password, "hunter2")
	assert.True(t, stored.HasPassword)

	events := f.pub.all()
	require.Len(t, events, 1)
	assert.Equal(t, "", events[0].scope)
	assert.Equal(t, ws.OpVoiceChannelUpdated, events[0].event.Op)

	_, err = f.channel.UpdateVoiceSettings(ctx, textChannelID, &models.VoiceSettingsRequest{Name: &name})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)

	tooHigh := 1000
	_, err = f.channel.UpdateVoiceSettings(ctx, voiceChannelID, &models.VoiceSettingsRequest{Bitrate: &tooHigh})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)
}

func TestBootstrapAndCanJoin(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	alice := f.register(t, "alice")

	boot, err := f.channel.Bootstrap(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, boot.Servers, 1)
	assert.Len(t, boot.Channels, 2)
	assert.Equal(t, "alice", boot.Me.Username)
	assert.NotEmpty(t, boot.Roles)

	ok, err := f.channel.CanJoin(ctx, alice, textChannelID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.channel.CanJoin(ctx, alice, 404)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.channel.CanJoin(ctx, alice+1, textChannelID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.channel.CanJoin(ctx, 0, textChannelID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSeedUsersIsRepeatable(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "users.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
- username: alice
  password: secret1
  nickname: Alice
- username: bob
  password: secret2
`), 0o600))

	seeder := NewSeedService(f.auth)

	created, err := seeder.SeedUsers(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	created, err = seeder.SeedUsers(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 0, created)

	alice, err := f.users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, alice.Nickname)
	assert.Equal(t, "Alice", *alice.Nickname)
}
