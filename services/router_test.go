package services

import (
	"casechat/domain"
	"casechat/domain/event"
	"casechat/errors"
	"casechat/moderation"
	"casechat/observability"
	"casechat/repositories"
	"casechat/runtime"
	"casechat/search"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// captureSink records every consumed event, for asserting live delivery.
type captureSink struct {
	events []event.DomainEvent
}

func (s *captureSink) Consume(ctx context.Context, e event.DomainEvent) error {
	s.events = append(s.events, e)
	return nil
}

type routerFixture struct {
	router   *MessageRouter
	registry *runtime.Registry
	messages repositories.IMessageRepository
	users    repositories.IUserRepository
}

func newRouterFixture(t *testing.T) routerFixture {
	t.Helper()
	req := require.New(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })

	messages, err := repositories.NewMessageRepository(db, log)
	req.NoError(err)
	t.Cleanup(func() { _ = messages.Close() })
	users := repositories.NewUserRepository(db)

	writer, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	req.NoError(err)
	t.Cleanup(func() { _ = writer.Close() })

	moderator, err := moderation.NewModerator([]string{"badger"}, '*')
	req.NoError(err)

	registry := runtime.NewRegistry()
	router := NewMessageRouter(log, registry, messages, users, &moderator,
		search.NewMessageIndex(writer, log), observability.NewMonitoring(), 2000)
	return routerFixture{router: router, registry: registry, messages: messages, users: users}
}

func (f routerFixture) createUser(t *testing.T, email, name string, role domain.Role) domain.User {
	t.Helper()
	id, err := f.users.CreateUser(email, "hashed", name, role)
	require.NoError(t, err)
	return domain.User{ID: id, Role: role, DisplayName: name, Email: email}
}

func (f routerFixture) connect(userID string) *captureSink {
	sink := &captureSink{}
	f.registry.Register(domain.Session{
		ID:     uuid.NewString(),
		UserID: userID,
	}, sink)
	return sink
}

func TestRouter_Send_Valid_Pair_Persists_And_Delivers(t *testing.T) {
	req := require.New(t)
	f := newRouterFixture(t)
	client := f.createUser(t, "client@example.com", "Alice", domain.RoleClient)
	lawyer := f.createUser(t, "lawyer@example.com", "Bob", domain.RoleLawyer)
	sink := f.connect(lawyer.ID)

	// When the client messages their lawyer
	routed, err := f.router.Send(context.Background(), client, lawyer.ID, "hello counsel")

	// Then the message is persisted unread
	req.NoError(err)
	req.Equal(client.ID, routed.Message.SenderID)
	req.Equal(lawyer.ID, routed.Message.ReceiverID)
	req.Equal("hello counsel", routed.Message.Content)
	req.False(routed.Message.Read)
	req.Equal("Alice", routed.SenderName)
	req.Equal("Bob", routed.ReceiverName)

	stored, err := f.messages.ListBetween(client.ID, lawyer.ID)
	req.NoError(err)
	req.Len(stored, 1)

	// And the lawyer's live session received new_message
	req.Len(sink.events, 1)
	delivered, ok := sink.events[0].(event.NewMessage)
	req.True(ok)
	req.Equal("new_message", delivered.EventType())
	req.Equal(routed.Message, delivered.Message)
}

func TestRouter_Send_Offline_Receiver_Still_Persists(t *testing.T) {
	req := require.New(t)
	f := newRouterFixture(t)
	client := f.createUser(t, "client@example.com", "Alice", domain.RoleClient)
	lawyer := f.createUser(t, "lawyer@example.com", "Bob", domain.RoleLawyer)

	// When the lawyer is offline
	_, err := f.router.Send(context.Background(), client, lawyer.ID, "read this later")

	// Then the send still succeeds; delivery happens on next retrieval
	req.NoError(err)
	stored, err := f.messages.ListBetween(client.ID, lawyer.ID)
	req.NoError(err)
	req.Len(stored, 1)
}

func TestRouter_Send_Empty_Content_Is_Rejected(t *testing.T) {
	req := require.New(t)
	f := newRouterFixture(t)
	client := f.createUser(t, "client@example.com", "Alice", domain.RoleClient)
	lawyer := f.createUser(t, "lawyer@example.com", "Bob", domain.RoleLawyer)

	for _, content := range []string{"", "   ", "\n\t"} {
		_, err := f.router.Send(context.Background(), client, lawyer.ID, content)
		req.ErrorIs(err, errors.ErrValidation)
	}
}

func TestRouter_Send_Oversized_Content_Is_Rejected(t *testing.T) {
	req := require.New(t)
	f := newRouterFixture(t)
	client := f.createUser(t, "client@example.com", "Alice", domain.RoleClient)
	lawyer := f.createUser(t, "lawyer@example.com", "Bob", domain.RoleLawyer)

	_, err := f.router.Send(context.Background(), client, lawyer.ID, strings.Repeat("x", 2001))
	req.ErrorIs(err, errors.ErrValidation)
}

func TestRouter_Send_Unknown_Receiver_Is_NotFound(t *testing.T) {
	req := require.New(t)
	f := newRouterFixture(t)
	client := f.createUser(t, "client@example.com", "Alice", domain.RoleClient)

	_, err := f.router.Send(context.Background(), client, uuid.NewString(), "anyone there?")
	req.ErrorIs(err, errors.ErrNotFound)
}

func TestRouter_Send_To_Self_Is_Forbidden(t *testing.T) {
	req := require.New(t)
	f := newRouterFixture(t)
	client := f.createUser(t, "client@example.com", "Alice", domain.RoleClient)

	_, err := f.router.Send(context.Background(), client, client.ID, "note to self")
	req.ErrorIs(err, errors.ErrAuthorization)
}

func TestRouter_Send_Enforces_Role_Pairing(t *testing.T) {
	req := require.New(t)
	f := newRouterFixture(t)
	client1 := f.createUser(t, "c1@example.com", "Alice", domain.RoleClient)
	client2 := f.createUser(t, "c2@example.com", "Carol", domain.RoleClient)
	lawyer1 := f.createUser(t, "l1@example.com", "Bob", domain.RoleLawyer)
	lawyer2 := f.createUser(t, "l2@example.com", "Dan", domain.RoleLawyer)
	admin := f.createUser(t, "a@example.com", "Root", domain.RoleAdmin)

	// Same-role pairs are rejected
	_, err := f.router.Send(context.Background(), client1, client2.ID, "hi")
	req.ErrorIs(err, errors.ErrAuthorization)
	_, err = f.router.Send(context.Background(), lawyer1, lawyer2.ID, "hi")
	req.ErrorIs(err, errors.ErrAuthorization)

	// Admin never chats, in either direction
	_, err = f.router.Send(context.Background(), admin, client1.ID, "hi")
	req.ErrorIs(err, errors.ErrAuthorization)
	_, err = f.router.Send(context.Background(), client1, admin.ID, "hi")
	req.ErrorIs(err, errors.ErrAuthorization)
}

func TestRouter_Send_Censors_Forbidden_Words(t *testing.T) {
	req := require.New(t)
	f := newRouterFixture(t)
	client := f.createUser(t, "client@example.com", "Alice", domain.RoleClient)
	lawyer := f.createUser(t, "lawyer@example.com", "Bob", domain.RoleLawyer)
	sink := f.connect(lawyer.ID)

	routed, err := f.router.Send(context.Background(), client, lawyer.ID, "you badger me")

	// The masked form is what gets stored and delivered
	req.NoError(err)
	req.Equal("you ****** me", routed.Message.Content)
	stored, err := f.messages.ListBetween(client.ID, lawyer.ID)
	req.NoError(err)
	req.Equal("you ****** me", stored[0].Content)
	req.Equal("you ****** me", sink.events[0].(event.NewMessage).Message.Content)
}

func TestRouter_Send_Delivers_To_Every_Receiver_Session(t *testing.T) {
	req := require.New(t)
	f := newRouterFixture(t)
	client := f.createUser(t, "client@example.com", "Alice", domain.RoleClient)
	lawyer := f.createUser(t, "lawyer@example.com", "Bob", domain.RoleLawyer)
	laptop := f.connect(lawyer.ID)
	phone := f.connect(lawyer.ID)
	senderSink := f.connect(client.ID)

	_, err := f.router.Send(context.Background(), client, lawyer.ID, "multi-device")

	// Every receiver session gets the event; the sender's sink gets
	// nothing here, its echo is the coordinator's job
	req.NoError(err)
	req.Len(laptop.events, 1)
	req.Len(phone.events, 1)
	req.Empty(senderSink.events)
}
