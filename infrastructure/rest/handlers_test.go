package rest

import (
	"casechat/auth"
	"casechat/domain"
	"casechat/domain/event"
	"casechat/observability"
	"casechat/projection"
	"casechat/repositories"
	"casechat/runtime"
	"casechat/services"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// captureSink records pushes so tests can assert what a live session saw.
type captureSink struct {
	events []event.DomainEvent
}

func (s *captureSink) Consume(ctx context.Context, e event.DomainEvent) error {
	s.events = append(s.events, e)
	return nil
}

type historyFixture struct {
	app      *fiber.App
	caller   domain.User
	registry *runtime.Registry
	messages *repositories.MessageRepository
	users    *repositories.UserRepository
}

// newHistoryFixture wires the per-counterparty history route over real
// storage, with claims injected per request instead of a signed token.
func newHistoryFixture(t *testing.T) *historyFixture {
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

	registry := runtime.NewRegistry()
	receipts := services.NewReadReceipts(log, registry, messages, observability.NewMonitoring())
	aggregator := projection.NewAggregator(messages, users)
	handler := NewHandler(log, nil, nil, receipts, aggregator, nil, users)

	f := &historyFixture{registry: registry, messages: messages, users: users}
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(claimsKey, &auth.IdentityClaims{
			UserID:      f.caller.ID,
			Role:        f.caller.Role,
			DisplayName: f.caller.DisplayName,
		})
		return c.Next()
	})
	app.Get("/api/chat/messages/:userId", handler.handleListMessagesWith)
	f.app = app
	return f
}

func (f *historyFixture) createUser(t *testing.T, email, name string, role domain.Role) domain.User {
	t.Helper()
	id, err := f.users.CreateUser(email, "hashed", name, role)
	require.NoError(t, err)
	return domain.User{ID: id, Role: role, DisplayName: name, Email: email}
}

func (f *historyFixture) connect(userID string) *captureSink {
	sink := &captureSink{}
	f.registry.Register(domain.Session{ID: uuid.NewString(), UserID: userID}, sink)
	return sink
}

func (f *historyFixture) listAs(t *testing.T, caller domain.User, counterpartyID string) (int, []byte) {
	t.Helper()
	req := require.New(t)
	f.caller = caller

	response, err := f.app.Test(httptest.NewRequest(http.MethodGet, "/api/chat/messages/"+counterpartyID, nil))
	req.NoError(err)
	defer response.Body.Close()
	body, err := io.ReadAll(response.Body)
	req.NoError(err)
	return response.StatusCode, body
}

func TestHistory_Rejected_Caller_Leaves_Read_State_Untouched(t *testing.T) {
	req := require.New(t)
	f := newHistoryFixture(t)
	client := f.createUser(t, "client@example.com", "Alice", domain.RoleClient)
	lawyer := f.createUser(t, "lawyer@example.com", "Bob", domain.RoleLawyer)
	admin := f.createUser(t, "admin@example.com", "Root", domain.RoleAdmin)

	// Given one unread message and a connected client
	_, err := f.messages.StoreMessage(lawyer.ID, client.ID, "confidential")
	req.NoError(err)
	clientSink := f.connect(client.ID)

	// When an admin requests the client's history
	status, _ := f.listAs(t, admin, client.ID)

	// Then the request is forbidden and nothing reached the client:
	// no messages_read push, no read flag flipped
	req.Equal(fiber.StatusForbidden, status)
	req.Empty(clientSink.events)
	unread, err := f.messages.CountUnread(client.ID, lawyer.ID)
	req.NoError(err)
	req.Equal(1, unread)
}

func TestHistory_Unknown_Counterparty_Leaves_Read_State_Untouched(t *testing.T) {
	req := require.New(t)
	f := newHistoryFixture(t)
	client := f.createUser(t, "client@example.com", "Alice", domain.RoleClient)
	clientSink := f.connect(client.ID)

	status, _ := f.listAs(t, client, uuid.NewString())

	req.Equal(fiber.StatusNotFound, status)
	req.Empty(clientSink.events)
}

func TestHistory_Authorized_Caller_Marks_Read_And_Notifies_Sender(t *testing.T) {
	req := require.New(t)
	f := newHistoryFixture(t)
	client := f.createUser(t, "client@example.com", "Alice", domain.RoleClient)
	lawyer := f.createUser(t, "lawyer@example.com", "Bob", domain.RoleLawyer)

	_, err := f.messages.StoreMessage(lawyer.ID, client.ID, "please review")
	req.NoError(err)
	lawyerSink := f.connect(lawyer.ID)

	// When the client opens the conversation
	status, body := f.listAs(t, client, lawyer.ID)

	// Then the listing reflects the flip and the lawyer is notified
	req.Equal(fiber.StatusOK, status)
	var listed []messageResponse
	req.NoError(json.Unmarshal(body, &listed))
	req.Len(listed, 1)
	req.True(listed[0].Read)

	req.Len(lawyerSink.events, 1)
	read := lawyerSink.events[0].(event.MessagesRead)
	req.Equal(client.ID, read.ReaderID)
	req.Equal("Alice", read.ReaderName)
}
