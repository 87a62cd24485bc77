package ws

import (
	"casechat/domain"
	"casechat/domain/event"
	"casechat/errors"
	"casechat/observability"
	"casechat/repositories"
	"casechat/runtime"
	"casechat/services"
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// stubRouter lets dispatch tests control the send outcome.
type stubRouter struct {
	routed services.RoutedMessage
	err    error
	calls  []domain.SendMessageCommand
}

func (r *stubRouter) Send(ctx context.Context, sender domain.User, receiverID, content string) (services.RoutedMessage, error) {
	r.calls = append(r.calls, domain.SendMessageCommand{
		SenderID:   sender.ID,
		ReceiverID: receiverID,
		Content:    content,
	})
	return r.routed, r.err
}

func newDispatchFixture(router services.IMessageRouter) (*Coordinator, *runtime.Registry) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	monitoring := observability.NewMonitoring()
	registry := runtime.NewRegistry()
	typing := services.NewTypingIndicator(log, registry, monitoring)
	presence := services.NewPresenceBroadcaster(log, 8, monitoring)
	coordinator := NewCoordinator(log, registry, router, typing, nil, presence, 8)
	return coordinator, registry
}

func testSession(userID, name string) domain.Session {
	return domain.Session{
		ID:          uuid.NewString(),
		UserID:      userID,
		Role:        domain.RoleClient,
		DisplayName: name,
	}
}

func TestDispatch_Send_Success_Echoes_To_Own_Sink_Only(t *testing.T) {
	req := require.New(t)
	message := domain.Message{ID: uuid.New(), SenderID: "alice", ReceiverID: "bob", Content: "hi"}
	router := &stubRouter{routed: services.RoutedMessage{
		Message: message, SenderName: "Alice", ReceiverName: "Bob",
	}}
	coordinator, registry := newDispatchFixture(router)

	session := testSession("alice", "Alice")
	own := NewChannelSink(8)
	otherDevice := NewChannelSink(8)
	registry.Register(session, own)
	registry.Register(testSession("alice", "Alice"), otherDevice)

	coordinator.dispatch(context.Background(), session, own,
		domain.SendMessageCommand{SenderID: "alice", ReceiverID: "bob", Content: "hi"})

	req.Len(router.calls, 1)
	req.Equal("bob", router.calls[0].ReceiverID)

	// The echo lands on the originating session only
	req.Len(own.Events, 1)
	sent := (<-own.Events).(event.MessageSent)
	req.Equal("message_sent", sent.EventType())
	req.Equal(message, sent.Message)
	req.Empty(otherDevice.Events)
}

func TestDispatch_Send_Failure_Pushes_Typed_Error(t *testing.T) {
	req := require.New(t)
	router := &stubRouter{err: fmt.Errorf("%w: receiver gone", errors.ErrNotFound)}
	coordinator, _ := newDispatchFixture(router)

	session := testSession("alice", "Alice")
	own := NewChannelSink(8)

	coordinator.dispatch(context.Background(), session, own,
		domain.SendMessageCommand{SenderID: "alice", ReceiverID: "ghost", Content: "hi"})

	req.Len(own.Events, 1)
	failure := (<-own.Events).(event.MessageError)
	req.Equal("message_error", failure.EventType())
	req.Equal("not_found_error", failure.Kind)
}

func TestDispatch_MarkRead_Failure_Pushes_Typed_Error(t *testing.T) {
	req := require.New(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	monitoring := observability.NewMonitoring()
	registry := runtime.NewRegistry()

	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	messages, err := repositories.NewMessageRepository(db, log)
	req.NoError(err)

	receipts := services.NewReadReceipts(log, registry, messages, monitoring)
	typing := services.NewTypingIndicator(log, registry, monitoring)
	presence := services.NewPresenceBroadcaster(log, 8, monitoring)
	coordinator := NewCoordinator(log, registry, &stubRouter{}, typing, receipts, presence, 8)

	// The store goes away mid-session
	req.NoError(messages.Close())
	req.NoError(db.Close())

	session := testSession("alice", "Alice")
	own := NewChannelSink(8)

	coordinator.dispatch(context.Background(), session, own,
		domain.MarkReadCommand{ReaderID: "alice", CounterpartyID: "bob"})

	// The session learns the mark-read was lost instead of silence
	req.Len(own.Events, 1)
	failure := (<-own.Events).(event.MessageError)
	req.Equal("message_error", failure.EventType())
	req.Equal("persistence_error", failure.Kind)
}

func TestDispatch_Typing_Reaches_Counterparty_Sessions(t *testing.T) {
	req := require.New(t)
	coordinator, registry := newDispatchFixture(&stubRouter{})

	session := testSession("alice", "Alice")
	bobSink := NewChannelSink(8)
	registry.Register(testSession("bob", "Bob"), bobSink)

	coordinator.dispatch(context.Background(), session, NewChannelSink(8),
		domain.TypingCommand{FromUserID: "alice", ToUserID: "bob", IsTyping: true})
	coordinator.dispatch(context.Background(), session, NewChannelSink(8),
		domain.TypingCommand{FromUserID: "alice", ToUserID: "bob", IsTyping: false})

	req.Len(bobSink.Events, 2)
	start := (<-bobSink.Events).(event.UserTyping)
	req.True(start.IsTyping)
	req.Equal("Alice", start.DisplayName)
	stop := (<-bobSink.Events).(event.UserTyping)
	req.False(stop.IsTyping)
}
