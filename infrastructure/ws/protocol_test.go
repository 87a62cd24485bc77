package ws

import (
	"casechat/domain"
	"casechat/domain/event"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestDecode_Maps_Frames_To_Commands(t *testing.T) {
	req := require.New(t)
	session := domain.Session{ID: uuid.NewString(), UserID: "alice", DisplayName: "Alice"}

	cmd, err := Decode(InboundFrame{Type: "send_message", ReceiverID: "bob", Content: "hi"}, session)
	req.NoError(err)
	req.Equal(domain.SendMessageCommand{SenderID: "alice", ReceiverID: "bob", Content: "hi"}, cmd)

	cmd, err = Decode(InboundFrame{Type: "typing_start", ReceiverID: "bob"}, session)
	req.NoError(err)
	req.Equal(domain.TypingCommand{FromUserID: "alice", ToUserID: "bob", IsTyping: true}, cmd)

	cmd, err = Decode(InboundFrame{Type: "typing_stop", ReceiverID: "bob"}, session)
	req.NoError(err)
	req.Equal(domain.TypingCommand{FromUserID: "alice", ToUserID: "bob", IsTyping: false}, cmd)

	cmd, err = Decode(InboundFrame{Type: "mark_as_read", SenderID: "bob"}, session)
	req.NoError(err)
	req.Equal(domain.MarkReadCommand{ReaderID: "alice", CounterpartyID: "bob"}, cmd)
}

func TestDecode_Identity_Comes_From_Session_Not_Frame(t *testing.T) {
	req := require.New(t)
	session := domain.Session{ID: uuid.NewString(), UserID: "alice"}

	// A frame claiming another sender is ignored: the authenticated
	// session is the only identity source
	cmd, err := Decode(InboundFrame{Type: "send_message", ReceiverID: "bob", Content: "hi", SenderID: "mallory"}, session)
	req.NoError(err)
	req.Equal("alice", cmd.(domain.SendMessageCommand).SenderID)
}

func TestDecode_Rejects_Unknown_Type(t *testing.T) {
	req := require.New(t)
	session := domain.Session{ID: uuid.NewString(), UserID: "alice"}

	_, err := Decode(InboundFrame{Type: "drop_tables"}, session)
	req.Error(err)
}

func TestEncode_Wire_Types_And_Payloads(t *testing.T) {
	req := require.New(t)
	message := domain.Message{
		ID:         uuid.New(),
		Seq:        7,
		SenderID:   "alice",
		ReceiverID: "bob",
		Content:    "hello",
		CreatedAt:  time.Now().UTC(),
	}

	frame := Encode(event.NewMessage{Message: message, SenderName: "Alice", ReceiverName: "Bob"})
	req.Equal("new_message", frame.Type)
	payload := frame.Data.(messagePayload)
	req.Equal("alice", payload.SenderID)
	req.Equal("Alice", payload.SenderName)
	req.False(payload.IsOwnMessage)

	frame = Encode(event.MessageSent{Message: message, SenderName: "Alice", ReceiverName: "Bob"})
	req.Equal("message_sent", frame.Type)
	req.True(frame.Data.(messagePayload).IsOwnMessage)

	frame = Encode(event.MessageError{Kind: "validation_error", Message: "empty"})
	req.Equal("message_error", frame.Type)
	req.Equal(errorPayload{Kind: "validation_error", Error: "empty"}, frame.Data)

	frame = Encode(event.UserConnected{UserID: "alice", DisplayName: "Alice", Role: domain.RoleClient})
	req.Equal("user_connected", frame.Type)
	req.Equal(presencePayload{UserID: "alice", Name: "Alice", Role: domain.RoleClient}, frame.Data)

	frame = Encode(event.UserDisconnected{UserID: "alice", DisplayName: "Alice", Role: domain.RoleClient})
	req.Equal("user_disconnected", frame.Type)

	frame = Encode(event.UserTyping{UserID: "alice", DisplayName: "Alice", IsTyping: true})
	req.Equal("user_typing", frame.Type)
	req.Equal(typingPayload{UserID: "alice", Name: "Alice", IsTyping: true}, frame.Data)

	frame = Encode(event.MessagesRead{ReaderID: "bob", ReaderName: "Bob"})
	req.Equal("messages_read", frame.Type)
	req.Equal(readPayload{ReaderID: "bob", ReaderName: "Bob"}, frame.Data)
}
