package ws

import (
	"casechat/domain"
	"casechat/domain/event"
	"fmt"
	"time"
)

// InboundFrame is the wire shape of every client-to-server event. Which
// fields matter depends on the type; Decode rejects anything outside the
// closed command set.
type InboundFrame struct {
	Type       string `json:"type"`
	ReceiverID string `json:"receiverId,omitempty"`
	Content    string `json:"content,omitempty"`
	SenderID   string `json:"senderId,omitempty"`
}

// OutboundFrame is the wire shape of every server-to-client event.
type OutboundFrame struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type messagePayload struct {
	ID           string    `json:"id"`
	Content      string    `json:"content"`
	SenderID     string    `json:"senderId"`
	SenderName   string    `json:"senderName"`
	ReceiverID   string    `json:"receiverId"`
	ReceiverName string    `json:"receiverName"`
	CreatedAt    time.Time `json:"createdAt"`
	Read         bool      `json:"read"`
	IsOwnMessage bool      `json:"isOwnMessage"`
}

type presencePayload struct {
	UserID string      `json:"userId"`
	Name   string      `json:"name"`
	Role   domain.Role `json:"role"`
}

type typingPayload struct {
	UserID   string `json:"userId"`
	Name     string `json:"name"`
	IsTyping bool   `json:"isTyping"`
}

type readPayload struct {
	ReaderID   string `json:"readerId"`
	ReaderName string `json:"readerName"`
}

type errorPayload struct {
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

// Decode maps an inbound frame onto the command union. The session's
// identity comes from the coordinator, never from the frame.
func Decode(frame InboundFrame, session domain.Session) (domain.Command, error) {
	switch frame.Type {
	case "send_message":
		return domain.SendMessageCommand{
			SenderID:   session.UserID,
			ReceiverID: frame.ReceiverID,
			Content:    frame.Content,
		}, nil
	case "typing_start":
		return domain.TypingCommand{
			FromUserID: session.UserID,
			ToUserID:   frame.ReceiverID,
			IsTyping:   true,
		}, nil
	case "typing_stop":
		return domain.TypingCommand{
			FromUserID: session.UserID,
			ToUserID:   frame.ReceiverID,
			IsTyping:   false,
		}, nil
	case "mark_as_read":
		return domain.MarkReadCommand{
			ReaderID:       session.UserID,
			CounterpartyID: frame.SenderID,
		}, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", frame.Type)
	}
}

// Encode turns a domain event into its wire frame.
func Encode(e event.DomainEvent) OutboundFrame {
	frame := OutboundFrame{Type: e.EventType()}
	switch evt := e.(type) {
	case event.NewMessage:
		frame.Data = toMessagePayload(evt.Message, evt.SenderName, evt.ReceiverName, false)
	case event.MessageSent:
		frame.Data = toMessagePayload(evt.Message, evt.SenderName, evt.ReceiverName, true)
	case event.MessageError:
		frame.Data = errorPayload{Kind: evt.Kind, Error: evt.Message}
	case event.UserConnected:
		frame.Data = presencePayload{UserID: evt.UserID, Name: evt.DisplayName, Role: evt.Role}
	case event.UserDisconnected:
		frame.Data = presencePayload{UserID: evt.UserID, Name: evt.DisplayName, Role: evt.Role}
	case event.UserTyping:
		frame.Data = typingPayload{UserID: evt.UserID, Name: evt.DisplayName, IsTyping: evt.IsTyping}
	case event.MessagesRead:
		frame.Data = readPayload{ReaderID: evt.ReaderID, ReaderName: evt.ReaderName}
	}
	return frame
}

func toMessagePayload(m domain.Message, senderName, receiverName string, own bool) messagePayload {
	return messagePayload{
		ID:           m.ID.String(),
		Content:      m.Content,
		SenderID:     m.SenderID,
		SenderName:   senderName,
		ReceiverID:   m.ReceiverID,
		ReceiverName: receiverName,
		CreatedAt:    m.CreatedAt,
		Read:         m.Read,
		IsOwnMessage: own,
	}
}
