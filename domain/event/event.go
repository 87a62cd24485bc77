// Package event defines the outbound events pushed to live sessions.
// Presence and typing events carry no ordering guarantee relative to
// messages; consumers must not infer delivery state from them.
package event

import "casechat/domain"

// DomainEvent is anything that can be pushed to a live session.
// EventType is the stable wire name of the event.
type DomainEvent interface {
	EventType() string
}

// NewMessage is pushed to every live session of the receiver after a
// message reached the store.
type NewMessage struct {
	Message      domain.Message
	SenderName   string
	ReceiverName string
}

// MessageSent confirms a message to the session that sent it. It does not
// wait for receiver delivery; an offline receiver defers, never fails.
type MessageSent struct {
	Message      domain.Message
	SenderName   string
	ReceiverName string
}

// MessageError reports a failed send to the originating session.
// Exactly one per failed attempt, never a silent drop.
type MessageError struct {
	Kind    string
	Message string
}

// UserConnected is broadcast to all sessions when a session registers.
type UserConnected struct {
	UserID      string
	DisplayName string
	Role        domain.Role
}

// UserDisconnected is broadcast to all remaining sessions on unregister.
type UserDisconnected struct {
	UserID      string
	DisplayName string
	Role        domain.Role
}

// UserTyping is relayed to the counterparty's sessions only.
type UserTyping struct {
	UserID      string
	DisplayName string
	IsTyping    bool
}

// MessagesRead tells the original sender its messages were read.
type MessagesRead struct {
	ReaderID   string
	ReaderName string
}

func (NewMessage) EventType() string       { return "new_message" }
func (MessageSent) EventType() string      { return "message_sent" }
func (MessageError) EventType() string     { return "message_error" }
func (UserConnected) EventType() string    { return "user_connected" }
func (UserDisconnected) EventType() string { return "user_disconnected" }
func (UserTyping) EventType() string       { return "user_typing" }
func (MessagesRead) EventType() string     { return "messages_read" }
