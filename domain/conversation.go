package domain

import "time"

// Conversation is a derived view, never stored: one entry per counterparty
// a user ever exchanged messages with, recomputed from the store on demand.
type Conversation struct {
	CounterpartyID   string
	CounterpartyName string
	CounterpartyRole Role
	LastMessage      string
	LastMessageTime  time.Time
	UnreadCount      int
}
