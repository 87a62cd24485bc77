// Package domain contains core concepts of the case-management chat.
// This file defines Message entities and related rules.
// Once persisted, only the Read flag may change, and only false to true.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message is a durable chat entry between a client and a lawyer.
// Seq is assigned by the store at the durability point and is the
// authoritative ordering, independent of caller clocks.
type Message struct {
	ID         uuid.UUID
	Seq        uint64
	SenderID   string
	ReceiverID string
	Content    string
	CreatedAt  time.Time
	Read       bool
}
