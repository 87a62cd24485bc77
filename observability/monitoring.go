// Package observability aggregates runtime counters for the health
// surface. Counters are best-effort telemetry, never authoritative state.
package observability

import (
	"sync/atomic"
	"time"
)

// Stats is the snapshot served on the health endpoint.
type Stats struct {
	ActiveConnections int    `json:"active_connections"`
	MessagesRouted    uint64 `json:"messages_routed"`
	MessagesDelivered uint64 `json:"messages_delivered"`
	MessagesFailed    uint64 `json:"messages_failed"`
	PresenceEvents    uint64 `json:"presence_events"`
	TypingSignals     uint64 `json:"typing_signals"`
	ReadReceipts      uint64 `json:"read_receipts"`
	UptimeSeconds     int64  `json:"uptime_seconds"`
}

// Monitoring gathers counters from the routing and delivery paths.
// All fields are atomics; there is no lock to contend on the hot path.
type Monitoring struct {
	startedAt         time.Time
	messagesRouted    atomic.Uint64
	messagesDelivered atomic.Uint64
	messagesFailed    atomic.Uint64
	presenceEvents    atomic.Uint64
	typingSignals     atomic.Uint64
	readReceipts      atomic.Uint64
}

func NewMonitoring() *Monitoring {
	return &Monitoring{startedAt: time.Now()}
}

func (m *Monitoring) MessageRouted()    { m.messagesRouted.Add(1) }
func (m *Monitoring) MessageDelivered() { m.messagesDelivered.Add(1) }
func (m *Monitoring) MessageFailed()    { m.messagesFailed.Add(1) }
func (m *Monitoring) PresenceEvent()    { m.presenceEvents.Add(1) }
func (m *Monitoring) TypingSignal()     { m.typingSignals.Add(1) }
func (m *Monitoring) ReadReceipt()      { m.readReceipts.Add(1) }

// GetLatest snapshots the counters. activeConnections comes from the
// registry at call time rather than being tracked twice.
func (m *Monitoring) GetLatest(activeConnections int) Stats {
	return Stats{
		ActiveConnections: activeConnections,
		MessagesRouted:    m.messagesRouted.Load(),
		MessagesDelivered: m.messagesDelivered.Load(),
		MessagesFailed:    m.messagesFailed.Load(),
		PresenceEvents:    m.presenceEvents.Load(),
		TypingSignals:     m.typingSignals.Load(),
		ReadReceipts:      m.readReceipts.Load(),
		UptimeSeconds:     int64(time.Since(m.startedAt).Seconds()),
	}
}
