package services

import (
	"casechat/domain"
	"casechat/domain/event"
	"casechat/observability"
	"log/slog"
)

// PresenceBroadcaster turns registry mutations into connect/disconnect
// events for the fanout worker. It owns no state of its own; the channel
// is drained by workers.PresenceFanout under supervision.
type PresenceBroadcaster struct {
	log        *slog.Logger
	events     chan event.DomainEvent
	monitoring *observability.Monitoring
}

func NewPresenceBroadcaster(log *slog.Logger, bufferSize int,
	monitoring *observability.Monitoring) *PresenceBroadcaster {
	return &PresenceBroadcaster{
		log:        log,
		events:     make(chan event.DomainEvent, bufferSize),
		monitoring: monitoring,
	}
}

// Events exposes the channel the fanout worker drains.
func (p *PresenceBroadcaster) Events() chan event.DomainEvent {
	return p.events
}

func (p *PresenceBroadcaster) Connected(session domain.Session) {
	p.enqueue(event.UserConnected{
		UserID:      session.UserID,
		DisplayName: session.DisplayName,
		Role:        session.Role,
	})
}

func (p *PresenceBroadcaster) Disconnected(session domain.Session) {
	p.enqueue(event.UserDisconnected{
		UserID:      session.UserID,
		DisplayName: session.DisplayName,
		Role:        session.Role,
	})
}

// enqueue never blocks the caller: presence is best-effort and a full
// buffer drops the event rather than stalling a connect or disconnect.
func (p *PresenceBroadcaster) enqueue(evt event.DomainEvent) {
	select {
	case p.events <- evt:
		p.monitoring.PresenceEvent()
	default:
		p.log.Warn("Presence buffer full, dropping event", "event", evt.EventType())
	}
}
