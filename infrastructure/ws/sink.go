// Package ws is the live delivery surface: one websocket per session,
// decoded into the closed command set and fed by a per-session event sink.
package ws

import (
	"casechat/domain/event"
	"context"
	"fmt"
)

// ChannelSink buffers events for one session. The fanout and service
// paths write; the session's single writer goroutine drains. A full
// buffer rejects the push: the live path is best-effort and the store
// remains the source of truth.
type ChannelSink struct {
	Events chan event.DomainEvent
}

func NewChannelSink(bufferSize int) *ChannelSink {
	return &ChannelSink{Events: make(chan event.DomainEvent, bufferSize)}
}

// Consume is called by fanout and services. It redirects the event to
// the owning session's channel; the websocket writer takes it from here.
func (s *ChannelSink) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case s.Events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("session buffer full, dropping %s", e.EventType())
	}
}
