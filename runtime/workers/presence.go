package workers

import (
	"casechat/contract"
	"casechat/domain/event"
	"context"
	"log/slog"
)

// PresenceFanout broadcasts presence events to every registered session.
//
// It provides best-effort fan-out with no guarantees regarding delivery
// or ordering relative to messages. Presence is informational; consumers
// must not infer message delivery state from it.
type PresenceFanout struct {
	log      *slog.Logger
	registry contract.IRegistry
	events   chan event.DomainEvent
}

func NewPresenceFanout(log *slog.Logger, registry contract.IRegistry,
	events chan event.DomainEvent) *PresenceFanout {
	return &PresenceFanout{
		log:      log,
		registry: registry,
		events:   events,
	}
}

func (w *PresenceFanout) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping presence fanout")
			return nil
		case evt, ok := <-w.events:
			if !ok {
				return nil
			}
			w.fanout(ctx, evt)
		}
	}
}

// fanout snapshots the registered sinks and pushes to each. Sinks reject
// rather than block when full, so one slow session never stalls the rest.
func (w *PresenceFanout) fanout(ctx context.Context, evt event.DomainEvent) {
	for _, sink := range w.registry.AllSinks() {
		if err := sink.Consume(ctx, evt); err != nil {
			w.log.Debug("Presence event dropped for one sink", "event", evt.EventType(), "error", err)
		}
	}
}
