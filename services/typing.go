package services

import (
	"casechat/contract"
	"casechat/domain"
	"casechat/domain/event"
	"casechat/observability"
	"context"
	"log/slog"
)

// TypingIndicator relays ephemeral typing signals to one counterparty's
// live sessions. It holds no state and touches no store: a lost stop
// signal can leave a stale indicator on the receiver's UI, which is a
// documented limitation, not something this core masks with a timeout.
type TypingIndicator struct {
	log        *slog.Logger
	registry   contract.IRegistry
	monitoring *observability.Monitoring
}

func NewTypingIndicator(log *slog.Logger, registry contract.IRegistry,
	monitoring *observability.Monitoring) *TypingIndicator {
	return &TypingIndicator{log: log, registry: registry, monitoring: monitoring}
}

func (t *TypingIndicator) StartTyping(ctx context.Context, from domain.Session, toUserID string) {
	t.relay(ctx, from, toUserID, true)
}

func (t *TypingIndicator) StopTyping(ctx context.Context, from domain.Session, toUserID string) {
	t.relay(ctx, from, toUserID, false)
}

func (t *TypingIndicator) relay(ctx context.Context, from domain.Session, toUserID string, isTyping bool) {
	t.monitoring.TypingSignal()
	evt := event.UserTyping{
		UserID:      from.UserID,
		DisplayName: from.DisplayName,
		IsTyping:    isTyping,
	}
	for _, sink := range t.registry.SinksFor(toUserID) {
		if err := sink.Consume(ctx, evt); err != nil {
			t.log.Debug("Typing signal dropped for one session",
				"to", toUserID, "error", err)
		}
	}
}
