package services

import (
	"casechat/contract"
	"casechat/domain"
	"casechat/domain/event"
	"casechat/errors"
	"casechat/observability"
	"casechat/repositories"
	"context"
	"fmt"
	"log/slog"
)

// ReadReceipts performs the only mutation allowed on a persisted message:
// the read flag, false to true, never back.
type ReadReceipts struct {
	log        *slog.Logger
	registry   contract.IRegistry
	messages   repositories.IMessageRepository
	monitoring *observability.Monitoring
}

func NewReadReceipts(log *slog.Logger, registry contract.IRegistry,
	messages repositories.IMessageRepository, monitoring *observability.Monitoring) *ReadReceipts {
	return &ReadReceipts{log: log, registry: registry, messages: messages, monitoring: monitoring}
}

// MarkRead flips every unread message from counterpartyID to the reader,
// then notifies the counterparty's live sessions. Idempotent: a second
// call with no new messages mutates nothing; the repeated broadcast is
// harmless.
func (r *ReadReceipts) MarkRead(ctx context.Context, reader domain.User, counterpartyID string) error {
	if _, err := r.messages.MarkRead(reader.ID, counterpartyID); err != nil {
		r.log.Error("Read-state update failed",
			"reader", reader.ID, "counterparty", counterpartyID, "error", err)
		return fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	r.monitoring.ReadReceipt()

	evt := event.MessagesRead{ReaderID: reader.ID, ReaderName: reader.DisplayName}
	for _, sink := range r.registry.SinksFor(counterpartyID) {
		if err := sink.Consume(ctx, evt); err != nil {
			r.log.Debug("Read receipt dropped for one session",
				"counterparty", counterpartyID, "error", err)
		}
	}
	return nil
}

// UnreadCountFor is a pure read: messages from counterpartyID to userID
// still unread.
func (r *ReadReceipts) UnreadCountFor(userID, counterpartyID string) (int, error) {
	count, err := r.messages.CountUnread(userID, counterpartyID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	return count, nil
}

// TotalUnreadFor sums unread messages to a user over all counterparties.
func (r *ReadReceipts) TotalUnreadFor(userID string) (int, error) {
	count, err := r.messages.CountUnreadTotal(userID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	return count, nil
}
