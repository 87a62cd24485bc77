//go:generate go run go.uber.org/mock/mockgen -source=router.go -destination=../mocks/mock_router.go -package=mocks
package services

import (
	"casechat/contract"
	"casechat/domain"
	"casechat/domain/event"
	"casechat/errors"
	"casechat/moderation"
	"casechat/observability"
	"casechat/repositories"
	"casechat/search"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/abadojack/whatlanggo"
)

type IMessageRouter interface {
	Send(ctx context.Context, sender domain.User, receiverID, content string) (RoutedMessage, error)
}

// RoutedMessage is a persisted message enriched with the display names
// both ends render without another directory lookup.
type RoutedMessage struct {
	Message      domain.Message
	SenderName   string
	ReceiverName string
}

// MessageRouter validates and persists a send request, then delivers it
// to the receiver's live sessions. Persistence is the durability point:
// if it fails, nothing is delivered.
type MessageRouter struct {
	log              *slog.Logger
	registry         contract.IRegistry
	messages         repositories.IMessageRepository
	users            repositories.IUserRepository
	moderator        *moderation.Moderator
	index            *search.MessageIndex
	monitoring       *observability.Monitoring
	maxContentLength int
}

func NewMessageRouter(log *slog.Logger, registry contract.IRegistry,
	messages repositories.IMessageRepository, users repositories.IUserRepository,
	moderator *moderation.Moderator, index *search.MessageIndex,
	monitoring *observability.Monitoring, maxContentLength int) *MessageRouter {
	return &MessageRouter{
		log:              log,
		registry:         registry,
		messages:         messages,
		users:            users,
		moderator:        moderator,
		index:            index,
		monitoring:       monitoring,
		maxContentLength: maxContentLength,
	}
}

// Send runs the validation chain in order, each step failing fast with
// its own error kind: content, receiver existence, role pairing. Only
// then does the message reach the store.
func (r *MessageRouter) Send(ctx context.Context, sender domain.User, receiverID, content string) (RoutedMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		r.monitoring.MessageFailed()
		return RoutedMessage{}, fmt.Errorf("%w: message content is empty", errors.ErrValidation)
	}
	if len(content) > r.maxContentLength {
		r.monitoring.MessageFailed()
		return RoutedMessage{}, fmt.Errorf("%w: message content exceeds %d bytes", errors.ErrValidation, r.maxContentLength)
	}

	receiver, err := r.users.GetUserByID(receiverID)
	if err != nil {
		r.monitoring.MessageFailed()
		return RoutedMessage{}, fmt.Errorf("%w: receiver %s", errors.ErrNotFound, receiverID)
	}

	if sender.ID == receiver.ID {
		r.monitoring.MessageFailed()
		return RoutedMessage{}, fmt.Errorf("%w: cannot message yourself", errors.ErrAuthorization)
	}
	if !sender.Role.CanChatWith(receiver.Role) {
		r.monitoring.MessageFailed()
		return RoutedMessage{}, fmt.Errorf("%w: %s may not message %s",
			errors.ErrAuthorization, sender.Role, receiver.Role)
	}

	masked, foundWords := r.moderator.Censor(content)
	if len(foundWords) > 0 {
		r.log.Warn("Censored message content",
			"sender", sender.ID, "words", len(foundWords))
	}

	info := whatlanggo.Detect(masked)
	r.log.Debug("Routing message",
		"sender", sender.ID, "receiver", receiver.ID, "lang", info.Lang.Iso6391())

	dm, err := r.messages.StoreMessage(sender.ID, receiver.ID, masked)
	if err != nil {
		r.monitoring.MessageFailed()
		// Operational concern: the durability guarantee was not met for
		// this one operation.
		r.log.Error("Message persistence failed",
			"sender", sender.ID, "receiver", receiver.ID, "error", err)
		return RoutedMessage{}, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	r.monitoring.MessageRouted()
	r.index.Add(dm)

	routed := RoutedMessage{
		Message: domain.Message{
			ID:         dm.ID,
			Seq:        dm.Seq,
			SenderID:   dm.Sender,
			ReceiverID: dm.Receiver,
			Content:    dm.Content,
			CreatedAt:  dm.At,
			Read:       dm.Read,
		},
		SenderName:   sender.DisplayName,
		ReceiverName: receiver.DisplayName,
	}

	// Live delivery is deferred, not failed, when the receiver is
	// offline: the lookup below simply returns no sinks.
	for _, sink := range r.registry.SinksFor(receiver.ID) {
		evt := event.NewMessage{
			Message:      routed.Message,
			SenderName:   routed.SenderName,
			ReceiverName: routed.ReceiverName,
		}
		if err := sink.Consume(ctx, evt); err != nil {
			r.log.Debug("Live delivery skipped for one session",
				"receiver", receiver.ID, "error", err)
			continue
		}
		r.monitoring.MessageDelivered()
	}

	return routed, nil
}
