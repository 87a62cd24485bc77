// Package projection builds read-side views from the message store.
// Nothing here is cached or persisted: every call reflects the store at
// call time.
package projection

import (
	"casechat/domain"
	"casechat/errors"
	"casechat/repositories"
	"fmt"

	"github.com/samber/lo"
)

// Aggregator derives per-user conversation lists and histories.
type Aggregator struct {
	messages repositories.IMessageRepository
	users    repositories.IUserRepository
}

func NewAggregator(messages repositories.IMessageRepository, users repositories.IUserRepository) *Aggregator {
	return &Aggregator{messages: messages, users: users}
}

// ListConversations returns one entry per counterparty the caller ever
// messaged, newest conversation first, each with the latest message and
// the current unread count.
func (a *Aggregator) ListConversations(caller domain.User) ([]domain.Conversation, error) {
	if err := requireChatRole(caller.Role); err != nil {
		return nil, err
	}

	all, err := a.messages.ListFor(caller.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}

	// Walk newest first; the first message seen per counterparty is the
	// most recent one of that conversation.
	seen := make(map[string]struct{})
	var conversations []domain.Conversation
	for i := len(all) - 1; i >= 0; i-- {
		dm := all[i]
		otherID := dm.Sender
		if dm.Sender == caller.ID {
			otherID = dm.Receiver
		}
		if _, ok := seen[otherID]; ok {
			continue
		}
		seen[otherID] = struct{}{}

		other, err := a.users.GetUserByID(otherID)
		if err != nil {
			return nil, err
		}
		unread, err := a.messages.CountUnread(caller.ID, otherID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
		}

		conversations = append(conversations, domain.Conversation{
			CounterpartyID:   other.ID,
			CounterpartyName: other.DisplayName,
			CounterpartyRole: other.Role,
			LastMessage:      dm.Content,
			LastMessageTime:  dm.At,
			UnreadCount:      unread,
		})
	}
	return conversations, nil
}

// EnsureCounterparty verifies the caller may access the conversation
// with counterpartyID: chat role, counterparty existence, role pairing.
// Callers with side effects (marking read) must run this first, so a
// rejected request mutates and broadcasts nothing.
func (a *Aggregator) EnsureCounterparty(caller domain.User, counterpartyID string) error {
	if err := requireChatRole(caller.Role); err != nil {
		return err
	}
	other, err := a.users.GetUserByID(counterpartyID)
	if err != nil {
		return errors.ErrNotFound
	}
	if !caller.Role.CanChatWith(other.Role) {
		return fmt.Errorf("%w: %s may not chat with %s", errors.ErrAuthorization, caller.Role, other.Role)
	}
	return nil
}

// ListMessagesWith returns the full history between the caller and one
// counterparty, oldest first, for conversation views and reconnection
// replay. Marking the messages read is the caller's policy, not ours.
func (a *Aggregator) ListMessagesWith(caller domain.User, counterpartyID string) ([]domain.Message, error) {
	if err := a.EnsureCounterparty(caller, counterpartyID); err != nil {
		return nil, err
	}

	between, err := a.messages.ListBetween(caller.ID, counterpartyID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	return fromDisk(between), nil
}

// ListAllFor returns every message the caller sent or received, both
// directions, oldest first.
func (a *Aggregator) ListAllFor(caller domain.User) ([]domain.Message, error) {
	if err := requireChatRole(caller.Role); err != nil {
		return nil, err
	}
	all, err := a.messages.ListFor(caller.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	return fromDisk(all), nil
}

func requireChatRole(role domain.Role) error {
	if role != domain.RoleClient && role != domain.RoleLawyer {
		return fmt.Errorf("%w: role %s has no chat access", errors.ErrAuthorization, role)
	}
	return nil
}

func fromDisk(messages []repositories.DiskMessage) []domain.Message {
	return lo.Map(messages, func(dm repositories.DiskMessage, _ int) domain.Message {
		return domain.Message{
			ID:         dm.ID,
			Seq:        dm.Seq,
			SenderID:   dm.Sender,
			ReceiverID: dm.Receiver,
			Content:    dm.Content,
			CreatedAt:  dm.At,
			Read:       dm.Read,
		}
	})
}
