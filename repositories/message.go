//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IMessageRepository interface {
	StoreMessage(senderID, receiverID, content string) (DiskMessage, error)
	ListBetween(userA, userB string) ([]DiskMessage, error)
	ListFor(userID string) ([]DiskMessage, error)
	MarkRead(readerID, counterpartyID string) (int, error)
	CountUnread(readerID, counterpartyID string) (int, error)
	CountUnreadTotal(readerID string) (int, error)
}

// MessageRepository persists messages in BadgerDB.
// Keys are formatted as "msg:{loUser}:{hiUser}:{seq_padded}" so that:
//  1. One prefix scan covers both directions of a conversation (the pair
//     is sorted lexicographically, not sender-first).
//  2. The 19-digit zero-padded sequence makes lexicographical key order
//     equal persistence order, independent of caller clocks.
type MessageRepository struct {
	db  *badger.DB
	seq *badger.Sequence
	log *slog.Logger

	// mu couples sequence and timestamp assignment so CreatedAt never
	// runs backwards relative to Seq.
	mu     sync.Mutex
	lastAt time.Time
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) (*MessageRepository, error) {
	seq, err := db.GetSequence([]byte("seq:msg"), 128)
	if err != nil {
		return nil, fmt.Errorf("message sequence: %w", err)
	}
	return &MessageRepository{db: db, seq: seq, log: log}, nil
}

// Close releases the unused part of the sequence lease.
func (m *MessageRepository) Close() error {
	return m.seq.Release()
}

// DiskMessage is the storage-layer representation of a message.
type DiskMessage struct {
	ID       uuid.UUID `json:"id"`
	Seq      uint64    `json:"seq"`
	Sender   string    `json:"sender"`
	Receiver string    `json:"receiver"`
	Content  string    `json:"content"`
	At       time.Time `json:"at"`
	Read     bool      `json:"read"`
}

// pairKey sorts the two user ids so both directions share one prefix.
func pairKey(userA, userB string) string {
	if strings.Compare(userA, userB) > 0 {
		userA, userB = userB, userA
	}
	return fmt.Sprintf("msg:%s:%s:", userA, userB)
}

func messageKey(dm DiskMessage) []byte {
	return []byte(fmt.Sprintf("%s%019d", pairKey(dm.Sender, dm.Receiver), dm.Seq))
}

// StoreMessage assigns id, sequence, and creation time, then persists the
// message with read=false. This is the durability point: on error nothing
// was stored and nothing must be delivered.
func (m *MessageRepository) StoreMessage(senderID, receiverID, content string) (DiskMessage, error) {
	m.mu.Lock()
	seq, err := m.seq.Next()
	if err != nil {
		m.mu.Unlock()
		return DiskMessage{}, fmt.Errorf("next sequence: %w", err)
	}
	at := time.Now().UTC()
	if !at.After(m.lastAt) {
		at = m.lastAt.Add(time.Nanosecond)
	}
	m.lastAt = at
	m.mu.Unlock()

	dm := DiskMessage{
		ID:       uuid.New(),
		Seq:      seq,
		Sender:   senderID,
		Receiver: receiverID,
		Content:  content,
		At:       at,
		Read:     false,
	}
	bytes, err := json.Marshal(dm)
	if err != nil {
		return DiskMessage{}, err
	}
	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set(messageKey(dm), bytes)
	})
	if err != nil {
		return DiskMessage{}, err
	}
	return dm, nil
}

// ListBetween returns every message exchanged between two users in
// persistence order (oldest first). The padded sequence in the key makes
// the forward iteration already chronological.
func (m *MessageRepository) ListBetween(userA, userB string) ([]DiskMessage, error) {
	var messages []DiskMessage
	prefix := []byte(pairKey(userA, userB))

	err := m.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var dm DiskMessage
			err := it.Item().Value(func(value []byte) error {
				return json.Unmarshal(value, &dm)
			})
			if err != nil {
				return err
			}
			messages = append(messages, dm)
		}
		return nil
	})
	return messages, err
}

// ListFor returns every message a user sent or received, across all
// counterparties, oldest first. This scans the whole message keyspace;
// acceptable at the per-user volumes this store serves.
func (m *MessageRepository) ListFor(userID string) ([]DiskMessage, error) {
	var messages []DiskMessage
	prefix := []byte("msg:")

	err := m.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var dm DiskMessage
			err := it.Item().Value(func(value []byte) error {
				return json.Unmarshal(value, &dm)
			})
			if err != nil {
				return err
			}
			if dm.Sender == userID || dm.Receiver == userID {
				messages = append(messages, dm)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	// Pair prefixes interleave arbitrarily; the global sequence restores
	// persistence order.
	sort.Slice(messages, func(i, j int) bool {
		return messages[i].Seq < messages[j].Seq
	})
	return messages, nil
}

// MarkRead flips read=false to true on every message from counterpartyID
// to readerID, inside one transaction so the set is computed against the
// store at the moment of the update. Returns how many were flipped;
// calling again with no new messages updates nothing.
func (m *MessageRepository) MarkRead(readerID, counterpartyID string) (int, error) {
	updated := 0
	prefix := []byte(pairKey(readerID, counterpartyID))

	err := m.db.Update(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var dm DiskMessage
			err := item.Value(func(value []byte) error {
				return json.Unmarshal(value, &dm)
			})
			if err != nil {
				return err
			}
			if dm.Receiver != readerID || dm.Read {
				continue
			}
			dm.Read = true
			bytes, err := json.Marshal(dm)
			if err != nil {
				return err
			}
			if err = txn.Set(item.KeyCopy(nil), bytes); err != nil {
				return err
			}
			updated++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if updated > 0 {
		m.log.Debug("Marked messages read",
			"reader", readerID, "counterparty", counterpartyID, "count", updated)
	}
	return updated, nil
}

// CountUnread counts messages from counterpartyID to readerID still unread.
func (m *MessageRepository) CountUnread(readerID, counterpartyID string) (int, error) {
	count := 0
	prefix := []byte(pairKey(readerID, counterpartyID))

	err := m.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var dm DiskMessage
			err := it.Item().Value(func(value []byte) error {
				return json.Unmarshal(value, &dm)
			})
			if err != nil {
				return err
			}
			if dm.Receiver == readerID && !dm.Read {
				count++
			}
		}
		return nil
	})
	return count, err
}

// CountUnreadTotal counts every unread message addressed to a user.
func (m *MessageRepository) CountUnreadTotal(readerID string) (int, error) {
	count := 0
	prefix := []byte("msg:")

	err := m.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var dm DiskMessage
			err := it.Item().Value(func(value []byte) error {
				return json.Unmarshal(value, &dm)
			})
			if err != nil {
				return err
			}
			if dm.Receiver == readerID && !dm.Read {
				count++
			}
		}
		return nil
	})
	return count, err
}
