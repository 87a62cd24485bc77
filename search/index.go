// Package search maintains a full-text index over persisted messages.
// The index is a convenience projection: losing it loses search, never
// messages, which live only in the store.
package search

import (
	"context"
	"log/slog"
	"time"

	"casechat/repositories"

	"github.com/blugelabs/bluge"
)

type MessageIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

// Match is one search hit.
type Match struct {
	MessageID string
	SenderID  string
	Receiver  string
	Content   string
	At        time.Time
}

func NewMessageIndex(writer *bluge.Writer, log *slog.Logger) *MessageIndex {
	return &MessageIndex{writer: writer, log: log}
}

// Add indexes one persisted message. Called after the durability point;
// an indexing failure is logged, not propagated, since the store already
// holds the message.
func (idx *MessageIndex) Add(dm repositories.DiskMessage) {
	doc := bluge.NewDocument(dm.ID.String())
	doc.AddField(bluge.NewTextField("content", dm.Content).StoreValue())
	doc.AddField(bluge.NewKeywordField("sender", dm.Sender).StoreValue())
	doc.AddField(bluge.NewKeywordField("receiver", dm.Receiver).StoreValue())
	doc.AddField(bluge.NewDateTimeField("at", dm.At).StoreValue())

	if err := idx.writer.Update(doc.ID(), doc); err != nil {
		idx.log.Error("Failed to index message", "message_id", dm.ID, "error", err)
	}
}

// Search returns messages matching the query among those the user sent or
// received. Other users' conversations are filtered out at query time, so
// the caller never sees content it could not retrieve through the store.
func (idx *MessageIndex) Search(ctx context.Context, userID, query string, limit int) ([]Match, error) {
	reader, err := idx.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	participant := bluge.NewBooleanQuery().
		AddShould(bluge.NewTermQuery(userID).SetField("sender")).
		AddShould(bluge.NewTermQuery(userID).SetField("receiver")).
		SetMinShould(1)

	q := bluge.NewBooleanQuery().
		AddMust(bluge.NewMatchQuery(query).SetField("content")).
		AddMust(participant)

	iterator, err := reader.Search(ctx, bluge.NewTopNSearch(limit, q))
	if err != nil {
		return nil, err
	}

	var matches []Match
	next, err := iterator.Next()
	for err == nil && next != nil {
		var match Match
		visitErr := next.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				match.MessageID = string(value)
			case "content":
				match.Content = string(value)
			case "sender":
				match.SenderID = string(value)
			case "receiver":
				match.Receiver = string(value)
			case "at":
				if at, tErr := bluge.DecodeDateTime(value); tErr == nil {
					match.At = at
				}
			}
			return true
		})
		if visitErr != nil {
			return nil, visitErr
		}
		matches = append(matches, match)
		next, err = iterator.Next()
	}
	if err != nil {
		return nil, err
	}
	return matches, nil
}
