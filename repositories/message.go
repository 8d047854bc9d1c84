package repositories

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"collab-live/domain"
)

type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) MessageRepository {
	return MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

// diskMessage is the stored representation of a chat message, encoded with
// CBOR. Short field keys keep the values compact.
type diskMessage struct {
	ID        string              `cbor:"1,keyasint"`
	Content   string              `cbor:"2,keyasint"`
	AuthorID  string              `cbor:"3,keyasint"`
	ChannelID *string             `cbor:"4,keyasint,omitempty"`
	At        int64               `cbor:"5,keyasint"`
	Reactions map[string][]string `cbor:"6,keyasint,omitempty"`
}

// InsertMessage persists a message in BadgerDB.
// The key is formatted as "msg:{room}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Prevent data loss by using the message UUID as a collision disconnector
//     if two messages arrive at the same nanosecond.
func (m MessageRepository) InsertMessage(_ context.Context, message domain.ChatMessage) error {
	key := fmt.Sprintf("msg:%s:%019d:%s",
		message.Room(),
		message.CreatedAt.UnixNano(),
		message.ID,
	)
	bytes, err := cbor.Marshal(fromChatMessage(message))
	if err != nil {
		return err
	}
	return m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
}

// RecentMessages retrieves messages for a room using a reverse prefix scan,
// newest first. Thanks to the padded timestamp in the key, messages are
// naturally sorted by time. It stops once the configured limitMessages is
// reached and returns a cursor for the next page.
func (m MessageRepository) RecentMessages(_ context.Context, roomID domain.RoomID, cursor *string) ([]domain.ChatMessage, *string, error) {
	var rawValues [][]byte
	var lastKey string

	err := m.db.View(func(txn *badger.Txn) error {
		prefixStr := fmt.Sprintf("msg:%s:", roomID)
		prefix := []byte(prefixStr)
		prefixLen := len(prefixStr)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch cursor {
		case nil:
			// Seek past any possible timestamp so the reverse scan starts
			// at the newest entry of the room.
			seekKey = append(prefix, []byte("9999999999999999999")...)
		default:
			seekKey = append(prefix, []byte(*cursor)...)
		}

		it.Seek(seekKey)

		if cursor != nil && it.ValidForPrefix(prefix) {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(rawValues) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d messages reached", *m.limitMessages))
				break
			}
			item := it.Item()
			lastKey = string(item.Key()[prefixLen:])
			err := item.Value(func(value []byte) error {
				rawValues = append(rawValues, append([]byte(nil), value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	var messages []domain.ChatMessage
	for _, raw := range rawValues {
		var dm diskMessage
		if err = cbor.Unmarshal(raw, &dm); err != nil {
			return nil, nil, err
		}
		message, err := toChatMessage(dm)
		if err != nil {
			return nil, nil, err
		}
		messages = append(messages, message)
	}
	return messages, lo.ToPtr(lastKey), nil
}

func fromChatMessage(message domain.ChatMessage) diskMessage {
	return diskMessage{
		ID:        message.ID.String(),
		Content:   message.Content,
		AuthorID:  message.AuthorID,
		ChannelID: message.ChannelID,
		At:        message.CreatedAt.UnixNano(),
		Reactions: message.Reactions,
	}
}

func toChatMessage(dm diskMessage) (domain.ChatMessage, error) {
	parsedID, err := uuid.Parse(dm.ID)
	if err != nil {
		return domain.ChatMessage{}, err
	}
	reactions := dm.Reactions
	if reactions == nil {
		reactions = make(map[string][]string)
	}
	return domain.ChatMessage{
		ID:        parsedID,
		Content:   dm.Content,
		AuthorID:  dm.AuthorID,
		ChannelID: dm.ChannelID,
		CreatedAt: time.Unix(0, dm.At).UTC(),
		Reactions: reactions,
	}, nil
}
