package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"

	"collab-live/domain"
	"collab-live/errors"
)

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) UserRepository {
	return UserRepository{db: db}
}

// diskUser is the stored representation of a user's display record. The REST
// layer owns the full account; this core only mirrors what it needs for
// message enrichment and presence.
type diskUser struct {
	ID          string `cbor:"1,keyasint"`
	Username    string `cbor:"2,keyasint"`
	DisplayName string `cbor:"3,keyasint"`
	Avatar      string `cbor:"4,keyasint,omitempty"`
	CreatedAt   int64  `cbor:"5,keyasint"`
}

// diskPresence is stored under a separate key so online flips never race
// with display record updates.
type diskPresence struct {
	Online bool  `cbor:"1,keyasint"`
	At     int64 `cbor:"2,keyasint"`
}

func userKey(userID string) []byte     { return []byte("user:id:" + userID) }
func presenceKey(userID string) []byte { return []byte("presence:" + userID) }

// SaveUser upserts a user's display record. Used by the sync path from the
// REST layer, the dev token tool, and tests.
func (u UserRepository) SaveUser(_ context.Context, userID string, display domain.UserDisplay) error {
	data, err := cbor.Marshal(diskUser{
		ID:          userID,
		Username:    display.Username,
		DisplayName: display.DisplayName,
		Avatar:      display.Avatar,
		CreatedAt:   time.Now().Unix(),
	})
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	return u.db.Update(func(txn *badger.Txn) error {
		return txn.Set(userKey(userID), data)
	})
}

// GetUserDisplay retrieves the display identity of a user by id.
func (u UserRepository) GetUserDisplay(_ context.Context, userID string) (domain.UserDisplay, error) {
	var du diskUser
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(userID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return cbor.Unmarshal(val, &du)
		})
	})
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return domain.UserDisplay{}, errors.ErrUserNotFound
		}
		return domain.UserDisplay{}, err
	}
	return domain.UserDisplay{
		Username:    du.Username,
		DisplayName: du.DisplayName,
		Avatar:      du.Avatar,
	}, nil
}

// SetOnlineStatus records the user's presence flag.
func (u UserRepository) SetOnlineStatus(_ context.Context, userID string, online bool) error {
	data, err := cbor.Marshal(diskPresence{Online: online, At: time.Now().Unix()})
	if err != nil {
		return err
	}
	return u.db.Update(func(txn *badger.Txn) error {
		return txn.Set(presenceKey(userID), data)
	})
}
