package repositories

import (
	"context"

	"github.com/dgraph-io/badger/v4"
)

// WorkspaceRepository answers membership checks against the workspace
// membership mirror. The REST layer writes memberships when users are added
// to or removed from a workspace; the core only reads them before granting
// a room join.
type WorkspaceRepository struct {
	db *badger.DB
}

func NewWorkspaceRepository(db *badger.DB) WorkspaceRepository {
	return WorkspaceRepository{db: db}
}

func memberKey(workspaceID, userID string) []byte {
	return []byte("workspace:" + workspaceID + ":member:" + userID)
}

// AddMember records a membership. Used by the REST sync path and tests.
func (w WorkspaceRepository) AddMember(_ context.Context, workspaceID, userID string) error {
	return w.db.Update(func(txn *badger.Txn) error {
		return txn.Set(memberKey(workspaceID, userID), nil)
	})
}

// RemoveMember deletes a membership. Deleting a missing key is a no-op.
func (w WorkspaceRepository) RemoveMember(_ context.Context, workspaceID, userID string) error {
	return w.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(memberKey(workspaceID, userID))
	})
}

// IsMember reports whether the user belongs to the workspace. Key existence
// is the membership record; no value is stored.
func (w WorkspaceRepository) IsMember(_ context.Context, userID, workspaceID string) (bool, error) {
	var member bool
	err := w.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(memberKey(workspaceID, userID))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		member = true
		return nil
	})
	return member, err
}
