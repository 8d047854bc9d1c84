package runtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"collab-live/domain"
	"collab-live/errors"
	"collab-live/mocks"
)

func newTestRegistry(t *testing.T) (*Registry, *mocks.MockEventSink) {
	ctrl := gomock.NewController(t)
	return NewRegistry(10, time.Minute), mocks.NewMockEventSink(ctrl)
}

func identityFor(userID string) domain.Identity {
	return domain.Identity{UserID: userID, Username: userID, DisplayName: "The " + userID}
}

func TestRegistry_AdmitLookupRemove(t *testing.T) {
	req := require.New(t)
	registry, sink := newTestRegistry(t)
	identity := identityFor("u1")

	// Given an admitted connection
	req.NoError(registry.Admit("c1", identity, sink))

	// Then lookup returns the identity passed to admit, with the global room joined
	snap, ok := registry.Lookup("c1")
	req.True(ok)
	req.Equal(identity, snap.Identity)
	req.Equal([]domain.RoomID{domain.GlobalRoom}, snap.Rooms)

	// When removed, the snapshot comes back and lookup finds nothing
	removed, ok := registry.Remove("c1")
	req.True(ok)
	req.Equal(identity, removed.Identity)

	_, ok = registry.Lookup("c1")
	req.False(ok)
}

func TestRegistry_AdmitIsGuardedAgainstDuplicates(t *testing.T) {
	req := require.New(t)
	registry, sink := newTestRegistry(t)

	req.NoError(registry.Admit("c1", identityFor("u1"), sink))
	req.ErrorIs(registry.Admit("c1", identityFor("u2"), sink), errors.ErrAlreadyConnected)

	// The original identity stays authoritative
	snap, ok := registry.Lookup("c1")
	req.True(ok)
	req.Equal("u1", snap.Identity.UserID)
}

func TestRegistry_RemoveUnknownConnection(t *testing.T) {
	req := require.New(t)
	registry, _ := newTestRegistry(t)

	// Removing a connection that never authenticated returns not-found,
	// so no presence event can fire for it.
	_, ok := registry.Remove("ghost")
	req.False(ok)
}

func TestRegistry_JoinRequiresAdmission(t *testing.T) {
	req := require.New(t)
	registry, sink := newTestRegistry(t)

	req.ErrorIs(registry.Join("c1", domain.WorkspaceRoom("w1")), errors.ErrNotAuthenticated)

	req.NoError(registry.Admit("c1", identityFor("u1"), sink))
	req.NoError(registry.Join("c1", domain.WorkspaceRoom("w1")))

	snap, _ := registry.Lookup("c1")
	req.ElementsMatch([]domain.RoomID{domain.GlobalRoom, domain.WorkspaceRoom("w1")}, snap.Rooms)
}

func TestRegistry_JoinIsIdempotent(t *testing.T) {
	req := require.New(t)
	registry, sink := newTestRegistry(t)
	req.NoError(registry.Admit("c1", identityFor("u1"), sink))

	room := domain.WorkspaceRoom("w1")
	req.NoError(registry.Join("c1", room))
	req.NoError(registry.Join("c1", room))

	// Membership still contains the connection exactly once
	req.Len(registry.SinksForRoom(room, ""), 1)
}

func TestRegistry_LeaveIsIdempotent(t *testing.T) {
	req := require.New(t)
	registry, sink := newTestRegistry(t)
	req.NoError(registry.Admit("c1", identityFor("u1"), sink))

	// Leaving a room the connection never joined never errors
	registry.Leave("c1", domain.WorkspaceRoom("w1"))
	registry.Leave("ghost", domain.WorkspaceRoom("w1"))

	snap, _ := registry.Lookup("c1")
	req.Equal([]domain.RoomID{domain.GlobalRoom}, snap.Rooms)
}

func TestRegistry_RemoveCleansRoomMemberships(t *testing.T) {
	req := require.New(t)
	registry, sink := newTestRegistry(t)
	room := domain.WorkspaceRoom("w1")

	req.NoError(registry.Admit("c1", identityFor("u1"), sink))
	req.NoError(registry.Admit("c2", identityFor("u2"), sink))
	req.NoError(registry.Join("c1", room))
	req.NoError(registry.Join("c2", room))

	registry.Remove("c1")

	// c1 is gone from every room, c2 untouched
	req.Len(registry.SinksForRoom(room, ""), 1)
	req.Len(registry.SinksForRoom(domain.GlobalRoom, ""), 1)
}

func TestRegistry_AllowSend(t *testing.T) {
	req := require.New(t)
	registry, sink := newTestRegistry(t)
	req.NoError(registry.Admit("c1", identityFor("u1"), sink))

	now := time.Now()
	for i := 0; i < 10; i++ {
		req.True(registry.AllowSend("c1", now))
	}
	req.False(registry.AllowSend("c1", now))

	// Unknown connections never pass the limiter
	req.False(registry.AllowSend("ghost", now))
}

func TestRegistry_Touch(t *testing.T) {
	req := require.New(t)
	registry, sink := newTestRegistry(t)
	req.NoError(registry.Admit("c1", identityFor("u1"), sink))

	before, _ := registry.Lookup("c1")
	time.Sleep(5 * time.Millisecond)
	registry.Touch("c1")
	after, _ := registry.Lookup("c1")

	req.True(after.LastActivity.After(before.LastActivity))

	// Touching an unknown connection is a silent no-op
	registry.Touch("ghost")
}
