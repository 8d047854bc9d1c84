package runtime

import (
	"context"
	"log/slog"

	"collab-live/contract"
	"collab-live/domain/event"
)

// PresenceBroadcaster emits online/offline transitions to every other
// connection and mirrors them to the presence store. Store writes are
// fire-and-forget: a failed write is logged and the broadcast still fires.
type PresenceBroadcaster struct {
	log      *slog.Logger
	rooms    *Rooms
	presence contract.PresenceStore
}

func NewPresenceBroadcaster(log *slog.Logger, rooms *Rooms, presence contract.PresenceStore) *PresenceBroadcaster {
	return &PresenceBroadcaster{log: log, rooms: rooms, presence: presence}
}

// Online fires after a successful admission.
func (b *PresenceBroadcaster) Online(ctx context.Context, connectionID, userID string) {
	if err := b.presence.SetOnlineStatus(ctx, userID, true); err != nil {
		b.log.Warn("Online status write failed", "user", userID, "error", err)
	}
	b.rooms.BroadcastAll(ctx, event.UserOnline{UserID: userID}, connectionID)
}

// Offline fires exactly once per admitted connection, driven by the
// registry Remove result: an unauthenticated disconnect never reaches here.
func (b *PresenceBroadcaster) Offline(ctx context.Context, connectionID, userID string) {
	if err := b.presence.SetOnlineStatus(ctx, userID, false); err != nil {
		b.log.Warn("Offline status write failed", "user", userID, "error", err)
	}
	b.rooms.BroadcastAll(ctx, event.UserOffline{UserID: userID}, connectionID)
}
