package runtime

import (
	"context"
	"log/slog"
	"time"

	"collab-live/contract"
	"collab-live/domain"
	"collab-live/domain/event"
)

// Rooms scopes broadcasts to room members. Membership itself lives in the
// registry; Rooms adds the delivery policy: best-effort fan-out, no ordering
// guarantee across members, never a duplicate delivery to a member per call.
type Rooms struct {
	registry    *Registry
	log         *slog.Logger
	sinkTimeout time.Duration
}

func NewRooms(registry *Registry, log *slog.Logger, sinkTimeout time.Duration) *Rooms {
	return &Rooms{registry: registry, log: log, sinkTimeout: sinkTimeout}
}

// Join adds an authenticated connection to a room. Idempotent.
func (r *Rooms) Join(connectionID string, roomID domain.RoomID) error {
	return r.registry.Join(connectionID, roomID)
}

// Leave removes the connection from a room. Idempotent, never errors.
func (r *Rooms) Leave(connectionID string, roomID domain.RoomID) {
	r.registry.Leave(connectionID, roomID)
}

// Broadcast delivers the event to every member of the room except the
// optionally excluded sender. A slow or gone member loses the event; one
// member's failure never affects delivery to the others.
func (r *Rooms) Broadcast(ctx context.Context, roomID domain.RoomID, e event.ServerEvent, excludeConnectionID string) {
	r.deliver(ctx, r.registry.SinksForRoom(roomID, excludeConnectionID), e)
}

// BroadcastAll delivers the event to every live connection except the
// excluded one. Presence transitions use this global fan-out.
func (r *Rooms) BroadcastAll(ctx context.Context, e event.ServerEvent, excludeConnectionID string) {
	r.deliver(ctx, r.registry.AllSinks(excludeConnectionID), e)
}

func (r *Rooms) deliver(ctx context.Context, sinks []contract.EventSink, e event.ServerEvent) {
	for _, sink := range sinks {
		sinkCtx, cancel := context.WithTimeout(ctx, r.sinkTimeout)
		if err := sink.Consume(sinkCtx, e); err != nil {
			r.log.Debug("Sink dropped event", "event", e.EventName(), "error", err)
		}
		cancel()
	}
}
