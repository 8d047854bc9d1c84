// Package runtime owns the connection registry, room multiplexing, rate
// limiting, the message pipeline, and presence. It orchestrates the
// realtime channel without containing transport or storage logic.
package runtime

import (
	"sync"
	"time"

	"collab-live/contract"
	"collab-live/domain"
	"collab-live/errors"
)

type Set map[string]struct{}

// session is the registry's record for one live connection. It is only ever
// touched under the registry lock.
type session struct {
	identity     domain.Identity
	sink         contract.EventSink
	rooms        map[domain.RoomID]struct{}
	rate         *FixedWindow
	lastActivity time.Time
}

// Snapshot is a copy of a session's observable state, safe to use after the
// registry lock is released.
type Snapshot struct {
	ConnectionID string
	Identity     domain.Identity
	Rooms        []domain.RoomID
	LastActivity time.Time
}

// Registry is the single source of truth for who is connected. It maps each
// live connection to its authenticated identity, joined rooms, and rate
// window, and mirrors room membership for fan-out lookups. No other
// component may hold a competing copy of connection state.
type Registry struct {
	mu          sync.RWMutex
	sessions    map[string]*session       // connectionID -> session
	roomMembers map[domain.RoomID]Set     // room -> connectionIDs
	rateLimit   int
	rateWindow  time.Duration
}

func NewRegistry(rateLimit int, rateWindow time.Duration) *Registry {
	return &Registry{
		sessions:    make(map[string]*session),
		roomMembers: make(map[domain.RoomID]Set),
		rateLimit:   rateLimit,
		rateWindow:  rateWindow,
	}
}

// Admit inserts an authenticated connection and auto-joins it to the global
// room. It fails if the connection id is already present, so a handshake
// replay can never shadow a live session.
func (r *Registry) Admit(connectionID string, identity domain.Identity, sink contract.EventSink) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[connectionID]; ok {
		return errors.ErrAlreadyConnected
	}

	r.sessions[connectionID] = &session{
		identity:     identity,
		sink:         sink,
		rooms:        map[domain.RoomID]struct{}{domain.GlobalRoom: {}},
		rate:         NewFixedWindow(r.rateLimit, r.rateWindow),
		lastActivity: time.Now(),
	}
	r.addMember(domain.GlobalRoom, connectionID)
	return nil
}

// Lookup returns a copy of the connection's state.
func (r *Registry) Lookup(connectionID string) (Snapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[connectionID]
	if !ok {
		return Snapshot{}, false
	}
	return r.snapshot(connectionID, s), true
}

// Touch updates the connection's last-activity timestamp. Side effect only:
// touching an unknown connection does nothing.
func (r *Registry) Touch(connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[connectionID]; ok {
		s.lastActivity = time.Now()
	}
}

// Remove atomically deletes the connection and all of its room memberships,
// returning the removed state so the caller can drive the offline presence
// broadcast exactly once.
func (r *Registry) Remove(connectionID string) (Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[connectionID]
	if !ok {
		return Snapshot{}, false
	}

	snap := r.snapshot(connectionID, s)
	for roomID := range s.rooms {
		r.dropMember(roomID, connectionID)
	}
	delete(r.sessions, connectionID)
	return snap, true
}

// Join adds the connection to a room. Joining twice is a no-op. The
// connection must be admitted first: membership without a registry entry
// would break the cleanup invariant.
func (r *Registry) Join(connectionID string, roomID domain.RoomID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[connectionID]
	if !ok {
		return errors.ErrNotAuthenticated
	}
	s.rooms[roomID] = struct{}{}
	r.addMember(roomID, connectionID)
	return nil
}

// Leave removes the connection from a room. Leaving a room the connection
// never joined, or an unknown connection, is a no-op.
func (r *Registry) Leave(connectionID string, roomID domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[connectionID]
	if !ok {
		return
	}
	delete(s.rooms, roomID)
	r.dropMember(roomID, connectionID)
}

// AllowSend checks the connection's send quota and counts the attempt when
// it fits. Unknown connections are never allowed.
func (r *Registry) AllowSend(connectionID string, now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[connectionID]
	if !ok {
		return false
	}
	return s.rate.Allow(now)
}

// Sink resolves the connection's event sink for a direct (sender-only) emit.
func (r *Registry) Sink(connectionID string) (contract.EventSink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[connectionID]
	if !ok {
		return nil, false
	}
	return s.sink, true
}

// SinksForRoom retrieves the active sinks of every member of a room, minus
// the optionally excluded connection. Returns nil for an unknown or empty
// room.
func (r *Registry) SinksForRoom(roomID domain.RoomID, excludeConnectionID string) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.roomMembers[roomID]
	if !ok {
		return nil
	}
	var sinks []contract.EventSink
	for connectionID := range members {
		if connectionID == excludeConnectionID {
			continue
		}
		if s, exists := r.sessions[connectionID]; exists {
			sinks = append(sinks, s.sink)
		}
	}
	return sinks
}

// AllSinks retrieves every connected sink except the excluded connection.
// Presence transitions use this: they are global fan-out, not room-scoped.
func (r *Registry) AllSinks(excludeConnectionID string) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sinks []contract.EventSink
	for connectionID, s := range r.sessions {
		if connectionID == excludeConnectionID {
			continue
		}
		sinks = append(sinks, s.sink)
	}
	return sinks
}

// Size reports the number of live connections, for the stats worker and the
// health endpoint.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) addMember(roomID domain.RoomID, connectionID string) {
	if _, ok := r.roomMembers[roomID]; !ok {
		r.roomMembers[roomID] = make(Set)
	}
	r.roomMembers[roomID][connectionID] = struct{}{}
}

// dropMember removes a membership and deletes the room entry when it empties
// so derived rooms don't accumulate over time.
func (r *Registry) dropMember(roomID domain.RoomID, connectionID string) {
	members, ok := r.roomMembers[roomID]
	if !ok {
		return
	}
	delete(members, connectionID)
	if len(members) == 0 {
		delete(r.roomMembers, roomID)
	}
}

func (r *Registry) snapshot(connectionID string, s *session) Snapshot {
	rooms := make([]domain.RoomID, 0, len(s.rooms))
	for roomID := range s.rooms {
		rooms = append(rooms, roomID)
	}
	return Snapshot{
		ConnectionID: connectionID,
		Identity:     s.identity,
		Rooms:        rooms,
		LastActivity: s.lastActivity,
	}
}
