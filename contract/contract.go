//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"collab-live/domain"
	"collab-live/domain/event"
)

// TokenVerifier resolves an opaque credential to an authenticated identity.
// It fails closed: any doubt about the credential is an error.
type TokenVerifier interface {
	Verify(ctx context.Context, credential string) (domain.Identity, error)
}

// UserDirectory looks up the display identity of a user by id.
type UserDirectory interface {
	GetUserDisplay(ctx context.Context, userID string) (domain.UserDisplay, error)
}

// PresenceStore records the online/offline status of a user. Writes are
// fire-and-forget from the caller's point of view: failures are logged,
// never propagated to the connection.
type PresenceStore interface {
	SetOnlineStatus(ctx context.Context, userID string, online bool) error
}

// MessageStore persists chat messages and reads back recent history.
type MessageStore interface {
	InsertMessage(ctx context.Context, message domain.ChatMessage) error
	RecentMessages(ctx context.Context, roomID domain.RoomID, cursor *string) ([]domain.ChatMessage, *string, error)
}

// WorkspaceDirectory answers workspace membership questions. The REST layer
// owns workspace state; the core only asks before granting a room join.
type WorkspaceDirectory interface {
	IsMember(ctx context.Context, userID, workspaceID string) (bool, error)
}

// EventSink is a client connection's inbox. Consume must not block the
// caller beyond the context deadline; a slow consumer loses events rather
// than stalling the fan-out.
type EventSink interface {
	Consume(ctx context.Context, e event.ServerEvent) error
}

// Worker doesn't protect itself.
// Can be silly, focused.
type Worker interface {
	Run(ctx context.Context) error
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// GetWorkerName uses reflection to retrieve the type name of the worker,
// for logging and supervision purposes, avoiding manual naming in the
// Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
