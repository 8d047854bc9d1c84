package runtime

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"collab-live/domain"
	"collab-live/domain/event"
	"collab-live/mocks"
)

func TestRooms_BroadcastScopedToMembers(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)

	registry := NewRegistry(10, time.Minute)
	rooms := NewRooms(registry, slog.Default(), time.Second)
	room := domain.WorkspaceRoom("w1")

	inRoom := mocks.NewMockEventSink(ctrl)
	outside := mocks.NewMockEventSink(ctrl)

	req.NoError(registry.Admit("c1", identityFor("u1"), inRoom))
	req.NoError(registry.Admit("c2", identityFor("u2"), outside))
	req.NoError(rooms.Join("c1", room))

	evt := event.NoteUpdated{NoteID: "n1", UserID: "u1"}

	// Only the room member receives the event
	inRoom.EXPECT().Consume(gomock.Any(), evt).Return(nil).Times(1)

	rooms.Broadcast(context.Background(), room, evt, "")
}

func TestRooms_BroadcastExcludesSender(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)

	registry := NewRegistry(10, time.Minute)
	rooms := NewRooms(registry, slog.Default(), time.Second)

	sender := mocks.NewMockEventSink(ctrl)
	other := mocks.NewMockEventSink(ctrl)

	req.NoError(registry.Admit("c1", identityFor("u1"), sender))
	req.NoError(registry.Admit("c2", identityFor("u2"), other))

	evt := event.UserTyping{UserID: "u1"}
	other.EXPECT().Consume(gomock.Any(), evt).Return(nil).Times(1)

	rooms.Broadcast(context.Background(), domain.GlobalRoom, evt, "c1")
}

func TestRooms_BroadcastToEmptyRoomIsNoop(t *testing.T) {
	registry := NewRegistry(10, time.Minute)
	rooms := NewRooms(registry, slog.Default(), time.Second)

	// No members, no panics, nothing delivered
	rooms.Broadcast(context.Background(), domain.WorkspaceRoom("empty"), event.UserOnline{UserID: "u1"}, "")
}

func TestRooms_OneFailingSinkDoesNotStopTheOthers(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)

	registry := NewRegistry(10, time.Minute)
	rooms := NewRooms(registry, slog.Default(), time.Second)

	failing := mocks.NewMockEventSink(ctrl)
	healthy := mocks.NewMockEventSink(ctrl)

	req.NoError(registry.Admit("c1", identityFor("u1"), failing))
	req.NoError(registry.Admit("c2", identityFor("u2"), healthy))

	evt := event.UserOffline{UserID: "gone"}
	failing.EXPECT().Consume(gomock.Any(), evt).Return(context.DeadlineExceeded).Times(1)
	healthy.EXPECT().Consume(gomock.Any(), evt).Return(nil).Times(1)

	rooms.BroadcastAll(context.Background(), evt, "")
}
