package domain

// RoomID identifies a broadcast scope. Rooms are derived, never persisted:
// membership lives only in the connection registry.
type RoomID string

// GlobalRoom is the room every authenticated connection joins on admission.
const GlobalRoom RoomID = "global"

const workspacePrefix = "workspace-"

// WorkspaceRoom derives the room id for a workspace.
func WorkspaceRoom(workspaceID string) RoomID {
	return RoomID(workspacePrefix + workspaceID)
}
