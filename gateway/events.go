package gateway

import (
	"encoding/json"

	"collab-live/domain/event"
)

// Client-issued event names.
const (
	evAuthenticate   = "authenticate"
	evJoinWorkspace  = "join-workspace"
	evLeaveWorkspace = "leave-workspace"
	evSendMessage    = "send-message"
	evNoteUpdate     = "note-update"
	evTypingStart    = "typing-start"
	evTypingStop     = "typing-stop"
)

// Envelope is the wire frame in both directions:
// {"event": "<name>", "data": {...}}.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type authenticatePayload struct {
	Token string `json:"token" validate:"required"`
}

type joinWorkspacePayload struct {
	WorkspaceID string `json:"workspaceId" validate:"required"`
}

type leaveWorkspacePayload struct {
	WorkspaceID string `json:"workspaceId" validate:"required"`
}

type sendMessagePayload struct {
	Content   string  `json:"content"`
	ChannelID *string `json:"channelId"`
}

type noteUpdatePayload struct {
	NoteID      string         `json:"noteId" validate:"required"`
	WorkspaceID string         `json:"workspaceId" validate:"required"`
	Updates     map[string]any `json:"updates"`
}

type typingPayload struct {
	ChannelID *string `json:"channelId"`
}

// encodeServerEvent wraps a server event into its wire envelope.
func encodeServerEvent(e event.ServerEvent) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: e.EventName(), Data: data})
}
