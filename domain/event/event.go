// Package event defines the server-emitted events delivered to connected
// clients through sinks. Payloads are wire-ready: field names match the
// JSON contract of the event channel.
package event

import "time"

// ServerEvent is anything the core pushes to a client connection.
type ServerEvent interface {
	EventName() string
}

// MessageAuthor is the enriched display identity attached to a broadcast message.
type MessageAuthor struct {
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Avatar      string `json:"avatar,omitempty"`
}

// NewMessage fans out to the target room after a chat message is persisted
// and enriched. MessageSent carries the identical payload back to the sender
// as its acknowledgment.
type NewMessage struct {
	ID        string        `json:"id"`
	Content   string        `json:"content"`
	AuthorID  string        `json:"authorId"`
	ChannelID *string       `json:"channelId"`
	CreatedAt time.Time     `json:"createdAt"`
	Author    MessageAuthor `json:"author"`
}

func (NewMessage) EventName() string { return "new-message" }

// MessageSent is the sender-only acknowledgment for a delivered send.
type MessageSent NewMessage

func (MessageSent) EventName() string { return "message-sent" }

type Authenticated struct {
	Success bool          `json:"success"`
	User    MessageAuthor `json:"user"`
	UserID  string        `json:"userId"`
}

func (Authenticated) EventName() string { return "authenticated" }

type AuthenticationError struct {
	Error string `json:"error"`
}

func (AuthenticationError) EventName() string { return "authentication-error" }

type MessageError struct {
	Error string `json:"error"`
}

func (MessageError) EventName() string { return "message-error" }

type RateLimited struct {
	Message string `json:"message"`
}

func (RateLimited) EventName() string { return "rate-limited" }

type JoinedWorkspace struct {
	WorkspaceID string `json:"workspaceId"`
}

func (JoinedWorkspace) EventName() string { return "joined-workspace" }

type LeftWorkspace struct {
	WorkspaceID string `json:"workspaceId"`
}

func (LeftWorkspace) EventName() string { return "left-workspace" }

type UserOnline struct {
	UserID string `json:"userId"`
}

func (UserOnline) EventName() string { return "user-online" }

type UserOffline struct {
	UserID string `json:"userId"`
}

func (UserOffline) EventName() string { return "user-offline" }

// RecentMessages delivers a room's stored history to one connection, oldest
// first, after it gains access to the room. ChannelID is nil for the global
// room.
type RecentMessages struct {
	ChannelID *string      `json:"channelId"`
	Messages  []NewMessage `json:"messages"`
}

func (RecentMessages) EventName() string { return "recent-messages" }

// NoteUpdated relays a live note edit to the workspace room. The core does
// not persist note state; the REST layer owns it.
type NoteUpdated struct {
	NoteID  string         `json:"noteId"`
	Updates map[string]any `json:"updates"`
	UserID  string         `json:"userId"`
}

func (NoteUpdated) EventName() string { return "note-updated" }

// UserTyping and UserStoppedTyping are ephemeral presence signals. They are
// always broadcast to the global room regardless of the channel the client
// is viewing.
type UserTyping struct {
	UserID    string  `json:"userId"`
	ChannelID *string `json:"channelId"`
}

func (UserTyping) EventName() string { return "user-typing" }

type UserStoppedTyping struct {
	UserID    string  `json:"userId"`
	ChannelID *string `json:"channelId"`
}

func (UserStoppedTyping) EventName() string { return "user-stopped-typing" }
