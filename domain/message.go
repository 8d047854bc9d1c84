// Package domain contains core concepts of the collaboration core.
// This file defines chat messages and their content rules.
// Messages are immutable once created.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"collab-live/errors"
)

// MaxContentLength is the default bound on chat message content, in runes.
const MaxContentLength = 1000

// ChatMessage is a persisted chat event. ChannelID is nil for the global room.
// Reactions start empty and are never mutated by this core.
type ChatMessage struct {
	ID        uuid.UUID
	Content   string
	AuthorID  string
	ChannelID *string
	CreatedAt time.Time
	Reactions map[string][]string
}

// Room resolves the broadcast scope of the message: the workspace room when
// ChannelID is set, the global room otherwise.
func (m ChatMessage) Room() RoomID {
	if m.ChannelID != nil {
		return WorkspaceRoom(*m.ChannelID)
	}
	return GlobalRoom
}

// ValidateContent enforces the content rules for a chat send: non-empty after
// trimming and within the rune length bound.
func ValidateContent(content string, maxLength int) error {
	if strings.TrimSpace(content) == "" {
		return errors.ErrEmptyMessage
	}
	if len([]rune(content)) > maxLength {
		return errors.ErrMessageTooLong
	}
	return nil
}
