package runtime

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"collab-live/contract"
	"collab-live/domain"
	"collab-live/domain/event"
	"collab-live/errors"
	"collab-live/moderation"
)

// Pipeline drives a chat send from receipt to acknowledgment:
// validate, moderate, rate-check, persist, enrich, broadcast, ack.
// Each rejection emits exactly one signal to the sender and halts; a halt
// never leaks a partial broadcast to the room.
type Pipeline struct {
	log              *slog.Logger
	registry         *Registry
	rooms            *Rooms
	store            contract.MessageStore
	users            contract.UserDirectory
	moderator        *moderation.Moderator
	maxContentLength int
	sinkTimeout      time.Duration
}

func NewPipeline(log *slog.Logger, registry *Registry, rooms *Rooms,
	store contract.MessageStore, users contract.UserDirectory,
	moderator *moderation.Moderator, maxContentLength int, sinkTimeout time.Duration) *Pipeline {
	return &Pipeline{
		log:              log,
		registry:         registry,
		rooms:            rooms,
		store:            store,
		users:            users,
		moderator:        moderator,
		maxContentLength: maxContentLength,
		sinkTimeout:      sinkTimeout,
	}
}

// Send processes one chat-send request from an admitted connection.
// Storage and directory calls are suspension points: the sender may
// disconnect while they run, so registry state is re-checked before any
// sender-only emit. Persistence is still attempted for a disconnecting
// sender; only the acknowledgment is skipped.
func (p *Pipeline) Send(ctx context.Context, connectionID, content string, channelID *string) {
	sender, ok := p.registry.Lookup(connectionID)
	if !ok {
		// Unadmitted senders are rejected at the gateway; nothing to do here.
		return
	}

	if err := domain.ValidateContent(content, p.maxContentLength); err != nil {
		p.emitTo(ctx, connectionID, event.MessageError{Error: validationReason(err)})
		return
	}

	if p.moderator != nil {
		content = p.moderator.Mask(content)
	}

	if !p.registry.AllowSend(connectionID, time.Now()) {
		p.log.Debug("Send refused", "connection", connectionID, "error", errors.ErrRateLimited)
		p.emitTo(ctx, connectionID, event.RateLimited{Message: "Too many messages, slow down"})
		return
	}

	message := domain.ChatMessage{
		ID:        uuid.Must(uuid.NewV7()),
		Content:   content,
		AuthorID:  sender.Identity.UserID,
		ChannelID: channelID,
		CreatedAt: time.Now().UTC(),
		Reactions: make(map[string][]string),
	}

	if err := p.store.InsertMessage(ctx, message); err != nil {
		// Surfaced, not retried: the message is lost and the sender is told so.
		p.log.Error("Message persistence failed", "connection", connectionID, "error", err)
		p.emitTo(ctx, connectionID, event.MessageError{Error: "Failed to send message"})
		return
	}

	display, err := p.users.GetUserDisplay(ctx, message.AuthorID)
	if err != nil {
		// Author vanished between persist and enrich. Abort silently rather
		// than broadcasting a message with no author.
		p.log.Warn("Author lookup failed after persist, dropping broadcast",
			"author", message.AuthorID, "error", err)
		return
	}

	payload := event.NewMessage{
		ID:        message.ID.String(),
		Content:   message.Content,
		AuthorID:  message.AuthorID,
		ChannelID: message.ChannelID,
		CreatedAt: message.CreatedAt,
		Author: event.MessageAuthor{
			Username:    display.Username,
			DisplayName: display.DisplayName,
			Avatar:      display.Avatar,
		},
	}

	// The sender is not excluded: it sees the message via the room broadcast
	// and reconciles optimistic UI state through the ack below.
	p.rooms.Broadcast(ctx, message.Room(), payload, "")

	if _, stillHere := p.registry.Lookup(connectionID); !stillHere {
		return
	}
	p.emitTo(ctx, connectionID, event.MessageSent(payload))
}

// DeliverHistory sends the room's recent messages to one connection, oldest
// first, enriched with author display identities. Failures stay local to the
// requesting connection: a failed read is logged and nothing is delivered,
// a message whose author vanished is skipped.
func (p *Pipeline) DeliverHistory(ctx context.Context, connectionID string, roomID domain.RoomID, channelID *string) {
	if _, ok := p.registry.Lookup(connectionID); !ok {
		return
	}

	messages, _, err := p.store.RecentMessages(ctx, roomID, nil)
	if err != nil {
		p.log.Warn("History read failed", "room", roomID, "error", err)
		return
	}

	// The store returns newest first; clients render history oldest first.
	authors := make(map[string]event.MessageAuthor)
	payloads := make([]event.NewMessage, 0, len(messages))
	for _, message := range lo.Reverse(messages) {
		author, ok := authors[message.AuthorID]
		if !ok {
			display, err := p.users.GetUserDisplay(ctx, message.AuthorID)
			if err != nil {
				p.log.Warn("Author lookup failed for history, skipping message",
					"author", message.AuthorID, "error", err)
				continue
			}
			author = event.MessageAuthor{
				Username:    display.Username,
				DisplayName: display.DisplayName,
				Avatar:      display.Avatar,
			}
			authors[message.AuthorID] = author
		}
		payloads = append(payloads, event.NewMessage{
			ID:        message.ID.String(),
			Content:   message.Content,
			AuthorID:  message.AuthorID,
			ChannelID: message.ChannelID,
			CreatedAt: message.CreatedAt,
			Author:    author,
		})
	}

	p.emitTo(ctx, connectionID, event.RecentMessages{ChannelID: channelID, Messages: payloads})
}

// emitTo delivers a sender-only event, dropping it if the connection is gone.
func (p *Pipeline) emitTo(ctx context.Context, connectionID string, e event.ServerEvent) {
	sink, ok := p.registry.Sink(connectionID)
	if !ok {
		return
	}
	sinkCtx, cancel := context.WithTimeout(ctx, p.sinkTimeout)
	defer cancel()
	if err := sink.Consume(sinkCtx, e); err != nil {
		p.log.Debug("Sender emit dropped", "event", e.EventName(), "error", err)
	}
}

func validationReason(err error) string {
	switch err {
	case errors.ErrEmptyMessage:
		return "Message content cannot be empty"
	case errors.ErrMessageTooLong:
		return "Message content is too long"
	default:
		return "Invalid message"
	}
}
