package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"collab-live/contract"
	"collab-live/domain"
	"collab-live/domain/event"
	"collab-live/errors"
	"collab-live/runtime"
)

// Config bounds one websocket session.
type Config struct {
	SendBufferSize int
	ReadLimit      int64
	SinkTimeout    time.Duration
	CheckOrigin    func(r *http.Request) bool
}

// Gateway upgrades HTTP requests to websocket sessions and dispatches their
// events into the runtime. One goroutine per connection reads its stream,
// so a single connection's events are always handled in receipt order.
type Gateway struct {
	log        *slog.Logger
	upgrader   websocket.Upgrader
	verifier   contract.TokenVerifier
	workspaces contract.WorkspaceDirectory
	registry   *runtime.Registry
	rooms      *runtime.Rooms
	pipeline   *runtime.Pipeline
	presence   *runtime.PresenceBroadcaster
	validate   *validator.Validate
	config     Config
}

func NewGateway(log *slog.Logger, verifier contract.TokenVerifier,
	workspaces contract.WorkspaceDirectory, registry *runtime.Registry,
	rooms *runtime.Rooms, pipeline *runtime.Pipeline,
	presence *runtime.PresenceBroadcaster, config Config) *Gateway {
	return &Gateway{
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     config.CheckOrigin,
		},
		verifier:   verifier,
		workspaces: workspaces,
		registry:   registry,
		rooms:      rooms,
		pipeline:   pipeline,
		presence:   presence,
		validate:   validator.New(),
		config:     config,
	}
}

// ServeHTTP upgrades the request and runs the session until disconnect.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warn("Websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	c := newClient(uuid.NewString(), conn, g.config.SendBufferSize, g.log)
	c.setupRead(g.config.ReadLimit)
	go c.writePump()

	g.log.Info("Connection opened", "connection", c.id, "remote", r.RemoteAddr)
	defer g.teardown(c)

	ctx := context.Background()

	// Deployment variant one: credential supplied at connection time.
	// Variant two arrives as an authenticate event in the read loop.
	if token := connectionCredential(r); token != "" {
		if !g.authenticate(ctx, c, token) {
			return
		}
	}

	g.readLoop(ctx, c)
}

// teardown is the single disconnect path: registry removal happens before
// the offline broadcast, and the broadcast fires only when Remove actually
// returned an admitted record.
func (g *Gateway) teardown(c *client) {
	if removed, ok := g.registry.Remove(c.id); ok {
		g.presence.Offline(context.Background(), c.id, removed.Identity.UserID)
	}
	c.close()
	g.log.Info("Connection closed", "connection", c.id)
}

func (g *Gateway) readLoop(ctx context.Context, c *client) {
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				g.log.Debug("Unexpected read error", "connection", c.id, "error", err)
			}
			return
		}

		g.registry.Touch(c.id)

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			g.log.Debug("Malformed frame", "connection", c.id, "error", err)
			continue
		}

		if !g.dispatch(ctx, c, env) {
			return
		}
	}
}

// dispatch handles one inbound event and reports whether the session may
// continue. Every handler is connection-local: a failure here never touches
// another connection's state.
func (g *Gateway) dispatch(ctx context.Context, c *client, env Envelope) bool {
	if env.Event == evAuthenticate {
		var payload authenticatePayload
		if !g.decode(c, env.Data, &payload) {
			return true
		}
		return g.authenticate(ctx, c, payload.Token)
	}

	// Everything below requires an admitted connection. Fail closed: notify
	// and drop the connection, the client reconnects and re-authenticates.
	sender, ok := g.registry.Lookup(c.id)
	if !ok {
		c.emit(ctx, event.AuthenticationError{Error: "Not authenticated"}, g.config.SinkTimeout)
		return false
	}

	switch env.Event {
	case evJoinWorkspace:
		var payload joinWorkspacePayload
		if g.decode(c, env.Data, &payload) {
			g.joinWorkspace(ctx, c, sender, payload.WorkspaceID)
		}

	case evLeaveWorkspace:
		var payload leaveWorkspacePayload
		if g.decode(c, env.Data, &payload) {
			g.rooms.Leave(c.id, domain.WorkspaceRoom(payload.WorkspaceID))
			c.emit(ctx, event.LeftWorkspace{WorkspaceID: payload.WorkspaceID}, g.config.SinkTimeout)
		}

	case evSendMessage:
		var payload sendMessagePayload
		if g.decode(c, env.Data, &payload) {
			g.pipeline.Send(ctx, c.id, payload.Content, payload.ChannelID)
		}

	case evNoteUpdate:
		// Pass-through relay: note state belongs to the REST layer, the core
		// only mirrors live edits to the workspace room.
		var payload noteUpdatePayload
		if g.decode(c, env.Data, &payload) {
			g.rooms.Broadcast(ctx, domain.WorkspaceRoom(payload.WorkspaceID), event.NoteUpdated{
				NoteID:  payload.NoteID,
				Updates: payload.Updates,
				UserID:  sender.Identity.UserID,
			}, c.id)
		}

	case evTypingStart:
		// Typing signals stay global regardless of the channel the client is
		// viewing; the channel id is forwarded for client-side filtering.
		var payload typingPayload
		if g.decode(c, env.Data, &payload) {
			g.rooms.Broadcast(ctx, domain.GlobalRoom, event.UserTyping{
				UserID:    sender.Identity.UserID,
				ChannelID: payload.ChannelID,
			}, c.id)
		}

	case evTypingStop:
		var payload typingPayload
		if g.decode(c, env.Data, &payload) {
			g.rooms.Broadcast(ctx, domain.GlobalRoom, event.UserStoppedTyping{
				UserID:    sender.Identity.UserID,
				ChannelID: payload.ChannelID,
			}, c.id)
		}

	default:
		g.log.Debug("Unknown event", "connection", c.id, "event", env.Event)
	}
	return true
}

// authenticate verifies the credential and admits the connection. A failed
// verification never partially admits: no registry entry, no rooms. The
// session ends immediately after the error event.
func (g *Gateway) authenticate(ctx context.Context, c *client, token string) bool {
	identity, err := g.verifier.Verify(ctx, token)
	if err != nil {
		g.log.Info("Authentication failed", "connection", c.id, "error", err)
		c.emit(ctx, event.AuthenticationError{Error: "Authentication failed"}, g.config.SinkTimeout)
		return false
	}

	if err := g.registry.Admit(c.id, identity, c); err != nil {
		// Duplicate authenticate on a live session: idempotent ack echoing
		// the registry's identity, which stays authoritative even when the
		// replayed credential resolves to someone else.
		if existing, ok := g.registry.Lookup(c.id); ok {
			c.emit(ctx, authenticatedEvent(existing.Identity), g.config.SinkTimeout)
		}
		return true
	}

	c.emit(ctx, authenticatedEvent(identity), g.config.SinkTimeout)
	g.presence.Online(ctx, c.id, identity.UserID)
	g.pipeline.DeliverHistory(ctx, c.id, domain.GlobalRoom, nil)
	g.log.Info("Connection authenticated", "connection", c.id, "user", identity.UserID)
	return true
}

// joinWorkspace grants the room only to workspace members. The membership
// check is a suspension point, so the session is re-checked before the ack.
func (g *Gateway) joinWorkspace(ctx context.Context, c *client, sender runtime.Snapshot, workspaceID string) {
	member, err := g.workspaces.IsMember(ctx, sender.Identity.UserID, workspaceID)
	if err != nil {
		g.log.Error("Workspace membership check failed", "workspace", workspaceID, "error", err)
		c.emit(ctx, event.MessageError{Error: "Failed to join workspace"}, g.config.SinkTimeout)
		return
	}
	if !member {
		g.log.Info("Workspace join refused", "workspace", workspaceID,
			"user", sender.Identity.UserID, "error", errors.ErrNotWorkspaceMember)
		c.emit(ctx, event.MessageError{Error: "Not a member of this workspace"}, g.config.SinkTimeout)
		return
	}

	if _, stillHere := g.registry.Lookup(c.id); !stillHere {
		return
	}
	if err := g.rooms.Join(c.id, domain.WorkspaceRoom(workspaceID)); err != nil {
		c.emit(ctx, event.AuthenticationError{Error: "Not authenticated"}, g.config.SinkTimeout)
		return
	}
	c.emit(ctx, event.JoinedWorkspace{WorkspaceID: workspaceID}, g.config.SinkTimeout)
	g.pipeline.DeliverHistory(ctx, c.id, domain.WorkspaceRoom(workspaceID), &workspaceID)
}

// decode unmarshals and validates an event payload, reporting a sender-only
// error on malformed input.
func (g *Gateway) decode(c *client, raw json.RawMessage, out any) bool {
	if err := json.Unmarshal(raw, out); err != nil {
		c.emit(context.Background(), event.MessageError{Error: "Malformed payload"}, g.config.SinkTimeout)
		return false
	}
	if err := g.validate.Struct(out); err != nil {
		c.emit(context.Background(), event.MessageError{Error: "Invalid payload"}, g.config.SinkTimeout)
		return false
	}
	return true
}

// connectionCredential extracts a connection-time credential from the query
// string or an Authorization bearer header. Empty means the client will
// authenticate over the channel instead.
func connectionCredential(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return after
	}
	return ""
}

func authenticatedEvent(identity domain.Identity) event.Authenticated {
	return event.Authenticated{
		Success: true,
		UserID:  identity.UserID,
		User: event.MessageAuthor{
			Username:    identity.Username,
			DisplayName: identity.DisplayName,
			Avatar:      identity.Avatar,
		},
	}
}
