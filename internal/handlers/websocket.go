package handlers

import (
	"encoding/json"
	"log"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/scrumkit/scrumkit-api/internal/middleware"
	"github.com/scrumkit/scrumkit-api/internal/models"
	"github.com/scrumkit/scrumkit-api/internal/querycache"
	"github.com/scrumkit/scrumkit-api/internal/retro"
)

// Event types sent over WebSocket
const (
	EventParticipantJoined = "participant_joined"
	EventParticipantLeft   = "participant_left"
	EventBoardUpdated      = "board_updated"
	EventColumnsUpdated    = "columns_updated"
	EventItemsUpdated      = "items_updated"
	EventVotesUpdated      = "votes_updated"
	EventVoteStatsUpdated  = "vote_stats_updated"
	EventNotice            = "notice"

	EventStoryAdded          = "story_added"
	EventStoryRemoved        = "story_removed"
	EventStoriesReordered    = "stories_reordered"
	EventEstimateSubmitted   = "estimate_submitted"
	EventStoryRevealed       = "story_revealed"
	EventStoryEstimated      = "story_estimated"
	EventCurrentStoryChanged = "current_story_changed"
	EventSessionFinished     = "session_finished"
)

// WSEvent is the JSON message sent to connected clients
type WSEvent struct {
	Type    string      `json:"type"`
	BoardID string      `json:"boardId"`
	ActorID string      `json:"actorId,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// connection wraps a websocket connection with the participant behind it.
// writeMu serializes writes: broadcasts arrive concurrently from handler
// goroutines and the store bridge.
type connection struct {
	conn    *websocket.Conn
	actorID string
	writeMu sync.Mutex
}

func (c *connection) send(msg []byte) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		log.Printf("WS write error: %v", err)
	}
}

// Hub manages WebSocket connections per room. Retro boards and poker sessions
// share the hub; the room key is the board or session ID.
type Hub struct {
	mu    sync.RWMutex
	rooms map[uuid.UUID]map[*connection]bool

	// OnEmpty is invoked after the last connection leaves a room. Wired in
	// main to stop polling the board and release its cached state.
	OnEmpty func(roomID uuid.UUID)
}

// Global hub instance
var WS = &Hub{
	rooms: make(map[uuid.UUID]map[*connection]bool),
}

// register adds a connection to a room and announces the join
func (h *Hub) register(roomID uuid.UUID, conn *connection) {
	h.mu.Lock()
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*connection]bool)
	}
	h.rooms[roomID][conn] = true
	total := len(h.rooms[roomID])
	h.mu.Unlock()

	log.Printf("WS register: %s joined room %s (total: %d)", conn.actorID, roomID, total)
	h.Broadcast(roomID, conn.actorID, WSEvent{
		Type:    EventParticipantJoined,
		BoardID: roomID.String(),
		ActorID: conn.actorID,
		Data:    fiber.Map{"participants": total},
	})
}

// unregister removes a connection from a room, announces the leave, and fires
// OnEmpty when the room drains
func (h *Hub) unregister(roomID uuid.UUID, conn *connection) {
	h.mu.Lock()
	remaining := -1
	if conns, ok := h.rooms[roomID]; ok {
		delete(conns, conn)
		remaining = len(conns)
		if remaining == 0 {
			delete(h.rooms, roomID)
		}
	}
	h.mu.Unlock()

	if remaining < 0 {
		return
	}
	log.Printf("WS unregister: %s left room %s (remaining: %d)", conn.actorID, roomID, remaining)

	if remaining == 0 {
		if h.OnEmpty != nil {
			h.OnEmpty(roomID)
		}
		return
	}
	h.Broadcast(roomID, conn.actorID, WSEvent{
		Type:    EventParticipantLeft,
		BoardID: roomID.String(),
		ActorID: conn.actorID,
		Data:    fiber.Map{"participants": remaining},
	})
}

// Broadcast sends an event to all connections in a room. A non-empty
// excludeActorID skips that participant's connections.
func (h *Hub) Broadcast(roomID uuid.UUID, excludeActorID string, event WSEvent) {
	msg, err := json.Marshal(event)
	if err != nil {
		log.Printf("WS broadcast marshal error: %v", err)
		return
	}

	h.mu.RLock()
	conns := make([]*connection, 0, len(h.rooms[roomID]))
	for c := range h.rooms[roomID] {
		if excludeActorID != "" && c.actorID == excludeActorID {
			continue
		}
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	// Writes happen outside the hub lock; a slow client must not stall the room.
	for _, c := range conns {
		c.send(msg)
	}
}

// SendToActor delivers an event to one participant's connections across all
// rooms.
func (h *Hub) SendToActor(actorID string, event WSEvent) {
	msg, err := json.Marshal(event)
	if err != nil {
		log.Printf("WS send marshal error: %v", err)
		return
	}

	h.mu.RLock()
	var conns []*connection
	for _, room := range h.rooms {
		for c := range room {
			if c.actorID == actorID {
				conns = append(conns, c)
			}
		}
	}
	h.mu.RUnlock()

	for _, c := range conns {
		c.send(msg)
	}
}

// IsPresent reports whether the participant has a live connection in the room.
func (h *Hub) IsPresent(roomID uuid.UUID, actorID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[roomID] {
		if c.actorID == actorID {
			return true
		}
	}
	return false
}

// Notify implements the orchestrator's notifier port: the acting participant
// receives their one terminal notice per mutation on their own connections.
func (h *Hub) Notify(actorID string, n retro.Notice) {
	h.SendToActor(actorID, WSEvent{
		Type:    EventNotice,
		ActorID: actorID,
		Data:    n,
	})
}

// BindCache forwards store change notifications to the affected board room so
// every connected client learns which scope to refetch. Voter-stats changes go
// only to the voter they belong to. Returns the unsubscribe func.
func (h *Hub) BindCache(store *querycache.Store) func() {
	return store.Subscribe(func(key querycache.Key) {
		boardID, eventType, actorID, ok := routeKey(key)
		if !ok {
			return
		}
		event := WSEvent{Type: eventType, BoardID: boardID.String()}
		if actorID != "" {
			h.SendToActor(actorID, event)
			return
		}
		h.Broadcast(boardID, "", event)
	})
}

// routeKey maps a store key onto the event it should produce: the room to
// broadcast into and, for voter stats, the single actor to target.
func routeKey(key querycache.Key) (boardID uuid.UUID, eventType, actorID string, ok bool) {
	if len(key) < 3 || key[0] != "boards" || key[1] != "detail" {
		return uuid.Nil, "", "", false
	}
	boardID, err := uuid.Parse(key[2])
	if err != nil {
		return uuid.Nil, "", "", false
	}
	if len(key) == 3 {
		return boardID, EventBoardUpdated, "", true
	}
	switch key[3] {
	case "columns":
		return boardID, EventColumnsUpdated, "", true
	case "items":
		return boardID, EventItemsUpdated, "", true
	case "votes":
		return boardID, EventVotesUpdated, "", true
	case "vote-stats":
		if len(key) < 5 {
			return uuid.Nil, "", "", false
		}
		return boardID, EventVoteStatsUpdated, key[4], true
	}
	return uuid.Nil, "", "", false
}

// WebSocketUpgrade checks the upgrade request and resolves the participant:
// a JWT from ?token= or the Authorization header, else the anonymous session
// cookie minted by the HTTP API.
func WebSocketUpgrade() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		tokenString := c.Query("token")
		if tokenString == "" {
			authHeader := c.Get("Authorization")
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				tokenString = ""
			}
		}

		if tokenString != "" {
			claims, err := middleware.ParseToken(tokenString)
			if err != nil {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "Invalid or expired token",
				})
			}
			c.Locals("actorId", claims.UserID.String())
			return c.Next()
		}

		if anon := c.Cookies(middleware.AnonCookie); models.IsAnonymousID(anon) {
			c.Locals("actorId", anon)
			return c.Next()
		}

		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Missing authentication token",
		})
	}
}

// HandleBoardSocket serves a retro board room: joins the hub, starts polling
// the board, and keeps reading until the client goes away.
func HandleBoardSocket(c *websocket.Conn) {
	serveRoom(c, true)
}

// HandlePokerSocket serves a poker session room. Poker events are produced by
// the handlers directly; no cache or polling is involved.
func HandlePokerSocket(c *websocket.Conn) {
	serveRoom(c, false)
}

func serveRoom(c *websocket.Conn, track bool) {
	roomID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		c.Close()
		return
	}
	actorID, ok := c.Locals("actorId").(string)
	if !ok || actorID == "" {
		c.Close()
		return
	}

	conn := &connection{conn: c, actorID: actorID}
	WS.register(roomID, conn)
	if track {
		Poller.Track(roomID)
	}
	defer WS.unregister(roomID, conn)

	// Keep connection alive — read messages (client sends pings/keepalives)
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			break
		}
	}
}
