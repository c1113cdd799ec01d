package presence

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// sendBuffer bounds per-client outbound queues. A client that cannot
	// drain presence events this far behind is dropped rather than allowed
	// to stall the room.
	sendBuffer = 64
)

// Cursor marks where in the document a participant's attention sits.
type Cursor struct {
	SectionID string `json:"section_id"`
	Offset    int    `json:"offset"`
}

// Participant is one connected editor as seen by the rest of the room.
type Participant struct {
	UserID      string  `json:"user_id"`
	DisplayName string  `json:"display_name"`
	Cursor      *Cursor `json:"cursor"`
}

// Event is the wire format for everything the hub sends and receives.
// Inbound, only "cursor" is meaningful; a null cursor clears the sender's
// position. Outbound types are "roster", "join", "leave", and "cursor".
type Event struct {
	Type        string        `json:"type"`
	UserID      string        `json:"user_id,omitempty"`
	DisplayName string        `json:"display_name,omitempty"`
	Cursor      *Cursor       `json:"cursor"`
	Roster      []Participant `json:"roster,omitempty"`
}

type client struct {
	conn        *websocket.Conn
	send        chan []byte
	userID      string
	displayName string

	mu     sync.Mutex
	cursor *Cursor
}

func (c *client) snapshot() Participant {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Participant{UserID: c.userID, DisplayName: c.displayName, Cursor: c.cursor}
}

// Hub fans presence events out to every client connected to the same
// document. Rooms are created on first join and removed when the last
// client leaves.
type Hub struct {
	logger *slog.Logger

	mu    sync.RWMutex
	rooms map[string]map[*client]struct{}
}

// NewHub creates an empty presence hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger: logger,
		rooms:  make(map[string]map[*client]struct{}),
	}
}

// Join registers a websocket connection in a document's room and services it
// until the connection drops. It blocks for the lifetime of the connection,
// so handlers should call it as the last thing they do.
func (h *Hub) Join(documentID string, conn *websocket.Conn, userID, displayName string) {
	c := &client{
		conn:        conn,
		send:        make(chan []byte, sendBuffer),
		userID:      userID,
		displayName: displayName,
	}

	h.add(documentID, c)
	h.logger.Info("presence client joined", "document_id", documentID, "user_id", userID)

	// The newcomer gets the full roster; everyone else gets a join event.
	h.sendTo(c, Event{Type: "roster", Roster: h.roster(documentID)})
	h.broadcast(documentID, c, Event{Type: "join", UserID: userID, DisplayName: displayName})

	go c.writePump()
	c.readPump(h, documentID)

	h.remove(documentID, c)
	h.broadcast(documentID, nil, Event{Type: "leave", UserID: userID, DisplayName: displayName})
	h.logger.Info("presence client left", "document_id", documentID, "user_id", userID)
}

func (h *Hub) add(documentID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[documentID]
	if !ok {
		room = make(map[*client]struct{})
		h.rooms[documentID] = room
	}
	room[c] = struct{}{}
}

func (h *Hub) remove(documentID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if room, ok := h.rooms[documentID]; ok {
		if _, present := room[c]; present {
			delete(room, c)
			close(c.send)
		}
		if len(room) == 0 {
			delete(h.rooms, documentID)
		}
	}
}

// roster returns a point-in-time view of the room's participants.
func (h *Hub) roster(documentID string) []Participant {
	h.mu.RLock()
	defer h.mu.RUnlock()

	participants := make([]Participant, 0, len(h.rooms[documentID]))
	for c := range h.rooms[documentID] {
		participants = append(participants, c.snapshot())
	}
	return participants
}

// broadcast sends an event to every client in the room except skip.
// Clients whose send buffer is full are disconnected; presence is
// best-effort and a stalled consumer must not back up the room.
func (h *Hub) broadcast(documentID string, skip *client, ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("failed to encode presence event", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[documentID] {
		if c == skip {
			continue
		}
		select {
		case c.send <- payload:
		default:
			go c.conn.Close()
		}
	}
}

func (h *Hub) sendTo(c *client, ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("failed to encode presence event", "error", err)
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}

// readPump consumes inbound events until the connection closes. Only cursor
// events are accepted; anything else is ignored.
func (c *client) readPump(h *Hub, documentID string) {
	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var ev Event
		if err := c.conn.ReadJSON(&ev); err != nil {
			return
		}
		if ev.Type != "cursor" {
			continue
		}

		c.mu.Lock()
		c.cursor = ev.Cursor
		c.mu.Unlock()

		h.broadcast(documentID, c, Event{
			Type:        "cursor",
			UserID:      c.userID,
			DisplayName: c.displayName,
			Cursor:      ev.Cursor,
		})
	}
}

// writePump drains the send channel and keeps the connection alive with
// pings. It exits when the channel closes or a write fails.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
