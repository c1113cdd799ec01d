package docsession

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// Cursor marks where in the document a participant's attention sits.
// A nil cursor means "not currently pointing inside the canvas."
type Cursor struct {
	SectionID string `json:"section_id"`
	Offset    int    `json:"offset"`
}

// RemoteParticipant is another connected editor: identity plus their last
// known cursor, if any.
type RemoteParticipant struct {
	UserID      string  `json:"user_id"`
	DisplayName string  `json:"display_name"`
	Cursor      *Cursor `json:"cursor"`
}

// PresenceEvent is the wire format of the presence channel. Outbound, only
// cursor events are sent; inbound, roster/join/leave/cursor all occur.
type PresenceEvent struct {
	Type        string              `json:"type"`
	UserID      string              `json:"user_id,omitempty"`
	DisplayName string              `json:"display_name,omitempty"`
	Cursor      *Cursor             `json:"cursor"`
	Roster      []RemoteParticipant `json:"roster,omitempty"`
}

// PresenceChannel is a bidirectional channel scoped to one document.
type PresenceChannel interface {
	// Connect (re-)establishes the channel. Safe to call after a failure.
	Connect(ctx context.Context) error
	Send(ev PresenceEvent) error
	// Receive blocks for the next event; a returned error means the
	// connection is dead and Connect must be called again.
	Receive() (*PresenceEvent, error)
	Close() error
}

// WebsocketChannel implements PresenceChannel over a websocket carrying a
// bearer credential.
type WebsocketChannel struct {
	url   string
	token string

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewWebsocketChannel creates a channel for the given presence endpoint,
// e.g. "wss://api.example.com/api/documents/<id>/presence".
func NewWebsocketChannel(url, token string) *WebsocketChannel {
	return &WebsocketChannel{url: url, token: token}
}

func (w *WebsocketChannel) Connect(ctx context.Context) error {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+w.token)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, w.url, header)
	if err != nil {
		return fmt.Errorf("dial presence channel: %v: %w", err, ErrNetworkFailed)
	}

	w.mu.Lock()
	if w.conn != nil {
		w.conn.Close()
	}
	w.conn = conn
	w.mu.Unlock()
	return nil
}

func (w *WebsocketChannel) Send(ev PresenceEvent) error {
	w.mu.Lock()
	conn := w.conn
	w.mu.Unlock()

	if conn == nil {
		return fmt.Errorf("presence channel not connected: %w", ErrNetworkFailed)
	}
	if err := conn.WriteJSON(ev); err != nil {
		return fmt.Errorf("send presence event: %v: %w", err, ErrNetworkFailed)
	}
	return nil
}

func (w *WebsocketChannel) Receive() (*PresenceEvent, error) {
	w.mu.Lock()
	conn := w.conn
	w.mu.Unlock()

	if conn == nil {
		return nil, fmt.Errorf("presence channel not connected: %w", ErrNetworkFailed)
	}

	var ev PresenceEvent
	if err := conn.ReadJSON(&ev); err != nil {
		return nil, fmt.Errorf("receive presence event: %v: %w", err, ErrNetworkFailed)
	}
	return &ev, nil
}

func (w *WebsocketChannel) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn == nil {
		return nil
	}
	err := w.conn.Close()
	w.conn = nil
	return err
}
