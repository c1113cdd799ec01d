package handler

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"cinreq/internal/httputil"
	"cinreq/internal/presence"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// Cross-origin policy is enforced by the CORS middleware on the
		// rest of the API; the bearer token gates this endpoint.
		return true
	},
}

// PresenceHandler upgrades presence connections and hands them to the hub
type PresenceHandler struct {
	hub    *presence.Hub
	logger *slog.Logger
}

// NewPresenceHandler creates a new presence handler
func NewPresenceHandler(hub *presence.Hub, logger *slog.Logger) *PresenceHandler {
	return &PresenceHandler{
		hub:    hub,
		logger: logger,
	}
}

// Connect joins the caller to a document's presence room
// GET /api/documents/{id}/presence (websocket upgrade)
func (h *PresenceHandler) Connect(w http.ResponseWriter, r *http.Request) {
	documentID := r.PathValue("id")
	userID := httputil.GetUserID(r)
	displayName := httputil.GetDisplayName(r)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response
		h.logger.Error("websocket upgrade failed", "error", err, "document_id", documentID)
		return
	}
	defer conn.Close()

	h.hub.Join(documentID, conn, userID, displayName)
}
