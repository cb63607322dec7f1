package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/taskhive/taskhive-be/internal/auth"
	ws "github.com/taskhive/taskhive-be/internal/websocket"
)

// WebSocketHandler upgrades HTTP connections to websocket connections
// carrying task events.
type WebSocketHandler struct {
	hub   *ws.Hub
	guard *auth.Guard
}

// NewWebSocketHandler creates a new WebSocketHandler.
func NewWebSocketHandler(hub *ws.Hub, guard *auth.Guard) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, guard: guard}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS for the REST surface is handled by the router; the
		// browser's Origin header is not a trust boundary here.
		return true
	},
}

// Serve handles the websocket connection request. The route runs
// behind the optional auth middleware so non-browser clients can use
// the Authorization header; browsers, which cannot set headers on
// websocket upgrades, pass the same bearer token as a query parameter.
func (h *WebSocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFrom(r.Context())
	if !ok {
		var err error
		principal, err = h.guard.AuthenticateToken(r.Context(), r.URL.Query().Get("token"))
		if err != nil {
			http.Error(w, "Not authorized", http.StatusUnauthorized)
			return
		}
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade websocket connection")
		return
	}

	client := ws.NewClient(h.hub, conn, principal)
	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
