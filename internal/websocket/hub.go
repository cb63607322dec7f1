package websocket

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/taskhive/taskhive-be/internal/auth"
	"github.com/taskhive/taskhive-be/internal/models"
)

// Event is a task-scoped notification fanned out to connected clients
// allowed to see the task.
type Event struct {
	Action string
	Task   models.Task
}

// Hub maintains the set of active clients and routes task events to
// them. Delivery follows the same ownership policy as the HTTP API:
// owners receive events for their tasks, admins receive everything.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Events published by background workers for fan-out.
	Events chan Event

	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		Events:     make(chan Event, 16),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// Publish queues an event for delivery.
func (h *Hub) Publish(action string, task models.Task) {
	h.Events <- Event{Action: action, Task: task}
}

// Run starts the Hub's event processing loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.clients[client] = true
			log.Info().Str("user_id", client.Principal.ID).Int("total_clients", len(h.clients)).Msg("Client connected")
		case client := <-h.Unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				log.Info().Str("user_id", client.Principal.ID).Int("total_clients", len(h.clients)).Msg("Client disconnected")
			}
		case event := <-h.Events:
			data, err := json.Marshal(Message{Action: event.Action, Payload: event.Task})
			if err != nil {
				log.Error().Err(err).Str("action", event.Action).Msg("Failed to encode event")
				continue
			}
			for client := range h.clients {
				if !auth.CanAccess(client.Principal, event.Task.OwnerID) {
					continue
				}
				select {
				case client.Send <- data:
				default:
					close(client.Send)
					delete(h.clients, client)
				}
			}
		}
	}
}
