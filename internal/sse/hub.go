package sse

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

const (
	EventNotification = "notification"
	EventPhaseChanged = "phase_changed"
)

type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type PhaseChangedEvent struct {
	ProjectID uuid.UUID `json:"project_id"`
	PhaseID   uuid.UUID `json:"phase_id"`
	Action    string    `json:"action"`
	ChangedBy uuid.UUID `json:"changed_by"`
}

// Client is one open event stream. A user may hold several at once.
type Client struct {
	ID       string
	UserID   uuid.UUID
	Projects map[uuid.UUID]bool
	Send     chan []byte
}

type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *targetedMessage
	mu         sync.RWMutex
}

// targetedMessage reaches every client of UserID, or every client watching ProjectID.
type targetedMessage struct {
	UserID    uuid.UUID
	ProjectID uuid.UUID
	Event     Event
}

func (m *targetedMessage) matches(c *Client) bool {
	if m.UserID != uuid.Nil {
		return c.UserID == m.UserID
	}
	return c.Projects[m.ProjectID]
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *targetedMessage, 256),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if client.Projects == nil {
				client.Projects = make(map[uuid.UUID]bool)
			}
			h.clients[client.ID] = client
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.Send)
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			data, err := json.Marshal(msg.Event)
			if err != nil {
				continue
			}
			h.mu.RLock()
			for _, client := range h.clients {
				if !msg.matches(client) {
					continue
				}
				select {
				case client.Send <- data:
				default:
					// slow consumer, drop
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// ConnectedUsers reports how many distinct users hold at least one stream.
func (h *Hub) ConnectedUsers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	seen := make(map[uuid.UUID]struct{}, len(h.clients))
	for _, c := range h.clients {
		seen[c.UserID] = struct{}{}
	}
	return len(seen)
}

func (h *Hub) WatchProject(clientID string, projectID uuid.UUID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	client, ok := h.clients[clientID]
	if ok {
		client.Projects[projectID] = true
	}
	return ok
}

func (h *Hub) UnwatchProject(clientID string, projectID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[clientID]; ok {
		delete(client.Projects, projectID)
	}
}

// ClientOwner returns the user behind a stream, or uuid.Nil when unknown.
func (h *Hub) ClientOwner(clientID string) uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if client, ok := h.clients[clientID]; ok {
		return client.UserID
	}
	return uuid.Nil
}

func (h *Hub) SendToUser(userID uuid.UUID, eventType string, data interface{}) {
	h.broadcast <- &targetedMessage{
		UserID: userID,
		Event:  Event{Type: eventType, Data: data},
	}
}

func (h *Hub) BroadcastPhaseChange(projectID, phaseID, changedBy uuid.UUID, action string) {
	h.broadcast <- &targetedMessage{
		ProjectID: projectID,
		Event: Event{
			Type: EventPhaseChanged,
			Data: PhaseChangedEvent{
				ProjectID: projectID,
				PhaseID:   phaseID,
				Action:    action,
				ChangedBy: changedBy,
			},
		},
	}
}
