package websocket

import (
	"sync"
	"time"

	"github.com/richxcame/cyberguard/pkg/logger"
	"go.uber.org/zap"
)

// Message is a frame exchanged with websocket clients
type Message struct {
	Type      string                 `json:"type"`
	Room      string                 `json:"analysisId,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// HandlerFunc handles an inbound client message
type HandlerFunc func(client *Client, msg *Message)

type roomMessage struct {
	room string
	msg  *Message
}

// Hub tracks connected clients and the rooms (analyses) they follow
type Hub struct {
	clients  map[string]*Client
	rooms    map[string]map[string]*Client
	handlers map[string]HandlerFunc
	mu       sync.RWMutex

	Register   chan *Client
	Unregister chan *Client
	Broadcast  chan *roomMessage

	done chan struct{}
	once sync.Once
}

// NewHub creates a hub. Call Run to start it.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		rooms:      make(map[string]map[string]*Client),
		handlers:   make(map[string]HandlerFunc),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Broadcast:  make(chan *roomMessage, 256),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and broadcasts until Stop is called
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.register(client)
		case client := <-h.Unregister:
			h.unregister(client)
		case rm := <-h.Broadcast:
			h.deliver(rm)
		case <-h.done:
			h.closeAll()
			return
		}
	}
}

// Stop shuts the hub down and closes every client
func (h *Hub) Stop() {
	h.once.Do(func() { close(h.done) })
}

func (h *Hub) register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, ok := h.clients[client.ID]; ok && existing != client {
		h.detach(existing)
		existing.closeSend()
	}
	h.clients[client.ID] = client
	logger.Debug("websocket client registered", zap.String("client_id", client.ID))
}

// remove unregisters client unless the hub has stopped
func (h *Hub) remove(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, ok := h.clients[client.ID]; ok && current == client {
		h.detach(client)
		delete(h.clients, client.ID)
		client.closeSend()
	}
}

// detach removes client from its room; h.mu must be held
func (h *Hub) detach(client *Client) {
	room := client.GetRoom()
	if room == "" {
		return
	}
	if members, ok := h.rooms[room]; ok {
		delete(members, client.ID)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	client.setRoom("")
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, client := range h.clients {
		client.closeSend()
		delete(h.clients, id)
	}
	h.rooms = make(map[string]map[string]*Client)
}

func (h *Hub) deliver(rm *roomMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if rm.room == "" {
		for _, client := range h.clients {
			client.trySend(rm.msg)
		}
		return
	}
	for _, client := range h.rooms[rm.room] {
		client.trySend(rm.msg)
	}
}

// AddClientToRoom subscribes a registered client to room, leaving any previous room
func (h *Hub) AddClientToRoom(clientID, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[clientID]
	if !ok {
		return
	}
	h.detach(client)
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[string]*Client)
	}
	h.rooms[room][clientID] = client
	client.setRoom(room)
}

// RemoveClientFromRoom unsubscribes a client from room
func (h *Hub) RemoveClientFromRoom(clientID, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[clientID]
	if !ok || client.GetRoom() != room {
		return
	}
	h.detach(client)
}

// SendToClient queues msg for a single client
func (h *Hub) SendToClient(clientID string, msg *Message) {
	h.mu.RLock()
	client, ok := h.clients[clientID]
	h.mu.RUnlock()
	if ok {
		client.trySend(msg)
	}
}

// SendToRoom queues msg for every client following room
func (h *Hub) SendToRoom(room string, msg *Message) {
	if msg.Room == "" {
		msg.Room = room
	}
	h.enqueue(&roomMessage{room: room, msg: msg})
}

// SendToAll queues msg for every connected client
func (h *Hub) SendToAll(msg *Message) {
	h.enqueue(&roomMessage{msg: msg})
}

func (h *Hub) enqueue(rm *roomMessage) {
	if rm.msg.Timestamp.IsZero() {
		rm.msg.Timestamp = time.Now().UTC()
	}
	select {
	case h.Broadcast <- rm:
	case <-h.done:
	default:
		logger.Warn("websocket broadcast queue full, dropping message", zap.String("type", rm.msg.Type))
	}
}

// RegisterHandler binds a handler to an inbound message type
func (h *Hub) RegisterHandler(msgType string, handler HandlerFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[msgType] = handler
}

// HandleMessage dispatches an inbound message to its handler
func (h *Hub) HandleMessage(client *Client, msg *Message) {
	h.mu.RLock()
	handler, ok := h.handlers[msg.Type]
	h.mu.RUnlock()

	if !ok {
		logger.Debug("no websocket handler for message type", zap.String("type", msg.Type))
		return
	}
	handler(client, msg)
}

// GetClient returns a registered client
func (h *Hub) GetClient(clientID string) (*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	client, ok := h.clients[clientID]
	return client, ok
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GetRoomCount returns the number of rooms with at least one client
func (h *Hub) GetRoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// GetClientsInRoom returns the clients following room
func (h *Hub) GetClientsInRoom(room string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients := make([]*Client, 0, len(h.rooms[room]))
	for _, client := range h.rooms[room] {
		clients = append(clients, client)
	}
	return clients
}
