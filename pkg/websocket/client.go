package websocket

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

// Upgrader upgrades HTTP requests to websocket connections.
// Origin checks are left to the CORS layer in front of the API.
var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Client is a single websocket connection
type Client struct {
	ID   string
	Conn *websocket.Conn
	Hub  *Hub
	Send chan *Message

	room   string
	closed bool
	mu     sync.Mutex
	logger *zap.Logger
}

// NewClient creates a client. It is not registered until sent on hub.Register.
func NewClient(id string, conn *websocket.Conn, hub *Hub, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		ID:     id,
		Conn:   conn,
		Hub:    hub,
		Send:   make(chan *Message, sendBuffer),
		logger: log.With(zap.String("client_id", id)),
	}
}

// GetRoom returns the room the client follows, or ""
func (c *Client) GetRoom() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room
}

func (c *Client) setRoom(room string) {
	c.mu.Lock()
	c.room = room
	c.mu.Unlock()
}

// trySend queues msg without blocking; slow clients drop messages
func (c *Client) trySend(msg *Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- msg:
		return true
	default:
		c.logger.Warn("websocket client send buffer full, dropping message", zap.String("type", msg.Type))
		return false
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// ReadPump reads inbound messages until the connection fails
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.remove(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := c.Conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("websocket read error", zap.Error(err))
			}
			return
		}
		c.Hub.HandleMessage(c, &msg)
	}
}

// WritePump writes queued messages and keepalive pings
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteJSON(msg); err != nil {
				c.logger.Debug("websocket write error", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Serve registers a client for conn, subscribes it to room and starts its pumps
func Serve(hub *Hub, conn *websocket.Conn, id, room string, log *zap.Logger) *Client {
	client := NewClient(id, conn, hub, log)
	// Registered inline so the room subscription below sees the client
	hub.register(client)
	if room != "" {
		hub.AddClientToRoom(id, room)
	}
	go client.WritePump()
	go client.ReadPump()
	return client
}
