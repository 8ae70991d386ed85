// Package websocket serves the live forum feed on /ws.
package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"talkthreads/events"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	sendBuffer = 256
	readLimit  = 512
)

var ErrStopped = errors.New("websocket manager stopped")

type broadcastMsg struct {
	Type events.Type
	Data []byte
}

// Manager fans domain events out to connected feed clients. Start must be
// running for clients to register and receive events.
type Manager struct {
	clients    map[*Client]bool
	broadcast  chan broadcastMsg
	register   chan *Client
	unregister chan *Client
	quit       chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex
}

type Client struct {
	conn    *websocket.Conn
	send    chan []byte
	manager *Manager

	mu       sync.Mutex
	channels map[string]bool
	closed   bool
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan broadcastMsg, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
	}
}

func newClient(m *Manager, conn *websocket.Conn) *Client {
	return &Client{
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		manager:  m,
		channels: make(map[string]bool),
	}
}

func (m *Manager) Start() {
	for {
		select {
		case client := <-m.register:
			m.mu.Lock()
			m.clients[client] = true
			n := len(m.clients)
			m.mu.Unlock()
			log.Printf("✅ WebSocket client registered. Total clients: %d", n)

		case client := <-m.unregister:
			m.mu.Lock()
			if _, ok := m.clients[client]; ok {
				delete(m.clients, client)
				client.close()
			}
			n := len(m.clients)
			m.mu.Unlock()
			log.Printf("❌ WebSocket client unregistered. Total clients: %d", n)

		case msg := <-m.broadcast:
			m.mu.Lock()
			for client := range m.clients {
				if !client.wants(msg.Type) {
					continue
				}
				if !client.enqueue(msg.Data) {
					// slow consumer
					delete(m.clients, client)
					client.close()
				}
			}
			m.mu.Unlock()

		case <-m.quit:
			m.mu.Lock()
			for client := range m.clients {
				delete(m.clients, client)
				client.close()
			}
			m.mu.Unlock()
			return
		}
	}
}

func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.quit) })
}

// Publish queues e for every subscribed client.
func (m *Manager) Publish(ctx context.Context, e events.Event) error {
	data, err := json.Marshal(e.Message())
	if err != nil {
		return err
	}
	select {
	case m.broadcast <- broadcastMsg{Type: e.Type, Data: data}:
		return nil
	case <-m.quit:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) ConnectedClients() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

var upgrader = websocket.Upgrader{
	// The feed is public and read only.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func Handler(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("❌ WebSocket upgrade failed: %v", err)
			return
		}

		client := newClient(m, conn)
		select {
		case m.register <- client:
		case <-m.quit:
			conn.Close()
			return
		}

		client.reply("connected", map[string]interface{}{
			"message": "WebSocket connected successfully",
			"time":    time.Now().Unix(),
		})

		go client.writePump()
		go client.readPump()
	}
}

// wants reports whether the client subscribed to t. A client with no
// subscriptions receives everything.
func (c *Client) wants(t events.Type) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.channels) == 0 {
		return true
	}
	for ch := range c.channels {
		if t.Matches(ch) {
			return true
		}
	}
	return false
}

// enqueue reports false when the send buffer is full.
func (c *Client) enqueue(msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) reply(msgType string, payload interface{}) {
	msg, err := json.Marshal(map[string]interface{}{"type": msgType, "payload": payload})
	if err != nil {
		log.Printf("❌ Error marshaling %s reply: %v", msgType, err)
		return
	}
	c.enqueue(msg)
}

type inbound struct {
	Type    string `json:"type"`
	Channel string `json:"channel"`
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.manager.unregister <- c:
		case <-c.manager.quit:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(readLimit)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("❌ WebSocket read error: %v", err)
			}
			return
		}

		var in inbound
		if err := json.Unmarshal(message, &in); err != nil {
			log.Printf("❌ WebSocket message unmarshal error: %v", err)
			continue
		}

		switch in.Type {
		case "subscribe":
			c.subscribe(in.Channel, true)
		case "unsubscribe":
			c.subscribe(in.Channel, false)
		case "ping":
			c.reply("pong", map[string]interface{}{"time": time.Now().Unix()})
		}
	}
}

func (c *Client) subscribe(channel string, on bool) {
	if channel == "" {
		return
	}
	c.mu.Lock()
	if on {
		c.channels[channel] = true
	} else {
		delete(c.channels, channel)
	}
	c.mu.Unlock()

	kind := "subscribed"
	if !on {
		kind = "unsubscribed"
	}
	c.reply(kind, map[string]interface{}{"channel": channel})
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
