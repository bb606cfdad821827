package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is a single WebSocket connection subscribed to the feed.
type Client struct {
	Send   chan []byte
	feed   *Feed
	mu     sync.Mutex
	closed bool
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.feed != nil {
		c.feed.drop(c)
		return
	}
	close(c.Send)
}

// DonationEvent is the payload pushed to feed subscribers when a donation
// settles. Donor identity is reduced to a display name; no contact details
// leave the server.
type DonationEvent struct {
	Type        string    `json:"type"`
	Reference   string    `json:"reference"`
	DonorName   string    `json:"donor_name"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	Method      string    `json:"method"`
	CompletedAt time.Time `json:"completed_at"`
}

// Feed maintains the set of live-feed subscribers and broadcasts completed
// donations to them. Subscribers are anonymous; the feed is read-only.
type Feed struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
}

func NewFeed() *Feed {
	return &Feed{clients: make(map[*Client]struct{})}
}

func (f *Feed) Register(c *Client) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.feed = f
	f.clients[c] = struct{}{}
}

// drop removes the client and closes its channel under the write lock, so
// Broadcast (which sends under the read lock) can never race a close.
func (f *Feed) drop(c *Client) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.clients, c)
	close(c.Send)
}

// Broadcast fans the event out to every subscriber. Slow clients are skipped
// rather than blocking the broadcast. Sends happen under the read lock; the
// sends are non-blocking, so the lock is held only briefly.
func (f *Feed) Broadcast(ev DonationEvent) {
	if ev.Type == "" {
		ev.Type = "donation.completed"
	}
	data, _ := json.Marshal(ev)
	f.mu.RLock()
	defer f.mu.RUnlock()
	for c := range f.clients {
		select {
		case c.Send <- data:
		default:
		}
	}
}

func (f *Feed) ClientCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.clients)
}

// Upgrade handles GET /ws/donations: upgrades the connection and streams
// donation events until the client goes away.
func (f *Feed) Upgrade() gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		client := &Client{Send: make(chan []byte, 256)}
		f.Register(client)
		defer client.Close()
		go writePump(client, conn)
		readPump(conn)
	}
}

// writePump copies messages from client.Send to the connection.
func writePump(c *Client, conn *websocket.Conn) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-c.Send:
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func readPump(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
