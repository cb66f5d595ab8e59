package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"fitquest/internal/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 25 * time.Second
	sendBuffer = 64
)

type Client struct {
	ID     string
	UserID int64
	Conn   *websocket.Conn

	hub       *Hub
	send      chan []byte
	closeOnce sync.Once
	mu        sync.Mutex
	closed    bool
}

func NewClient(userID int64, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		ID:     uuid.NewString(),
		UserID: userID,
		Conn:   conn,
		hub:    hub,
		send:   make(chan []byte, sendBuffer),
	}
}

func (c *Client) trySend(msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		close(c.send)
		c.mu.Unlock()
	})
}

// Run registers the client and pumps until the connection drops, the hub
// closes it or ctx is done.
func (c *Client) Run(ctx context.Context) error {
	defer c.Conn.Close()
	if !c.hub.register(c) {
		return nil
	}
	defer c.hub.unregister(c)

	ready, _ := json.Marshal(envelope{Type: MsgReady})
	c.trySend(ready)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer c.Conn.Close()
		return c.writePump(ctx)
	})
	g.Go(func() error {
		defer c.closeSend()
		return c.readPump()
	})

	err := g.Wait()
	if err != nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		logger.Debug("ws client stopped", "user_id", c.UserID, "client_id", c.ID, "error", err)
	}
	return err
}

func (c *Client) readPump() error {
	c.Conn.SetReadLimit(4096)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.Conn.ReadMessage()
		if err != nil {
			return err
		}
		var in envelope
		if json.Unmarshal(msg, &in) == nil && in.Type == MsgPing {
			pong, _ := json.Marshal(envelope{Type: MsgPong})
			c.trySend(pong)
		}
	}
}

func (c *Client) writePump(ctx context.Context) error {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-c.send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return nil
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return err
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		}
	}
}
