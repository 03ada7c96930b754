package realtime

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

type ConnState int32

const (
	StateConnecting ConnState = iota
	StateJoined
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "CONNECTING"
	case StateJoined:
		return "JOINED"
	case StateClosed:
		return "CLOSED"
	}
	return "UNKNOWN"
}

// Identity is the principal attached to a connection. An empty username is a guest.
type Identity struct {
	Username string
}

func (i Identity) Authenticated() bool { return i.Username != "" }

// Client is one websocket connection bound to a single group for its lifetime.
// It exists before the upgrade so that it can be joined first.
type Client struct {
	id       string
	group    string
	identity Identity
	conn     *websocket.Conn
	state    atomic.Int32

	mu     sync.Mutex
	send   chan []byte
	closed bool

	closeOnce sync.Once
	onClose   func(*Client)
}

func newClient(group string, identity Identity, buffer int, onClose func(*Client)) *Client {
	if buffer <= 0 {
		buffer = 256
	}
	return &Client{
		id:       uuid.NewString(),
		group:    group,
		identity: identity,
		send:     make(chan []byte, buffer),
		onClose:  onClose,
	}
}

func (c *Client) ID() string       { return c.id }
func (c *Client) Group() string    { return c.group }
func (c *Client) State() ConnState { return ConnState(c.state.Load()) }

// Deliver enqueues event without blocking. A full buffer or a closed client
// drops the event for this client only.
func (c *Client) Deliver(event []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("%w: client %s closed", ErrDelivery, c.id)
	}
	select {
	case c.send <- event:
		return nil
	default:
		return fmt.Errorf("%w: send buffer full for client %s", ErrDelivery, c.id)
	}
}

// close is idempotent. It runs the leave callback and stops the write pump.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		if c.onClose != nil {
			c.onClose(c)
		}
		c.mu.Lock()
		c.closed = true
		close(c.send)
		c.mu.Unlock()
		c.state.Store(int32(StateClosed))
	})
}

func (c *Client) setupReadConnection() {
	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("[realtime][read] set deadline client=%s: %v", c.id, err)
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
}

// readPump handles inbound frames one at a time, in arrival order.
func (c *Client) readPump(handle func(*Client, []byte)) {
	defer func() {
		c.close()
		_ = c.conn.Close()
	}()

	c.setupReadConnection()
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			logReadError(c, err)
			return
		}
		handle(c, raw)
	}
}

func logReadError(c *Client, err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		log.Printf("[realtime][read] client=%s exceeded %d bytes", c.id, maxMessageSize)
	case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
		log.Printf("[realtime][read] client=%s group=%q disconnected", c.id, c.group)
	case errors.Is(err, io.EOF), websocket.IsCloseError(err, websocket.CloseAbnormalClosure):
		log.Printf("[realtime][read] client=%s connection closed: %v", c.id, err)
	default:
		log.Printf("[realtime][read] client=%s: %v", c.id, err)
	}
}

// writePump forwards every delivered event verbatim as its own text frame.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, event); err != nil {
				log.Printf("[realtime][write] client=%s: %v", c.id, err)
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		}
	}
}

func deadline() time.Time { return time.Now().Add(writeWait) }
