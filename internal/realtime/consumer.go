package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"schoolhub/internal/models"
)

type GroupRegistry interface {
	GetOrCreate(ctx context.Context, name string) (*models.Group, error)
}

type MessageStore interface {
	Append(ctx context.Context, group *models.Group, content string) (*models.ChatMessage, error)
}

type ConsumerOptions struct {
	SendBuffer  int
	CheckOrigin func(r *http.Request) bool
}

// Consumer runs the per-connection chat state machine:
// CONNECTING -> JOINED -> CLOSED.
type Consumer struct {
	layer    Layer
	groups   GroupRegistry
	store    MessageStore
	upgrader websocket.Upgrader
	buffer   int

	mu      sync.Mutex
	clients map[string]*Client
}

func NewConsumer(layer Layer, groups GroupRegistry, store MessageStore, opts ConsumerOptions) *Consumer {
	checkOrigin := opts.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Consumer{
		layer:  layer,
		groups: groups,
		store:  store,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		buffer:  opts.SendBuffer,
		clients: make(map[string]*Client),
	}
}

// Serve joins the group, upgrades the connection and blocks until it closes.
// A join failure answers 503 without upgrading.
func (cs *Consumer) Serve(w http.ResponseWriter, r *http.Request, group string, id Identity) error {
	client := newClient(group, id, cs.buffer, cs.leave)

	if err := cs.layer.Join(r.Context(), group, client); err != nil {
		log.Printf("[realtime][connect] join group=%q failed: %v", group, err)
		http.Error(w, "chat is temporarily unavailable", http.StatusServiceUnavailable)
		if !errors.Is(err, ErrJoinFailure) {
			err = fmt.Errorf("%w: %v", ErrJoinFailure, err)
		}
		return err
	}

	conn, err := cs.upgrader.Upgrade(w, r, nil)
	if err != nil {
		client.close()
		return fmt.Errorf("upgrade: %w", err)
	}
	client.conn = conn
	client.state.Store(int32(StateJoined))
	cs.track(client)
	log.Printf("[realtime][connect] client=%s group=%q user=%q", client.id, group, id.Username)

	go client.writePump()
	client.readPump(func(c *Client, raw []byte) {
		if err := cs.Receive(r.Context(), c, raw); err != nil {
			log.Printf("[realtime][receive] client=%s group=%q: %v", c.id, c.group, err)
		}
	})
	return nil
}

func (cs *Consumer) track(c *Client) {
	cs.mu.Lock()
	cs.clients[c.id] = c
	cs.mu.Unlock()
}

// leave runs exactly once per client, from Client.close.
func (cs *Consumer) leave(c *Client) {
	cs.mu.Lock()
	delete(cs.clients, c.id)
	cs.mu.Unlock()
	if err := cs.layer.Leave(context.Background(), c.group, c); err != nil {
		log.Printf("[realtime][disconnect] leave group=%q client=%s: %v", c.group, c.id, err)
	}
}

type inbound struct {
	Message string
}

func decodeInbound(raw []byte) (inbound, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return inbound{}, fmt.Errorf("%w: expected a JSON object", ErrMalformedMessage)
	}
	field, ok := obj["message"]
	if !ok {
		return inbound{}, fmt.Errorf("%w: missing \"message\"", ErrMalformedMessage)
	}
	// null decodes into a *string without error, so a nil result is rejected too
	var msg *string
	if err := json.Unmarshal(field, &msg); err != nil || msg == nil {
		return inbound{}, fmt.Errorf("%w: \"message\" must be a string", ErrMalformedMessage)
	}
	return inbound{Message: *msg}, nil
}

// Receive handles one inbound frame. Guests get the login notice broadcast to
// the whole group; authenticated messages are persisted before the broadcast.
func (cs *Consumer) Receive(ctx context.Context, c *Client, raw []byte) error {
	in, err := decodeInbound(raw)
	if err != nil {
		return err
	}

	event := Event{Message: LoginRequiredNotice, User: GuestUser}
	if c.identity.Authenticated() {
		group, err := cs.groups.GetOrCreate(ctx, c.group)
		if err != nil {
			return persistenceErr(err)
		}
		if _, err := cs.store.Append(ctx, group, in.Message); err != nil {
			return persistenceErr(err)
		}
		event = Event{Message: in.Message, User: c.identity.Username}
	}

	payload, err := event.Encode()
	if err != nil {
		return err
	}
	return cs.layer.Broadcast(ctx, c.group, payload)
}

func persistenceErr(err error) error {
	if errors.Is(err, ErrPersistence) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrPersistence, err)
}

// Shutdown closes every live connection. Each one leaves its group on the way out.
func (cs *Consumer) Shutdown() {
	cs.mu.Lock()
	clients := make([]*Client, 0, len(cs.clients))
	for _, c := range cs.clients {
		clients = append(clients, c)
	}
	cs.mu.Unlock()

	for _, c := range clients {
		if c.conn != nil {
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"), deadline())
			_ = c.conn.Close()
		}
	}
}
