package realtime

import (
	"bytes"
	"context"
	"encoding/json"
)

const (
	GuestUser           = "guest"
	LoginRequiredNotice = "Login Required..."
)

// Handle is one registered connection. Deliver must not block.
type Handle interface {
	ID() string
	Deliver(event []byte) error
}

// Layer is the group -> connections registry shared by all consumers.
type Layer interface {
	// Join registers h under group. Joining twice is a no-op.
	Join(ctx context.Context, group string, h Handle) error
	// Leave removes h from group. Unknown handles are ignored.
	Leave(ctx context.Context, group string, h Handle) error
	// Broadcast delivers event to every handle in group, the sender included.
	// A failing handle never prevents delivery to the others.
	Broadcast(ctx context.Context, group string, event []byte) error
	Close() error
}

// Event is the outbound wire shape.
type Event struct {
	Message string `json:"message"`
	User    string `json:"user"`
}

func (e Event) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(e); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
