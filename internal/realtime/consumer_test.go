package realtime

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"schoolhub/internal/models"
)

type fakeChat struct {
	mu       sync.Mutex
	groups   map[string]*models.Group
	messages []*models.ChatMessage
	failWith error
}

func newFakeChat() *fakeChat {
	return &fakeChat{groups: make(map[string]*models.Group)}
}

func (f *fakeChat) GetOrCreate(_ context.Context, name string) (*models.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	g, ok := f.groups[name]
	if !ok {
		g = &models.Group{ID: len(f.groups) + 1, Name: name}
		f.groups[name] = g
	}
	return g, nil
}

func (f *fakeChat) Append(_ context.Context, g *models.Group, content string) (*models.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg := &models.ChatMessage{ID: len(f.messages) + 1, GroupID: g.ID, Content: content, Timestamp: time.Now()}
	f.messages = append(f.messages, msg)
	return msg, nil
}

func (f *fakeChat) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

func joinedClient(t *testing.T, l Layer, group, username string) *Client {
	t.Helper()
	c := newClient(group, Identity{Username: username}, 16, nil)
	require.NoError(t, l.Join(context.Background(), group, c))
	return c
}

func next(t *testing.T, c *Client) string {
	t.Helper()
	select {
	case ev := <-c.send:
		return string(ev)
	case <-time.After(time.Second):
		t.Fatalf("client %s received nothing", c.id)
		return ""
	}
}

func assertSilent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case ev := <-c.send:
		t.Fatalf("unexpected event %s", ev)
	default:
	}
}

func TestConsumer_AuthenticatedMessageIsPersistedAndEchoed(t *testing.T) {
	req := require.New(t)
	layer := NewMemoryLayer()
	chat := newFakeChat()
	cs := NewConsumer(layer, chat, chat, ConsumerOptions{})
	ada := joinedClient(t, layer, "civics-101", "ada")

	req.NoError(cs.Receive(context.Background(), ada, []byte(`{"message":"hello"}`)))

	req.Equal(`{"message":"hello","user":"ada"}`, next(t, ada))
	req.Equal(1, chat.count())
	req.Equal("hello", chat.messages[0].Content)
	req.Equal(chat.groups["civics-101"].ID, chat.messages[0].GroupID)
}

func TestConsumer_BroadcastReachesEveryMemberInOrder(t *testing.T) {
	req := require.New(t)
	layer := NewMemoryLayer()
	chat := newFakeChat()
	cs := NewConsumer(layer, chat, chat, ConsumerOptions{})
	a := joinedClient(t, layer, "civics-101", "ada")
	b := joinedClient(t, layer, "civics-101", "bob")

	req.NoError(cs.Receive(context.Background(), b, []byte(`{"message":"first"}`)))
	req.NoError(cs.Receive(context.Background(), a, []byte(`{"message":"hi","extra":1}`)))

	for _, c := range []*Client{a, b} {
		req.Equal(`{"message":"first","user":"bob"}`, next(t, c))
		req.Equal(`{"message":"hi","user":"ada"}`, next(t, c))
	}
}

func TestConsumer_GuestNoticeIsBroadcastToGroup(t *testing.T) {
	req := require.New(t)
	layer := NewMemoryLayer()
	chat := newFakeChat()
	cs := NewConsumer(layer, chat, chat, ConsumerOptions{})
	guest := joinedClient(t, layer, "lounge", "")
	member := joinedClient(t, layer, "lounge", "ada")

	req.NoError(cs.Receive(context.Background(), guest, []byte(`{"message":"hey"}`)))

	want := `{"message":"Login Required...","user":"guest"}`
	req.Equal(want, next(t, guest))
	req.Equal(want, next(t, member))
	req.Zero(chat.count())
	req.Empty(chat.groups)
}

func TestConsumer_MalformedPayloadIsDropped(t *testing.T) {
	req := require.New(t)
	layer := NewMemoryLayer()
	chat := newFakeChat()
	cs := NewConsumer(layer, chat, chat, ConsumerOptions{})
	ada := joinedClient(t, layer, "civics-101", "ada")

	for _, raw := range []string{`{"text":"hello"}`, `not json`, `["message"]`, `{"message":42}`, `{"message":null}`, `null`} {
		err := cs.Receive(context.Background(), ada, []byte(raw))
		req.ErrorIs(err, ErrMalformedMessage, raw)
	}
	assertSilent(t, ada)
	req.Zero(chat.count())

	req.NoError(cs.Receive(context.Background(), ada, []byte(`{"message":"ok now"}`)))
	req.Equal(`{"message":"ok now","user":"ada"}`, next(t, ada))
}

func TestConsumer_PersistenceFailureDropsMessage(t *testing.T) {
	req := require.New(t)
	layer := NewMemoryLayer()
	chat := newFakeChat()
	chat.failWith = errors.New("connection refused")
	cs := NewConsumer(layer, chat, chat, ConsumerOptions{})
	ada := joinedClient(t, layer, "civics-101", "ada")

	err := cs.Receive(context.Background(), ada, []byte(`{"message":"hello"}`))
	req.ErrorIs(err, ErrPersistence)
	assertSilent(t, ada)
}

func TestConsumer_ContentIsNotEscaped(t *testing.T) {
	req := require.New(t)
	layer := NewMemoryLayer()
	chat := newFakeChat()
	cs := NewConsumer(layer, chat, chat, ConsumerOptions{})
	ada := joinedClient(t, layer, "g", "ada")

	req.NoError(cs.Receive(context.Background(), ada, []byte(`{"message":"<b>a & b</b>"}`)))
	req.Equal(`{"message":"<b>a & b</b>","user":"ada"}`, next(t, ada))
	req.Equal("<b>a & b</b>", chat.messages[0].Content)
}

type failingLayer struct{ *MemoryLayer }

func (failingLayer) Join(context.Context, string, Handle) error {
	return errors.New("registry unavailable")
}

func TestConsumer_JoinFailureRefusesHandshake(t *testing.T) {
	req := require.New(t)
	chat := newFakeChat()
	cs := NewConsumer(failingLayer{NewMemoryLayer()}, chat, chat, ConsumerOptions{})

	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/ws/chat/g", nil)
	err := cs.Serve(rec, r, "g", Identity{Username: "ada"})

	req.ErrorIs(err, ErrJoinFailure)
	req.Equal(http.StatusServiceUnavailable, rec.Code)
}

func TestConsumer_WebsocketRoundTrip(t *testing.T) {
	req := require.New(t)
	layer := NewMemoryLayer()
	chat := newFakeChat()
	cs := NewConsumer(layer, chat, chat, ConsumerOptions{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		group := strings.TrimPrefix(r.URL.Path, "/ws/chat/")
		_ = cs.Serve(w, r, group, Identity{Username: r.URL.Query().Get("user")})
	}))
	defer srv.Close()

	dial := func(user string) *websocket.Conn {
		url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/chat/civics-101?user=" + user
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		req.NoError(err)
		return conn
	}
	a := dial("ada")
	defer a.Close()
	b := dial("bob")
	defer b.Close()
	req.Eventually(func() bool { return layer.Members("civics-101") == 2 }, time.Second, 10*time.Millisecond)

	req.NoError(a.WriteMessage(websocket.TextMessage, []byte(`{"message":"hi"}`)))
	for _, conn := range []*websocket.Conn{a, b} {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		req.NoError(err)
		req.JSONEq(`{"message":"hi","user":"ada"}`, string(data))
	}
	req.Equal(1, chat.count())

	req.NoError(b.Close())
	req.Eventually(func() bool { return layer.Members("civics-101") == 1 }, 2*time.Second, 10*time.Millisecond)

	cs.Shutdown()
	req.Eventually(func() bool { return layer.Members("civics-101") == 0 }, 2*time.Second, 10*time.Millisecond)
}
