package realtime

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"
)

// RedisLayer fans broadcasts out through redis pub/sub so that every server
// instance delivers to its own connections. Each group with at least one
// local member holds one subscription; delivery to local handles goes through
// an embedded MemoryLayer. The client is owned by the caller.
type RedisLayer struct {
	client *redis.Client
	prefix string
	local  *MemoryLayer

	mu     sync.Mutex
	groups map[string]*redisGroup
	wg     sync.WaitGroup
}

// redisGroup serializes subscribe and unsubscribe for one group, so a slow
// round trip to redis only holds up that group.
type redisGroup struct {
	mu   sync.Mutex
	ps   *redis.PubSub
	dead bool
}

func NewRedisLayer(client *redis.Client, prefix string) *RedisLayer {
	return &RedisLayer{
		client: client,
		prefix: prefix,
		local:  NewMemoryLayer(),
		groups: make(map[string]*redisGroup),
	}
}

func (l *RedisLayer) channel(group string) string {
	return l.prefix + group
}

// lockGroup returns the locked state for group, creating it if needed.
func (l *RedisLayer) lockGroup(group string) *redisGroup {
	for {
		l.mu.Lock()
		g, ok := l.groups[group]
		if !ok {
			g = &redisGroup{}
			l.groups[group] = g
		}
		l.mu.Unlock()

		g.mu.Lock()
		if !g.dead {
			return g
		}
		// removed by a concurrent last Leave; look it up again
		g.mu.Unlock()
	}
}

// drop removes an unsubscribed group. g.mu must be held.
func (l *RedisLayer) drop(group string, g *redisGroup) {
	g.dead = true
	l.mu.Lock()
	if l.groups[group] == g {
		delete(l.groups, group)
	}
	l.mu.Unlock()
}

func (l *RedisLayer) Join(ctx context.Context, group string, h Handle) error {
	g := l.lockGroup(group)
	defer g.mu.Unlock()

	l.local.join(group, h)
	if g.ps != nil {
		return nil
	}

	ps := l.client.Subscribe(ctx, l.channel(group))
	// Wait for the subscription confirmation so nothing published after Join
	// returns can be missed.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		if l.local.leave(group, h) {
			l.drop(group, g)
		}
		return fmt.Errorf("%w: subscribe %q: %v", ErrJoinFailure, group, err)
	}
	g.ps = ps

	l.wg.Add(1)
	go l.forward(group, ps)
	return nil
}

func (l *RedisLayer) forward(group string, ps *redis.PubSub) {
	defer l.wg.Done()
	for msg := range ps.Channel() {
		_ = l.local.Broadcast(context.Background(), group, []byte(msg.Payload))
	}
}

func (l *RedisLayer) Leave(ctx context.Context, group string, h Handle) error {
	g := l.lockGroup(group)
	defer g.mu.Unlock()

	if !l.local.leave(group, h) {
		if l.local.Members(group) == 0 && g.ps == nil {
			l.drop(group, g)
		}
		return nil
	}
	if g.ps != nil {
		if err := g.ps.Close(); err != nil {
			log.Printf("[realtime][redis] unsubscribe group=%q: %v", group, err)
		}
		g.ps = nil
	}
	l.drop(group, g)
	return nil
}

// subscribed reports whether this instance holds a subscription for group.
func (l *RedisLayer) subscribed(group string) bool {
	l.mu.Lock()
	g, ok := l.groups[group]
	l.mu.Unlock()
	if !ok {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ps != nil
}

func (l *RedisLayer) Broadcast(ctx context.Context, group string, event []byte) error {
	if err := l.client.Publish(ctx, l.channel(group), event).Err(); err != nil {
		return fmt.Errorf("%w: publish %q: %v", ErrDelivery, group, err)
	}
	return nil
}

// Members returns the number of handles joined to group on this instance.
func (l *RedisLayer) Members(group string) int {
	return l.local.Members(group)
}

func (l *RedisLayer) Close() error {
	l.mu.Lock()
	groups := l.groups
	l.groups = make(map[string]*redisGroup)
	l.mu.Unlock()

	for name, g := range groups {
		g.mu.Lock()
		if g.ps != nil {
			if err := g.ps.Close(); err != nil {
				log.Printf("[realtime][redis] close subscription group=%q: %v", name, err)
			}
			g.ps = nil
		}
		g.dead = true
		g.mu.Unlock()
	}
	l.wg.Wait()
	return l.local.Close()
}
