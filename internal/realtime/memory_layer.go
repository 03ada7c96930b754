package realtime

import (
	"context"
	"log"
	"sync"
)

// MemoryLayer keeps memberships in process memory. It serves single instance
// deployments and is the local fan-out stage of RedisLayer.
type MemoryLayer struct {
	mu     sync.RWMutex
	groups map[string]map[string]Handle
}

func NewMemoryLayer() *MemoryLayer {
	return &MemoryLayer{groups: make(map[string]map[string]Handle)}
}

func (l *MemoryLayer) Join(_ context.Context, group string, h Handle) error {
	l.join(group, h)
	return nil
}

// join reports whether h is the first member of group.
func (l *MemoryLayer) join(group string, h Handle) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	members := l.groups[group]
	first := len(members) == 0
	if members == nil {
		members = make(map[string]Handle)
		l.groups[group] = members
	}
	members[h.ID()] = h
	return first
}

func (l *MemoryLayer) Leave(_ context.Context, group string, h Handle) error {
	l.leave(group, h)
	return nil
}

// leave reports whether group became empty.
func (l *MemoryLayer) leave(group string, h Handle) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	members, ok := l.groups[group]
	if !ok {
		return false
	}
	if _, ok := members[h.ID()]; !ok {
		return false
	}
	delete(members, h.ID())
	if len(members) == 0 {
		delete(l.groups, group)
		return true
	}
	return false
}

func (l *MemoryLayer) Broadcast(_ context.Context, group string, event []byte) error {
	l.mu.RLock()
	targets := make([]Handle, 0, len(l.groups[group]))
	for _, h := range l.groups[group] {
		targets = append(targets, h)
	}
	l.mu.RUnlock()

	for _, h := range targets {
		if err := h.Deliver(event); err != nil {
			log.Printf("[realtime][broadcast] group=%q handle=%s: %v", group, h.ID(), err)
		}
	}
	return nil
}

// Members returns the number of handles joined to group.
func (l *MemoryLayer) Members(group string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.groups[group])
}

func (l *MemoryLayer) Close() error {
	l.mu.Lock()
	l.groups = make(map[string]map[string]Handle)
	l.mu.Unlock()
	return nil
}
