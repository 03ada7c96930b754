package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"

	"schoolhub/internal/models"
	"schoolhub/internal/realtime"
	"schoolhub/internal/repositories"
)

// ChatService is the group registry and message store behind the chat view
// and the websocket consumer.
type ChatService struct {
	groups   repositories.GroupRepository
	messages repositories.MessageRepository
	inflight singleflight.Group
}

func NewChatService(groups repositories.GroupRepository, messages repositories.MessageRepository) *ChatService {
	return &ChatService{groups: groups, messages: messages}
}

// GetOrCreate resolves a group by its exact name, creating it on first use.
// Concurrent first lookups of the same name share one database round trip.
func (s *ChatService) GetOrCreate(ctx context.Context, name string) (*models.Group, error) {
	v, err, _ := s.inflight.Do(name, func() (interface{}, error) {
		return s.groups.GetOrCreate(context.WithoutCancel(ctx), name)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: group %q: %v", realtime.ErrPersistence, name, err)
	}
	g := *v.(*models.Group)
	return &g, nil
}

func (s *ChatService) Append(ctx context.Context, group *models.Group, content string) (*models.ChatMessage, error) {
	msg, err := s.messages.Append(ctx, group.ID, content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", realtime.ErrPersistence, err)
	}
	return msg, nil
}

func (s *ChatService) ListByGroup(ctx context.Context, group *models.Group) ([]*models.ChatMessage, error) {
	msgs, err := s.messages.ListByGroup(ctx, group.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", realtime.ErrPersistence, err)
	}
	return msgs, nil
}

// History returns the group (created if unseen) and its messages, oldest first.
func (s *ChatService) History(ctx context.Context, name string) (*models.Group, []*models.ChatMessage, error) {
	g, err := s.GetOrCreate(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	msgs, err := s.ListByGroup(ctx, g)
	if err != nil {
		return nil, nil, err
	}
	return g, msgs, nil
}
