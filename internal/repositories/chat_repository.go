package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"schoolhub/internal/models"
)

type GroupRepository interface {
	// GetOrCreate returns the group with the given name, inserting it first if needed.
	GetOrCreate(ctx context.Context, name string) (*models.Group, error)
}

type MessageRepository interface {
	Append(ctx context.Context, groupID int, content string) (*models.ChatMessage, error)
	ListByGroup(ctx context.Context, groupID int) ([]*models.ChatMessage, error)
}

type groupRepository struct {
	DB *sql.DB
}

func NewGroupRepository(db *sql.DB) GroupRepository {
	return &groupRepository{DB: db}
}

func (r *groupRepository) GetOrCreate(ctx context.Context, name string) (*models.Group, error) {
	// The no-op update makes RETURNING yield the existing row on conflict.
	const q = `
                INSERT INTO chat_groups (name)
                VALUES ($1)
                ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
                RETURNING id, name
        `
	g := &models.Group{}
	if err := r.DB.QueryRowContext(ctx, q, name).Scan(&g.ID, &g.Name); err != nil {
		return nil, fmt.Errorf("get or create group: %w", err)
	}
	return g, nil
}

type messageRepository struct {
	DB *sql.DB
}

func NewMessageRepository(db *sql.DB) MessageRepository {
	return &messageRepository{DB: db}
}

func (r *messageRepository) Append(ctx context.Context, groupID int, content string) (*models.ChatMessage, error) {
	const q = `
                INSERT INTO chat_messages (group_id, content)
                VALUES ($1, $2)
                RETURNING id, created_at
        `
	msg := &models.ChatMessage{GroupID: groupID, Content: content}
	if err := r.DB.QueryRowContext(ctx, q, groupID, content).Scan(&msg.ID, &msg.Timestamp); err != nil {
		return nil, fmt.Errorf("append chat message: %w", err)
	}
	return msg, nil
}

func (r *messageRepository) ListByGroup(ctx context.Context, groupID int) ([]*models.ChatMessage, error) {
	const q = `
                SELECT id, group_id, content, created_at
                FROM chat_messages
                WHERE group_id = $1
                ORDER BY created_at ASC, id ASC
        `
	rows, err := r.DB.QueryContext(ctx, q, groupID)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	defer rows.Close()

	messages := []*models.ChatMessage{}
	for rows.Next() {
		var msg models.ChatMessage
		if err := rows.Scan(&msg.ID, &msg.GroupID, &msg.Content, &msg.Timestamp); err != nil {
			return nil, err
		}
		messages = append(messages, &msg)
	}
	return messages, rows.Err()
}
