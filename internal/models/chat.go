package models

import "time"

// Group is a named chat room. Names are compared byte for byte.
type Group struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type ChatMessage struct {
	ID        int       `json:"id"`
	GroupID   int       `json:"group_id"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
