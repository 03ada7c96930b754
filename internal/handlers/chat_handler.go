package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"schoolhub/internal/middleware"
	"schoolhub/internal/models"
	"schoolhub/internal/realtime"
	"schoolhub/internal/services"
)

type ChatHandler struct {
	chat     *services.ChatService
	consumer *realtime.Consumer
}

func NewChatHandler(chat *services.ChatService, consumer *realtime.Consumer) *ChatHandler {
	return &ChatHandler{chat: chat, consumer: consumer}
}

type chatMessageResponse struct {
	ID        int    `json:"id"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// @Summary      Chat room history
// @Description  Creates the group on first access and returns its messages, oldest first
// @Tags         Chat
// @Produce      json
// @Param        group  path  string  true  "Group name"
// @Router       /chat/{group} [get]
func (h *ChatHandler) Room(c *gin.Context) {
	name := c.Param("group")
	group, msgs, err := h.chat.History(c.Request.Context(), name)
	if err != nil {
		log.Printf("[chat][room] group=%q: %v", name, err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Chat is temporarily unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"group_name": group.Name,
		"chats": lo.Map(msgs, func(m *models.ChatMessage, _ int) chatMessageResponse {
			return chatMessageResponse{ID: m.ID, Content: m.Content, Timestamp: m.Timestamp.Format("2006-01-02T15:04:05.000000Z07:00")}
		}),
	})
}

// Websocket upgrades the request and runs the chat consumer until the
// connection closes. Identity comes from the optional JWT middleware.
func (h *ChatHandler) Websocket(c *gin.Context) {
	group := c.Param("group")
	identity := realtime.Identity{Username: c.GetString(middleware.CtxUsername)}
	if err := h.consumer.Serve(c.Writer, c.Request, group, identity); err != nil {
		if errors.Is(err, realtime.ErrJoinFailure) {
			c.Abort()
			return
		}
		log.Printf("[chat][ws] group=%q: %v", group, err)
	}
}
