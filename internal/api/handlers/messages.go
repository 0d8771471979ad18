package handlers

import (
	"net/http"
	"strconv"

	"kickfeed/internal/archive"

	"github.com/gin-gonic/gin"
)

const (
	defaultMessageLimit = 50
	maxMessageLimit     = 500
)

type MessageHandler struct {
	repo archive.MessageRepository
}

func NewMessageHandler(repo archive.MessageRepository) *MessageHandler {
	return &MessageHandler{repo: repo}
}

func (h *MessageHandler) RegisterRoutes(r *gin.RouterGroup) {
	chatrooms := r.Group("/chatrooms")
	{
		chatrooms.GET("/:id/messages", h.GetRecentMessages)
		chatrooms.GET("/:id/stats", h.GetStats)
	}
}

// GetRecentMessages returns the newest archived messages for a chatroom,
// most recent first.
func (h *MessageHandler) GetRecentMessages(c *gin.Context) {
	chatroomID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chatroom id"})
		return
	}

	limit := defaultMessageLimit
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxMessageLimit {
		limit = maxMessageLimit
	}

	msgs, err := h.repo.FindRecentByChatroom(c.Request.Context(), chatroomID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	out := make([]*archive.MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{"chatroomId": chatroomID, "messages": out})
}

// GetStats returns the archived message count for a chatroom.
func (h *MessageHandler) GetStats(c *gin.Context) {
	chatroomID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chatroom id"})
		return
	}

	count, err := h.repo.CountByChatroom(c.Request.Context(), chatroomID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count messages"})
		return
	}

	c.JSON(http.StatusOK, archive.ChatroomStats{ChatroomID: chatroomID, Messages: count})
}
