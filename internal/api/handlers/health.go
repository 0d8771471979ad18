package handlers

import (
	"net/http"

	"kickfeed/internal/kick"

	"github.com/gin-gonic/gin"
)

// RelayStatus is the view of the relay connection the health endpoint
// reports.
type RelayStatus interface {
	State() kick.State
	Chatrooms() []int64
}

type HealthHandler struct {
	relay RelayStatus
}

func NewHealthHandler(relay RelayStatus) *HealthHandler {
	return &HealthHandler{relay: relay}
}

func (h *HealthHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/health", h.GetHealth)
}

// GetHealth reports service liveness and the relay connection state.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	state := h.relay.State()
	status := http.StatusOK
	if state == kick.StateClosed {
		// The archiver stopped; surface it so orchestration restarts us.
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"status":    "ok",
		"relay":     state.String(),
		"chatrooms": h.relay.Chatrooms(),
	})
}
