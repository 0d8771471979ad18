package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ChannelResolver maps a channel slug to its chatroom id.
type ChannelResolver interface {
	Resolve(ctx context.Context, slug string) (int64, error)
}

// ResolverCache avoids re-hitting the upstream API for known slugs.
type ResolverCache interface {
	GetCachedChatroomID(ctx context.Context, slug string) (int64, bool)
	CacheChatroomID(ctx context.Context, slug string, chatroomID int64) error
}

type ChannelHandler struct {
	resolver ChannelResolver
	cache    ResolverCache
}

func NewChannelHandler(resolver ChannelResolver, cache ResolverCache) *ChannelHandler {
	return &ChannelHandler{resolver: resolver, cache: cache}
}

func (h *ChannelHandler) RegisterRoutes(r *gin.RouterGroup) {
	channels := r.Group("/channels")
	{
		channels.GET("/:slug", h.ResolveChannel)
	}
}

// ResolveChannel returns the chatroom id for a channel slug, consulting
// the cache first.
func (h *ChannelHandler) ResolveChannel(c *gin.Context) {
	slug := strings.ToLower(strings.TrimSpace(c.Param("slug")))
	if slug == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "channel slug is required"})
		return
	}

	ctx := c.Request.Context()

	if h.cache != nil {
		if id, ok := h.cache.GetCachedChatroomID(ctx, slug); ok {
			c.JSON(http.StatusOK, gin.H{"slug": slug, "chatroomId": id, "cached": true})
			return
		}
	}

	id, err := h.resolver.Resolve(ctx, slug)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			c.JSON(http.StatusNotFound, gin.H{"error": "channel not found"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to resolve channel"})
		return
	}

	if h.cache != nil {
		h.cache.CacheChatroomID(ctx, slug, id)
	}

	c.JSON(http.StatusOK, gin.H{"slug": slug, "chatroomId": id, "cached": false})
}
