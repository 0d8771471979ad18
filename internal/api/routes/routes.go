package routes

import (
	"kickfeed/internal/api/handlers"
	"kickfeed/internal/api/middleware"
	"kickfeed/internal/archive"

	"github.com/gin-gonic/gin"
)

type Router struct {
	engine         *gin.Engine
	healthHandler  *handlers.HealthHandler
	messageHandler *handlers.MessageHandler
	channelHandler *handlers.ChannelHandler
}

func NewRouter(
	relay handlers.RelayStatus,
	repo archive.MessageRepository,
	resolver handlers.ChannelResolver,
	cache handlers.ResolverCache,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	// Add middlewares
	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS())
	engine.Use(middleware.LogApi())

	return &Router{
		engine:         engine,
		healthHandler:  handlers.NewHealthHandler(relay),
		messageHandler: handlers.NewMessageHandler(repo),
		channelHandler: handlers.NewChannelHandler(resolver, cache),
	}
}

func (r *Router) SetupRoutes() {
	api := r.engine.Group("/api/v1")

	r.healthHandler.RegisterRoutes(api)
	r.messageHandler.RegisterRoutes(api)
	r.channelHandler.RegisterRoutes(api)
}

func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
