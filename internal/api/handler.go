// Package api exposes the REST and websocket surface of the order engine.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"order-engine/internal/events"
	"order-engine/internal/order"
)

// Server wires HTTP endpoints around the order service and the event bus.
type Server struct {
	Router  *gin.Engine
	Service *order.Service
	Bus     *events.Bus
	Log     *zap.Logger
}

func NewServer(service *order.Service, bus *events.Bus, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()

	// Middleware stack (order matters!)
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(RequestLogger(logger))
	r.Use(RateLimitMiddleware())
	r.Use(CORSMiddleware())

	s := &Server{
		Router:  r,
		Service: service,
		Bus:     bus,
		Log:     logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Router.GET("/health", s.health)

	api := s.Router.Group("/api")
	{
		api.POST("/orders/execute", s.executeOrder)
		api.GET("/orders", s.getRecentOrders)
		api.GET("/orders/:id", s.getOrder)
		api.GET("/queue/stats", s.getQueueStats)
	}

	s.Router.GET("/ws/orders", s.streamAllOrders)
	s.Router.GET("/ws/orders/:id", s.streamOrder)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
