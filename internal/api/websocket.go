package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"order-engine/internal/events"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// streamAllOrders pushes every order update to the client.
func (s *Server) streamAllOrders(c *gin.Context) {
	s.stream(c, events.TopicOrders)
}

// streamOrder pushes updates for a single order id.
func (s *Server) streamOrder(c *gin.Context) {
	s.stream(c, events.OrderTopic(c.Param("id")))
}

func (s *Server) stream(c *gin.Context, topic events.Topic) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	msgs, unsub := s.Bus.Subscribe(topic, 100)
	defer unsub()

	for msg := range msgs {
		if err := conn.WriteJSON(msg); err != nil {
			s.Log.Debug("ws write failed, closing", zap.Error(err))
			return
		}
	}
}
