package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/citysafe/citysafe-backend/internal/logger"
	"github.com/citysafe/citysafe-backend/internal/ws"
)

// WSHandler апгрейдит соединение для живой ленты обращений.
type WSHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
}

// NewWSHandler создаёт хэндлер.
func NewWSHandler(hub *ws.Hub, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, allowed := range allowedOrigins {
					if origin == allowed {
						return true
					}
				}
				return false
			},
		},
	}
}

// Handle обрабатывает GET /ws.
func (h *WSHandler) Handle(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if logger.Log != nil {
			logger.Log.WithField("error", err.Error()).Warn("ws: не удалось апгрейдить соединение")
		}
		return
	}

	client := ws.NewClient(conn, h.hub)
	h.hub.Register(client)
	client.Run(c.Request.Context())
}
