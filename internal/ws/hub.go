package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/citysafe/citysafe-backend/internal/logger"
	"github.com/citysafe/citysafe-backend/internal/models"
)

// Hub рассылает события о новых обращениях всем подключённым клиентам.
// Лента публичная, как и список обращений, поэтому адресной доставки нет.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	ctx        context.Context
}

// NewHub создаёт новый хаб.
func NewHub(ctx context.Context) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 32),
		ctx:        ctx,
	}
}

// Run запускает главный цикл хаба.
func (h *Hub) Run() {
	for {
		select {
		case <-h.ctx.Done():
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case payload := <-h.broadcast:
			h.send(payload)
		}
	}
}

// Register добавляет клиента.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister удаляет клиента.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// PublishReportCreated отправляет событие о созданном обращении.
// Ошибки сериализации логируются и не влияют на обработку запроса.
func (h *Hub) PublishReportCreated(report *models.Report) {
	payload := map[string]any{
		"type": "report.created",
		"data": map[string]any{
			"id":            report.ID.String(),
			"incident_type": report.IncidentType,
			"location":      report.Location(),
			"created_at":    report.CreatedAt,
		},
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		if logger.Log != nil {
			logger.Log.WithField("error", err.Error()).Warn("ws: не удалось сериализовать событие")
		}
		return
	}

	select {
	case h.broadcast <- raw:
	default:
		// Переполненный буфер не должен блокировать обработку запроса.
		if logger.Log != nil {
			logger.Log.Warn("ws: буфер рассылки переполнен, событие пропущено")
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = struct{}{}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, client)
}

func (h *Hub) send(payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		select {
		case client.send <- payload:
		default:
			// Медленного клиента отключаем, чтобы не копить бэклог.
			go client.Close()
		}
	}
}
