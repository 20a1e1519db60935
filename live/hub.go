package live

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
)

// Message — конверт любого сообщения комнаты события.
type Message struct {
	Type    string      `json:"type"`
	EventID int         `json:"event_id"`
	Payload interface{} `json:"payload"`
}

// Hub держит websocket-клиентов по комнатам событий и рассылает им
// обновления расписания и счёта. Одна комната на событие.
type Hub struct {
	register   chan *Client
	unregister chan *Client

	mu    sync.RWMutex
	rooms map[int]map[*Client]bool

	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rooms:      make(map[int]map[*Client]bool),
		logger:     logger,
	}
}

// Run обслуживает регистрацию клиентов до отмены контекста.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[client.eventID]; !ok {
		h.rooms[client.eventID] = make(map[*Client]bool)
	}
	h.rooms[client.eventID][client] = true
	h.logger.Debug("live client joined",
		slog.Int("event_id", client.eventID),
		slog.String("client_id", client.id),
		slog.Int("room_size", len(h.rooms[client.eventID])))
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[client.eventID]
	if !ok || !room[client] {
		return
	}
	client.closeSend()
	delete(room, client)
	if len(room) == 0 {
		delete(h.rooms, client.eventID)
	}
	h.logger.Debug("live client left",
		slog.Int("event_id", client.eventID),
		slog.String("client_id", client.id))
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for eventID, room := range h.rooms {
		for client := range room {
			client.closeSend()
		}
		delete(h.rooms, eventID)
	}
}

// BroadcastEvent отправляет типизированное сообщение всем клиентам комнаты
// события. Медленный клиент пропускает сообщение, а не тормозит остальных.
func (h *Hub) BroadcastEvent(eventID int, messageType string, payload interface{}) {
	data, err := json.Marshal(Message{Type: messageType, EventID: eventID, Payload: payload})
	if err != nil {
		h.logger.Error("failed to marshal live message",
			slog.String("type", messageType), slog.Any("error", err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	room, ok := h.rooms[eventID]
	if !ok {
		return
	}
	for client := range room {
		client.trySend(data)
	}
}
