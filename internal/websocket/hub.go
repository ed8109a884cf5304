package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"
)

const (
	// Интервал запуска рутины очистки неактивных соединений
	defaultCleanupInterval = 1 * time.Minute

	// Сколько времени соединению дается на вход в комнату.
	// Не вошедшие за это окно соединения принудительно отключаются.
	defaultJoinTimeout = 5 * time.Minute
)

// HubConfig содержит настройки хаба
type HubConfig struct {
	CleanupInterval time.Duration
	JoinTimeout     time.Duration
}

// DefaultHubConfig возвращает конфигурацию хаба по умолчанию
func DefaultHubConfig() HubConfig {
	return HubConfig{
		CleanupInterval: defaultCleanupInterval,
		JoinTimeout:     defaultJoinTimeout,
	}
}

// roomMessage - сообщение для рассылки в комнату
type roomMessage struct {
	pin     string
	message []byte
}

// Hub ведет реестр живых соединений и комнат (ключ комнаты - PIN викторины).
// Регистрация, снятие и рассылка идут через каналы и обрабатываются
// единственной горутиной Run: рассылки в одну комнату сохраняют порядок
// постановки в канал.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	broadcast  chan roomMessage

	mu      sync.RWMutex
	clients map[*Client]bool
	rooms   map[string]map[*Client]bool

	config  HubConfig
	metrics *HubMetrics
}

// NewHub создает новый хаб
func NewHub(config HubConfig) *Hub {
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = defaultCleanupInterval
	}
	if config.JoinTimeout <= 0 {
		config.JoinTimeout = defaultJoinTimeout
	}
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan roomMessage, 256),
		clients:    make(map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
		config:     config,
		metrics:    NewHubMetrics(),
	}
}

// Run обрабатывает регистрацию, снятие и рассылку до отмены контекста
func (h *Hub) Run(ctx context.Context) {
	log.Printf("[Hub] Запуск, очистка каждые %v, окно входа %v", h.config.CleanupInterval, h.config.JoinTimeout)
	ticker := time.NewTicker(h.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client)

		case msg := <-h.broadcast:
			h.deliverToRoom(msg.pin, msg.message)

		case <-ticker.C:
			h.reapIdleClients()

		case <-ctx.Done():
			log.Println("[Hub] Остановка, закрытие всех соединений")
			h.closeAll()
			return
		}
	}
}

// RegisterClient регистрирует новое соединение в хабе
func (h *Hub) RegisterClient(client *Client) {
	h.register <- client
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	h.metrics.IncrementTotalConnections()
	log.Printf("[Hub] Клиент %s зарегистрирован, всего соединений: %d", client.ConnectionID, total)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	h.detachFromRoomLocked(client)
	h.mu.Unlock()

	client.Leave()
	client.closeSend()
	h.metrics.DecrementActiveConnections()
	log.Printf("[Hub] Клиент %s снят с регистрации", client.ConnectionID)
}

// detachFromRoomLocked убирает клиента из его комнаты; вызывается под h.mu
func (h *Hub) detachFromRoomLocked(client *Client) {
	pin := client.PIN()
	if pin == "" {
		return
	}
	if room, ok := h.rooms[pin]; ok {
		delete(room, client)
		if len(room) == 0 {
			delete(h.rooms, pin)
			log.Printf("[Hub] Комната %s опустела и удалена", pin)
		}
	}
}

// JoinRoom помещает клиента в комнату. Выход из предыдущей комнаты,
// если клиент в ней был, выполняется автоматически.
func (h *Hub) JoinRoom(client *Client, pin string) {
	h.mu.Lock()
	h.detachFromRoomLocked(client)
	room, ok := h.rooms[pin]
	if !ok {
		room = make(map[*Client]bool)
		h.rooms[pin] = room
	}
	room[client] = true
	size := len(room)
	h.mu.Unlock()

	log.Printf("[Hub] Клиент %s в комнате %s, размер комнаты: %d", client.ConnectionID, pin, size)
}

// LeaveRoom убирает клиента из его комнаты и сбрасывает привязку
func (h *Hub) LeaveRoom(client *Client) {
	h.mu.Lock()
	h.detachFromRoomLocked(client)
	h.mu.Unlock()
	client.Leave()
}

// BroadcastToRoom сериализует событие и ставит его в очередь рассылки комнате
func (h *Hub) BroadcastToRoom(pin string, eventType string, data interface{}) error {
	message, err := json.Marshal(Event{Type: eventType, Data: data})
	if err != nil {
		return fmt.Errorf("не удалось сериализовать событие %s: %w", eventType, err)
	}

	select {
	case h.broadcast <- roomMessage{pin: pin, message: message}:
		return nil
	default:
		h.metrics.AddConnectionError()
		return fmt.Errorf("очередь рассылки переполнена, событие %s для комнаты %s отброшено", eventType, pin)
	}
}

// deliverToRoom раздает сообщение всем клиентам комнаты
func (h *Hub) deliverToRoom(pin string, message []byte) {
	h.mu.RLock()
	room := h.rooms[pin]
	clients := make([]*Client, 0, len(room))
	for client := range room {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	sent := 0
	for _, client := range clients {
		if client.Send(message) {
			sent++
		}
	}
	h.metrics.AddMessageSent(int64(sent))
}

// SendToClient отправляет событие одному соединению, минуя комнату
func (h *Hub) SendToClient(client *Client, eventType string, data interface{}) error {
	message, err := json.Marshal(Event{Type: eventType, Data: data})
	if err != nil {
		return fmt.Errorf("не удалось сериализовать событие %s: %w", eventType, err)
	}
	if !client.Send(message) {
		return fmt.Errorf("не удалось отправить событие %s клиенту %s", eventType, client.ConnectionID)
	}
	h.metrics.AddMessageSent(1)
	return nil
}

// reapIdleClients отключает соединения, не вошедшие в комнату за отведенное
// окно. Окно отсчитывается от момента подключения: ответы на ping не
// продлевают его, иначе любой живой клиент без join висел бы вечно.
// Вошедших клиентов держат живыми ping/pong и дедлайны чтения,
// их рутина очистки не трогает.
func (h *Hub) reapIdleClients() {
	h.mu.RLock()
	var idle []*Client
	for client := range h.clients {
		if !client.HasJoined() && time.Since(client.ConnectedAt()) > h.config.JoinTimeout {
			idle = append(idle, client)
		}
	}
	h.mu.RUnlock()

	if len(idle) == 0 {
		return
	}
	log.Printf("[Hub] Очистка: отключение %d не вошедших соединений", len(idle))
	for _, client := range idle {
		h.removeClient(client)
	}
	h.metrics.AddInactiveClientsRemoved(int64(len(idle)))
	h.metrics.UpdateLastCleanupTime()
}

// closeAll закрывает все соединения при остановке хаба
func (h *Hub) closeAll() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.clients = make(map[*Client]bool)
	h.rooms = make(map[string]map[*Client]bool)
	h.mu.Unlock()

	for _, client := range clients {
		client.closeSend()
	}
}

// ClientCount возвращает число живых соединений
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomSize возвращает число соединений в комнате
func (h *Hub) RoomSize(pin string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[pin])
}

// Metrics возвращает счетчики хаба
func (h *Hub) Metrics() *HubMetrics {
	return h.metrics
}

// GetMetrics возвращает снимок метрик для HTTP-выдачи
func (h *Hub) GetMetrics() map[string]interface{} {
	h.mu.RLock()
	clients := len(h.clients)
	rooms := len(h.rooms)
	h.mu.RUnlock()

	snapshot := h.metrics.Snapshot()
	snapshot["active_connections"] = clients
	snapshot["active_rooms"] = rooms
	return snapshot
}
