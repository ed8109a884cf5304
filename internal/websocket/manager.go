package websocket

import (
	"encoding/json"
	"fmt"
	"log"
)

// Event представляет структуру WebSocket-сообщения
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Manager диспетчеризует входящие WebSocket-сообщения по зарегистрированным
// обработчикам и дает сервисам интерфейс рассылки в комнаты
type Manager struct {
	hub            *Hub
	messageHandler map[string]func(data json.RawMessage, client *Client) error
}

// NewManager создает новый менеджер WebSocket
func NewManager(hub *Hub) *Manager {
	return &Manager{
		hub:            hub,
		messageHandler: make(map[string]func(data json.RawMessage, client *Client) error),
	}
}

// Hub возвращает хаб менеджера
func (m *Manager) Hub() *Hub {
	return m.hub
}

// RegisterHandler регистрирует обработчик для типа сообщений
func (m *Manager) RegisterHandler(eventType string, handler func(data json.RawMessage, client *Client) error) {
	m.messageHandler[eventType] = handler
	log.Printf("[WSManager] Зарегистрирован обработчик сообщений типа %s", eventType)
}

// HandleMessage обрабатывает входящее сообщение клиента.
// Возвращенная ошибка фатальна: соединение будет закрыто.
func (m *Manager) HandleMessage(message []byte, client *Client) error {
	var event Event
	if err := json.Unmarshal(message, &event); err != nil {
		log.Printf("[WSManager] Не удалось разобрать сообщение от %s: %v", client.ConnectionID, err)
		m.SendErrorToClient(client, "Некорректный формат сообщения")
		return err
	}

	handler, ok := m.messageHandler[event.Type]
	if !ok {
		log.Printf("[WSManager] Нет обработчика для сообщения типа %q от %s", event.Type, client.ConnectionID)
		m.SendErrorToClient(client, fmt.Sprintf("Неизвестный тип сообщения: %s", event.Type))
		return nil
	}

	rawData, _ := json.Marshal(event.Data)
	if err := handler(rawData, client); err != nil {
		log.Printf("[WSManager] Обработчик %s вернул ошибку для %s: %v", event.Type, client.ConnectionID, err)
		return err
	}
	return nil
}

// SendErrorToClient отправляет сообщение об ошибке только вызвавшему
// соединению, не комнате. Соединение не закрывается.
func (m *Manager) SendErrorToClient(client *Client, message string) {
	if err := m.hub.SendToClient(client, "error", map[string]string{"message": message}); err != nil {
		log.Printf("[WSManager] Не удалось отправить ошибку клиенту %s: %v", client.ConnectionID, err)
	}
}

// BroadcastToRoom отправляет событие всем соединениям комнаты
func (m *Manager) BroadcastToRoom(pin string, eventType string, data interface{}) error {
	return m.hub.BroadcastToRoom(pin, eventType, data)
}

// SendEventToClient отправляет событие одному соединению
func (m *Manager) SendEventToClient(client *Client, eventType string, data interface{}) error {
	return m.hub.SendToClient(client, eventType, data)
}
