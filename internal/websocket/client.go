package websocket

import (
	"bytes"
	"fmt"
	"log"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Время, которое разрешено писать сообщение клиенту.
	writeWait = 10 * time.Second

	// Время, которое разрешено клиенту читать следующее сообщение.
	pongWait = 30 * time.Second

	// Периодичность отправки ping-сообщений клиенту.
	pingPeriod = (pongWait * 9) / 10

	// Максимальный размер входящего сообщения
	maxMessageSize = 1024

	// Размер буфера канала исходящих сообщений клиента
	defaultClientBufferSize = 128
)

var (
	newline = []byte{'\n'}
	space   = []byte{' '}
)

// Client является посредником между WebSocket-соединением и хабом.
// До вызова join соединение не привязано ни к комнате, ни к роли;
// такие соединения снимает рутина очистки хаба по тайм-ауту.
type Client struct {
	// Уникальный ID соединения
	ConnectionID string

	hub  *Hub
	conn *websocket.Conn

	// Буферизованный канал исходящих сообщений и флаг его закрытия.
	// Общий мьютекс исключает гонку "отправка в закрываемый канал":
	// Send и closeSend никогда не выполняются одновременно.
	sendMu     sync.Mutex
	send       chan []byte
	sendClosed bool

	// Атрибуты, выставляемые при входе в комнату
	mu            sync.RWMutex
	pin           string
	role          string
	userID        uint
	participantID uint
	joined        bool

	// Время подключения и последней активности
	connectedAt  time.Time
	lastActivity atomic.Int64 // unix ms
}

// NewClient создает нового клиента
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	c := &Client{
		ConnectionID: uuid.New().String(),
		hub:          hub,
		conn:         conn,
		send:         make(chan []byte, defaultClientBufferSize),
		connectedAt:  time.Now(),
	}
	c.touch()
	return c
}

// touch обновляет время последней активности
func (c *Client) touch() {
	c.lastActivity.Store(time.Now().UnixMilli())
}

// LastActivity возвращает время последней активности клиента
func (c *Client) LastActivity() time.Time {
	return time.UnixMilli(c.lastActivity.Load())
}

// ConnectedAt возвращает время установления соединения
func (c *Client) ConnectedAt() time.Time {
	return c.connectedAt
}

// Join привязывает соединение к комнате и роли
func (c *Client) Join(pin string, role string, userID, participantID uint) {
	c.mu.Lock()
	c.pin = pin
	c.role = role
	c.userID = userID
	c.participantID = participantID
	c.joined = true
	c.mu.Unlock()
	log.Printf("[Client %s] Вошел в комнату %s как %s", c.ConnectionID, pin, role)
}

// Leave снимает привязку соединения к комнате
func (c *Client) Leave() {
	c.mu.Lock()
	c.pin = ""
	c.role = ""
	c.userID = 0
	c.participantID = 0
	c.joined = false
	c.mu.Unlock()
}

// PIN возвращает комнату клиента ("" - не в комнате)
func (c *Client) PIN() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pin
}

// Role возвращает роль клиента
func (c *Client) Role() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.role
}

// IsTeacher сообщает, вошел ли клиент как учитель
func (c *Client) IsTeacher() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.joined && c.role == RoleTeacher
}

// UserID возвращает ID пользователя (учителя), 0 для ученика
func (c *Client) UserID() uint {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

// ParticipantID возвращает ID участника, 0 для учителя
func (c *Client) ParticipantID() uint {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.participantID
}

// HasJoined сообщает, завершил ли клиент вход в комнату
func (c *Client) HasJoined() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.joined
}

// Send кладет сообщение в буфер отправки клиента.
// false - буфер переполнен или канал уже закрыт, сообщение отброшено.
func (c *Client) Send(message []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.sendClosed {
		return false
	}
	select {
	case c.send <- message:
		return true
	default:
		log.Printf("[Client %s] Буфер отправки переполнен, сообщение отброшено", c.ConnectionID)
		return false
	}
}

// closeSend закрывает канал отправки ровно один раз
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.sendClosed {
		return
	}
	c.sendClosed = true
	close(c.send)
}

// SendClosed сообщает, закрыт ли канал отправки клиента
func (c *Client) SendClosed() bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	return c.sendClosed
}

// readPump читает сообщения от клиента и передает их обработчику.
// Любая ошибка чтения или фатальная ошибка обработчика завершает цикл
// и снимает клиента с регистрации в хабе.
func (c *Client) readPump(messageHandler func(message []byte, client *Client) error) {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
		log.Printf("[Client %s] Рутина чтения остановлена", c.ConnectionID)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		c.touch()
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[Client %s] Ошибка чтения: %v", c.ConnectionID, err)
			}
			break
		}
		c.touch()

		if handlerErr := safeHandleMessage(message, c, messageHandler); handlerErr != nil {
			log.Printf("[Client %s] Фатальная ошибка обработчика: %v, соединение закрывается", c.ConnectionID, handlerErr)
			break
		}
	}
}

// safeHandleMessage - обертка для вызова обработчика с recover
func safeHandleMessage(message []byte, client *Client, messageHandler func(message []byte, client *Client) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Client %s] PANIC в обработчике сообщения: %v\n%s", client.ConnectionID, r, string(debug.Stack()))
			err = fmt.Errorf("panic recovered: %v", r)
		}
	}()
	message = bytes.TrimSpace(bytes.Replace(message, newline, space, -1))
	if messageHandler == nil {
		log.Printf("[Client %s] Обработчик сообщений не зарегистрирован", client.ConnectionID)
		return nil
	}
	return messageHandler(message, client)
}

// writePump отправляет сообщения клиенту из канала send и шлет ping
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		log.Printf("[Client %s] Рутина записи остановлена", c.ConnectionID)
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				// Хаб закрыл канал клиента
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[Client %s] Ошибка записи: %v", c.ConnectionID, err)
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// StartPumps запускает горутины чтения и записи
func (c *Client) StartPumps(messageHandler func(message []byte, client *Client) error) {
	go c.writePump()
	go c.readPump(messageHandler)
}
