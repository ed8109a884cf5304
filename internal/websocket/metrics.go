package websocket

import (
	"sync"
	"time"
)

// HubMetrics содержит счетчики работы хаба
type HubMetrics struct {
	mu sync.RWMutex

	totalConnections       int64
	activeConnections      int64
	messagesSent           int64
	connectionErrors       int64
	inactiveClientsRemoved int64
	lastCleanupTime        time.Time
}

// NewHubMetrics создает новый набор метрик
func NewHubMetrics() *HubMetrics {
	return &HubMetrics{}
}

// IncrementTotalConnections увеличивает счетчики подключений
func (m *HubMetrics) IncrementTotalConnections() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalConnections++
	m.activeConnections++
}

// DecrementActiveConnections уменьшает счетчик активных подключений
func (m *HubMetrics) DecrementActiveConnections() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.activeConnections > 0 {
		m.activeConnections--
	}
}

// AddMessageSent увеличивает счетчик отправленных сообщений
func (m *HubMetrics) AddMessageSent(count int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messagesSent += count
}

// AddConnectionError увеличивает счетчик ошибок
func (m *HubMetrics) AddConnectionError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectionErrors++
}

// AddInactiveClientsRemoved увеличивает счетчик снятых неактивных клиентов
func (m *HubMetrics) AddInactiveClientsRemoved(count int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inactiveClientsRemoved += count
}

// UpdateLastCleanupTime фиксирует время последней очистки
func (m *HubMetrics) UpdateLastCleanupTime() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastCleanupTime = time.Now()
}

// Snapshot возвращает копию всех счетчиков
func (m *HubMetrics) Snapshot() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return map[string]interface{}{
		"total_connections":        m.totalConnections,
		"active_connections":       m.activeConnections,
		"messages_sent":            m.messagesSent,
		"connection_errors":        m.connectionErrors,
		"inactive_clients_removed": m.inactiveClientsRemoved,
		"last_cleanup_time":        m.lastCleanupTime,
	}
}
