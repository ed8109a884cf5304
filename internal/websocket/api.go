package websocket

import (
	"encoding/json"
	"net/http"
)

// MetricsProvider отдает снимок метрик хаба
type MetricsProvider interface {
	GetMetrics() map[string]interface{}
	ClientCount() int
}

// MetricsHandler возвращает HTTP-обработчик метрик WebSocket
func MetricsHandler(provider MetricsProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(provider.GetMetrics())
	}
}

// HealthCheckHandler возвращает HTTP-обработчик проверки здоровья хаба
func HealthCheckHandler(provider MetricsProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":             "ok",
			"active_connections": provider.ClientCount(),
		})
	}
}
