package repository

import (
	"time"
)

// CacheRepository определяет методы для работы с кешем.
// Поверхность намеренно узкая: только операции, которые
// используют игровой движок и сервисы.
type CacheRepository interface {
	Delete(key string) error
	SetJSON(key string, value interface{}, expiration time.Duration) error
	GetJSON(key string, dest interface{}) error
	SAdd(key string, members ...interface{}) error
}
