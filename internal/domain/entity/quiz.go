package entity

import (
	"time"
)

// Константы статусов игры
const (
	QuizStatusCreated  = "created"
	QuizStatusStarted  = "started"
	QuizStatusFinished = "finished"
)

// PINLength - длина PIN-кода для подключения участников
const PINLength = 6

// Quiz представляет викторину "перетягивание каната" между двумя командами
type Quiz struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Title     string     `gorm:"size:100;not null" json:"title"`
	PIN       string     `gorm:"column:pin;size:6;not null;uniqueIndex" json:"pin"`
	Status    string     `gorm:"size:20;not null;default:'created';index" json:"status"`
	CreatorID uint       `gorm:"not null;index" json:"creator_id"`
	Questions []Question `gorm:"foreignKey:QuizID" json:"questions,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Quiz) TableName() string {
	return "quizzes"
}

// IsCreated проверяет, что игра еще не запускалась
func (q *Quiz) IsCreated() bool {
	return q.Status == QuizStatusCreated
}

// IsStarted проверяет, идет ли игра
func (q *Quiz) IsStarted() bool {
	return q.Status == QuizStatusStarted
}

// IsFinished проверяет, завершена ли игра
func (q *Quiz) IsFinished() bool {
	return q.Status == QuizStatusFinished
}

// IsOwnedBy проверяет, является ли пользователь создателем викторины
func (q *Quiz) IsOwnedBy(userID uint) bool {
	return q.CreatorID == userID
}

// CanTransitionTo проверяет допустимость перехода статуса.
// Статус движется только вперед: created -> started -> finished.
func (q *Quiz) CanTransitionTo(status string) bool {
	switch status {
	case QuizStatusStarted:
		return q.Status == QuizStatusCreated
	case QuizStatusFinished:
		return q.Status == QuizStatusCreated || q.Status == QuizStatusStarted
	default:
		return false
	}
}
