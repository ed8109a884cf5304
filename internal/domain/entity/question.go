package entity

import (
	"time"
)

// OptionsPerQuestion - фиксированное количество вариантов ответа у вопроса
const OptionsPerQuestion = 4

// Question представляет вопрос в викторине
type Question struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	QuizID          uint           `gorm:"not null;index" json:"quiz_id"`
	Text            string         `gorm:"size:500;not null" json:"text"`
	TimeLimitSec    int            `gorm:"not null;default:30" json:"time_limit_sec"`
	Position        int            `gorm:"not null" json:"position"`
	CorrectOptionID uint           `gorm:"not null" json:"-"` // Скрыто от клиента
	Options         []AnswerOption `gorm:"foreignKey:QuestionID" json:"options,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Question) TableName() string {
	return "questions"
}

// IsCorrect проверяет, является ли выбранный вариант правильным
func (q *Question) IsCorrect(optionID uint) bool {
	return optionID == q.CorrectOptionID
}

// HasOption проверяет, принадлежит ли вариант этому вопросу
func (q *Question) HasOption(optionID uint) bool {
	for i := range q.Options {
		if q.Options[i].ID == optionID {
			return true
		}
	}
	return false
}

// HasCorrectOption проверяет, что правильный вариант настроен и принадлежит вопросу
func (q *Question) HasCorrectOption() bool {
	return q.CorrectOptionID != 0 && q.HasOption(q.CorrectOptionID)
}

// TimeLimitMs возвращает лимит времени вопроса в миллисекундах
func (q *Question) TimeLimitMs() int64 {
	return int64(q.TimeLimitSec) * 1000
}
