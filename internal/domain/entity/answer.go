package entity

import (
	"time"
)

// Answer представляет ответ участника на вопрос.
// Не более одного ответа на пару (participant_id, question_id) - уникальный
// индекс в БД плюс проверка в движке перед записью.
type Answer struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	ParticipantID    uint      `gorm:"not null;index;uniqueIndex:idx_answers_participant_question" json:"participant_id"`
	QuestionID       uint      `gorm:"not null;index;uniqueIndex:idx_answers_participant_question" json:"question_id"`
	SelectedOptionID uint      `gorm:"not null" json:"selected_option_id"`
	IsCorrect        bool      `gorm:"not null" json:"is_correct"`
	ResponseTimeMs   int64     `gorm:"not null" json:"response_time_ms"`
	CreatedAt        time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (Answer) TableName() string {
	return "answers"
}
