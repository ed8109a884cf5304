package repository

import (
	"github.com/yourusername/tugofwar-api/internal/domain/entity"
)

// QuestionRepository определяет методы для работы с вопросами
type QuestionRepository interface {
	CreateBatch(questions []entity.Question) error
	// GetByID возвращает вопрос вместе с вариантами ответов.
	GetByID(id uint) (*entity.Question, error)
	// GetByQuizID возвращает вопросы викторины с вариантами, упорядоченные по position.
	GetByQuizID(quizID uint) ([]entity.Question, error)
	CountByQuizID(quizID uint) (int64, error)
	// SetCorrectOption проставляет вопросу ID правильного варианта.
	// Используется после пакетного создания, когда ID вариантов уже известны.
	SetCorrectOption(questionID, optionID uint) error
}
