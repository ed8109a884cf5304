package repository

import (
	"github.com/yourusername/tugofwar-api/internal/domain/entity"
)

// AnswerRepository определяет методы для работы с ответами участников
type AnswerRepository interface {
	// Save сохраняет ответ. Уникальный индекс (participant_id, question_id)
	// гарантирует не более одного ответа на вопрос; при дубликате
	// возвращается apperrors.ErrConflict.
	Save(answer *entity.Answer) error
	Exists(participantID, questionID uint) (bool, error)
	// GetByQuizID возвращает все ответы участников викторины.
	GetByQuizID(quizID uint) ([]entity.Answer, error)
	GetByParticipantID(participantID uint) ([]entity.Answer, error)
}
