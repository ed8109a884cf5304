package repository

import (
	"github.com/yourusername/tugofwar-api/internal/domain/entity"
)

// ParticipantRepository определяет методы для работы с участниками
type ParticipantRepository interface {
	// Create сохраняет участника. Возвращает apperrors.ErrConflict,
	// если имя уже занято в этой викторине.
	Create(participant *entity.Participant) error
	GetByID(id uint) (*entity.Participant, error)
	GetByQuizID(quizID uint) ([]entity.Participant, error)
	CountByQuizID(quizID uint) (int64, error)
}
