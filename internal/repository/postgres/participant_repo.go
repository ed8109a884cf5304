package postgres

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yourusername/tugofwar-api/internal/domain/entity"
	apperrors "github.com/yourusername/tugofwar-api/internal/pkg/errors"
)

// ParticipantRepo реализует repository.ParticipantRepository
type ParticipantRepo struct {
	db *gorm.DB
}

// NewParticipantRepo создает новый репозиторий участников
func NewParticipantRepo(db *gorm.DB) *ParticipantRepo {
	return &ParticipantRepo{db: db}
}

// Create сохраняет участника. Уникальный индекс (quiz_id, name)
// не допускает дубликатов имен внутри одной викторины.
func (r *ParticipantRepo) Create(participant *entity.Participant) error {
	if err := r.db.Create(participant).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: name %q already taken in quiz #%d",
				apperrors.ErrConflict, participant.Name, participant.QuizID)
		}
		return err
	}
	return nil
}

// GetByID возвращает участника по ID
func (r *ParticipantRepo) GetByID(id uint) (*entity.Participant, error) {
	var participant entity.Participant
	err := r.db.First(&participant, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &participant, nil
}

// GetByQuizID возвращает участников викторины в порядке присоединения
func (r *ParticipantRepo) GetByQuizID(quizID uint) ([]entity.Participant, error) {
	var participants []entity.Participant
	err := r.db.Where("quiz_id = ?", quizID).
		Order("joined_at ASC").
		Find(&participants).Error
	if err != nil {
		return nil, err
	}
	return participants, nil
}

// CountByQuizID возвращает количество участников викторины
func (r *ParticipantRepo) CountByQuizID(quizID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entity.Participant{}).Where("quiz_id = ?", quizID).Count(&count).Error
	return count, err
}
