package postgres

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yourusername/tugofwar-api/internal/domain/entity"
	apperrors "github.com/yourusername/tugofwar-api/internal/pkg/errors"
)

// AnswerRepo реализует repository.AnswerRepository
type AnswerRepo struct {
	db *gorm.DB
}

// NewAnswerRepo создает новый репозиторий ответов
func NewAnswerRepo(db *gorm.DB) *AnswerRepo {
	return &AnswerRepo{db: db}
}

// Save сохраняет ответ участника. Проверка "не более одного ответа на пару
// (участник, вопрос)" выполняется уникальным индексом при записи: из двух
// конкурирующих вставок ровно одна проходит, вторая получает ErrConflict.
func (r *AnswerRepo) Save(answer *entity.Answer) error {
	if err := r.db.Create(answer).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: participant #%d already answered question #%d",
				apperrors.ErrConflict, answer.ParticipantID, answer.QuestionID)
		}
		return err
	}
	return nil
}

// Exists проверяет, отвечал ли участник на вопрос
func (r *AnswerRepo) Exists(participantID, questionID uint) (bool, error) {
	var count int64
	err := r.db.Model(&entity.Answer{}).
		Where("participant_id = ? AND question_id = ?", participantID, questionID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetByQuizID возвращает все ответы участников викторины (через join с участниками)
func (r *AnswerRepo) GetByQuizID(quizID uint) ([]entity.Answer, error) {
	var answers []entity.Answer
	err := r.db.
		Joins("JOIN participants ON participants.id = answers.participant_id").
		Where("participants.quiz_id = ?", quizID).
		Order("answers.created_at ASC").
		Find(&answers).Error
	if err != nil {
		return nil, err
	}
	return answers, nil
}

// GetByParticipantID возвращает ответы одного участника
func (r *AnswerRepo) GetByParticipantID(participantID uint) ([]entity.Answer, error) {
	var answers []entity.Answer
	err := r.db.Where("participant_id = ?", participantID).
		Order("created_at ASC").
		Find(&answers).Error
	if err != nil {
		return nil, err
	}
	return answers, nil
}
