package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yourusername/tugofwar-api/internal/domain/entity"
	apperrors "github.com/yourusername/tugofwar-api/internal/pkg/errors"
)

// QuestionRepo реализует repository.QuestionRepository
type QuestionRepo struct {
	db *gorm.DB
}

// NewQuestionRepo создает новый репозиторий вопросов
func NewQuestionRepo(db *gorm.DB) *QuestionRepo {
	return &QuestionRepo{db: db}
}

// CreateBatch создает вопросы вместе с их вариантами ответов
func (r *QuestionRepo) CreateBatch(questions []entity.Question) error {
	if len(questions) == 0 {
		return nil
	}
	return r.db.Create(&questions).Error
}

// GetByID возвращает вопрос вместе с вариантами ответов
func (r *QuestionRepo) GetByID(id uint) (*entity.Question, error) {
	var question entity.Question
	err := r.db.
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("answer_options.position ASC")
		}).
		First(&question, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &question, nil
}

// GetByQuizID возвращает вопросы викторины с вариантами, упорядоченные по position
func (r *QuestionRepo) GetByQuizID(quizID uint) ([]entity.Question, error) {
	var questions []entity.Question
	err := r.db.
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("answer_options.position ASC")
		}).
		Where("quiz_id = ?", quizID).
		Order("position ASC").
		Find(&questions).Error
	if err != nil {
		return nil, err
	}
	return questions, nil
}

// SetCorrectOption проставляет вопросу ID правильного варианта
func (r *QuestionRepo) SetCorrectOption(questionID, optionID uint) error {
	result := r.db.Model(&entity.Question{}).
		Where("id = ?", questionID).
		Update("correct_option_id", optionID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// CountByQuizID возвращает количество вопросов викторины
func (r *QuestionRepo) CountByQuizID(quizID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entity.Question{}).Where("quiz_id = ?", quizID).Count(&count).Error
	return count, err
}
