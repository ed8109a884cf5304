package postgres

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/yourusername/tugofwar-api/internal/domain/entity"
	apperrors "github.com/yourusername/tugofwar-api/internal/pkg/errors"
)

// QuizRepo реализует repository.QuizRepository
type QuizRepo struct {
	db *gorm.DB
}

// NewQuizRepo создает новый репозиторий викторин
func NewQuizRepo(db *gorm.DB) *QuizRepo {
	return &QuizRepo{db: db}
}

// Create создает новую викторину. Коллизия PIN возвращается как ErrConflict,
// чтобы генератор PIN мог повторить попытку.
func (r *QuizRepo) Create(quiz *entity.Quiz) error {
	if err := r.db.Create(quiz).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: pin %s already taken", apperrors.ErrConflict, quiz.PIN)
		}
		return err
	}
	return nil
}

// GetByID возвращает викторину по ID
func (r *QuizRepo) GetByID(id uint) (*entity.Quiz, error) {
	var quiz entity.Quiz
	err := r.db.First(&quiz, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &quiz, nil
}

// GetByPIN возвращает викторину по PIN-коду
func (r *QuizRepo) GetByPIN(pin string) (*entity.Quiz, error) {
	var quiz entity.Quiz
	err := r.db.Where("pin = ?", pin).First(&quiz).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &quiz, nil
}

// GetWithQuestions возвращает викторину вместе с вопросами и вариантами ответов.
// Вопросы упорядочены по position, варианты - по своей позиции 1-4.
func (r *QuizRepo) GetWithQuestions(id uint) (*entity.Quiz, error) {
	var quiz entity.Quiz
	err := r.db.
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.position ASC")
		}).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("answer_options.position ASC")
		}).
		First(&quiz, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &quiz, nil
}

// UpdateStatus обновляет статус викторины
func (r *QuizRepo) UpdateStatus(quizID uint, status string) error {
	return r.db.Model(&entity.Quiz{}).
		Where("id = ?", quizID).
		Update("status", status).
		Error
}

// TransitionStatus атомарно переводит викторину из одного из ожидаемых статусов в новый.
// - RowsAffected == 1 → переход выполнил этот вызов
// - RowsAffected == 0 → статус уже изменен другим вызовом (или не подходит)
// Используется для разрешения гонки "таймер против ручного завершения":
// из двух конкурирующих завершений ровно одно получает true.
func (r *QuizRepo) TransitionStatus(quizID uint, from []string, to string) (bool, error) {
	result := r.db.Model(&entity.Quiz{}).
		Where("id = ? AND status IN ?", quizID, from).
		Update("status", to)
	if result.Error != nil {
		return false, fmt.Errorf("transition quiz #%d to %s failed: %w", quizID, to, result.Error)
	}
	return result.RowsAffected == 1, nil
}

// ListByCreator возвращает викторины пользователя с пагинацией
func (r *QuizRepo) ListByCreator(creatorID uint, limit, offset int) ([]entity.Quiz, error) {
	var quizzes []entity.Quiz
	err := r.db.Where("creator_id = ?", creatorID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&quizzes).Error
	if err != nil {
		return nil, err
	}
	return quizzes, nil
}

// Delete каскадно удаляет викторину вместе с вопросами, вариантами,
// участниками и ответами в одной транзакции.
func (r *QuizRepo) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		questionIDs := tx.Model(&entity.Question{}).Select("id").Where("quiz_id = ?", id)
		participantIDs := tx.Model(&entity.Participant{}).Select("id").Where("quiz_id = ?", id)

		if err := tx.Where("participant_id IN (?)", participantIDs).Delete(&entity.Answer{}).Error; err != nil {
			return err
		}
		if err := tx.Where("question_id IN (?)", questionIDs).Delete(&entity.AnswerOption{}).Error; err != nil {
			return err
		}
		if err := tx.Where("quiz_id = ?", id).Delete(&entity.Participant{}).Error; err != nil {
			return err
		}
		if err := tx.Where("quiz_id = ?", id).Delete(&entity.Question{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&entity.Quiz{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrNotFound
		}
		return nil
	})
}

// isUniqueViolation проверяет Postgres unique violation (23505) для pgconn и lib/pq драйверов
func isUniqueViolation(err error) bool {
	// pgx/v5 driver (pgconn.PgError)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	// lib/pq driver
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	return false
}
