package repository

import (
	"github.com/yourusername/tugofwar-api/internal/domain/entity"
)

// QuizRepository определяет методы для работы с викторинами
type QuizRepository interface {
	Create(quiz *entity.Quiz) error
	GetByID(id uint) (*entity.Quiz, error)
	GetByPIN(pin string) (*entity.Quiz, error)
	// GetWithQuestions возвращает викторину с вопросами (упорядоченными по position)
	// и их вариантами ответов.
	GetWithQuestions(id uint) (*entity.Quiz, error)
	UpdateStatus(quizID uint, status string) error
	// TransitionStatus атомарно переводит викторину из одного из ожидаемых статусов
	// в новый. Возвращает true, если переход выполнил именно этот вызов -
	// гонка двух завершений разрешается по числу затронутых строк.
	TransitionStatus(quizID uint, from []string, to string) (bool, error)
	ListByCreator(creatorID uint, limit, offset int) ([]entity.Quiz, error)
	// Delete каскадно удаляет викторину вместе с вопросами, вариантами,
	// участниками и ответами.
	Delete(id uint) error
}
