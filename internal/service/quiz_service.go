package service

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strings"

	"github.com/yourusername/tugofwar-api/internal/domain/entity"
	"github.com/yourusername/tugofwar-api/internal/domain/repository"
	apperrors "github.com/yourusername/tugofwar-api/internal/pkg/errors"
	"github.com/yourusername/tugofwar-api/internal/service/gamemanager"
)

// QuestionInput - входные данные одного вопроса при создании викторины
type QuestionInput struct {
	Text               string
	TimeLimitSec       int
	Options            []string
	CorrectOptionIndex int
}

// QuizService предоставляет методы для работы с викторинами
type QuizService struct {
	quizRepo     repository.QuizRepository
	questionRepo repository.QuestionRepository
	cacheRepo    repository.CacheRepository
	config       *gamemanager.Config
}

// NewQuizService создает новый сервис викторин
func NewQuizService(
	quizRepo repository.QuizRepository,
	questionRepo repository.QuestionRepository,
	cacheRepo repository.CacheRepository,
	config *gamemanager.Config,
) *QuizService {
	if config == nil {
		config = gamemanager.DefaultConfig()
	}
	return &QuizService{
		quizRepo:     quizRepo,
		questionRepo: questionRepo,
		cacheRepo:    cacheRepo,
		config:       config,
	}
}

// CreateQuiz создает викторину с вопросами.
// PIN генерируется случайно; коллизия с существующей игрой разрешается
// повторной генерацией, число попыток ограничено.
func (s *QuizService) CreateQuiz(title string, creatorID uint, questions []QuestionInput) (*entity.Quiz, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: название викторины не может быть пустым", apperrors.ErrValidation)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: викторина должна содержать хотя бы один вопрос", apperrors.ErrValidation)
	}
	for i, q := range questions {
		if err := validateQuestionInput(i, q); err != nil {
			return nil, err
		}
	}

	quiz, err := s.createWithUniquePIN(title, creatorID)
	if err != nil {
		return nil, err
	}

	if err := s.addQuestions(quiz.ID, questions); err != nil {
		// Викторина без вопросов бесполезна, подчищаем
		if delErr := s.quizRepo.Delete(quiz.ID); delErr != nil {
			log.Printf("[QuizService] Не удалось удалить викторину #%d после ошибки добавления вопросов: %v", quiz.ID, delErr)
		}
		return nil, err
	}

	log.Printf("[QuizService] Создана викторина #%d %q с PIN %s (%d вопросов)", quiz.ID, title, quiz.PIN, len(questions))
	return s.quizRepo.GetWithQuestions(quiz.ID)
}

func validateQuestionInput(index int, q QuestionInput) error {
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("%w: текст вопроса %d пуст", apperrors.ErrValidation, index)
	}
	if q.TimeLimitSec <= 0 {
		return fmt.Errorf("%w: лимит времени вопроса %d должен быть положительным", apperrors.ErrValidation, index)
	}
	if len(q.Options) != entity.OptionsPerQuestion {
		return fmt.Errorf("%w: вопрос %d должен иметь ровно %d варианта ответа", apperrors.ErrValidation, index, entity.OptionsPerQuestion)
	}
	if q.CorrectOptionIndex < 0 || q.CorrectOptionIndex >= len(q.Options) {
		return fmt.Errorf("%w: индекс правильного варианта вопроса %d вне диапазона", apperrors.ErrValidation, index)
	}
	for j, opt := range q.Options {
		if strings.TrimSpace(opt) == "" {
			return fmt.Errorf("%w: вариант %d вопроса %d пуст", apperrors.ErrValidation, j, index)
		}
	}
	return nil
}

// createWithUniquePIN создает викторину, повторяя генерацию PIN при коллизиях
func (s *QuizService) createWithUniquePIN(title string, creatorID uint) (*entity.Quiz, error) {
	for attempt := 0; attempt < s.config.PinAttempts; attempt++ {
		quiz := &entity.Quiz{
			Title:     title,
			PIN:       generatePIN(),
			Status:    entity.QuizStatusCreated,
			CreatorID: creatorID,
		}
		err := s.quizRepo.Create(quiz)
		if err == nil {
			return quiz, nil
		}
		if !errors.Is(err, apperrors.ErrConflict) {
			return nil, fmt.Errorf("не удалось создать викторину: %w", err)
		}
		log.Printf("[QuizService] Коллизия PIN %s, попытка %d", quiz.PIN, attempt+1)
	}
	return nil, fmt.Errorf("%w: не удалось сгенерировать уникальный PIN за %d попыток", apperrors.ErrConflict, s.config.PinAttempts)
}

// generatePIN возвращает случайный 6-значный PIN
func generatePIN() string {
	return fmt.Sprintf("%06d", rand.Intn(1000000))
}

// addQuestions создает вопросы с вариантами и проставляет правильные варианты
func (s *QuizService) addQuestions(quizID uint, inputs []QuestionInput) error {
	questions := make([]entity.Question, len(inputs))
	for i, in := range inputs {
		options := make([]entity.AnswerOption, len(in.Options))
		for j, text := range in.Options {
			options[j] = entity.AnswerOption{Text: text, Position: j}
		}
		questions[i] = entity.Question{
			QuizID:       quizID,
			Text:         in.Text,
			TimeLimitSec: in.TimeLimitSec,
			Position:     i,
			Options:      options,
		}
	}

	if err := s.questionRepo.CreateBatch(questions); err != nil {
		return fmt.Errorf("не удалось создать вопросы: %w", err)
	}

	// ID вариантов известны только после вставки
	for i, q := range questions {
		correctID := q.Options[inputs[i].CorrectOptionIndex].ID
		if err := s.questionRepo.SetCorrectOption(q.ID, correctID); err != nil {
			return fmt.Errorf("не удалось отметить правильный вариант вопроса #%d: %w", q.ID, err)
		}
	}
	return nil
}

// GetQuizByID возвращает викторину по ID
func (s *QuizService) GetQuizByID(quizID uint) (*entity.Quiz, error) {
	return s.quizRepo.GetByID(quizID)
}

// GetQuizWithQuestions возвращает викторину с вопросами и вариантами
func (s *QuizService) GetQuizWithQuestions(quizID uint) (*entity.Quiz, error) {
	return s.quizRepo.GetWithQuestions(quizID)
}

// GetQuizByPIN возвращает викторину по PIN
func (s *QuizService) GetQuizByPIN(pin string) (*entity.Quiz, error) {
	return s.quizRepo.GetByPIN(pin)
}

// ListQuizzes возвращает викторины создателя постранично
func (s *QuizService) ListQuizzes(creatorID uint, page, pageSize int) ([]entity.Quiz, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.quizRepo.ListByCreator(creatorID, pageSize, (page-1)*pageSize)
}

// DeleteQuiz удаляет викторину со всеми вопросами, участниками и ответами.
// Идущую игру удалить нельзя - сначала ее нужно завершить.
func (s *QuizService) DeleteQuiz(quizID uint, userID uint) error {
	quiz, err := s.quizRepo.GetByID(quizID)
	if err != nil {
		return err
	}
	if !quiz.IsOwnedBy(userID) {
		return apperrors.ErrForbidden
	}
	if quiz.IsStarted() {
		return fmt.Errorf("%w: нельзя удалить идущую викторину", apperrors.ErrInvalidState)
	}

	if err := s.quizRepo.Delete(quizID); err != nil {
		return fmt.Errorf("не удалось удалить викторину: %w", err)
	}

	// Подчищаем кеш: PIN -> quizID, среднее время и множество участников
	cacheKeys := []string{
		fmt.Sprintf("quiz:pin:%s", quiz.PIN),
		fmt.Sprintf("quiz:%d:avg_time_ms", quizID),
		fmt.Sprintf("quiz:%d:participants", quizID),
	}
	for _, key := range cacheKeys {
		if err := s.cacheRepo.Delete(key); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			log.Printf("[QuizService] Не удалось удалить ключ %s из кеша: %v", key, err)
		}
	}

	log.Printf("[QuizService] Викторина #%d удалена пользователем #%d", quizID, userID)
	return nil
}
