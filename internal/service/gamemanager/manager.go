package gamemanager

import (
	"context"
	"fmt"
	"log"

	"github.com/yourusername/tugofwar-api/internal/domain/entity"
	apperrors "github.com/yourusername/tugofwar-api/internal/pkg/errors"
)

// Manager - ядро игрового движка: машина состояний жизненного цикла,
// планировщик вопросов, прием ответов и расчет позиции каната.
// Все рантайм-состояние активных игр живет в реестре states.
type Manager struct {
	deps   *Dependencies
	config *Config
	states *StateRegistry

	// Родительский контекст таймеров: Shutdown отменяет его,
	// и все взведенные таймеры гаснут разом.
	ctx    context.Context
	cancel context.CancelFunc
}

// NewManager создает игровой движок
func NewManager(deps *Dependencies) *Manager {
	if deps.Config == nil {
		deps.Config = DefaultConfig()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		deps:   deps,
		config: deps.Config,
		states: NewStateRegistry(),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Shutdown останавливает все таймеры движка
func (m *Manager) Shutdown() {
	log.Println("[GameManager] Остановка игрового движка")
	m.cancel()
}

// QuizByPIN находит викторину по PIN, используя кеш PIN -> quizID
func (m *Manager) QuizByPIN(ctx context.Context, pin string) (*entity.Quiz, error) {
	var quizID uint
	cacheKey := fmt.Sprintf("quiz:pin:%s", pin)
	if err := m.deps.CacheRepo.GetJSON(cacheKey, &quizID); err == nil && quizID > 0 {
		quiz, err := m.deps.QuizRepo.GetByID(quizID)
		if err == nil {
			return quiz, nil
		}
		// устаревшая запись в кеше
		_ = m.deps.CacheRepo.Delete(cacheKey)
	}

	quiz, err := m.deps.QuizRepo.GetByPIN(pin)
	if err != nil {
		return nil, err
	}
	if err := m.deps.CacheRepo.SetJSON(cacheKey, quiz.ID, m.config.CacheTTL); err != nil {
		log.Printf("[GameManager] Не удалось закешировать PIN %s: %v", pin, err)
	}
	return quiz, nil
}

// quizForTeacher загружает викторину и проверяет, что userID - ее создатель
func (m *Manager) quizForTeacher(quizID uint, userID uint) (*entity.Quiz, error) {
	quiz, err := m.deps.QuizRepo.GetByID(quizID)
	if err != nil {
		return nil, err
	}
	if !quiz.IsOwnedBy(userID) {
		return nil, apperrors.ErrForbidden
	}
	return quiz, nil
}

// avgQuestionTimeMs возвращает среднее время вопросов викторины в мс.
// Значение не меняется после старта игры, поэтому мемоизируется в
// рантайм-состоянии и дублируется в кеш.
func (m *Manager) avgQuestionTimeMs(ctx context.Context, quizID uint) (float64, error) {
	state := m.states.GetOrCreate(quizID)
	if avg := state.AvgQuestionTimeMs(); avg > 0 {
		return avg, nil
	}

	cacheKey := fmt.Sprintf("quiz:%d:avg_time_ms", quizID)
	var cached float64
	if err := m.deps.CacheRepo.GetJSON(cacheKey, &cached); err == nil && cached > 0 {
		state.SetAvgQuestionTimeMs(cached)
		return cached, nil
	}

	questions, err := m.deps.QuestionRepo.GetByQuizID(quizID)
	if err != nil {
		return 0, err
	}
	avg := AverageQuestionTimeMs(questions)
	state.SetAvgQuestionTimeMs(avg)
	if err := m.deps.CacheRepo.SetJSON(cacheKey, avg, m.config.CacheTTL); err != nil {
		log.Printf("[GameManager] Не удалось закешировать среднее время викторины #%d: %v", quizID, err)
	}
	return avg, nil
}

// broadcast отправляет событие в комнату; ошибка отправки логируется,
// но не прерывает вызвавшую операцию
func (m *Manager) broadcast(pin string, eventType string, data interface{}) {
	if m.deps.Broadcaster == nil {
		return
	}
	if err := m.deps.Broadcaster.BroadcastToRoom(pin, eventType, data); err != nil {
		log.Printf("[GameManager] Ошибка отправки события %s в комнату %s: %v", eventType, pin, err)
	}
}
