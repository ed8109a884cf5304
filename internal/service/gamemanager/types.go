package gamemanager

import (
	"time"

	"github.com/yourusername/tugofwar-api/internal/domain/repository"
)

// Константы по умолчанию
const (
	// DefaultResultsGraceSeconds - фиксированное окно показа результатов вопроса,
	// добавляемое к лимиту времени перед автопереходом.
	DefaultResultsGraceSeconds = 3

	// DefaultPinAttempts - число попыток сгенерировать уникальный PIN
	DefaultPinAttempts = 5

	// DominationThreshold - модуль позиции, при достижении которого
	// игра завершается досрочно ("перетянули канат")
	DominationThreshold = 100.0
)

// Config содержит настройки компонентов игрового движка
type Config struct {
	// ResultsGraceSeconds - сколько секунд показывать результаты вопроса
	// после истечения его лимита, до автоперехода к следующему
	ResultsGraceSeconds int

	// PinAttempts - число попыток генерации PIN при коллизиях
	PinAttempts int

	// CacheTTL - время жизни кешируемых значений (PIN -> quizID,
	// среднее время вопросов)
	CacheTTL time.Duration
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		ResultsGraceSeconds: DefaultResultsGraceSeconds,
		PinAttempts:         DefaultPinAttempts,
		CacheTTL:            time.Hour,
	}
}

// Broadcaster отправляет события всем подключениям комнаты (ключ комнаты - PIN).
// Реализуется websocket.Manager; в тестах подменяется фейком.
type Broadcaster interface {
	BroadcastToRoom(pin string, eventType string, data interface{}) error
}

// Dependencies содержит зависимости игровых компонентов
type Dependencies struct {
	QuizRepo        repository.QuizRepository
	QuestionRepo    repository.QuestionRepository
	ParticipantRepo repository.ParticipantRepository
	AnswerRepo      repository.AnswerRepository
	CacheRepo       repository.CacheRepository
	Broadcaster     Broadcaster
	Config          *Config
}
