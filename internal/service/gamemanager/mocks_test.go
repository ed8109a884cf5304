package gamemanager

import (
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/yourusername/tugofwar-api/internal/domain/entity"
)

// ============================================================================
// Общие моки репозиториев для тестов игрового движка
// ============================================================================

// MockQuizRepo реализует repository.QuizRepository
type MockQuizRepo struct {
	mock.Mock
}

func (m *MockQuizRepo) Create(quiz *entity.Quiz) error {
	args := m.Called(quiz)
	return args.Error(0)
}

func (m *MockQuizRepo) GetByID(id uint) (*entity.Quiz, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Quiz), args.Error(1)
}

func (m *MockQuizRepo) GetByPIN(pin string) (*entity.Quiz, error) {
	args := m.Called(pin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Quiz), args.Error(1)
}

func (m *MockQuizRepo) GetWithQuestions(id uint) (*entity.Quiz, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Quiz), args.Error(1)
}

func (m *MockQuizRepo) UpdateStatus(quizID uint, status string) error {
	args := m.Called(quizID, status)
	return args.Error(0)
}

func (m *MockQuizRepo) TransitionStatus(quizID uint, from []string, to string) (bool, error) {
	args := m.Called(quizID, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockQuizRepo) ListByCreator(creatorID uint, limit, offset int) ([]entity.Quiz, error) {
	args := m.Called(creatorID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Quiz), args.Error(1)
}

func (m *MockQuizRepo) Delete(id uint) error {
	args := m.Called(id)
	return args.Error(0)
}

// MockQuestionRepo реализует repository.QuestionRepository
type MockQuestionRepo struct {
	mock.Mock
}

func (m *MockQuestionRepo) CreateBatch(questions []entity.Question) error {
	args := m.Called(questions)
	return args.Error(0)
}

func (m *MockQuestionRepo) GetByID(id uint) (*entity.Question, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Question), args.Error(1)
}

func (m *MockQuestionRepo) GetByQuizID(quizID uint) ([]entity.Question, error) {
	args := m.Called(quizID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Question), args.Error(1)
}

func (m *MockQuestionRepo) CountByQuizID(quizID uint) (int64, error) {
	args := m.Called(quizID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockQuestionRepo) SetCorrectOption(questionID, optionID uint) error {
	args := m.Called(questionID, optionID)
	return args.Error(0)
}

// MockParticipantRepo реализует repository.ParticipantRepository
type MockParticipantRepo struct {
	mock.Mock
}

func (m *MockParticipantRepo) Create(participant *entity.Participant) error {
	args := m.Called(participant)
	return args.Error(0)
}

func (m *MockParticipantRepo) GetByID(id uint) (*entity.Participant, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Participant), args.Error(1)
}

func (m *MockParticipantRepo) GetByQuizID(quizID uint) ([]entity.Participant, error) {
	args := m.Called(quizID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Participant), args.Error(1)
}

func (m *MockParticipantRepo) CountByQuizID(quizID uint) (int64, error) {
	args := m.Called(quizID)
	return args.Get(0).(int64), args.Error(1)
}

// MockAnswerRepo реализует repository.AnswerRepository
type MockAnswerRepo struct {
	mock.Mock
}

func (m *MockAnswerRepo) Save(answer *entity.Answer) error {
	args := m.Called(answer)
	return args.Error(0)
}

func (m *MockAnswerRepo) Exists(participantID, questionID uint) (bool, error) {
	args := m.Called(participantID, questionID)
	return args.Bool(0), args.Error(1)
}

func (m *MockAnswerRepo) GetByQuizID(quizID uint) ([]entity.Answer, error) {
	args := m.Called(quizID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Answer), args.Error(1)
}

func (m *MockAnswerRepo) GetByParticipantID(participantID uint) ([]entity.Answer, error) {
	args := m.Called(participantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Answer), args.Error(1)
}

// StubCacheRepo - кеш-заглушка: ничего не хранит, GetJSON всегда промах.
// Моки кеша в этих тестах не нужны, важен только путь мимо кеша.
type StubCacheRepo struct{}

func (s *StubCacheRepo) Delete(key string) error { return nil }
func (s *StubCacheRepo) SetJSON(key string, value interface{}, expiration time.Duration) error {
	return nil
}
func (s *StubCacheRepo) GetJSON(key string, dest interface{}) error    { return errCacheMiss }
func (s *StubCacheRepo) SAdd(key string, members ...interface{}) error { return nil }

var errCacheMiss = &cacheMissError{}

type cacheMissError struct{}

func (e *cacheMissError) Error() string { return "cache miss" }

// RecordingBroadcaster запоминает все отправленные в комнаты события
type RecordingBroadcaster struct {
	mu     sync.Mutex
	events []BroadcastRecord
}

type BroadcastRecord struct {
	PIN       string
	EventType string
	Data      interface{}
}

func (b *RecordingBroadcaster) BroadcastToRoom(pin string, eventType string, data interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, BroadcastRecord{PIN: pin, EventType: eventType, Data: data})
	return nil
}

// Events возвращает копию записанных событий
func (b *RecordingBroadcaster) Events() []BroadcastRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]BroadcastRecord, len(b.events))
	copy(out, b.events)
	return out
}

// EventTypes возвращает типы записанных событий по порядку
func (b *RecordingBroadcaster) EventTypes() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	types := make([]string, 0, len(b.events))
	for _, e := range b.events {
		types = append(types, e.EventType)
	}
	return types
}
