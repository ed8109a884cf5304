package gamemanager

import (
	"context"
	"sync"
)

// roundTimer описывает единственный активный таймер викторины.
// Поле generation - токен владения: сработавший таймер действует, только
// если его токен все еще текущий. Перевзведение или отмена увеличивают
// счетчик поколений, поэтому "таймер вот-вот сработает" и "таймер отменяют"
// не могут выполнить переход одновременно.
type roundTimer struct {
	index      int
	startedAt  int64 // unix ms
	durationMs int64
	generation uint64
	cancel     context.CancelFunc
}

// SessionState хранит рантайм-состояние одной активной викторины:
// времена старта вопросов, активный таймер и мемоизированное
// среднее время вопросов для расчета позиции каната.
type SessionState struct {
	quizID uint

	mu             sync.Mutex
	questionStarts map[int]int64 // индекс вопроса -> unix ms старта
	finishedEarly  map[int]bool  // раунды, завершенные учителем вручную
	timer          *roundTimer
	generation     uint64
	avgTimeMs      float64 // 0 - еще не вычислено
}

func newSessionState(quizID uint) *SessionState {
	return &SessionState{
		quizID:         quizID,
		questionStarts: make(map[int]int64),
		finishedEarly:  make(map[int]bool),
	}
}

// RecordQuestionStart запоминает время старта вопроса
func (s *SessionState) RecordQuestionStart(index int, startMs int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questionStarts[index] = startMs
}

// QuestionStart возвращает время старта вопроса, если он запускался
func (s *SessionState) QuestionStart(index int) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	startMs, ok := s.questionStarts[index]
	return startMs, ok
}

// MarkFinishedEarly помечает раунд завершенным вручную: проверка
// "слишком рано" для следующего вопроса после этого пропускается.
func (s *SessionState) MarkFinishedEarly(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finishedEarly[index] = true
}

// IsFinishedEarly проверяет, был ли раунд завершен вручную
func (s *SessionState) IsFinishedEarly(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finishedEarly[index]
}

// ArmTimer регистрирует новый таймер, неявно аннулируя предыдущий
// (его контекст отменяется, токен устаревает). Возвращает токен нового
// таймера и контекст, по которому горутина таймера узнает об отмене.
func (s *SessionState) ArmTimer(parent context.Context, index int, startMs, durationMs int64) (uint64, context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil && s.timer.cancel != nil {
		s.timer.cancel()
	}

	timerCtx, cancel := context.WithCancel(parent)
	s.generation++
	s.timer = &roundTimer{
		index:      index,
		startedAt:  startMs,
		durationMs: durationMs,
		generation: s.generation,
		cancel:     cancel,
	}
	return s.generation, timerCtx
}

// CancelTimer отменяет активный таймер, если он есть
func (s *SessionState) CancelTimer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil && s.timer.cancel != nil {
		s.timer.cancel()
		s.timer = nil
	}
}

// ClaimTimer атомарно проверяет, что сработавший таймер все еще текущий
// (по токену, а не по самому факту существования), и снимает его.
// false означает, что таймер был перевзведен или отменен - срабатывание устарело.
func (s *SessionState) ClaimTimer(generation uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer == nil || s.timer.generation != generation {
		return false
	}
	s.timer = nil
	return true
}

// ActiveTimerIndex возвращает индекс вопроса активного таймера (-1, если таймера нет)
func (s *SessionState) ActiveTimerIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer == nil {
		return -1
	}
	return s.timer.index
}

// AvgQuestionTimeMs возвращает мемоизированное среднее время вопроса (0 - не вычислено)
func (s *SessionState) AvgQuestionTimeMs() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.avgTimeMs
}

// SetAvgQuestionTimeMs сохраняет вычисленное среднее время вопроса
func (s *SessionState) SetAvgQuestionTimeMs(avgMs float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.avgTimeMs = avgMs
}

// StateRegistry хранит рантайм-состояния активных викторин.
// Единственный владелец состояний в процессе: доступ только через
// методы с блокировкой, никаких глобальных карт.
type StateRegistry struct {
	mu     sync.RWMutex
	states map[uint]*SessionState
}

// NewStateRegistry создает новый реестр состояний
func NewStateRegistry() *StateRegistry {
	return &StateRegistry{
		states: make(map[uint]*SessionState),
	}
}

// GetOrCreate возвращает состояние викторины, при необходимости создавая его
func (r *StateRegistry) GetOrCreate(quizID uint) *SessionState {
	r.mu.Lock()
	defer r.mu.Unlock()
	if state, ok := r.states[quizID]; ok {
		return state
	}
	state := newSessionState(quizID)
	r.states[quizID] = state
	return state
}

// Get возвращает состояние викторины, если оно есть
func (r *StateRegistry) Get(quizID uint) (*SessionState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	state, ok := r.states[quizID]
	return state, ok
}

// Drop отменяет таймер викторины и удаляет ее состояние вместе с
// мемоизированными значениями. Вызывается при завершении и удалении игры.
func (r *StateRegistry) Drop(quizID uint) {
	r.mu.Lock()
	state, ok := r.states[quizID]
	delete(r.states, quizID)
	r.mu.Unlock()

	if ok {
		state.CancelTimer()
	}
}
