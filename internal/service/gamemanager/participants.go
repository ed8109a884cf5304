package gamemanager

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/yourusername/tugofwar-api/internal/domain/entity"
	apperrors "github.com/yourusername/tugofwar-api/internal/pkg/errors"
)

// QuizStateSnapshot - снимок состояния игры, отправляемый подключению
// сразу после входа в комнату
type QuizStateSnapshot struct {
	GameID               uint   `json:"gameId"`
	PIN                  string `json:"pin"`
	Status               string `json:"status"`
	CurrentQuestionIndex *int   `json:"currentQuestionIndex,omitempty"`
	ParticipantsCount    int    `json:"participantsCount"`
}

// JoinQuiz регистрирует участника в викторине.
// Имя уникально в пределах викторины: дубликат дает ErrConflict.
// Присоединяться можно к созданной или уже идущей игре, но не к завершенной.
func (m *Manager) JoinQuiz(ctx context.Context, pin string, name string, team int) (*entity.Participant, error) {
	quiz, err := m.QuizByPIN(ctx, pin)
	if err != nil {
		return nil, err
	}
	if quiz.IsFinished() {
		return nil, fmt.Errorf("%w: викторина уже завершена", apperrors.ErrInvalidState)
	}
	if !entity.IsValidTeam(team) {
		return nil, fmt.Errorf("%w: недопустимая команда %d", apperrors.ErrValidation, team)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: имя участника не может быть пустым", apperrors.ErrValidation)
	}

	participant := &entity.Participant{
		QuizID: quiz.ID,
		Name:   name,
		Team:   team,
	}
	if err := m.deps.ParticipantRepo.Create(participant); err != nil {
		return nil, err
	}

	setKey := fmt.Sprintf("quiz:%d:participants", quiz.ID)
	if err := m.deps.CacheRepo.SAdd(setKey, strconv.FormatUint(uint64(participant.ID), 10)); err != nil {
		log.Printf("[GameManager] Не удалось добавить участника #%d в кеш викторины #%d: %v", participant.ID, quiz.ID, err)
	}

	log.Printf("[GameManager] Участник %q (#%d) вошел в викторину #%d, команда %d", name, participant.ID, quiz.ID, team)
	m.broadcast(pin, EventParticipantJoined, participant)

	if participants, err := m.deps.ParticipantRepo.GetByQuizID(quiz.ID); err == nil {
		m.broadcast(pin, EventParticipantsUpdate, participants)
	}

	return participant, nil
}

// ParticipantInQuiz возвращает участника, проверяя его принадлежность
// викторине: чужой participantID дает ErrNotFound
func (m *Manager) ParticipantInQuiz(ctx context.Context, quizID uint, participantID uint) (*entity.Participant, error) {
	participant, err := m.deps.ParticipantRepo.GetByID(participantID)
	if err != nil {
		return nil, err
	}
	if participant.QuizID != quizID {
		return nil, fmt.Errorf("%w: участник не состоит в этой викторине", apperrors.ErrNotFound)
	}
	return participant, nil
}

// GetParticipants возвращает участников викторины по PIN комнаты
func (m *Manager) GetParticipants(ctx context.Context, pin string) ([]entity.Participant, error) {
	quiz, err := m.QuizByPIN(ctx, pin)
	if err != nil {
		return nil, err
	}
	return m.deps.ParticipantRepo.GetByQuizID(quiz.ID)
}

// StateSnapshot собирает снимок состояния игры для события quiz-state
func (m *Manager) StateSnapshot(ctx context.Context, pin string) (*QuizStateSnapshot, error) {
	quiz, err := m.QuizByPIN(ctx, pin)
	if err != nil {
		return nil, err
	}
	count, err := m.deps.ParticipantRepo.CountByQuizID(quiz.ID)
	if err != nil {
		return nil, err
	}

	snapshot := &QuizStateSnapshot{
		GameID:            quiz.ID,
		PIN:               quiz.PIN,
		Status:            quiz.Status,
		ParticipantsCount: int(count),
	}
	if state, ok := m.states.Get(quiz.ID); ok {
		if index := state.ActiveTimerIndex(); index >= 0 {
			snapshot.CurrentQuestionIndex = &index
		}
	}
	return snapshot, nil
}
