package gamemanager

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/yourusername/tugofwar-api/internal/domain/entity"
	apperrors "github.com/yourusername/tugofwar-api/internal/pkg/errors"
)

func TestStartQuiz_Success(t *testing.T) {
	// Arrange
	quiz := &entity.Quiz{
		ID:        1,
		Title:     "Тестовая викторина",
		PIN:       "123456",
		Status:    entity.QuizStatusCreated,
		CreatorID: 10,
		Questions: threeQuestions(),
	}
	mockQuizRepo := new(MockQuizRepo)
	mockQuizRepo.On("GetWithQuestions", uint(1)).Return(quiz, nil)
	mockQuizRepo.On("TransitionStatus", uint(1),
		[]string{entity.QuizStatusCreated}, entity.QuizStatusStarted).
		Return(true, nil)

	broadcaster := &RecordingBroadcaster{}
	manager := newTestManager(mockQuizRepo, new(MockQuestionRepo), new(MockParticipantRepo), new(MockAnswerRepo), broadcaster)
	defer manager.Shutdown()

	// Act
	started, err := manager.StartQuiz(context.Background(), 1, 10)

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, entity.QuizStatusStarted, started.Status)
	events := broadcaster.Events()
	if assert.Len(t, events, 1) {
		assert.Equal(t, EventGameUpdate, events[0].EventType)
		payload := events[0].Data.(GameUpdateEvent)
		assert.Equal(t, entity.QuizStatusStarted, payload.Status)
		assert.Equal(t, "123456", payload.PIN)
	}
	mockQuizRepo.AssertExpectations(t)
}

func TestStartQuiz_Forbidden(t *testing.T) {
	// Arrange
	quiz := &entity.Quiz{ID: 1, Status: entity.QuizStatusCreated, CreatorID: 10, Questions: threeQuestions()}
	mockQuizRepo := new(MockQuizRepo)
	mockQuizRepo.On("GetWithQuestions", uint(1)).Return(quiz, nil)

	manager := newTestManager(mockQuizRepo, new(MockQuestionRepo), new(MockParticipantRepo), new(MockAnswerRepo), &RecordingBroadcaster{})
	defer manager.Shutdown()

	// Act / Assert
	_, err := manager.StartQuiz(context.Background(), 1, 99)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	mockQuizRepo.AssertNotCalled(t, "TransitionStatus")
}

func TestStartQuiz_AlreadyStarted(t *testing.T) {
	// Arrange: условный переход проиграл гонку или статус уже не created
	quiz := &entity.Quiz{ID: 1, Status: entity.QuizStatusStarted, CreatorID: 10, Questions: threeQuestions()}
	mockQuizRepo := new(MockQuizRepo)
	mockQuizRepo.On("GetWithQuestions", uint(1)).Return(quiz, nil)
	mockQuizRepo.On("TransitionStatus", uint(1),
		[]string{entity.QuizStatusCreated}, entity.QuizStatusStarted).
		Return(false, nil)

	manager := newTestManager(mockQuizRepo, new(MockQuestionRepo), new(MockParticipantRepo), new(MockAnswerRepo), &RecordingBroadcaster{})
	defer manager.Shutdown()

	// Act / Assert
	_, err := manager.StartQuiz(context.Background(), 1, 10)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestStartQuiz_NoQuestions(t *testing.T) {
	// Arrange
	quiz := &entity.Quiz{ID: 1, Status: entity.QuizStatusCreated, CreatorID: 10}
	mockQuizRepo := new(MockQuizRepo)
	mockQuizRepo.On("GetWithQuestions", uint(1)).Return(quiz, nil)

	manager := newTestManager(mockQuizRepo, new(MockQuestionRepo), new(MockParticipantRepo), new(MockAnswerRepo), &RecordingBroadcaster{})
	defer manager.Shutdown()

	// Act / Assert
	_, err := manager.StartQuiz(context.Background(), 1, 10)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestFinishQuiz_Success(t *testing.T) {
	// Arrange
	quiz := startedQuiz()
	mockQuizRepo := new(MockQuizRepo)
	mockQuizRepo.On("GetByID", uint(1)).Return(quiz, nil)
	mockQuizRepo.On("TransitionStatus", uint(1),
		[]string{entity.QuizStatusCreated, entity.QuizStatusStarted}, entity.QuizStatusFinished).
		Return(true, nil)

	mockQuestionRepo := new(MockQuestionRepo)
	mockQuestionRepo.On("GetByQuizID", uint(1)).Return(threeQuestions(), nil)
	mockParticipantRepo := new(MockParticipantRepo)
	mockParticipantRepo.On("GetByQuizID", uint(1)).Return([]entity.Participant{}, nil)
	mockAnswerRepo := new(MockAnswerRepo)
	mockAnswerRepo.On("GetByQuizID", uint(1)).Return([]entity.Answer{}, nil)

	broadcaster := &RecordingBroadcaster{}
	manager := newTestManager(mockQuizRepo, mockQuestionRepo, mockParticipantRepo, mockAnswerRepo, broadcaster)
	defer manager.Shutdown()

	// Активный таймер должен быть отменен при завершении
	state := manager.states.GetOrCreate(1)
	gen, _ := state.ArmTimer(manager.ctx, 0, nowMs(), 33000)

	// Act
	err := manager.FinishQuiz(context.Background(), 1, 10)

	// Assert
	assert.NoError(t, err)
	assert.False(t, state.ClaimTimer(gen), "Таймер должен быть отменен до смены статуса")
	types := broadcaster.EventTypes()
	assert.Equal(t, []string{EventGameUpdate, EventQuizResults}, types)

	// Рантайм-состояние удалено
	_, ok := manager.states.Get(1)
	assert.False(t, ok)
}

func TestFinishQuiz_Idempotent(t *testing.T) {
	// Arrange: игра уже завершена - повторный вызов не ошибка и не рассылка
	quiz := startedQuiz()
	quiz.Status = entity.QuizStatusFinished
	mockQuizRepo := new(MockQuizRepo)
	mockQuizRepo.On("GetByID", uint(1)).Return(quiz, nil)
	mockQuizRepo.On("TransitionStatus", uint(1),
		[]string{entity.QuizStatusCreated, entity.QuizStatusStarted}, entity.QuizStatusFinished).
		Return(false, nil)

	broadcaster := &RecordingBroadcaster{}
	manager := newTestManager(mockQuizRepo, new(MockQuestionRepo), new(MockParticipantRepo), new(MockAnswerRepo), broadcaster)
	defer manager.Shutdown()

	// Act
	err := manager.FinishQuiz(context.Background(), 1, 10)

	// Assert
	assert.NoError(t, err)
	assert.Empty(t, broadcaster.Events())
}

func TestFinishQuiz_Forbidden(t *testing.T) {
	// Arrange
	mockQuizRepo := new(MockQuizRepo)
	mockQuizRepo.On("GetByID", uint(1)).Return(startedQuiz(), nil)

	manager := newTestManager(mockQuizRepo, new(MockQuestionRepo), new(MockParticipantRepo), new(MockAnswerRepo), &RecordingBroadcaster{})
	defer manager.Shutdown()

	// Act / Assert
	err := manager.FinishQuiz(context.Background(), 1, 99)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	mockQuizRepo.AssertNotCalled(t, "TransitionStatus")
}

func TestJoinQuiz_Success(t *testing.T) {
	// Arrange
	mockQuizRepo := new(MockQuizRepo)
	mockQuizRepo.On("GetByPIN", "123456").Return(startedQuiz(), nil)

	mockParticipantRepo := new(MockParticipantRepo)
	mockParticipantRepo.On("Create", mock.AnythingOfType("*entity.Participant")).
		Run(func(args mock.Arguments) {
			args.Get(0).(*entity.Participant).ID = 42
		}).Return(nil)
	mockParticipantRepo.On("GetByQuizID", uint(1)).Return([]entity.Participant{
		{ID: 42, QuizID: 1, Name: "Алиса", Team: entity.Team1},
	}, nil)

	broadcaster := &RecordingBroadcaster{}
	manager := newTestManager(mockQuizRepo, new(MockQuestionRepo), mockParticipantRepo, new(MockAnswerRepo), broadcaster)
	defer manager.Shutdown()

	// Act
	participant, err := manager.JoinQuiz(context.Background(), "123456", "Алиса", entity.Team1)

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, uint(42), participant.ID)
	types := broadcaster.EventTypes()
	assert.Equal(t, []string{EventParticipantJoined, EventParticipantsUpdate}, types)
}

func TestJoinQuiz_DuplicateName(t *testing.T) {
	// Arrange
	mockQuizRepo := new(MockQuizRepo)
	mockQuizRepo.On("GetByPIN", "123456").Return(startedQuiz(), nil)
	mockParticipantRepo := new(MockParticipantRepo)
	mockParticipantRepo.On("Create", mock.AnythingOfType("*entity.Participant")).Return(apperrors.ErrConflict)

	manager := newTestManager(mockQuizRepo, new(MockQuestionRepo), mockParticipantRepo, new(MockAnswerRepo), &RecordingBroadcaster{})
	defer manager.Shutdown()

	// Act / Assert
	_, err := manager.JoinQuiz(context.Background(), "123456", "Алиса", entity.Team1)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestJoinQuiz_FinishedQuiz(t *testing.T) {
	// Arrange
	quiz := startedQuiz()
	quiz.Status = entity.QuizStatusFinished
	mockQuizRepo := new(MockQuizRepo)
	mockQuizRepo.On("GetByPIN", "123456").Return(quiz, nil)

	manager := newTestManager(mockQuizRepo, new(MockQuestionRepo), new(MockParticipantRepo), new(MockAnswerRepo), &RecordingBroadcaster{})
	defer manager.Shutdown()

	// Act / Assert
	_, err := manager.JoinQuiz(context.Background(), "123456", "Алиса", entity.Team1)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestParticipantInQuiz_WrongQuiz(t *testing.T) {
	// Arrange: участник существует, но привязан к другой викторине
	mockParticipantRepo := new(MockParticipantRepo)
	mockParticipantRepo.On("GetByID", uint(42)).Return(&entity.Participant{ID: 42, QuizID: 7}, nil)

	manager := newTestManager(new(MockQuizRepo), new(MockQuestionRepo), mockParticipantRepo, new(MockAnswerRepo), &RecordingBroadcaster{})
	defer manager.Shutdown()

	// Act / Assert: чужой participantID не проходит проверку принадлежности
	_, err := manager.ParticipantInQuiz(context.Background(), 1, 42)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	participant, err := manager.ParticipantInQuiz(context.Background(), 7, 42)
	assert.NoError(t, err)
	assert.Equal(t, uint(42), participant.ID)
}

func TestJoinQuiz_InvalidTeam(t *testing.T) {
	// Arrange
	mockQuizRepo := new(MockQuizRepo)
	mockQuizRepo.On("GetByPIN", "123456").Return(startedQuiz(), nil)

	manager := newTestManager(mockQuizRepo, new(MockQuestionRepo), new(MockParticipantRepo), new(MockAnswerRepo), &RecordingBroadcaster{})
	defer manager.Shutdown()

	// Act / Assert
	_, err := manager.JoinQuiz(context.Background(), "123456", "Алиса", 3)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
