package gamemanager

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/yourusername/tugofwar-api/internal/domain/entity"
	apperrors "github.com/yourusername/tugofwar-api/internal/pkg/errors"
)

func questionWithOptions() *entity.Question {
	return &entity.Question{
		ID:              101,
		QuizID:          1,
		Text:            "Вопрос",
		TimeLimitSec:    30,
		Position:        0,
		CorrectOptionID: 1001,
		Options: []entity.AnswerOption{
			{ID: 1001, QuestionID: 101, Position: 0},
			{ID: 1002, QuestionID: 101, Position: 1},
			{ID: 1003, QuestionID: 101, Position: 2},
			{ID: 1004, QuestionID: 101, Position: 3},
		},
	}
}

func TestSubmitAnswer_Correct(t *testing.T) {
	// Arrange
	mockQuizRepo := new(MockQuizRepo)
	mockQuizRepo.On("GetByPIN", "123456").Return(startedQuiz(), nil)

	mockParticipantRepo := new(MockParticipantRepo)
	mockParticipantRepo.On("GetByID", uint(42)).Return(&entity.Participant{ID: 42, QuizID: 1, Team: entity.Team1}, nil)
	mockParticipantRepo.On("GetByQuizID", uint(1)).Return([]entity.Participant{{ID: 42, Team: entity.Team1}}, nil)

	mockQuestionRepo := new(MockQuestionRepo)
	mockQuestionRepo.On("GetByID", uint(101)).Return(questionWithOptions(), nil)
	mockQuestionRepo.On("GetByQuizID", uint(1)).Return(threeQuestions(), nil)

	mockAnswerRepo := new(MockAnswerRepo)
	mockAnswerRepo.On("Save", mock.AnythingOfType("*entity.Answer")).Return(nil)
	mockAnswerRepo.On("GetByQuizID", uint(1)).Return([]entity.Answer{
		{ParticipantID: 42, QuestionID: 101, IsCorrect: true, ResponseTimeMs: 5000},
	}, nil)

	broadcaster := &RecordingBroadcaster{}
	manager := newTestManager(mockQuizRepo, mockQuestionRepo, mockParticipantRepo, mockAnswerRepo, broadcaster)
	defer manager.Shutdown()

	// Act
	result, err := manager.SubmitAnswer(context.Background(), "123456", 101, 42, 1001, 5000)

	// Assert
	assert.NoError(t, err)
	assert.True(t, result.Answer.IsCorrect)
	assert.False(t, result.QuizFinished, "Первый ответ дает позицию 75, игра продолжается")
	assert.Equal(t, 75.0, result.Tug.Position)

	// Порядок событий: подтверждение ответа, затем позиция каната
	types := broadcaster.EventTypes()
	assert.Equal(t, []string{EventAnswerConfirmed, EventTugPositionUpdate}, types)
	mockAnswerRepo.AssertExpectations(t)
}

func TestSubmitAnswer_Duplicate(t *testing.T) {
	// Arrange: уникальный индекс отклонил вторую запись
	mockQuizRepo := new(MockQuizRepo)
	mockQuizRepo.On("GetByPIN", "123456").Return(startedQuiz(), nil)

	mockParticipantRepo := new(MockParticipantRepo)
	mockParticipantRepo.On("GetByID", uint(42)).Return(&entity.Participant{ID: 42, QuizID: 1, Team: entity.Team1}, nil)

	mockQuestionRepo := new(MockQuestionRepo)
	mockQuestionRepo.On("GetByID", uint(101)).Return(questionWithOptions(), nil)

	mockAnswerRepo := new(MockAnswerRepo)
	mockAnswerRepo.On("Save", mock.AnythingOfType("*entity.Answer")).Return(apperrors.ErrConflict)

	broadcaster := &RecordingBroadcaster{}
	manager := newTestManager(mockQuizRepo, mockQuestionRepo, mockParticipantRepo, mockAnswerRepo, broadcaster)
	defer manager.Shutdown()

	// Act
	result, err := manager.SubmitAnswer(context.Background(), "123456", 101, 42, 1001, 5000)

	// Assert: ошибка конфликта, никаких событий и пересчетов
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Nil(t, result)
	assert.Empty(t, broadcaster.Events())
	mockAnswerRepo.AssertNotCalled(t, "GetByQuizID")
}

func TestSubmitAnswer_QuizNotStarted(t *testing.T) {
	// Arrange
	quiz := startedQuiz()
	quiz.Status = entity.QuizStatusCreated
	mockQuizRepo := new(MockQuizRepo)
	mockQuizRepo.On("GetByPIN", "123456").Return(quiz, nil)

	mockParticipantRepo := new(MockParticipantRepo)
	mockParticipantRepo.On("GetByID", uint(42)).Return(&entity.Participant{ID: 42, QuizID: 1}, nil)

	manager := newTestManager(mockQuizRepo, new(MockQuestionRepo), mockParticipantRepo, new(MockAnswerRepo), &RecordingBroadcaster{})
	defer manager.Shutdown()

	// Act / Assert
	_, err := manager.SubmitAnswer(context.Background(), "123456", 101, 42, 1001, 5000)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestSubmitAnswer_ParticipantFromAnotherQuiz(t *testing.T) {
	// Arrange
	mockQuizRepo := new(MockQuizRepo)
	mockQuizRepo.On("GetByPIN", "123456").Return(startedQuiz(), nil)

	mockParticipantRepo := new(MockParticipantRepo)
	mockParticipantRepo.On("GetByID", uint(42)).Return(&entity.Participant{ID: 42, QuizID: 7}, nil)

	manager := newTestManager(mockQuizRepo, new(MockQuestionRepo), mockParticipantRepo, new(MockAnswerRepo), &RecordingBroadcaster{})
	defer manager.Shutdown()

	// Act / Assert
	_, err := manager.SubmitAnswer(context.Background(), "123456", 101, 42, 1001, 5000)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestSubmitAnswer_OptionNotInQuestion(t *testing.T) {
	// Arrange
	mockQuizRepo := new(MockQuizRepo)
	mockQuizRepo.On("GetByPIN", "123456").Return(startedQuiz(), nil)

	mockParticipantRepo := new(MockParticipantRepo)
	mockParticipantRepo.On("GetByID", uint(42)).Return(&entity.Participant{ID: 42, QuizID: 1}, nil)

	mockQuestionRepo := new(MockQuestionRepo)
	mockQuestionRepo.On("GetByID", uint(101)).Return(questionWithOptions(), nil)

	mockAnswerRepo := new(MockAnswerRepo)

	manager := newTestManager(mockQuizRepo, mockQuestionRepo, mockParticipantRepo, mockAnswerRepo, &RecordingBroadcaster{})
	defer manager.Shutdown()

	// Act: вариант 9999 не принадлежит вопросу
	_, err := manager.SubmitAnswer(context.Background(), "123456", 101, 42, 9999, 5000)

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	mockAnswerRepo.AssertNotCalled(t, "Save")
}

func TestSubmitAnswer_NoCorrectOptionConfigured(t *testing.T) {
	// Arrange: у вопроса правильный вариант не размечен
	question := questionWithOptions()
	question.CorrectOptionID = 0

	mockQuizRepo := new(MockQuizRepo)
	mockQuizRepo.On("GetByPIN", "123456").Return(startedQuiz(), nil)
	mockParticipantRepo := new(MockParticipantRepo)
	mockParticipantRepo.On("GetByID", uint(42)).Return(&entity.Participant{ID: 42, QuizID: 1}, nil)
	mockQuestionRepo := new(MockQuestionRepo)
	mockQuestionRepo.On("GetByID", uint(101)).Return(question, nil)

	manager := newTestManager(mockQuizRepo, mockQuestionRepo, mockParticipantRepo, new(MockAnswerRepo), &RecordingBroadcaster{})
	defer manager.Shutdown()

	// Act / Assert
	_, err := manager.SubmitAnswer(context.Background(), "123456", 101, 42, 1001, 5000)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestSubmitAnswer_DominationFinishesQuizOnce(t *testing.T) {
	// Arrange: обе команды уже с очками, перевес 3:1 дает позицию 100
	quiz := startedQuiz()
	mockQuizRepo := new(MockQuizRepo)
	mockQuizRepo.On("GetByPIN", "123456").Return(quiz, nil)
	mockQuizRepo.On("GetByID", uint(1)).Return(quiz, nil)
	mockQuizRepo.On("TransitionStatus", uint(1),
		[]string{entity.QuizStatusCreated, entity.QuizStatusStarted}, entity.QuizStatusFinished).
		Return(true, nil).Once()

	mockParticipantRepo := new(MockParticipantRepo)
	mockParticipantRepo.On("GetByID", uint(42)).Return(&entity.Participant{ID: 42, QuizID: 1, Team: entity.Team1}, nil)
	participants := []entity.Participant{
		{ID: 42, Team: entity.Team1},
		{ID: 43, Team: entity.Team1},
		{ID: 44, Team: entity.Team2},
	}
	mockParticipantRepo.On("GetByQuizID", uint(1)).Return(participants, nil)

	mockQuestionRepo := new(MockQuestionRepo)
	mockQuestionRepo.On("GetByID", uint(101)).Return(questionWithOptions(), nil)
	mockQuestionRepo.On("GetByQuizID", uint(1)).Return(threeQuestions(), nil)

	// Счет после сохранения: команда 1 - три быстрых правильных ответа
	// (около 377 очков), команда 2 - один неправильный с небольшим запасом
	// скорости (около 107). Перевес больше 3:1, ratio за краем окна.
	mockAnswerRepo := new(MockAnswerRepo)
	mockAnswerRepo.On("Save", mock.AnythingOfType("*entity.Answer")).Return(nil)
	mockAnswerRepo.On("GetByQuizID", uint(1)).Return([]entity.Answer{
		{ParticipantID: 42, QuestionID: 101, IsCorrect: true, ResponseTimeMs: 3000},
		{ParticipantID: 43, QuestionID: 101, IsCorrect: true, ResponseTimeMs: 4000},
		{ParticipantID: 42, QuestionID: 102, IsCorrect: true, ResponseTimeMs: 5000},
		{ParticipantID: 44, QuestionID: 101, IsCorrect: false, ResponseTimeMs: 16000},
	}, nil)

	broadcaster := &RecordingBroadcaster{}
	manager := newTestManager(mockQuizRepo, mockQuestionRepo, mockParticipantRepo, mockAnswerRepo, broadcaster)
	defer manager.Shutdown()

	// Act
	result, err := manager.SubmitAnswer(context.Background(), "123456", 101, 42, 1001, 3000)

	// Assert
	assert.NoError(t, err)
	assert.True(t, result.QuizFinished, "Игра должна завершиться доминированием")
	assert.Equal(t, 100.0, result.Tug.Position)

	// Причинный порядок: ответ, позиция, завершение игры, итоги
	types := broadcaster.EventTypes()
	assert.Equal(t, []string{EventAnswerConfirmed, EventTugPositionUpdate, EventGameUpdate, EventQuizResults}, types)
	mockQuizRepo.AssertExpectations(t)
}

func TestSubmitAnswer_DominationRaceLoserDoesNotRebroadcast(t *testing.T) {
	// Arrange: условный переход уже выполнен конкурирующим ответом
	quiz := startedQuiz()
	mockQuizRepo := new(MockQuizRepo)
	mockQuizRepo.On("GetByPIN", "123456").Return(quiz, nil)
	mockQuizRepo.On("TransitionStatus", uint(1),
		[]string{entity.QuizStatusCreated, entity.QuizStatusStarted}, entity.QuizStatusFinished).
		Return(false, nil).Once()

	mockParticipantRepo := new(MockParticipantRepo)
	mockParticipantRepo.On("GetByID", uint(42)).Return(&entity.Participant{ID: 42, QuizID: 1, Team: entity.Team1}, nil)
	mockParticipantRepo.On("GetByQuizID", uint(1)).Return([]entity.Participant{
		{ID: 42, Team: entity.Team1},
		{ID: 44, Team: entity.Team2},
	}, nil)

	mockQuestionRepo := new(MockQuestionRepo)
	mockQuestionRepo.On("GetByID", uint(101)).Return(questionWithOptions(), nil)
	mockQuestionRepo.On("GetByQuizID", uint(1)).Return(threeQuestions(), nil)

	mockAnswerRepo := new(MockAnswerRepo)
	mockAnswerRepo.On("Save", mock.AnythingOfType("*entity.Answer")).Return(nil)
	mockAnswerRepo.On("GetByQuizID", uint(1)).Return([]entity.Answer{
		{ParticipantID: 42, QuestionID: 101, IsCorrect: true, ResponseTimeMs: 3000},
		{ParticipantID: 42, QuestionID: 102, IsCorrect: true, ResponseTimeMs: 3000},
		{ParticipantID: 42, QuestionID: 103, IsCorrect: true, ResponseTimeMs: 3000},
		{ParticipantID: 44, QuestionID: 101, IsCorrect: false, ResponseTimeMs: 16000},
	}, nil)

	broadcaster := &RecordingBroadcaster{}
	manager := newTestManager(mockQuizRepo, mockQuestionRepo, mockParticipantRepo, mockAnswerRepo, broadcaster)
	defer manager.Shutdown()

	// Act
	result, err := manager.SubmitAnswer(context.Background(), "123456", 101, 42, 1001, 3000)

	// Assert: ответ принят, но завершение не дублируется
	assert.NoError(t, err)
	assert.False(t, result.QuizFinished)
	types := broadcaster.EventTypes()
	assert.Equal(t, []string{EventAnswerConfirmed, EventTugPositionUpdate}, types,
		"Проигравший гонку завершения не рассылает события финала")
}

func TestGetTugPosition_NoAnswers(t *testing.T) {
	// Arrange
	mockQuizRepo := new(MockQuizRepo)
	mockQuizRepo.On("GetByPIN", "123456").Return(startedQuiz(), nil)
	mockAnswerRepo := new(MockAnswerRepo)
	mockAnswerRepo.On("GetByQuizID", uint(1)).Return([]entity.Answer{}, nil)
	mockParticipantRepo := new(MockParticipantRepo)
	mockParticipantRepo.On("GetByQuizID", uint(1)).Return([]entity.Participant{}, nil)
	mockQuestionRepo := new(MockQuestionRepo)
	mockQuestionRepo.On("GetByQuizID", uint(1)).Return(threeQuestions(), nil)

	manager := newTestManager(mockQuizRepo, mockQuestionRepo, mockParticipantRepo, mockAnswerRepo, &RecordingBroadcaster{})
	defer manager.Shutdown()

	// Act
	status, err := manager.GetTugPosition(context.Background(), "123456")

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, 0.0, status.Position)
	assert.False(t, status.HasAnswers)
}
