package gamemanager

import (
	"context"
	"fmt"
	"log"

	"github.com/yourusername/tugofwar-api/internal/domain/entity"
	apperrors "github.com/yourusername/tugofwar-api/internal/pkg/errors"
)

// SubmitResult - итог приема ответа
type SubmitResult struct {
	Answer       *entity.Answer
	Tug          TugStatus
	QuizFinished bool // игра завершилась доминированием этим ответом
}

// SubmitAnswer принимает ответ участника.
// Повторный ответ на тот же вопрос отклоняется с ErrConflict: гонку двух
// одновременных отправок разрешает уникальный индекс на
// (participant_id, question_id), выигрывает ровно одна запись.
// Порядок побочных эффектов строгий: сохранение ответа, пересчет позиции,
// условное завершение игры - последующие шаги не выполняются, если
// предыдущий упал.
func (m *Manager) SubmitAnswer(ctx context.Context, pin string, questionID, participantID, selectedOptionID uint, responseTimeMs int64) (*SubmitResult, error) {
	quiz, err := m.QuizByPIN(ctx, pin)
	if err != nil {
		return nil, err
	}

	if _, err := m.ParticipantInQuiz(ctx, quiz.ID, participantID); err != nil {
		return nil, err
	}

	if !quiz.IsStarted() {
		return nil, fmt.Errorf("%w: викторина не запущена", apperrors.ErrInvalidState)
	}

	question, err := m.deps.QuestionRepo.GetByID(questionID)
	if err != nil {
		return nil, err
	}
	if question.QuizID != quiz.ID {
		return nil, fmt.Errorf("%w: вопрос не принадлежит викторине", apperrors.ErrNotFound)
	}

	if !question.HasOption(selectedOptionID) {
		return nil, fmt.Errorf("%w: вариант #%d не принадлежит вопросу #%d", apperrors.ErrValidation, selectedOptionID, questionID)
	}
	if !question.HasCorrectOption() {
		return nil, fmt.Errorf("%w: у вопроса #%d не настроен правильный вариант", apperrors.ErrValidation, questionID)
	}

	answer := &entity.Answer{
		ParticipantID:    participantID,
		QuestionID:       questionID,
		SelectedOptionID: selectedOptionID,
		IsCorrect:        question.IsCorrect(selectedOptionID),
		ResponseTimeMs:   responseTimeMs,
	}
	if err := m.deps.AnswerRepo.Save(answer); err != nil {
		return nil, err
	}

	log.Printf("[AnswerProcessor] Участник #%d ответил на вопрос #%d (правильно=%v, %d мс)",
		participantID, questionID, answer.IsCorrect, responseTimeMs)
	m.broadcast(pin, EventAnswerConfirmed, AnswerConfirmedEvent{
		ParticipantID:  participantID,
		QuestionID:     questionID,
		IsCorrect:      answer.IsCorrect,
		ResponseTimeMs: responseTimeMs,
	})

	tug, err := m.computeTug(ctx, quiz.ID)
	if err != nil {
		return nil, fmt.Errorf("не удалось пересчитать позицию каната: %w", err)
	}
	m.broadcast(pin, EventTugPositionUpdate, TugPositionEvent{PIN: pin, TugStatus: tug})

	result := &SubmitResult{Answer: answer, Tug: tug}

	// Победа доминированием: позиция достигла края шкалы.
	// Условный переход гарантирует, что из двух одновременно пришедших
	// "добивающих" ответов завершение и его рассылка случатся один раз.
	if tug.HasAnswers && (tug.Position >= DominationThreshold || tug.Position <= -DominationThreshold) {
		if state, ok := m.states.Get(quiz.ID); ok {
			state.CancelTimer()
		}
		finished, err := m.deps.QuizRepo.TransitionStatus(quiz.ID,
			[]string{entity.QuizStatusCreated, entity.QuizStatusStarted}, entity.QuizStatusFinished)
		if err != nil {
			return nil, fmt.Errorf("не удалось завершить викторину после доминирования: %w", err)
		}
		if finished {
			log.Printf("[AnswerProcessor] Викторина #%d завершена доминированием: позиция %.2f", quiz.ID, tug.Position)
			m.finishBroadcast(ctx, quiz)
			result.QuizFinished = true
		}
	}

	return result, nil
}

// computeTug загружает ответы и участников викторины и считает позицию каната
func (m *Manager) computeTug(ctx context.Context, quizID uint) (TugStatus, error) {
	answers, err := m.deps.AnswerRepo.GetByQuizID(quizID)
	if err != nil {
		return TugStatus{}, err
	}
	participants, err := m.deps.ParticipantRepo.GetByQuizID(quizID)
	if err != nil {
		return TugStatus{}, err
	}
	maxTimeMs, err := m.avgQuestionTimeMs(ctx, quizID)
	if err != nil {
		return TugStatus{}, err
	}
	return ComputeTugFromAnswers(answers, participants, maxTimeMs), nil
}

// GetTugPosition возвращает текущую позицию каната по PIN комнаты
func (m *Manager) GetTugPosition(ctx context.Context, pin string) (TugStatus, error) {
	quiz, err := m.QuizByPIN(ctx, pin)
	if err != nil {
		return TugStatus{}, err
	}
	return m.computeTug(ctx, quiz.ID)
}
