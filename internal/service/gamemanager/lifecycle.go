package gamemanager

import (
	"context"
	"fmt"
	"log"

	"github.com/yourusername/tugofwar-api/internal/domain/entity"
	apperrors "github.com/yourusername/tugofwar-api/internal/pkg/errors"
)

// StartQuiz переводит викторину из created в started.
// Переход выполняется условным обновлением статуса: из двух гонящихся
// вызовов выигрывает ровно один, второй получает ErrInvalidState.
func (m *Manager) StartQuiz(ctx context.Context, quizID uint, userID uint) (*entity.Quiz, error) {
	quiz, err := m.deps.QuizRepo.GetWithQuestions(quizID)
	if err != nil {
		return nil, err
	}
	if !quiz.IsOwnedBy(userID) {
		return nil, apperrors.ErrForbidden
	}
	if len(quiz.Questions) == 0 {
		return nil, fmt.Errorf("%w: в викторине нет вопросов", apperrors.ErrValidation)
	}

	ok, err := m.deps.QuizRepo.TransitionStatus(quizID, []string{entity.QuizStatusCreated}, entity.QuizStatusStarted)
	if err != nil {
		return nil, fmt.Errorf("не удалось запустить викторину: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: викторина уже запущена или завершена", apperrors.ErrInvalidState)
	}

	quiz.Status = entity.QuizStatusStarted
	m.states.GetOrCreate(quizID)

	log.Printf("[Lifecycle] Викторина #%d (PIN %s) запущена пользователем #%d", quizID, quiz.PIN, userID)
	m.broadcast(quiz.PIN, EventGameUpdate, GameUpdateEvent{
		GameID: quiz.ID,
		PIN:    quiz.PIN,
		Status: quiz.Status,
	})
	return quiz, nil
}

// FinishQuiz переводит викторину в finished. Идемпотентен: повторный вызов
// для уже завершенной игры возвращает успех без побочных эффектов, чтобы
// дублирующиеся вызовы учителя и таймера спокойно гонялись друг с другом.
// Перед сменой статуса отменяется активный таймер.
func (m *Manager) FinishQuiz(ctx context.Context, quizID uint, userID uint) error {
	quiz, err := m.quizForTeacher(quizID, userID)
	if err != nil {
		return err
	}

	if state, ok := m.states.Get(quizID); ok {
		state.CancelTimer()
	}

	finished, err := m.deps.QuizRepo.TransitionStatus(quizID,
		[]string{entity.QuizStatusCreated, entity.QuizStatusStarted}, entity.QuizStatusFinished)
	if err != nil {
		return fmt.Errorf("не удалось завершить викторину: %w", err)
	}
	if !finished {
		// уже завершена другим путем
		return nil
	}

	log.Printf("[Lifecycle] Викторина #%d (PIN %s) завершена пользователем #%d", quizID, quiz.PIN, userID)
	m.finishBroadcast(ctx, quiz)
	return nil
}

// finishBroadcast отправляет события завершения игры и ее итоги,
// затем удаляет рантайм-состояние. Вызывается ровно один раз тем путем,
// который выиграл условный переход в finished.
func (m *Manager) finishBroadcast(ctx context.Context, quiz *entity.Quiz) {
	m.broadcast(quiz.PIN, EventGameUpdate, GameUpdateEvent{
		GameID: quiz.ID,
		PIN:    quiz.PIN,
		Status: entity.QuizStatusFinished,
	})

	results, err := m.BuildResults(ctx, quiz.ID)
	if err != nil {
		log.Printf("[Lifecycle] Не удалось собрать итоги викторины #%d: %v", quiz.ID, err)
	} else {
		m.broadcast(quiz.PIN, EventQuizResults, results)
	}

	m.states.Drop(quiz.ID)
	if err := m.deps.CacheRepo.Delete(fmt.Sprintf("quiz:%d:avg_time_ms", quiz.ID)); err != nil {
		log.Printf("[Lifecycle] Не удалось удалить кеш среднего времени викторины #%d: %v", quiz.ID, err)
	}
}
