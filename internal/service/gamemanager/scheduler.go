package gamemanager

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/yourusername/tugofwar-api/internal/domain/entity"
	apperrors "github.com/yourusername/tugofwar-api/internal/pkg/errors"
)

// StartQuestion запускает вопрос с индексом index.
// Переход к следующему вопросу раньше, чем истек лимит предыдущего,
// блокируется ошибкой ErrTooEarly - вызывающий может повторить попытку,
// когда остаток времени выйдет. Исключение: предыдущий вопрос был
// завершен учителем вручную через FinishQuestion.
func (m *Manager) StartQuestion(ctx context.Context, quizID uint, index int, userID uint) error {
	quiz, err := m.quizForTeacher(quizID, userID)
	if err != nil {
		return err
	}
	if !quiz.IsStarted() {
		return fmt.Errorf("%w: викторина не запущена", apperrors.ErrInvalidState)
	}

	questions, err := m.deps.QuestionRepo.GetByQuizID(quizID)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(questions) {
		return fmt.Errorf("%w: индекс вопроса %d вне диапазона [0, %d)", apperrors.ErrValidation, index, len(questions))
	}

	state := m.states.GetOrCreate(quizID)
	if index > 0 && !state.IsFinishedEarly(index-1) {
		if startMs, ok := state.QuestionStart(index - 1); ok {
			limitMs := int64(questions[index-1].TimeLimitSec) * 1000
			elapsed := nowMs() - startMs
			if elapsed < limitMs {
				return fmt.Errorf("%w: вопрос %d еще идет, осталось %d мс",
					apperrors.ErrTooEarly, index-1, limitMs-elapsed)
			}
		}
	}

	m.launchQuestion(quiz, questions, index)
	return nil
}

// launchQuestion взводит таймер вопроса и рассылает событие старта.
// Взведение нового таймера неявно отменяет предыдущий: в любой момент
// у викторины не больше одного живого таймера.
func (m *Manager) launchQuestion(quiz *entity.Quiz, questions []entity.Question, index int) {
	question := questions[index]
	startMs := nowMs()
	durationMs := int64(question.TimeLimitSec+m.config.ResultsGraceSeconds) * 1000

	state := m.states.GetOrCreate(quiz.ID)
	generation, timerCtx := state.ArmTimer(m.ctx, index, startMs, durationMs)
	state.RecordQuestionStart(index, startMs)

	go m.runTimer(timerCtx, quiz.ID, quiz.PIN, generation, index, time.Duration(durationMs)*time.Millisecond)

	log.Printf("[Scheduler] Вопрос %d викторины #%d запущен, таймер %d мс (поколение %d)",
		index, quiz.ID, durationMs, generation)
	m.broadcast(quiz.PIN, EventStartQuestion, QuestionStartedEvent{
		PIN:                  quiz.PIN,
		CurrentQuestionIndex: index,
		QuestionID:           question.ID,
		TimeSeconds:          question.TimeLimitSec,
		Timestamp:            startMs,
	})
}

// runTimer ждет истечения времени вопроса и вызывает автопереход.
// Отмена контекста (перевзведение, ручное завершение, остановка движка)
// гасит таймер без побочных эффектов.
func (m *Manager) runTimer(ctx context.Context, quizID uint, pin string, generation uint64, index int, d time.Duration) {
	select {
	case <-time.After(d):
		m.autoAdvance(context.Background(), quizID, pin, generation, index)
	case <-ctx.Done():
		log.Printf("[Scheduler] Таймер вопроса %d викторины #%d отменен (поколение %d)", index, quizID, generation)
	}
}

// autoAdvance - обработчик истечения таймера. Сначала подтверждает право
// действовать: токен поколения должен совпадать с текущим таймером,
// иначе срабатывание устарело (вопрос перевзвели или игру завершили)
// и обработчик молча выходит. Затем перечитывает статус викторины.
func (m *Manager) autoAdvance(ctx context.Context, quizID uint, pin string, generation uint64, index int) {
	state, ok := m.states.Get(quizID)
	if !ok {
		return
	}
	if !state.ClaimTimer(generation) {
		log.Printf("[Scheduler] Устаревшее срабатывание таймера вопроса %d викторины #%d (поколение %d)",
			index, quizID, generation)
		return
	}

	quiz, err := m.deps.QuizRepo.GetWithQuestions(quizID)
	if err != nil {
		log.Printf("[Scheduler] Автопереход: не удалось загрузить викторину #%d: %v", quizID, err)
		return
	}
	if !quiz.IsStarted() {
		// игру уже завершили другим путем
		return
	}

	m.broadcast(pin, EventQuestionFinished, QuestionFinishedEvent{
		QuestionID: quiz.Questions[index].ID,
		Timestamp:  nowMs(),
	})

	next := index + 1
	if next >= len(quiz.Questions) {
		finished, err := m.deps.QuizRepo.TransitionStatus(quizID,
			[]string{entity.QuizStatusCreated, entity.QuizStatusStarted}, entity.QuizStatusFinished)
		if err != nil {
			log.Printf("[Scheduler] Автопереход: не удалось завершить викторину #%d: %v", quizID, err)
			return
		}
		if finished {
			log.Printf("[Scheduler] Викторина #%d завершена: вопросы закончились", quizID)
			m.finishBroadcast(ctx, quiz)
		}
		return
	}

	m.launchQuestion(quiz, quiz.Questions, next)
}

// FinishQuestion досрочно завершает текущий вопрос по команде учителя:
// отменяет таймер, помечает раунд завершенным (проверка "слишком рано"
// для следующего вопроса пропускается) и рассылает событие завершения.
func (m *Manager) FinishQuestion(ctx context.Context, quizID uint, questionID uint) error {
	quiz, err := m.deps.QuizRepo.GetByID(quizID)
	if err != nil {
		return err
	}
	if !quiz.IsStarted() {
		return fmt.Errorf("%w: викторина не запущена", apperrors.ErrInvalidState)
	}

	question, err := m.deps.QuestionRepo.GetByID(questionID)
	if err != nil {
		return err
	}
	if question.QuizID != quizID {
		return fmt.Errorf("%w: вопрос не принадлежит викторине", apperrors.ErrNotFound)
	}

	state := m.states.GetOrCreate(quizID)
	state.CancelTimer()
	state.MarkFinishedEarly(question.Position)

	log.Printf("[Scheduler] Вопрос #%d викторины #%d завершен вручную", questionID, quizID)
	m.broadcast(quiz.PIN, EventQuestionFinished, QuestionFinishedEvent{
		QuestionID: questionID,
		Timestamp:  nowMs(),
	})
	return nil
}
