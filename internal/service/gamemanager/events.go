package gamemanager

import "time"

// Типы событий, отправляемых движком в комнату
const (
	EventQuizState          = "quiz-state"
	EventParticipantJoined  = "participant-joined"
	EventParticipantsUpdate = "participants-update"
	EventGameUpdate         = "game-update"
	EventStartQuestion      = "start-question"
	EventAnswerConfirmed    = "answer-confirmed"
	EventTugPositionUpdate  = "tug-position-update"
	EventQuestionFinished   = "question-finished"
	EventQuizResults        = "quiz-results"
	EventError              = "error"
)

// GameUpdateEvent уведомляет комнату об изменении статуса игры
type GameUpdateEvent struct {
	GameID               uint   `json:"gameId"`
	PIN                  string `json:"pin"`
	Status               string `json:"status"`
	CurrentQuestionIndex *int   `json:"currentQuestionIndex,omitempty"`
}

// QuestionStartedEvent уведомляет комнату о начале вопроса
type QuestionStartedEvent struct {
	PIN                  string `json:"pin"`
	CurrentQuestionIndex int    `json:"currentQuestionIndex"`
	QuestionID           uint   `json:"questionId"`
	TimeSeconds          int    `json:"timeSeconds"`
	Timestamp            int64  `json:"timestamp"`
}

// AnswerConfirmedEvent подтверждает принятый ответ. Событие уходит всей
// комнате; фильтрация "только свой ответ" - ответственность клиента.
type AnswerConfirmedEvent struct {
	ParticipantID  uint  `json:"participantId"`
	QuestionID     uint  `json:"questionId"`
	IsCorrect      bool  `json:"isCorrect"`
	ResponseTimeMs int64 `json:"responseTimeMs"`
}

// TugPositionEvent несет текущую позицию каната и счета команд
type TugPositionEvent struct {
	PIN string `json:"pin"`
	TugStatus
}

// QuestionFinishedEvent уведомляет о завершении вопроса
type QuestionFinishedEvent struct {
	QuestionID uint  `json:"questionId"`
	Timestamp  int64 `json:"timestamp"`
}

// nowMs возвращает текущее время в миллисекундах Unix
func nowMs() int64 {
	return time.Now().UnixMilli()
}
