package dto

import (
	"time"

	"github.com/yourusername/tugofwar-api/internal/domain/entity"
	"github.com/yourusername/tugofwar-api/internal/service"
)

// CreateQuizRequest - запрос на создание викторины с вопросами
type CreateQuizRequest struct {
	Title     string                  `json:"title" binding:"required"`
	Questions []CreateQuestionRequest `json:"questions" binding:"required,min=1"`
}

// CreateQuestionRequest - один вопрос в запросе создания
type CreateQuestionRequest struct {
	Text               string   `json:"text" binding:"required"`
	TimeLimitSec       int      `json:"time_limit_sec" binding:"required,gt=0"`
	Options            []string `json:"options" binding:"required,len=4"`
	CorrectOptionIndex int      `json:"correct_option_index" binding:"gte=0,lte=3"`
}

// ToQuestionInputs преобразует запрос в входные данные сервиса
func (r *CreateQuizRequest) ToQuestionInputs() []service.QuestionInput {
	inputs := make([]service.QuestionInput, len(r.Questions))
	for i, q := range r.Questions {
		inputs[i] = service.QuestionInput{
			Text:               q.Text,
			TimeLimitSec:       q.TimeLimitSec,
			Options:            q.Options,
			CorrectOptionIndex: q.CorrectOptionIndex,
		}
	}
	return inputs
}

// JoinQuizRequest - запрос участника на вход в игру
type JoinQuizRequest struct {
	PIN  string `json:"pin" binding:"required,len=6"`
	Name string `json:"name" binding:"required"`
	Team int    `json:"team" binding:"required,oneof=1 2"`
}

// OptionResponse - вариант ответа для клиента
type OptionResponse struct {
	ID       uint   `json:"id"`
	Text     string `json:"text"`
	Position int    `json:"position"`
}

// QuestionResponse - вопрос для клиента; правильный вариант не раскрывается
type QuestionResponse struct {
	ID           uint             `json:"id"`
	QuizID       uint             `json:"quiz_id"`
	Text         string           `json:"text"`
	TimeLimitSec int              `json:"time_limit_sec"`
	Position     int              `json:"position"`
	Options      []OptionResponse `json:"options"`
}

// QuizResponse - викторина для клиента
type QuizResponse struct {
	ID        uint               `json:"id"`
	Title     string             `json:"title"`
	PIN       string             `json:"pin"`
	Status    string             `json:"status"`
	CreatorID uint               `json:"creator_id"`
	Questions []QuestionResponse `json:"questions,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// ParticipantResponse - участник для клиента
type ParticipantResponse struct {
	ID       uint      `json:"id"`
	QuizID   uint      `json:"quiz_id"`
	Name     string    `json:"name"`
	Team     int       `json:"team"`
	JoinedAt time.Time `json:"joined_at"`
}

// NewQuestionResponse создает DTO вопроса
func NewQuestionResponse(q *entity.Question) QuestionResponse {
	options := make([]OptionResponse, len(q.Options))
	for i, opt := range q.Options {
		options[i] = OptionResponse{ID: opt.ID, Text: opt.Text, Position: opt.Position}
	}
	return QuestionResponse{
		ID:           q.ID,
		QuizID:       q.QuizID,
		Text:         q.Text,
		TimeLimitSec: q.TimeLimitSec,
		Position:     q.Position,
		Options:      options,
	}
}

// NewQuizResponse создает DTO викторины
func NewQuizResponse(quiz *entity.Quiz) QuizResponse {
	questions := make([]QuestionResponse, len(quiz.Questions))
	for i := range quiz.Questions {
		questions[i] = NewQuestionResponse(&quiz.Questions[i])
	}
	return QuizResponse{
		ID:        quiz.ID,
		Title:     quiz.Title,
		PIN:       quiz.PIN,
		Status:    quiz.Status,
		CreatorID: quiz.CreatorID,
		Questions: questions,
		CreatedAt: quiz.CreatedAt,
		UpdatedAt: quiz.UpdatedAt,
	}
}

// NewParticipantResponse создает DTO участника
func NewParticipantResponse(p *entity.Participant) ParticipantResponse {
	return ParticipantResponse{
		ID:       p.ID,
		QuizID:   p.QuizID,
		Name:     p.Name,
		Team:     p.Team,
		JoinedAt: p.JoinedAt,
	}
}
