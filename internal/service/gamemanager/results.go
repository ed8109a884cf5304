package gamemanager

import (
	"context"

	"github.com/yourusername/tugofwar-api/internal/domain/entity"
)

// ParticipantResult - итоговая статистика одного участника
type ParticipantResult struct {
	ParticipantID     uint    `json:"participantId"`
	Name              string  `json:"name"`
	Team              int     `json:"team"`
	CorrectAnswers    int     `json:"correctAnswers"`
	TotalAnswers      int     `json:"totalAnswers"`
	AvgResponseTimeMs float64 `json:"avgResponseTimeMs"`
}

// QuizResults - итоги викторины для события quiz-results и REST-выдачи
type QuizResults struct {
	QuizID       uint                `json:"quizId"`
	Title        string              `json:"title"`
	PIN          string              `json:"pin"`
	Status       string              `json:"status"`
	Tug          TugStatus           `json:"tug"`
	WinningTeam  int                 `json:"winningTeam"` // 0 - ничья
	Participants []ParticipantResult `json:"participants"`
}

// BuildResults собирает итоги викторины: позицию каната, победителя
// и статистику каждого участника
func (m *Manager) BuildResults(ctx context.Context, quizID uint) (*QuizResults, error) {
	quiz, err := m.deps.QuizRepo.GetByID(quizID)
	if err != nil {
		return nil, err
	}
	answers, err := m.deps.AnswerRepo.GetByQuizID(quizID)
	if err != nil {
		return nil, err
	}
	participants, err := m.deps.ParticipantRepo.GetByQuizID(quizID)
	if err != nil {
		return nil, err
	}
	maxTimeMs, err := m.avgQuestionTimeMs(ctx, quizID)
	if err != nil {
		return nil, err
	}

	tug := ComputeTugFromAnswers(answers, participants, maxTimeMs)

	byParticipant := make(map[uint][]entity.Answer, len(participants))
	for _, a := range answers {
		byParticipant[a.ParticipantID] = append(byParticipant[a.ParticipantID], a)
	}

	results := make([]ParticipantResult, 0, len(participants))
	for _, p := range participants {
		pr := ParticipantResult{
			ParticipantID: p.ID,
			Name:          p.Name,
			Team:          p.Team,
		}
		var totalMs int64
		for _, a := range byParticipant[p.ID] {
			pr.TotalAnswers++
			if a.IsCorrect {
				pr.CorrectAnswers++
			}
			totalMs += a.ResponseTimeMs
		}
		if pr.TotalAnswers > 0 {
			pr.AvgResponseTimeMs = round2(float64(totalMs) / float64(pr.TotalAnswers))
		}
		results = append(results, pr)
	}

	return &QuizResults{
		QuizID:       quiz.ID,
		Title:        quiz.Title,
		PIN:          quiz.PIN,
		Status:       quiz.Status,
		Tug:          tug,
		WinningTeam:  Winner(tug),
		Participants: results,
	}, nil
}

// GetResults возвращает итоги викторины создателю (teacher-only)
func (m *Manager) GetResults(ctx context.Context, quizID uint, userID uint) (*QuizResults, error) {
	if _, err := m.quizForTeacher(quizID, userID); err != nil {
		return nil, err
	}
	return m.BuildResults(ctx, quizID)
}
