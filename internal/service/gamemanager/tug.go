package gamemanager

import (
	"math"

	"github.com/yourusername/tugofwar-api/internal/domain/entity"
)

// TugStatus - результат расчета перетягивания каната.
// Position - знаковое значение в [-100, 100]: положительное - перевес
// команды 1, отрицательное - команды 2, 0 - равенство или нет данных.
type TugStatus struct {
	Position   float64 `json:"position"`
	Team1Score int     `json:"team1Score"`
	Team2Score int     `json:"team2Score"`
	HasAnswers bool    `json:"hasAnswers"`
}

// Константы формулы позиции. Окно 0.5..0.75 и показатель 0.7 подобраны так,
// чтобы редкие ранние ответы не уводили индикатор в крайности: для полной
// позиции команде нужен перевес по очкам 3:1. Менять нельзя - клиенты
// рассчитывают на совместимые значения.
const (
	correctPoints   = 50.0
	speedMultiplier = 10.0
	firstAnswerCap  = 75.0
	ratioWindow     = 0.25
	positionExp     = 0.7
)

// AverageQuestionTimeMs возвращает среднее время вопросов викторины
// в миллисекундах. Среднее по всем вопросам, не лимит конкретного вопроса:
// скорость ответа оценивается относительно всей викторины.
func AverageQuestionTimeMs(questions []entity.Question) float64 {
	if len(questions) == 0 {
		return 0
	}
	var totalSec int
	for _, q := range questions {
		totalSec += q.TimeLimitSec
	}
	return float64(totalSec) / float64(len(questions)) * 1000.0
}

// AverageSpeed возвращает средний запас скорости команды в секундах:
// насколько быстрее среднего лимита команда отвечала. Не бывает отрицательным.
func AverageSpeed(answers []entity.Answer, maxTimeMs float64) float64 {
	if len(answers) == 0 {
		return 0
	}
	var totalMs int64
	for _, a := range answers {
		totalMs += a.ResponseTimeMs
	}
	avgRespSec := float64(totalMs) / float64(len(answers)) / 1000.0
	maxSec := maxTimeMs / 1000.0
	return round2(math.Max(0, maxSec-avgRespSec))
}

// TeamScore считает очки команды: 50 за правильный ответ плюс
// 10 за каждую секунду среднего запаса скорости.
func TeamScore(correctCount int, avgSpeed float64) int {
	return int(math.Round(float64(correctCount)*correctPoints + avgSpeed*speedMultiplier))
}

// ComputeTug превращает очки команд в позицию каната.
// Самый первый ответ (у одной из команд еще 0 очков) дает ровно ±75,
// чтобы одиночный ответ не мог закончить игру доминированием.
func ComputeTug(team1Score, team2Score int, hasAnswers bool) TugStatus {
	if !hasAnswers || team1Score+team2Score == 0 {
		return TugStatus{Position: 0, Team1Score: 0, Team2Score: 0, HasAnswers: false}
	}

	diff := float64(team1Score - team2Score)
	sign := 1.0
	if diff < 0 {
		sign = -1.0
	}

	minS := math.Min(float64(team1Score), float64(team2Score))
	maxS := math.Max(float64(team1Score), float64(team2Score))

	var raw float64
	switch {
	case diff == 0:
		raw = 0
	case minS == 0 && maxS > 0:
		raw = sign * firstAnswerCap
	default:
		total := float64(team1Score + team2Score)
		ratio := maxS / total
		norm := math.Min(1, (ratio-0.5)/ratioWindow)
		raw = sign * math.Pow(norm, positionExp) * 100.0
	}

	position := round2(raw)
	if position > DominationThreshold {
		position = DominationThreshold
	} else if position < -DominationThreshold {
		position = -DominationThreshold
	}

	return TugStatus{
		Position:   position,
		Team1Score: team1Score,
		Team2Score: team2Score,
		HasAnswers: true,
	}
}

// ComputeTugFromAnswers - полный расчет от набора ответов: разбивает ответы
// по командам участников, считает очки и позицию.
func ComputeTugFromAnswers(answers []entity.Answer, participants []entity.Participant, maxTimeMs float64) TugStatus {
	teamByParticipant := make(map[uint]int, len(participants))
	for _, p := range participants {
		teamByParticipant[p.ID] = p.Team
	}

	var team1Answers, team2Answers []entity.Answer
	var team1Correct, team2Correct int
	for _, a := range answers {
		switch teamByParticipant[a.ParticipantID] {
		case entity.Team1:
			team1Answers = append(team1Answers, a)
			if a.IsCorrect {
				team1Correct++
			}
		case entity.Team2:
			team2Answers = append(team2Answers, a)
			if a.IsCorrect {
				team2Correct++
			}
		}
	}

	team1Score := TeamScore(team1Correct, AverageSpeed(team1Answers, maxTimeMs))
	team2Score := TeamScore(team2Correct, AverageSpeed(team2Answers, maxTimeMs))
	return ComputeTug(team1Score, team2Score, len(answers) > 0)
}

// Winner возвращает команду-победителя по позиции каната (0 - ничья)
func Winner(status TugStatus) int {
	switch {
	case status.Position > 0:
		return entity.Team1
	case status.Position < 0:
		return entity.Team2
	default:
		return 0
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
