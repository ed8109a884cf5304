package gamemanager

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yourusername/tugofwar-api/internal/domain/entity"
)

func TestAverageQuestionTimeMs(t *testing.T) {
	questions := []entity.Question{
		{TimeLimitSec: 30},
		{TimeLimitSec: 20},
		{TimeLimitSec: 40},
	}
	assert.Equal(t, 30000.0, AverageQuestionTimeMs(questions))

	assert.Equal(t, 0.0, AverageQuestionTimeMs(nil), "Без вопросов среднее равно нулю")
}

func TestAverageSpeed(t *testing.T) {
	// Один ответ за 5 секунд при среднем лимите 30 секунд
	answers := []entity.Answer{{ResponseTimeMs: 5000}}
	assert.Equal(t, 25.0, AverageSpeed(answers, 30000))

	// Медленнее лимита - запас не уходит в минус
	slow := []entity.Answer{{ResponseTimeMs: 45000}}
	assert.Equal(t, 0.0, AverageSpeed(slow, 30000))

	// Пустой набор
	assert.Equal(t, 0.0, AverageSpeed(nil, 30000))

	// Среднее по нескольким ответам округляется до сотых
	mixed := []entity.Answer{{ResponseTimeMs: 5000}, {ResponseTimeMs: 10000}}
	assert.Equal(t, 22.5, AverageSpeed(mixed, 30000))
}

func TestTeamScore(t *testing.T) {
	// 50 за правильный ответ + 10 за секунду запаса
	assert.Equal(t, 300, TeamScore(1, 25.0))
	assert.Equal(t, 0, TeamScore(0, 0))
	assert.Equal(t, 100, TeamScore(2, 0))
	assert.Equal(t, 125, TeamScore(1, 7.5))
}

func TestComputeTug_NoAnswers(t *testing.T) {
	status := ComputeTug(0, 0, false)
	assert.Equal(t, 0.0, status.Position)
	assert.False(t, status.HasAnswers)
	assert.Equal(t, 0, status.Team1Score)
	assert.Equal(t, 0, status.Team2Score)
}

func TestComputeTug_ZeroScores(t *testing.T) {
	// Ответы есть, но очков нет (все неверные и без запаса скорости)
	status := ComputeTug(0, 0, true)
	assert.Equal(t, 0.0, status.Position)
	assert.False(t, status.HasAnswers)
}

func TestComputeTug_FirstAnswerCap(t *testing.T) {
	// Самый первый ответ: у второй команды 0 очков, позиция ровно 75
	status := ComputeTug(300, 0, true)
	assert.Equal(t, 75.0, status.Position)
	assert.True(t, status.HasAnswers)
	assert.Equal(t, 300, status.Team1Score)

	// Зеркально для второй команды
	mirrored := ComputeTug(0, 300, true)
	assert.Equal(t, -75.0, mirrored.Position)
}

func TestComputeTug_FirstCorrectAnswerScenario(t *testing.T) {
	// Полный сценарий: один правильный ответ первой команды,
	// среднее время вопросов 30 секунд, ответ за 5 секунд
	answers := []entity.Answer{
		{ParticipantID: 1, QuestionID: 1, IsCorrect: true, ResponseTimeMs: 5000},
	}
	participants := []entity.Participant{
		{ID: 1, Team: entity.Team1},
	}

	status := ComputeTugFromAnswers(answers, participants, 30000)
	assert.Equal(t, 300, status.Team1Score, "round(1*50 + 25*10) = 300")
	assert.Equal(t, 0, status.Team2Score)
	assert.Equal(t, 75.0, status.Position)
	assert.Equal(t, entity.Team1, Winner(status))
}

func TestComputeTug_Equality(t *testing.T) {
	status := ComputeTug(200, 200, true)
	assert.Equal(t, 0.0, status.Position)
	assert.Equal(t, 0, Winner(status))
}

func TestComputeTug_RatioWindow(t *testing.T) {
	// Перевес 3:1 дает ratio=0.75 - край окна, полная позиция
	status := ComputeTug(300, 100, true)
	assert.Equal(t, 100.0, status.Position)

	// Перевес больше 3:1 - norm ограничен единицей, позиция не выходит за 100
	extreme := ComputeTug(1000, 10, true)
	assert.Equal(t, 100.0, extreme.Position)

	// Умеренный перевес 2:1: ratio=2/3, norm=(2/3-0.5)/0.25=2/3,
	// позиция = (2/3)^0.7 * 100 = 75.31...
	moderate := ComputeTug(200, 100, true)
	assert.InDelta(t, 75.29, moderate.Position, 0.5)
	assert.Greater(t, moderate.Position, 0.0)
	assert.Less(t, moderate.Position, 100.0)
}

func TestComputeTug_PositionAlwaysInRange(t *testing.T) {
	// Позиция никогда не выходит за [-100, 100] на сетке счетов
	scores := []int{0, 1, 10, 50, 100, 300, 1000, 50000}
	for _, t1 := range scores {
		for _, t2 := range scores {
			status := ComputeTug(t1, t2, true)
			assert.GreaterOrEqual(t, status.Position, -100.0,
				"позиция ниже -100 при счетах %d:%d", t1, t2)
			assert.LessOrEqual(t, status.Position, 100.0,
				"позиция выше 100 при счетах %d:%d", t1, t2)
		}
	}
}

func TestComputeTugFromAnswers_TwoTeams(t *testing.T) {
	answers := []entity.Answer{
		{ParticipantID: 1, IsCorrect: true, ResponseTimeMs: 5000},
		{ParticipantID: 2, IsCorrect: true, ResponseTimeMs: 10000},
		{ParticipantID: 3, IsCorrect: false, ResponseTimeMs: 8000},
	}
	participants := []entity.Participant{
		{ID: 1, Team: entity.Team1},
		{ID: 2, Team: entity.Team1},
		{ID: 3, Team: entity.Team2},
	}

	status := ComputeTugFromAnswers(answers, participants, 30000)
	assert.True(t, status.HasAnswers)

	// Команда 1: 2 правильных, среднее время 7.5с, запас 22.5с -> 100+225=325
	assert.Equal(t, 325, status.Team1Score)
	// Команда 2: 0 правильных, запас 22с -> 220
	assert.Equal(t, 220, status.Team2Score)
	assert.Greater(t, status.Position, 0.0)
	assert.Equal(t, entity.Team1, Winner(status))
}

func TestWinner(t *testing.T) {
	assert.Equal(t, entity.Team1, Winner(TugStatus{Position: 42}))
	assert.Equal(t, entity.Team2, Winner(TugStatus{Position: -0.5}))
	assert.Equal(t, 0, Winner(TugStatus{Position: 0}))
}
