package entity

import (
	"time"
)

// Номера команд
const (
	Team1 = 1
	Team2 = 2
)

// Participant представляет участника, присоединившегося к игре по PIN.
// Имя уникально в пределах одной викторины; запись не изменяется после создания.
type Participant struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	QuizID   uint      `gorm:"not null;index;uniqueIndex:idx_participants_quiz_name" json:"quiz_id"`
	Name     string    `gorm:"size:50;not null;uniqueIndex:idx_participants_quiz_name" json:"name"`
	Team     int       `gorm:"not null" json:"team"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`
}

// TableName определяет имя таблицы для GORM
func (Participant) TableName() string {
	return "participants"
}

// IsValidTeam проверяет, что номер команды допустим
func IsValidTeam(team int) bool {
	return team == Team1 || team == Team2
}
