package entity

// AnswerOption представляет вариант ответа на вопрос (порядковый номер 1-4)
type AnswerOption struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	QuestionID uint   `gorm:"not null;index" json:"question_id"`
	Text       string `gorm:"size:255;not null" json:"text"`
	Position   int    `gorm:"not null" json:"position"`
}

// TableName определяет имя таблицы для GORM
func (AnswerOption) TableName() string {
	return "answer_options"
}
