package model

import "time"

type ExerciseType string

const (
	ExerciseChoice    ExerciseType = "choice"
	ExerciseFillBlank ExerciseType = "fill_in_the_blank"
	ExerciseSentence  ExerciseType = "sentence"
)

func (t ExerciseType) Valid() bool {
	switch t {
	case ExerciseChoice, ExerciseFillBlank, ExerciseSentence:
		return true
	}
	return false
}

// Exercise 生成的练习题，创建后不再修改
type Exercise struct {
	ID            uint         `gorm:"primaryKey;autoIncrement" json:"id"`
	GrammarID     string       `gorm:"type:varchar(64);index;not null" json:"grammarId"`
	Type          ExerciseType `gorm:"type:varchar(32)" json:"type"`
	Question      string       `gorm:"type:text;not null" json:"question"`
	Options       []string     `gorm:"type:json;serializer:json" json:"options,omitempty"`
	CorrectAnswer string       `gorm:"type:text" json:"correct_answer"`
	Explanation   string       `gorm:"type:text" json:"explanation"`
	CreatedAt     time.Time    `json:"createdAt"`
}

func (Exercise) TableName() string {
	return "exercises"
}
