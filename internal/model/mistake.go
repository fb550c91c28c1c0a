package model

import "time"

// Mistake 错题记录，每次判错追加一条，不做修改
type Mistake struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        string    `gorm:"type:varchar(64);index;not null" json:"userId"`
	GrammarID     string    `gorm:"type:varchar(64);index;not null" json:"grammarId"`
	QuestionID    string    `gorm:"type:varchar(64)" json:"questionId"`
	UserAnswer    string    `gorm:"type:text" json:"user_answer"`
	CorrectAnswer string    `gorm:"type:text" json:"correct_answer"`
	Timestamp     time.Time `gorm:"index" json:"timestamp"`
}

func (Mistake) TableName() string {
	return "mistakes"
}

// MistakeCount 按语法点聚合的错题数
type MistakeCount struct {
	GrammarID string `json:"grammarId"`
	Count     int64  `json:"count"`
}
