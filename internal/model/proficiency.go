package model

import (
	"time"

	"gorm.io/gorm"
)

// MasteredThreshold 熟练度达到该值视为已掌握
const MasteredThreshold = 80.0

// UserProficiency 用户对单个语法点的熟练度，(user_id, grammar_id) 唯一
type UserProficiency struct {
	ID               uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID           string    `gorm:"type:varchar(64);uniqueIndex:idx_user_grammar;not null" json:"userId"`
	GrammarID        string    `gorm:"type:varchar(64);uniqueIndex:idx_user_grammar;not null" json:"grammarId"`
	PracticeCount    int       `gorm:"not null;default:0" json:"practice_count"`
	CorrectCount     int       `gorm:"not null;default:0" json:"correct_count"`
	ProficiencyScore float64   `gorm:"index;not null;default:0" json:"proficiency_score"`
	LastPracticed    time.Time `gorm:"index" json:"last_practiced"`
}

func (UserProficiency) TableName() string {
	return "user_proficiency"
}

// ProficiencyScore 正确率百分比，未练习时为 0
func ProficiencyScore(correct, practice int) float64 {
	if practice <= 0 {
		return 0
	}
	return float64(correct) / float64(practice) * 100
}

// Apply 记录一次判分结果
func (p *UserProficiency) Apply(correct bool, at time.Time) {
	p.PracticeCount++
	if correct {
		p.CorrectCount++
	}
	p.ProficiencyScore = ProficiencyScore(p.CorrectCount, p.PracticeCount)
	p.LastPracticed = at
}

// BeforeSave 分数始终由计数推导，避免与计数不一致
func (p *UserProficiency) BeforeSave(tx *gorm.DB) error {
	if p.CorrectCount > p.PracticeCount {
		p.CorrectCount = p.PracticeCount
	}
	p.ProficiencyScore = ProficiencyScore(p.CorrectCount, p.PracticeCount)
	return nil
}

func (p *UserProficiency) Mastered() bool {
	return p.ProficiencyScore >= MasteredThreshold
}
