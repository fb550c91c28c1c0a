package model

import "time"

// StudyStat 按用户、按天汇总的学习量
type StudyStat struct {
	ID               uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID           string    `gorm:"type:varchar(64);uniqueIndex:idx_user_date;not null" json:"userId"`
	Date             time.Time `gorm:"type:date;uniqueIndex:idx_user_date;not null" json:"date"`
	GrammarCount     int       `gorm:"not null;default:0" json:"grammar_count"`
	DialogueCount    int       `gorm:"not null;default:0" json:"dialogue_count"`
	TotalTimeMinutes int       `gorm:"not null;default:0" json:"total_time_minutes"`
}

func (StudyStat) TableName() string {
	return "study_stats"
}

// StatDay 截断到当天零点（UTC）
func StatDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
