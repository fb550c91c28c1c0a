package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/EthanMiao/manaboo/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StatField string

const (
	StatGrammar  StatField = "grammar_count"
	StatDialogue StatField = "dialogue_count"
)

type StudyStatRepository struct {
	DB *gorm.DB
}

func NewStudyStatRepository(db *gorm.DB) *StudyStatRepository {
	return &StudyStatRepository{DB: db}
}

func (r *StudyStatRepository) WithTx(tx *gorm.DB) *StudyStatRepository {
	return &StudyStatRepository{DB: tx}
}

// Increment 当天计数加一，当天记录不存在时创建
func (r *StudyStatRepository) Increment(ctx context.Context, userID string, at time.Time, field StatField) error {
	stat := &model.StudyStat{UserID: userID, Date: model.StatDay(at)}
	switch field {
	case StatGrammar:
		stat.GrammarCount = 1
	case StatDialogue:
		stat.DialogueCount = 1
	default:
		return fmt.Errorf("unknown stat field %q", field)
	}

	col := string(field)
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{col: gorm.Expr(col + " + 1")}),
	}).Create(stat).Error
}

// SetTotalTime 覆盖某天的学习时长
func (r *StudyStatRepository) SetTotalTime(ctx context.Context, userID string, day time.Time, minutes int) error {
	stat := &model.StudyStat{UserID: userID, Date: model.StatDay(day), TotalTimeMinutes: minutes}
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"total_time_minutes": minutes}),
	}).Create(stat).Error
}

// Range 闭区间 [from, to]，按日期升序
func (r *StudyStatRepository) Range(ctx context.Context, userID string, from, to time.Time) ([]model.StudyStat, error) {
	var list []model.StudyStat
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND date >= ? AND date <= ?", userID, model.StatDay(from), model.StatDay(to)).
		Order("date ASC").
		Find(&list).Error
	return list, err
}
