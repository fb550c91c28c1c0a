package repository

import (
	"context"
	"errors"
	"time"

	"github.com/EthanMiao/manaboo/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProficiencyRepository struct {
	DB *gorm.DB
}

func NewProficiencyRepository(db *gorm.DB) *ProficiencyRepository {
	return &ProficiencyRepository{DB: db}
}

func (r *ProficiencyRepository) WithTx(tx *gorm.DB) *ProficiencyRepository {
	return &ProficiencyRepository{DB: tx}
}

// LockOrCreate 必须在事务中调用：先插入空记录（已存在则忽略），再加行锁读取。
// 空记录的 last_practiced 用 now，MySQL 严格模式不接受零值日期
func (r *ProficiencyRepository) LockOrCreate(ctx context.Context, userID, grammarID string, now time.Time) (*model.UserProficiency, error) {
	db := r.DB.WithContext(ctx)

	seed := &model.UserProficiency{UserID: userID, GrammarID: grammarID, LastPracticed: now}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(seed).Error; err != nil {
		return nil, err
	}

	var p model.UserProficiency
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND grammar_id = ?", userID, grammarID).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProficiencyRepository) Save(ctx context.Context, p *model.UserProficiency) error {
	return r.DB.WithContext(ctx).Save(p).Error
}

// Find 不存在时返回 nil, nil
func (r *ProficiencyRepository) Find(ctx context.Context, userID, grammarID string) (*model.UserProficiency, error) {
	var p model.UserProficiency
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND grammar_id = ?", userID, grammarID).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProficiencyRepository) ListByUser(ctx context.Context, userID string) ([]model.UserProficiency, error) {
	var list []model.UserProficiency
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("grammar_id ASC").Find(&list).Error
	return list, err
}

// ScoresByUser grammar_id -> proficiency_score
func (r *ProficiencyRepository) ScoresByUser(ctx context.Context, userID string) (map[string]float64, error) {
	list, err := r.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	scores := make(map[string]float64, len(list))
	for _, p := range list {
		scores[p.GrammarID] = p.ProficiencyScore
	}
	return scores, nil
}

// LowScores 分数低于 threshold 的记录，分数升序，同分按 id 升序
func (r *ProficiencyRepository) LowScores(ctx context.Context, userID string, threshold float64, limit int) ([]model.UserProficiency, error) {
	var list []model.UserProficiency
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND proficiency_score < ?", userID, threshold).
		Order("proficiency_score ASC, id ASC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

func (r *ProficiencyRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.UserProficiency{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *ProficiencyRepository) CountMastered(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).
		Model(&model.UserProficiency{}).
		Where("user_id = ? AND proficiency_score >= ?", userID, model.MasteredThreshold).
		Count(&count).Error
	return count, err
}
