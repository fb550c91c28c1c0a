package repository

import (
	"context"
	"errors"

	"github.com/EthanMiao/manaboo/internal/model"
	"github.com/EthanMiao/manaboo/internal/util"
	"gorm.io/gorm"
)

type MistakeRepository struct {
	DB *gorm.DB
}

func NewMistakeRepository(db *gorm.DB) *MistakeRepository {
	return &MistakeRepository{DB: db}
}

func (r *MistakeRepository) WithTx(tx *gorm.DB) *MistakeRepository {
	return &MistakeRepository{DB: tx}
}

func (r *MistakeRepository) Create(ctx context.Context, m *model.Mistake) error {
	return r.DB.WithContext(ctx).Create(m).Error
}

// ListByUser 最新的在前
func (r *MistakeRepository) ListByUser(ctx context.Context, userID string) ([]model.Mistake, error) {
	var mistakes []model.Mistake
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp DESC, id DESC").
		Find(&mistakes).Error
	return mistakes, err
}

func (r *MistakeRepository) FindByID(ctx context.Context, id uint) (*model.Mistake, error) {
	var m model.Mistake
	err := r.DB.WithContext(ctx).First(&m, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrMistakeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// CountByGrammar 按错题数降序，相同数量时按最早一条错题的 id 升序
func (r *MistakeRepository) CountByGrammar(ctx context.Context, userID string) ([]model.MistakeCount, error) {
	var counts []model.MistakeCount
	err := r.DB.WithContext(ctx).
		Model(&model.Mistake{}).
		Select("grammar_id, COUNT(id) AS count").
		Where("user_id = ?", userID).
		Group("grammar_id").
		Order("count DESC, MIN(id) ASC").
		Scan(&counts).Error
	return counts, err
}

func (r *MistakeRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Mistake{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
