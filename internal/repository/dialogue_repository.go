package repository

import (
	"context"
	"errors"
	"time"

	"github.com/EthanMiao/manaboo/internal/model"
	"github.com/EthanMiao/manaboo/internal/util"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DialogueRepository struct {
	DB *gorm.DB
}

func NewDialogueRepository(db *gorm.DB) *DialogueRepository {
	return &DialogueRepository{DB: db}
}

func (r *DialogueRepository) WithTx(tx *gorm.DB) *DialogueRepository {
	return &DialogueRepository{DB: tx}
}

func (r *DialogueRepository) Create(ctx context.Context, s *model.DialogueSession) error {
	return r.DB.WithContext(ctx).Create(s).Error
}

func (r *DialogueRepository) FindByID(ctx context.Context, id string) (*model.DialogueSession, error) {
	return r.find(r.DB.WithContext(ctx), id)
}

// FindForUpdate 必须在事务中调用
func (r *DialogueRepository) FindForUpdate(ctx context.Context, id string) (*model.DialogueSession, error) {
	return r.find(r.DB.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *DialogueRepository) find(db *gorm.DB, id string) (*model.DialogueSession, error) {
	var s model.DialogueSession
	err := db.Where("id = ?", id).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// UpdateHistory 只更新历史和更新时间
func (r *DialogueRepository) UpdateHistory(ctx context.Context, s *model.DialogueSession) error {
	return r.DB.WithContext(ctx).
		Model(s).
		Select("history", "updated_at").
		Updates(s).Error
}

// Delete 物理删除，记录不存在时返回 ErrSessionNotFound
func (r *DialogueRepository) Delete(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&model.DialogueSession{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return util.ErrSessionNotFound
	}
	return nil
}

func (r *DialogueRepository) ListByUser(ctx context.Context, userID string) ([]model.DialogueSession, error) {
	var list []model.DialogueSession
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("created_at ASC").Find(&list).Error
	return list, err
}

func (r *DialogueRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.DialogueSession{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// ListActiveBetween 在 [from, to) 内有更新的会话
func (r *DialogueRepository) ListActiveBetween(ctx context.Context, from, to time.Time) ([]model.DialogueSession, error) {
	var list []model.DialogueSession
	err := r.DB.WithContext(ctx).
		Where("updated_at >= ? AND updated_at < ?", from, to).
		Order("user_id ASC, created_at ASC").
		Find(&list).Error
	return list, err
}
