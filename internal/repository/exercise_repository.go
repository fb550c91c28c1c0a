package repository

import (
	"context"
	"errors"

	"github.com/EthanMiao/manaboo/internal/model"
	"github.com/EthanMiao/manaboo/internal/util"
	"gorm.io/gorm"
)

type ExerciseRepository struct {
	DB *gorm.DB
}

func NewExerciseRepository(db *gorm.DB) *ExerciseRepository {
	return &ExerciseRepository{DB: db}
}

func (r *ExerciseRepository) WithTx(tx *gorm.DB) *ExerciseRepository {
	return &ExerciseRepository{DB: tx}
}

// CreateBatch 写入后 exercises 中的 ID 被回填
func (r *ExerciseRepository) CreateBatch(ctx context.Context, exercises []model.Exercise) error {
	if len(exercises) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Create(&exercises).Error
}

func (r *ExerciseRepository) FindByID(ctx context.Context, id uint) (*model.Exercise, error) {
	var e model.Exercise
	err := r.DB.WithContext(ctx).First(&e, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrExerciseNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}
