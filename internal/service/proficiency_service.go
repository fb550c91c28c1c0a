package service

import (
	"context"
	"fmt"
	"time"

	"github.com/EthanMiao/manaboo/internal/model"
	"github.com/EthanMiao/manaboo/internal/repository"
	"github.com/EthanMiao/manaboo/internal/util"
	"github.com/EthanMiao/manaboo/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Attempt 一次作答
type Attempt struct {
	UserID          string
	GrammarID       string
	Correct         bool
	QuestionID      string
	SubmittedAnswer string
	SuggestedAnswer string
}

// ProficiencyService 熟练度记录的唯一写入方
type ProficiencyService struct {
	DB              *gorm.DB
	GrammarRepo     *repository.GrammarRepository
	ProficiencyRepo *repository.ProficiencyRepository
	MistakeRepo     *repository.MistakeRepository
	StatRepo        *repository.StudyStatRepository
	now             func() time.Time
}

func NewProficiencyService(
	db *gorm.DB,
	grammarRepo *repository.GrammarRepository,
	proficiencyRepo *repository.ProficiencyRepository,
	mistakeRepo *repository.MistakeRepository,
	statRepo *repository.StudyStatRepository,
) *ProficiencyService {
	return &ProficiencyService{
		DB:              db,
		GrammarRepo:     grammarRepo,
		ProficiencyRepo: proficiencyRepo,
		MistakeRepo:     mistakeRepo,
		StatRepo:        statRepo,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// RecordAttempt 在一个事务内更新计数、分数，答错时追加错题，并累加当天练习量
func (s *ProficiencyService) RecordAttempt(ctx context.Context, a Attempt) (*model.UserProficiency, error) {
	if a.UserID == "" || a.GrammarID == "" {
		return nil, util.ValidationError("用户和语法点不能为空")
	}

	var result *model.UserProficiency
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := s.GrammarRepo.WithTx(tx).Exists(ctx, a.GrammarID)
		if err != nil {
			return fmt.Errorf("check grammar: %w", err)
		}
		if !exists {
			return util.ErrGrammarNotFound
		}

		now := s.now()
		profRepo := s.ProficiencyRepo.WithTx(tx)
		p, err := profRepo.LockOrCreate(ctx, a.UserID, a.GrammarID, now)
		if err != nil {
			return fmt.Errorf("lock proficiency: %w", err)
		}

		p.Apply(a.Correct, now)

		if !a.Correct {
			mistake := &model.Mistake{
				UserID:        a.UserID,
				GrammarID:     a.GrammarID,
				QuestionID:    a.QuestionID,
				UserAnswer:    a.SubmittedAnswer,
				CorrectAnswer: a.SuggestedAnswer,
				Timestamp:     now,
			}
			if err := s.MistakeRepo.WithTx(tx).Create(ctx, mistake); err != nil {
				return fmt.Errorf("append mistake: %w", err)
			}
		}

		if err := profRepo.Save(ctx, p); err != nil {
			return fmt.Errorf("save proficiency: %w", err)
		}

		if err := s.StatRepo.WithTx(tx).Increment(ctx, a.UserID, now, repository.StatGrammar); err != nil {
			return fmt.Errorf("update study stats: %w", err)
		}

		result = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Debug("作答已记录",
		zap.String("user_id", a.UserID),
		zap.String("grammar_id", a.GrammarID),
		zap.Bool("correct", a.Correct),
		zap.Float64("score", result.ProficiencyScore))
	return result, nil
}
