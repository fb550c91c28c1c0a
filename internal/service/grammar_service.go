package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/EthanMiao/manaboo/internal/model"
	"github.com/EthanMiao/manaboo/internal/repository"
	"github.com/EthanMiao/manaboo/internal/util"
	"github.com/EthanMiao/manaboo/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// GrammarItem 语法点加上当前用户的熟练度
type GrammarItem struct {
	model.GrammarPoint
	ProficiencyScore float64 `json:"proficiency_score"`
}

type SubmitResult struct {
	Result        string                 `json:"result"`
	Explanation   string                 `json:"explanation"`
	CorrectAnswer string                 `json:"correct_answer"`
	Suggestion    string                 `json:"suggestion,omitempty"`
	Proficiency   *model.UserProficiency `json:"proficiency"`
}

type MistakeItem struct {
	model.Mistake
	Explanation string `json:"explanation"`
}

type ProficiencyView struct {
	GrammarID     string  `json:"grammarId"`
	Score         float64 `json:"score"`
	PracticeCount int     `json:"practice_count"`
	Accuracy      float64 `json:"accuracy"`
}

type GrammarService struct {
	DB              *gorm.DB
	GrammarRepo     *repository.GrammarRepository
	ExerciseRepo    *repository.ExerciseRepository
	MistakeRepo     *repository.MistakeRepository
	ProficiencyRepo *repository.ProficiencyRepository
	Proficiency     *ProficiencyService
	Generator       Generator
}

func NewGrammarService(
	db *gorm.DB,
	grammarRepo *repository.GrammarRepository,
	exerciseRepo *repository.ExerciseRepository,
	mistakeRepo *repository.MistakeRepository,
	proficiencyRepo *repository.ProficiencyRepository,
	proficiency *ProficiencyService,
	generator Generator,
) *GrammarService {
	return &GrammarService{
		DB:              db,
		GrammarRepo:     grammarRepo,
		ExerciseRepo:    exerciseRepo,
		MistakeRepo:     mistakeRepo,
		ProficiencyRepo: proficiencyRepo,
		Proficiency:     proficiency,
		Generator:       generator,
	}
}

// ListGrammar 等级在 SQL 中过滤，主题在内存中过滤
func (s *GrammarService) ListGrammar(ctx context.Context, userID, level, theme string) ([]GrammarItem, error) {
	points, err := s.GrammarRepo.List(ctx, level)
	if err != nil {
		return nil, fmt.Errorf("list grammar: %w", err)
	}

	scores, err := s.ProficiencyRepo.ScoresByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load scores: %w", err)
	}

	items := make([]GrammarItem, 0, len(points))
	for _, p := range points {
		if theme != "" && !p.HasTheme(theme) {
			continue
		}
		items = append(items, GrammarItem{GrammarPoint: p, ProficiencyScore: scores[p.ID]})
	}
	return items, nil
}

func (s *GrammarService) GetGrammar(ctx context.Context, userID, id string) (*GrammarItem, error) {
	g, err := s.GrammarRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	item := &GrammarItem{GrammarPoint: *g}
	p, err := s.ProficiencyRepo.Find(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("load proficiency: %w", err)
	}
	if p != nil {
		item.ProficiencyScore = p.ProficiencyScore
	}
	return item, nil
}

// GenerateExercises 生成的题目一次性写库，返回带 ID 的记录
func (s *GrammarService) GenerateExercises(ctx context.Context, grammarID string, t model.ExerciseType) ([]model.Exercise, error) {
	if !t.Valid() {
		return nil, util.ValidationError("不支持的题型: %s", t)
	}

	g, err := s.GrammarRepo.FindByID(ctx, grammarID)
	if err != nil {
		return nil, err
	}

	generated := s.Generator.GenerateExercises(ctx, ExerciseRequest{GrammarTitle: g.Title, Type: t})

	exercises := make([]model.Exercise, len(generated))
	for i, q := range generated {
		exercises[i] = model.Exercise{
			GrammarID:     g.ID,
			Type:          t,
			Question:      q.Question,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
			Explanation:   q.Explanation,
		}
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.ExerciseRepo.WithTx(tx).CreateBatch(ctx, exercises)
	})
	if err != nil {
		return nil, fmt.Errorf("save exercises: %w", err)
	}

	logger.Log.Info("练习题已生成",
		zap.String("grammar_id", g.ID),
		zap.String("type", string(t)),
		zap.Int("count", len(exercises)))
	return exercises, nil
}

// SubmitAnswer 以题目记录中的答案为准判题，然后更新熟练度
func (s *GrammarService) SubmitAnswer(ctx context.Context, userID, grammarID string, questionID uint, answer string) (*SubmitResult, error) {
	exercise, err := s.ExerciseRepo.FindByID(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if exercise.GrammarID != grammarID {
		return nil, util.ValidationError("题目 %d 不属于语法点 %s", questionID, grammarID)
	}

	g, err := s.GrammarRepo.FindByID(ctx, grammarID)
	if err != nil {
		return nil, err
	}

	check := s.Generator.CheckAnswer(ctx, CheckAnswerRequest{
		GrammarTitle: g.Title,
		Submitted:    answer,
		Expected:     exercise.CorrectAnswer,
	})

	suggested := check.Suggestion
	if suggested == "" {
		suggested = exercise.CorrectAnswer
	}

	p, err := s.Proficiency.RecordAttempt(ctx, Attempt{
		UserID:          userID,
		GrammarID:       grammarID,
		Correct:         check.IsCorrect(),
		QuestionID:      strconv.FormatUint(uint64(questionID), 10),
		SubmittedAnswer: answer,
		SuggestedAnswer: suggested,
	})
	if err != nil {
		return nil, err
	}

	return &SubmitResult{
		Result:        check.Result,
		Explanation:   check.Explanation,
		CorrectAnswer: exercise.CorrectAnswer,
		Suggestion:    check.Suggestion,
		Proficiency:   p,
	}, nil
}

// ListMistakes 最新的在前
func (s *GrammarService) ListMistakes(ctx context.Context, userID string) ([]MistakeItem, error) {
	mistakes, err := s.MistakeRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list mistakes: %w", err)
	}

	ids := make([]string, 0, len(mistakes))
	for _, m := range mistakes {
		ids = append(ids, m.GrammarID)
	}
	points, err := s.GrammarRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load grammar: %w", err)
	}

	items := make([]MistakeItem, len(mistakes))
	for i, m := range mistakes {
		items[i] = mistakeItem(m, points)
	}
	return items, nil
}

func (s *GrammarService) GetMistake(ctx context.Context, id uint) (*MistakeItem, error) {
	m, err := s.MistakeRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	points, err := s.GrammarRepo.FindByIDs(ctx, []string{m.GrammarID})
	if err != nil {
		return nil, fmt.Errorf("load grammar: %w", err)
	}
	item := mistakeItem(*m, points)
	return &item, nil
}

func mistakeItem(m model.Mistake, points map[string]model.GrammarPoint) MistakeItem {
	title := "Unknown"
	if g, ok := points[m.GrammarID]; ok {
		title = g.Title
	}
	return MistakeItem{Mistake: m, Explanation: "Grammar: " + title}
}

// GetProficiency 没有记录时返回全零，accuracy 为百分比
func (s *GrammarService) GetProficiency(ctx context.Context, userID, grammarID string) (*ProficiencyView, error) {
	view := &ProficiencyView{GrammarID: grammarID}

	p, err := s.ProficiencyRepo.Find(ctx, userID, grammarID)
	if err != nil {
		return nil, fmt.Errorf("load proficiency: %w", err)
	}
	if p == nil {
		return view, nil
	}

	view.Score = p.ProficiencyScore
	view.PracticeCount = p.PracticeCount
	view.Accuracy = model.ProficiencyScore(p.CorrectCount, p.PracticeCount)
	return view, nil
}
