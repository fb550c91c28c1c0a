package service

import (
	"context"
	"fmt"

	"github.com/EthanMiao/manaboo/internal/repository"
	"github.com/EthanMiao/manaboo/internal/util"
)

// weakScoreThreshold 低于该分数的语法点优先推荐
const weakScoreThreshold = 60.0

type RecommendationService struct {
	ProficiencyRepo *repository.ProficiencyRepository
	MistakeRepo     *repository.MistakeRepository
}

func NewRecommendationService(
	proficiencyRepo *repository.ProficiencyRepository,
	mistakeRepo *repository.MistakeRepository,
) *RecommendationService {
	return &RecommendationService{
		ProficiencyRepo: proficiencyRepo,
		MistakeRepo:     mistakeRepo,
	}
}

// Recommend 先取低分语法点（分数升序），不足时按错题数降序补齐
func (s *RecommendationService) Recommend(ctx context.Context, userID string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = util.DefaultRecommendLimit
	}

	weak, err := s.ProficiencyRepo.LowScores(ctx, userID, weakScoreThreshold, limit)
	if err != nil {
		return nil, fmt.Errorf("load weak grammar: %w", err)
	}

	ids := make([]string, 0, limit)
	seen := make(map[string]struct{}, limit)
	for _, p := range weak {
		ids = append(ids, p.GrammarID)
		seen[p.GrammarID] = struct{}{}
	}
	if len(ids) >= limit {
		return ids, nil
	}

	counts, err := s.MistakeRepo.CountByGrammar(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count mistakes: %w", err)
	}
	for _, c := range counts {
		if len(ids) >= limit {
			break
		}
		if _, ok := seen[c.GrammarID]; ok {
			continue
		}
		ids = append(ids, c.GrammarID)
		seen[c.GrammarID] = struct{}{}
	}
	return ids, nil
}
