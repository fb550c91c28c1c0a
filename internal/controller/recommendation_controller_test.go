package controller_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EthanMiao/manaboo/internal/model"
	"github.com/EthanMiao/manaboo/internal/repository"
)

func TestRecommendGrammar(t *testing.T) {
	s := newTestServer(t, nil)
	repo := repository.NewProficiencyRepository(s.db)
	ctx := context.Background()

	// 分数由计数推导：30、45、80
	seeds := []struct {
		grammarID string
		correct   int
	}{
		{"n5-desu", 6},
		{"n5-masu", 9},
		{"n5-tai", 16},
	}
	for _, seed := range seeds {
		p, err := repo.LockOrCreate(ctx, "u1", seed.grammarID, time.Now().UTC())
		require.NoError(t, err)
		p.PracticeCount = 20
		p.CorrectCount = seed.correct
		require.NoError(t, repo.Save(ctx, p))
	}

	var ids []string
	decode(t, s.do(t, http.MethodGet, "/api/recommendations/grammar", "u1", nil), http.StatusOK, &ids)
	assert.Equal(t, []string{"n5-desu", "n5-masu"}, ids)

	decode(t, s.do(t, http.MethodGet, "/api/recommendations/grammar?limit=1", "u1", nil), http.StatusOK, &ids)
	assert.Equal(t, []string{"n5-desu"}, ids)

	// 新用户返回空数组而不是 null
	w := s.do(t, http.MethodGet, "/api/recommendations/grammar", "nobody", nil)
	env := decode(t, w, http.StatusOK, &ids)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestRecommendGrammar_LimitCapped(t *testing.T) {
	s := newTestServer(t, nil)
	mistakes := repository.NewMistakeRepository(s.db)
	ctx := context.Background()

	points, err := repository.NewGrammarRepository(s.db, nil, 0).List(ctx, "")
	require.NoError(t, err)
	for i, p := range points {
		require.NoError(t, mistakes.Create(ctx, &model.Mistake{
			UserID:     "u1",
			GrammarID:  p.ID,
			QuestionID: fmt.Sprint(i),
			UserAnswer: "x",
		}))
	}

	var ids []string
	decode(t, s.do(t, http.MethodGet, "/api/recommendations/grammar?limit=100", "u1", nil), http.StatusOK, &ids)
	assert.Len(t, ids, len(points))
	assert.LessOrEqual(t, len(ids), 20)

	decode(t, s.do(t, http.MethodGet, "/api/recommendations/grammar?limit=-3", "u1", nil), http.StatusOK, &ids)
	assert.Len(t, ids, 5)
}
