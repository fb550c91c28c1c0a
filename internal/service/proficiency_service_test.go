package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EthanMiao/manaboo/internal/model"
	"github.com/EthanMiao/manaboo/internal/service"
	"github.com/EthanMiao/manaboo/internal/util"
)

func TestRecordAttempt_ScoreFollowsCounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	outcomes := []bool{true, false, true, true, false, true}
	var last *model.UserProficiency
	for i, correct := range outcomes {
		p, err := f.proficiency.RecordAttempt(ctx, service.Attempt{
			UserID:          "u1",
			GrammarID:       "n5-desu",
			Correct:         correct,
			QuestionID:      "7",
			SubmittedAnswer: "私が学生です",
			SuggestedAnswer: "私は学生です",
		})
		require.NoError(t, err)

		assert.Equal(t, i+1, p.PracticeCount)
		assert.LessOrEqual(t, p.CorrectCount, p.PracticeCount)
		assert.InDelta(t, float64(p.CorrectCount)/float64(p.PracticeCount)*100, p.ProficiencyScore, 1e-9)
		last = p
	}

	assert.Equal(t, 4, last.CorrectCount)
	assert.False(t, last.LastPracticed.IsZero())

	stored, err := f.proficiencyRepo.Find(ctx, "u1", "n5-desu")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 6, stored.PracticeCount)
	assert.InDelta(t, 66.666, stored.ProficiencyScore, 0.01)

	mistakes, err := f.mistakeRepo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, mistakes, 2)
	assert.Equal(t, "私が学生です", mistakes[0].UserAnswer)
	assert.Equal(t, "私は学生です", mistakes[0].CorrectAnswer)
	assert.Equal(t, "7", mistakes[0].QuestionID)

	stats, err := f.statRepo.Range(ctx, "u1", time.Now(), time.Now())
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, len(outcomes), stats[0].GrammarCount)
}

func TestRecordAttempt_UnknownGrammar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.proficiency.RecordAttempt(ctx, service.Attempt{UserID: "u1", GrammarID: "missing", Correct: false})
	assert.ErrorIs(t, err, util.ErrGrammarNotFound)
	assert.ErrorIs(t, err, util.ErrNotFound)

	count, err := f.mistakeRepo.CountByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, count)

	p, err := f.proficiencyRepo.Find(ctx, "u1", "missing")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestRecordAttempt_RequiresUserAndGrammar(t *testing.T) {
	f := newFixture(t)

	_, err := f.proficiency.RecordAttempt(context.Background(), service.Attempt{GrammarID: "n5-desu"})
	assert.ErrorIs(t, err, util.ErrValidation)
}

func TestRecordAttempt_ConcurrentAttemptsAreNotLost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.proficiency.RecordAttempt(ctx, service.Attempt{
				UserID:    "u1",
				GrammarID: "n4-tara",
				Correct:   i%2 == 0,
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	p, err := f.proficiencyRepo.Find(ctx, "u1", "n4-tara")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, n, p.PracticeCount)
	assert.Equal(t, n/2, p.CorrectCount)
	assert.InDelta(t, 50.0, p.ProficiencyScore, 1e-9)

	mistakes, err := f.mistakeRepo.CountByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(n/2), mistakes)
}
