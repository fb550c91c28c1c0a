package service_test

import (
	"testing"

	"gorm.io/gorm"

	"github.com/EthanMiao/manaboo/internal/repository"
	"github.com/EthanMiao/manaboo/internal/service"
	"github.com/EthanMiao/manaboo/internal/testutil"
)

type fixture struct {
	db              *gorm.DB
	grammarRepo     *repository.GrammarRepository
	exerciseRepo    *repository.ExerciseRepository
	mistakeRepo     *repository.MistakeRepository
	proficiencyRepo *repository.ProficiencyRepository
	dialogueRepo    *repository.DialogueRepository
	statRepo        *repository.StudyStatRepository
	proficiency     *service.ProficiencyService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	f := &fixture{
		db:              db,
		grammarRepo:     repository.NewGrammarRepository(db, nil, 0),
		exerciseRepo:    repository.NewExerciseRepository(db),
		mistakeRepo:     repository.NewMistakeRepository(db),
		proficiencyRepo: repository.NewProficiencyRepository(db),
		dialogueRepo:    repository.NewDialogueRepository(db),
		statRepo:        repository.NewStudyStatRepository(db),
	}
	f.proficiency = service.NewProficiencyService(db, f.grammarRepo, f.proficiencyRepo, f.mistakeRepo, f.statRepo)
	return f
}

func (f *fixture) grammarService(gen service.Generator) *service.GrammarService {
	return service.NewGrammarService(f.db, f.grammarRepo, f.exerciseRepo, f.mistakeRepo, f.proficiencyRepo, f.proficiency, gen)
}

func (f *fixture) dialogueService(gen service.Generator) *service.DialogueService {
	return service.NewDialogueService(f.db, f.dialogueRepo, f.statRepo, gen)
}

func (f *fixture) statsService(storage *service.StorageService, archive bool) *service.StatsService {
	return service.NewStatsService(f.statRepo, f.proficiencyRepo, f.mistakeRepo, f.dialogueRepo, storage, archive)
}
