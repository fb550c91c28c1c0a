package service

import (
	"context"

	"github.com/EthanMiao/manaboo/internal/model"
)

//go:generate mockgen -source=generator.go -destination=../mocks/service/mock_generator.go -package=mock_service

// Generator 题目生成、判题、对话和纠错。实现方负责兜底，调用方不处理错误
type Generator interface {
	GenerateExercises(ctx context.Context, req ExerciseRequest) []GeneratedExercise
	CheckAnswer(ctx context.Context, req CheckAnswerRequest) AnswerCheck
	DialogueTurn(ctx context.Context, req DialogueTurnRequest) string
	CorrectSentence(ctx context.Context, message string) SentenceCorrection
}

type ExerciseRequest struct {
	GrammarTitle string
	Type         model.ExerciseType
}

type GeneratedExercise struct {
	Question      string   `json:"question"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
	Options       []string `json:"options,omitempty"`
}

type CheckAnswerRequest struct {
	GrammarTitle string
	Submitted    string
	Expected     string
}

const (
	ResultCorrect   = "correct"
	ResultIncorrect = "incorrect"
)

type AnswerCheck struct {
	Result      string `json:"result"`
	Explanation string `json:"explanation"`
	Suggestion  string `json:"suggestion,omitempty"`
}

func (a AnswerCheck) IsCorrect() bool {
	return a.Result == ResultCorrect
}

type DialogueTurnRequest struct {
	ScenarioName string
	// History 最多最近 5 轮，按时间顺序
	History []model.Turn
	Message string
}

type SentenceCorrection struct {
	Corrected   string `json:"corrected"`
	Explanation string `json:"explanation"`
	Translation string `json:"zh"`
}
