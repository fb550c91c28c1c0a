package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EthanMiao/manaboo/internal/config"
	"github.com/EthanMiao/manaboo/internal/llm"
	"github.com/EthanMiao/manaboo/internal/model"
	"github.com/EthanMiao/manaboo/internal/service"
)

func aiConfig() config.AIConfig {
	return config.AIConfig{Provider: "mock", Model: "mock", Timeout: time.Second, MaxTokens: 512}
}

func down() llm.MockResponse {
	return llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("connection refused")}}
}

func TestCheckAnswer_UsesProviderVerdict(t *testing.T) {
	provider := llm.NewMockProvider(llm.MockResponse{
		Content: json.RawMessage(`{"result":"incorrect","explanation":"主题要用「は」","suggestion":"私は学生です"}`),
	})
	svc := service.NewAIService(provider, aiConfig())

	check := svc.CheckAnswer(context.Background(), service.CheckAnswerRequest{
		GrammarTitle: "～は～です",
		Submitted:    "私が学生です",
		Expected:     "私は学生です",
	})
	assert.Equal(t, service.AnswerCheck{
		Result:      service.ResultIncorrect,
		Explanation: "主题要用「は」",
		Suggestion:  "私は学生です",
	}, check)

	require.Equal(t, 1, provider.CallCount())
	req := provider.Calls[0]
	require.NotNil(t, req.Schema)
	assert.Equal(t, 512, req.MaxTokens)
	assert.Contains(t, req.Messages[0].Content, "私が学生です")
}

func TestCheckAnswer_FallbackIsDeterministic(t *testing.T) {
	tests := []struct {
		name      string
		submitted string
		expected  string
		want      service.AnswerCheck
	}{
		{
			name:      "exact match",
			submitted: "私は学生です",
			expected:  "私は学生です",
			want:      service.AnswerCheck{Result: service.ResultCorrect, Explanation: "答案正确！"},
		},
		{
			name:      "surrounding whitespace ignored",
			submitted: "  だから\n",
			expected:  "だから",
			want:      service.AnswerCheck{Result: service.ResultCorrect, Explanation: "答案正确！"},
		},
		{
			name:      "mismatch",
			submitted: "でも",
			expected:  "だから",
			want: service.AnswerCheck{
				Result:      service.ResultIncorrect,
				Explanation: "正确答案是：だから",
				Suggestion:  "だから",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := service.NewAIService(llm.NewMockProvider(down(), down()), aiConfig())
			req := service.CheckAnswerRequest{GrammarTitle: "～から", Submitted: tt.submitted, Expected: tt.expected}

			first := svc.CheckAnswer(context.Background(), req)
			second := svc.CheckAnswer(context.Background(), req)
			assert.Equal(t, tt.want, first)
			assert.Equal(t, first, second)
			assert.Equal(t, tt.want, service.FallbackCheck(tt.submitted, tt.expected))
		})
	}
}

func TestCheckAnswer_ExtraFieldFallsBack(t *testing.T) {
	provider := llm.NewMockProvider(llm.MockResponse{
		Content: json.RawMessage(`{"result":"correct","explanation":"ok","score":100}`),
	})
	svc := service.NewAIService(provider, aiConfig())

	check := svc.CheckAnswer(context.Background(), service.CheckAnswerRequest{Submitted: "a", Expected: "b"})
	assert.Equal(t, service.ResultIncorrect, check.Result)
	assert.Equal(t, "b", check.Suggestion)
}

func TestCheckAnswer_NullSuggestionAccepted(t *testing.T) {
	provider := llm.NewMockProvider(llm.MockResponse{
		Content: json.RawMessage(`{"result":"correct","explanation":"表达自然","suggestion":null}`),
	})
	svc := service.NewAIService(provider, aiConfig())

	check := svc.CheckAnswer(context.Background(), service.CheckAnswerRequest{
		GrammarTitle: "～は～です",
		Submitted:    "私は学生です",
		Expected:     "私は先生です",
	})
	assert.Equal(t, service.AnswerCheck{Result: service.ResultCorrect, Explanation: "表达自然"}, check)
	assert.Equal(t, 1, provider.CallCount())
}

func TestGenerateExercises_NullOptionsAccepted(t *testing.T) {
	provider := llm.NewMockProvider(llm.MockResponse{
		Content: json.RawMessage(`{"questions":[{"question":"「～から」を使って文を作りなさい。","correct_answer":"雨だから行かない。","explanation":"原因","options":null}]}`),
	})
	svc := service.NewAIService(provider, aiConfig())

	got := svc.GenerateExercises(context.Background(), service.ExerciseRequest{GrammarTitle: "～から", Type: model.ExerciseSentence})
	require.Len(t, got, 1)
	assert.Equal(t, "雨だから行かない。", got[0].CorrectAnswer)
	assert.Nil(t, got[0].Options)
}

func TestGenerateExercises(t *testing.T) {
	provider := llm.NewMockProvider(llm.MockResponse{
		Content: json.RawMessage(`{"questions":[
			{"question":"雨だ（　）、行かない。","correct_answer":"から","explanation":"原因","options":["から","けど","のに","ので"]},
			{"question":"暑い（　）窓を開けた。","correct_answer":"から","explanation":"原因"}
		]}`),
	})
	svc := service.NewAIService(provider, aiConfig())

	got := svc.GenerateExercises(context.Background(), service.ExerciseRequest{GrammarTitle: "～から", Type: model.ExerciseChoice})
	require.Len(t, got, 2)
	assert.Equal(t, []string{"から", "けど", "のに", "ので"}, got[0].Options)
	assert.Nil(t, got[1].Options)
	assert.Contains(t, provider.Calls[0].Messages[0].Content, "choice")
}

func TestGenerateExercises_FallbackPerType(t *testing.T) {
	tests := []struct {
		typ          model.ExerciseType
		wantQuestion string
		wantAnswer   string
		wantOptions  int
	}{
		{typ: model.ExerciseChoice, wantQuestion: "昨日は雨（　）、試合は中止になった。", wantAnswer: "だから", wantOptions: 4},
		{typ: model.ExerciseFillBlank, wantQuestion: "「～たら」を使って適切な形を入れなさい。", wantAnswer: "～たら"},
		{typ: model.ExerciseSentence, wantQuestion: "「～たら」を使って文を作りなさい。", wantAnswer: "（例文）"},
	}

	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			svc := service.NewAIService(llm.NewMockProvider(down()), aiConfig())

			got := svc.GenerateExercises(context.Background(), service.ExerciseRequest{GrammarTitle: "～たら", Type: tt.typ})
			require.Len(t, got, 1)
			assert.Contains(t, got[0].Question, tt.wantQuestion)
			assert.Equal(t, tt.wantAnswer, got[0].CorrectAnswer)
			assert.Len(t, got[0].Options, tt.wantOptions)
		})
	}
}

func TestGenerateExercises_EmptyListFallsBack(t *testing.T) {
	svc := service.NewAIService(llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`{"questions":[]}`)}), aiConfig())

	got := svc.GenerateExercises(context.Background(), service.ExerciseRequest{GrammarTitle: "～たい", Type: model.ExerciseSentence})
	require.Len(t, got, 1)
	assert.Equal(t, "（例文）", got[0].CorrectAnswer)
}

func TestDialogueTurn(t *testing.T) {
	provider := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`"いらっしゃいませ。"`)})
	svc := service.NewAIService(provider, aiConfig())

	reply := svc.DialogueTurn(context.Background(), service.DialogueTurnRequest{
		ScenarioName: "购物",
		History: []model.Turn{
			{Role: model.RoleUser, Text: "こんにちは"},
			{Role: model.RoleAssistant, Text: "こんにちは！"},
		},
		Message: "これはいくらですか",
	})
	assert.Equal(t, "いらっしゃいませ。", reply)

	req := provider.Calls[0]
	assert.Nil(t, req.Schema)
	assert.Contains(t, req.System, "购物")
	assert.Equal(t, []llm.Message{
		{Role: llm.RoleUser, Content: "こんにちは"},
		{Role: llm.RoleAssistant, Content: "こんにちは！"},
		{Role: llm.RoleUser, Content: "これはいくらですか"},
	}, req.Messages)
}

func TestDialogueTurn_Fallback(t *testing.T) {
	svc := service.NewAIService(llm.NewMockProvider(down()), aiConfig())
	assert.Equal(t, "すみません、もう一度お願いします。", svc.DialogueTurn(context.Background(), service.DialogueTurnRequest{Message: "はい"}))

	blank := service.NewAIService(llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`"  "`)}), aiConfig())
	assert.Equal(t, "すみません、もう一度お願いします。", blank.DialogueTurn(context.Background(), service.DialogueTurnRequest{Message: "はい"}))
}

func TestCorrectSentence(t *testing.T) {
	provider := llm.NewMockProvider(
		llm.MockResponse{Content: json.RawMessage(`{"corrected":"私は学生です","explanation":"助词","zh":"我是学生"}`)},
		down(),
	)
	svc := service.NewAIService(provider, aiConfig())

	got := svc.CorrectSentence(context.Background(), "私が学生です")
	assert.Equal(t, service.SentenceCorrection{Corrected: "私は学生です", Explanation: "助词", Translation: "我是学生"}, got)

	fallback := svc.CorrectSentence(context.Background(), "私が学生です")
	assert.Equal(t, service.SentenceCorrection{
		Corrected:   "私が学生です",
		Explanation: "无法检查该句子",
		Translation: "无法翻译",
	}, fallback)
}

// slowProvider 一直阻塞到 ctx 结束
type slowProvider struct{}

func (slowProvider) Generate(ctx context.Context, _ llm.Request) (*llm.Response, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (slowProvider) ModelID() string { return "slow" }

func TestAIService_TimeoutFallsBack(t *testing.T) {
	svc := service.NewAIService(slowProvider{}, aiConfig())
	svc.SetTimeout(20 * time.Millisecond)
	assert.Equal(t, 20*time.Millisecond, svc.Timeout())

	start := time.Now()
	reply := svc.DialogueTurn(context.Background(), service.DialogueTurnRequest{Message: "もしもし"})
	assert.Equal(t, "すみません、もう一度お願いします。", reply)
	assert.Less(t, time.Since(start), time.Second)

	svc.SetTimeout(0)
	assert.Equal(t, 30*time.Second, svc.Timeout())
}
