package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/EthanMiao/manaboo/internal/config"
	"github.com/EthanMiao/manaboo/internal/llm"
	"github.com/EthanMiao/manaboo/internal/model"
	"github.com/EthanMiao/manaboo/pkg/logger"
	"github.com/EthanMiao/manaboo/pkg/monitoring"
	"go.uber.org/zap"
)

const (
	teacherSystemPrompt = "你是日语教师。始终只输出合法的 JSON。"

	fallbackDialogueReply   = "すみません、もう一度お願いします。"
	fallbackCorrectionNote  = "无法检查该句子"
	fallbackTranslationNote = "无法翻译"

	exercisesPerRequest = 3
)

var exerciseSchema = &llm.Schema{
	Name:        "generated_exercises",
	Description: "日语语法练习题",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"question":       map[string]any{"type": "string", "minLength": 1},
						"correct_answer": map[string]any{"type": "string", "minLength": 1},
						"explanation":    map[string]any{"type": "string"},
						// 非选择题时模型常返回 null
						"options": map[string]any{
							"type":  []string{"array", "null"},
							"items": map[string]any{"type": "string"},
						},
					},
					"required":             []string{"question", "correct_answer", "explanation"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []string{"questions"},
		"additionalProperties": false,
	},
}

var answerCheckSchema = &llm.Schema{
	Name:        "answer_check",
	Description: "判题结果",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"result":      map[string]any{"type": "string", "enum": []string{ResultCorrect, ResultIncorrect}},
			"explanation": map[string]any{"type": "string"},
			"suggestion":  map[string]any{"type": []string{"string", "null"}},
		},
		"required":             []string{"result", "explanation"},
		"additionalProperties": false,
	},
}

var correctionSchema = &llm.Schema{
	Name:        "sentence_correction",
	Description: "日语句子纠错",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"corrected":   map[string]any{"type": "string", "minLength": 1},
			"explanation": map[string]any{"type": "string"},
			"zh":          map[string]any{"type": "string"},
		},
		"required":             []string{"corrected", "explanation", "zh"},
		"additionalProperties": false,
	},
}

// AIService 基于 llm.Provider 实现 Generator，任何失败都返回确定的兜底结果
type AIService struct {
	provider  llm.Provider
	maxTokens int
	timeout   atomic.Int64
}

func NewAIService(provider llm.Provider, cfg config.AIConfig) *AIService {
	s := &AIService{provider: provider, maxTokens: cfg.MaxTokens}
	s.SetTimeout(cfg.Timeout)
	return s
}

// SetTimeout 配置热更新时调整单次调用的超时
func (s *AIService) SetTimeout(d time.Duration) {
	if d <= 0 {
		d = 30 * time.Second
	}
	s.timeout.Store(int64(d))
}

func (s *AIService) Timeout() time.Duration {
	return time.Duration(s.timeout.Load())
}

func (s *AIService) GenerateExercises(ctx context.Context, req ExerciseRequest) []GeneratedExercise {
	prompt := fmt.Sprintf(`你是日语教师，请为语法「%s」生成 %d 道 %s 练习题。
输出 JSON 对象 {"questions": [...]}，每道题包括：
- 题目内容 (question)
- 正确答案 (correct_answer)
- 中文解析 (explanation)
- 3 个干扰项 (options)（仅当题型为 choice 时，options 包含正确答案和干扰项）`,
		req.GrammarTitle, exercisesPerRequest, req.Type)

	var out struct {
		Questions []GeneratedExercise `json:"questions"`
	}
	err := s.generate(ctx, "exercise", llm.Request{
		System:      teacherSystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		Schema:      exerciseSchema,
		Temperature: 0.7,
	}, &out)
	if err != nil || len(out.Questions) == 0 {
		s.fallback("exercise", err, zap.String("grammar", req.GrammarTitle), zap.String("type", string(req.Type)))
		return fallbackExercises(req.GrammarTitle, req.Type)
	}
	return out.Questions
}

func (s *AIService) CheckAnswer(ctx context.Context, req CheckAnswerRequest) AnswerCheck {
	prompt := fmt.Sprintf(`以下是用户提交的回答，请判断正误并用中文解释：
- 语法点：「%s」
- 用户作答：「%s」
- 正确答案：「%s」

输出 JSON，包含：
- result: 判断结果（correct/incorrect）
- explanation: 中文解释
- suggestion: 建议改写（仅在错误时给出）`,
		req.GrammarTitle, req.Submitted, req.Expected)

	var out AnswerCheck
	err := s.generate(ctx, "check_answer", llm.Request{
		System:      teacherSystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		Schema:      answerCheckSchema,
		Temperature: 0.5,
	}, &out)
	if err != nil {
		s.fallback("check_answer", err, zap.String("grammar", req.GrammarTitle))
		return FallbackCheck(req.Submitted, req.Expected)
	}
	return out
}

func (s *AIService) DialogueTurn(ctx context.Context, req DialogueTurnRequest) string {
	system := fmt.Sprintf("你正在进行%s场景的日语对话练习。请用自然的日语回复用户，并保持对话连贯。", req.ScenarioName)

	messages := make([]llm.Message, 0, len(req.History)+1)
	for _, t := range req.History {
		role := llm.RoleUser
		if t.Role == model.RoleAssistant {
			role = llm.RoleAssistant
		}
		messages = append(messages, llm.Message{Role: role, Content: t.Text})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: req.Message})

	resp, err := s.call(ctx, "dialogue", llm.Request{
		System:      system,
		Messages:    messages,
		Temperature: 0.8,
	})
	if err != nil {
		s.fallback("dialogue", err, zap.String("scenario", req.ScenarioName))
		return fallbackDialogueReply
	}

	reply := strings.TrimSpace(resp.Text())
	if reply == "" {
		s.fallback("dialogue", fmt.Errorf("empty reply"), zap.String("scenario", req.ScenarioName))
		return fallbackDialogueReply
	}
	return reply
}

func (s *AIService) CorrectSentence(ctx context.Context, message string) SentenceCorrection {
	prompt := fmt.Sprintf(`请检查这句日语是否自然，有无语法错误、表达不自然的地方。
提供更自然的表达、解释原因，并翻译为中文。句子本身没有问题时 corrected 原样返回。
句子：「%s」

输出 JSON：
- corrected: 修正后的句子
- explanation: 错误说明
- zh: 中文翻译`, message)

	var out SentenceCorrection
	err := s.generate(ctx, "correction", llm.Request{
		System:      teacherSystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		Schema:      correctionSchema,
		Temperature: 0.5,
	}, &out)
	if err != nil {
		s.fallback("correction", err)
		return SentenceCorrection{
			Corrected:   message,
			Explanation: fallbackCorrectionNote,
			Translation: fallbackTranslationNote,
		}
	}
	return out
}

// generate 结构化调用并解码到 out
func (s *AIService) generate(ctx context.Context, purpose string, req llm.Request, out any) error {
	resp, err := s.call(ctx, purpose, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Content, out); err != nil {
		return &llm.ErrInvalidResponse{Content: resp.Content, Err: err}
	}
	return nil
}

// call 整个调用（含重试）共用一个超时
func (s *AIService) call(ctx context.Context, purpose string, req llm.Request) (*llm.Response, error) {
	ctx, cancel := context.WithTimeout(llm.WithPurpose(ctx, purpose), s.Timeout())
	defer cancel()

	if req.MaxTokens == 0 {
		req.MaxTokens = s.maxTokens
	}
	return s.provider.Generate(ctx, req)
}

func (s *AIService) fallback(kind string, err error, fields ...zap.Field) {
	monitoring.LLMFallbacks.WithLabelValues(kind).Inc()
	logger.Log.Warn("生成失败，使用兜底结果",
		append([]zap.Field{zap.String("kind", kind), zap.Error(err)}, fields...)...)
}

// FallbackCheck 去掉首尾空白后逐字比较
func FallbackCheck(submitted, expected string) AnswerCheck {
	if strings.TrimSpace(submitted) == strings.TrimSpace(expected) {
		return AnswerCheck{Result: ResultCorrect, Explanation: "答案正确！"}
	}
	return AnswerCheck{
		Result:      ResultIncorrect,
		Explanation: "正确答案是：" + expected,
		Suggestion:  expected,
	}
}

func fallbackExercises(grammar string, t model.ExerciseType) []GeneratedExercise {
	switch t {
	case model.ExerciseChoice:
		return []GeneratedExercise{{
			Question:      "次の文の（　）に入る正しいものを選びなさい。\n昨日は雨（　）、試合は中止になった。",
			Options:       []string{"だから", "でも", "それで", "のに"},
			CorrectAnswer: "だから",
			Explanation:   fmt.Sprintf("「%s」は原因・理由を表す接続詞です。", grammar),
		}}
	case model.ExerciseFillBlank:
		return []GeneratedExercise{{
			Question:      fmt.Sprintf("次の文の（　）に「%s」を使って適切な形を入れなさい。", grammar),
			CorrectAnswer: grammar,
			Explanation:   fmt.Sprintf("「%s」の基本的な使い方です。", grammar),
		}}
	default:
		return []GeneratedExercise{{
			Question:      fmt.Sprintf("「%s」を使って文を作りなさい。", grammar),
			CorrectAnswer: "（例文）",
			Explanation:   fmt.Sprintf("「%s」を使った例文を作成してください。", grammar),
		}}
	}
}
