package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOpenAIProvider(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = server.URL + "/v1"
	return &OpenAIProvider{
		client: openai.NewClientWithConfig(cfg),
		model:  "gpt-4o-mini",
	}
}

func writeOpenAIError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"type": "error", "message": message},
	})
}

func TestOpenAIProvider_StructuredOutput(t *testing.T) {
	var body map[string]any
	p := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeCompletion(w, `{"correct":true,"reason":"自然な表現です"}`)
	})

	resp, err := p.Generate(context.Background(), Request{
		System:    "採点者",
		Messages:  []Message{{Role: RoleUser, Content: "私は学生です"}},
		Schema:    answerSchema,
		MaxTokens: 128,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"correct":true,"reason":"自然な表現です"}`, string(resp.Content))
	assert.Equal(t, 12, resp.Usage.InputTokens)
	assert.Equal(t, 8, resp.Usage.OutputTokens)
	assert.Equal(t, "end", resp.StopReason)

	format, ok := body["response_format"].(map[string]any)
	require.True(t, ok, "response_format missing: %v", body)
	assert.Equal(t, "json_schema", format["type"])
	js, ok := format["json_schema"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "test_answer", js["name"])
	// 可选字段依赖非 strict 模式
	assert.NotEqual(t, true, js["strict"])

	msgs, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
}

func TestOpenAIProvider_PlainText(t *testing.T) {
	var body map[string]any
	p := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeCompletion(w, "いらっしゃいませ")
	})

	resp, err := p.Generate(context.Background(), Request{
		Messages: []Message{
			{Role: RoleUser, Content: "こんにちは"},
			{Role: RoleAssistant, Content: "こんにちは！"},
			{Role: RoleUser, Content: "コーヒーをください"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, `"いらっしゃいませ"`, string(resp.Content))
	assert.Equal(t, "いらっしゃいませ", resp.Text())

	_, hasFormat := body["response_format"]
	assert.False(t, hasFormat)
	msgs := body["messages"].([]any)
	require.Len(t, msgs, 3)
	assert.Equal(t, "assistant", msgs[1].(map[string]any)["role"])
}

func TestOpenAIProvider_InvalidJSON(t *testing.T) {
	p := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		writeCompletion(w, "すみません")
	})

	_, err := p.Generate(context.Background(), Request{Schema: answerSchema})
	var invalid *ErrInvalidResponse
	require.True(t, errors.As(err, &invalid), "got %v", err)
}

func TestOpenAIProvider_MaxTokens(t *testing.T) {
	p := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model": "gpt-4o-mini",
			"choices": []map[string]any{{
				"message":       map[string]any{"role": "assistant", "content": "途中で"},
				"finish_reason": "length",
			}},
		})
	})

	resp, err := p.Generate(context.Background(), Request{MaxTokens: 4})
	require.NoError(t, err)
	assert.Equal(t, "max_tokens", resp.StopReason)
}

func TestOpenAIProvider_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(t *testing.T, err error)
	}{
		{"rate limit", http.StatusTooManyRequests, func(t *testing.T, err error) {
			var rl *ErrRateLimit
			assert.True(t, errors.As(err, &rl), "got %T", err)
		}},
		{"server error", http.StatusInternalServerError, func(t *testing.T, err error) {
			var unavail *ErrProviderUnavailable
			assert.True(t, errors.As(err, &unavail), "got %T", err)
		}},
		{"bad request", http.StatusBadRequest, func(t *testing.T, err error) {
			var rejected *ErrRequestRejected
			require.True(t, errors.As(err, &rejected), "got %T", err)
			assert.Equal(t, http.StatusBadRequest, rejected.StatusCode)
			assert.Contains(t, rejected.Body, "max_tokens")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
				writeOpenAIError(w, tt.status, "max_tokens is too large")
			})
			_, err := p.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "test"}}})
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestOpenAIProvider_ContextDeadline(t *testing.T) {
	p := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := p.Generate(ctx, Request{Messages: []Message{{Role: RoleUser, Content: "test"}}})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	var unavail *ErrProviderUnavailable
	assert.False(t, errors.As(err, &unavail))
}

func TestOpenAIProvider_ModelID(t *testing.T) {
	p, err := NewOpenAIProvider("test-key", "", "gpt-4o")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", p.ModelID())

	_, err = NewOpenAIProvider("", "", "gpt-4o")
	assert.Error(t, err)
}
