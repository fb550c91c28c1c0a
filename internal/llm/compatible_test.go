package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCompatibleProvider(t *testing.T, handler http.HandlerFunc) *CompatibleProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	p, err := NewCompatibleProvider(server.URL, "test-key", "test-model")
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func writeCompletion(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"model": "test-model",
		"choices": []map[string]any{
			{
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]any{
			"prompt_tokens":     12,
			"completion_tokens": 8,
			"total_tokens":      20,
		},
	})
}

func TestCompatibleProvider_StructuredOutput(t *testing.T) {
	var got chatCompletionRequest
	p := newTestCompatibleProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeCompletion(w, `{"correct":false,"reason":"助詞が違います"}`)
	})

	resp, err := p.Generate(context.Background(), Request{
		System:    "採点者",
		Messages:  []Message{{Role: RoleUser, Content: "私が学生です"}},
		Schema:    answerSchema,
		MaxTokens: 128,
	})
	require.NoError(t, err)

	assert.JSONEq(t, `{"correct":false,"reason":"助詞が違います"}`, string(resp.Content))
	assert.Equal(t, 20, resp.Usage.TotalTokens)
	assert.Equal(t, "end", resp.StopReason)

	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Contains(t, got.Messages[0].Content, `"additionalProperties":false`)
	assert.Equal(t, "test-model", got.Model)
}

func TestCompatibleProvider_PlainText(t *testing.T) {
	var got chatCompletionRequest
	p := newTestCompatibleProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeCompletion(w, "いらっしゃいませ")
	})

	resp, err := p.Generate(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "こんにちは"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "いらっしゃいませ", resp.Text())
	assert.Nil(t, got.ResponseFormat)
	require.Len(t, got.Messages, 1)
}

func TestCompatibleProvider_SchemaMismatch(t *testing.T) {
	p := newTestCompatibleProvider(t, func(w http.ResponseWriter, r *http.Request) {
		writeCompletion(w, `{"reason":"no verdict"}`)
	})

	_, err := p.Generate(context.Background(), Request{Schema: answerSchema})
	var invalid *ErrInvalidResponse
	require.True(t, errors.As(err, &invalid), "got %v", err)
}

func TestCompatibleProvider_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(t *testing.T, err error)
	}{
		{
			name:   "rate limited",
			status: http.StatusTooManyRequests,
			check: func(t *testing.T, err error) {
				var rl *ErrRateLimit
				require.True(t, errors.As(err, &rl))
				assert.Equal(t, 2*time.Second, rl.RetryAfter)
			},
		},
		{
			name:   "server error",
			status: http.StatusBadGateway,
			check: func(t *testing.T, err error) {
				var unavailable *ErrProviderUnavailable
				require.True(t, errors.As(err, &unavailable))
			},
		},
		{
			name:   "rejected",
			status: http.StatusUnauthorized,
			check: func(t *testing.T, err error) {
				var rejected *ErrRequestRejected
				require.True(t, errors.As(err, &rejected))
				assert.Equal(t, http.StatusUnauthorized, rejected.StatusCode)
				assert.Contains(t, rejected.Body, "invalid key")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestCompatibleProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "2")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":{"message":"invalid key"}}`))
			})

			_, err := p.Generate(context.Background(), Request{})
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestCompatibleProvider_NoChoices(t *testing.T) {
	p := newTestCompatibleProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"test-model","choices":[]}`))
	})

	_, err := p.Generate(context.Background(), Request{})
	var invalid *ErrInvalidResponse
	require.True(t, errors.As(err, &invalid))
}

func TestCompatibleProvider_ContextTimeout(t *testing.T) {
	p := newTestCompatibleProvider(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
		writeCompletion(w, "late")
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := p.Generate(ctx, Request{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewCompatibleProvider_RequiresBaseURLAndModel(t *testing.T) {
	_, err := NewCompatibleProvider("", "k", "m")
	assert.Error(t, err)
	_, err = NewCompatibleProvider("http://localhost", "k", "")
	assert.Error(t, err)
}
