package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"resty.dev/v3"
)

// CompatibleProvider 任意 OpenAI 兼容的 /chat/completions 接口
type CompatibleProvider struct {
	httpClient *resty.Client
	model      string
}

func NewCompatibleProvider(baseURL, apiKey, model string) (*CompatibleProvider, error) {
	if baseURL == "" {
		return nil, errors.New("base url is required")
	}
	if model == "" {
		return nil, errors.New("model is required")
	}

	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetHeader("Content-Type", "application/json")
	if apiKey != "" {
		client.SetHeader("Authorization", "Bearer "+apiKey)
	}

	return &CompatibleProvider{httpClient: client, model: model}, nil
}

func (p *CompatibleProvider) Close() error {
	return p.httpClient.Close()
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    float64         `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatCompletionResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

func (p *CompatibleProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	body, err := p.buildRequest(req)
	if err != nil {
		return nil, err
	}

	resp, err := p.httpClient.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&chatCompletionResponse{}).
		Post("/chat/completions")
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &ErrProviderUnavailable{Err: err}
	}
	if resp.IsError() {
		return nil, mapStatusError(resp.StatusCode(), resp.Header().Get("Retry-After"), resp.String())
	}

	result, ok := resp.Result().(*chatCompletionResponse)
	if !ok || result == nil || len(result.Choices) == 0 {
		return nil, &ErrInvalidResponse{Err: fmt.Errorf("no choices in response: %s", resp.String())}
	}

	choice := result.Choices[0]
	content := json.RawMessage(choice.Message.Content)
	if req.Schema != nil {
		if err := validateResponse(req.Schema, content); err != nil {
			return nil, err
		}
	} else {
		content = textContent(choice.Message.Content)
	}

	stop := "end"
	if choice.FinishReason == "length" {
		stop = "max_tokens"
	}
	return &Response{
		Content: content,
		Usage: Usage{
			InputTokens:  result.Usage.PromptTokens,
			OutputTokens: result.Usage.CompletionTokens,
			TotalTokens:  result.Usage.TotalTokens,
		},
		Model:      result.Model,
		StopReason: stop,
	}, nil
}

func (p *CompatibleProvider) ModelID() string {
	return p.model
}

func (p *CompatibleProvider) buildRequest(req Request) (chatCompletionRequest, error) {
	system := req.System
	var format *responseFormat
	if req.Schema != nil {
		// 兼容接口不一定支持 json_schema，把 schema 写进系统提示并要求 JSON 输出
		schemaBytes, err := json.Marshal(req.Schema.Definition)
		if err != nil {
			return chatCompletionRequest{}, fmt.Errorf("marshal schema: %w", err)
		}
		system += "\n\n只输出符合以下 JSON Schema 的 JSON 对象，不要输出其他内容：\n" + string(schemaBytes)
		format = &responseFormat{Type: "json_object"}
	}

	messages := make([]chatMessage, 0, len(req.Messages)+1)
	if system != "" {
		messages = append(messages, chatMessage{Role: "system", Content: system})
	}
	for _, m := range req.Messages {
		messages = append(messages, chatMessage{Role: string(m.Role), Content: m.Content})
	}

	return chatCompletionRequest{
		Model:          p.model,
		Messages:       messages,
		MaxTokens:      req.MaxTokens,
		Temperature:    req.Temperature,
		ResponseFormat: format,
	}, nil
}

func mapStatusError(status int, retryAfter, body string) error {
	switch {
	case status == http.StatusTooManyRequests:
		wait := time.Duration(0)
		if secs, err := strconv.Atoi(retryAfter); err == nil && secs > 0 {
			wait = time.Duration(secs) * time.Second
		}
		return &ErrRateLimit{RetryAfter: wait, Err: fmt.Errorf("status %d: %s", status, body)}
	case status >= 500:
		return &ErrProviderUnavailable{Err: fmt.Errorf("status %d: %s", status, body)}
	default:
		return &ErrRequestRejected{StatusCode: status, Body: body}
	}
}
