// Package llm 封装文本生成服务。调用方只依赖 Provider，具体厂商由配置决定
package llm

import (
	"context"
	"encoding/json"
)

// Provider 一次结构化生成调用
type Provider interface {
	// Generate 请求带 Schema 时，返回的 Content 已经过 schema 校验
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID 实际使用的模型名
	ModelID() string
}

type Request struct {
	System   string
	Messages []Message

	// Schema 为 nil 时 Content 为纯文本（JSON 字符串编码）
	Schema *Schema

	MaxTokens   int
	Temperature float64
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role
	Content string
}

// Schema 期望的 JSON 结构，Name 同时用作编译缓存的键
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

type Response struct {
	Content    json.RawMessage
	Usage      Usage
	Model      string
	StopReason string
}

type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Text 纯文本响应的内容
func (r *Response) Text() string {
	var s string
	if err := json.Unmarshal(r.Content, &s); err == nil {
		return s
	}
	return string(r.Content)
}

// textContent 把纯文本包装成 JSON 字符串
func textContent(s string) json.RawMessage {
	b, _ := json.Marshal(s)
	return b
}
