package llm

import (
	"context"
	"fmt"

	"github.com/EthanMiao/manaboo/internal/config"
)

// NewProvider 按配置创建提供方，调用链为 重试 → 埋点 → 具体实现
func NewProvider(ctx context.Context, cfg config.AIConfig) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case "compatible":
		base, err = NewCompatibleProvider(cfg.BaseURL, cfg.APIKey, cfg.Model)
	case "openai":
		base, err = NewOpenAIProvider(cfg.APIKey, cfg.BaseURL, cfg.Model)
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.APIKey, cfg.BaseURL, cfg.Model)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.APIKey, cfg.BaseURL, cfg.Model)
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown generation provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	return WithRetry(WithInstrumentation(base, cfg.Provider), cfg.Retry), nil
}
