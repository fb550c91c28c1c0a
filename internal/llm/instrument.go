package llm

import (
	"context"
	"errors"
	"time"

	"github.com/EthanMiao/manaboo/pkg/logger"
	"github.com/EthanMiao/manaboo/pkg/monitoring"
	"go.uber.org/zap"
)

// instrumentedProvider 每次底层调用记录日志和指标
type instrumentedProvider struct {
	inner    Provider
	provider string
}

func WithInstrumentation(p Provider, providerName string) Provider {
	return &instrumentedProvider{inner: p, provider: providerName}
}

func (i *instrumentedProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	purpose := PurposeFrom(ctx)

	resp, err := i.inner.Generate(ctx, req)

	elapsed := time.Since(start)
	outcome := outcomeOf(err)
	monitoring.LLMRequests.WithLabelValues(purpose, i.provider, outcome).Inc()
	monitoring.LLMDuration.WithLabelValues(purpose, i.provider).Observe(elapsed.Seconds())

	fields := []zap.Field{
		zap.String("purpose", purpose),
		zap.String("provider", i.provider),
		zap.String("model", i.inner.ModelID()),
		zap.Duration("latency", elapsed),
		zap.String("outcome", outcome),
	}

	if err != nil {
		logger.Log.Warn("生成请求失败", append(fields, zap.Error(err))...)
		return nil, err
	}

	monitoring.LLMTokens.WithLabelValues(i.provider, "input").Add(float64(resp.Usage.InputTokens))
	monitoring.LLMTokens.WithLabelValues(i.provider, "output").Add(float64(resp.Usage.OutputTokens))
	logger.Log.Debug("生成请求完成", append(fields,
		zap.Int("input_tokens", resp.Usage.InputTokens),
		zap.Int("output_tokens", resp.Usage.OutputTokens),
	)...)
	return resp, nil
}

func (i *instrumentedProvider) ModelID() string {
	return i.inner.ModelID()
}

func outcomeOf(err error) string {
	if err == nil {
		return "success"
	}

	var (
		rateLimit   *ErrRateLimit
		invalid     *ErrInvalidResponse
		unavailable *ErrProviderUnavailable
		rejected    *ErrRequestRejected
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.As(err, &rateLimit):
		return "rate_limited"
	case errors.As(err, &invalid):
		return "invalid_response"
	case errors.As(err, &unavailable):
		return "unavailable"
	case errors.As(err, &rejected):
		return "rejected"
	}
	return "error"
}
