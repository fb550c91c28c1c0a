package llm

import (
	"context"
	"errors"
	"time"

	"github.com/avast/retry-go"

	"github.com/EthanMiao/manaboo/internal/config"
)

// retryProvider 对临时错误做指数退避重试，整体仍受 ctx 截止时间约束
type retryProvider struct {
	inner  Provider
	config config.RetryConfig
}

func WithRetry(p Provider, cfg config.RetryConfig) Provider {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &retryProvider{inner: p, config: cfg}
}

func (r *retryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	var resp *Response
	invalidRetried := false

	err := retry.Do(
		func() error {
			out, err := r.inner.Generate(ctx, req)
			if err != nil {
				return err
			}
			resp = out
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(r.config.MaxAttempts)),
		retry.Delay(r.config.InitialWait),
		retry.MaxDelay(r.config.MaxWait),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return shouldRetry(err, &invalidRetried)
		}),
		retry.DelayType(func(n uint, err error, rc *retry.Config) time.Duration {
			var rl *ErrRateLimit
			if errors.As(err, &rl) && rl.RetryAfter > 0 {
				return rl.RetryAfter
			}
			return retry.BackOffDelay(n, err, rc)
		}),
	)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (r *retryProvider) ModelID() string {
	return r.inner.ModelID()
}

func shouldRetry(err error, invalidRetried *bool) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var rejected *ErrRequestRejected
	if errors.As(err, &rejected) {
		return false
	}

	// 格式错误只再试一次
	var invalid *ErrInvalidResponse
	if errors.As(err, &invalid) {
		if *invalidRetried {
			return false
		}
		*invalidRetried = true
		return true
	}

	// 限流、不可用以及其他网络错误都视为临时错误
	return true
}
