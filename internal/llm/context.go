package llm

import "context"

type contextKey string

const purposeKey contextKey = "llm_purpose"

// WithPurpose 标记调用用途，用于日志和指标
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey, purpose)
}

func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey).(string); ok {
		return v
	}
	return "unknown"
}
