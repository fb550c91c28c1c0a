package util

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("resource not found")
	ErrValidation = errors.New("validation failed")

	ErrGrammarNotFound  = fmt.Errorf("语法点不存在: %w", ErrNotFound)
	ErrExerciseNotFound = fmt.Errorf("练习题不存在: %w", ErrNotFound)
	ErrMistakeNotFound  = fmt.Errorf("错题记录不存在: %w", ErrNotFound)
	ErrSessionNotFound  = fmt.Errorf("对话会话不存在: %w", ErrNotFound)
)

// ValidationError 携带具体原因，errors.Is(err, ErrValidation) 为真
func ValidationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
