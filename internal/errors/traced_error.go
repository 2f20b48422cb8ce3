package errors

import (
	"runtime/debug"
	"time"
)

// TracedError 带追踪信息的错误
type TracedError struct {
	*AppError
	Stack     string
	Labels    map[string]string
	Timestamp time.Time
	Context   ErrorContext
}

// ErrorContext 错误上下文信息
type ErrorContext struct {
	RequestID string
	UserID    string
	Path      string
	Method    string
	Timestamp time.Time
}

// NewTracedError 创建带追踪信息的错误
func NewTracedError(err error, ctx ErrorContext) *TracedError {
	appErr, ok := As(err)
	if !ok {
		appErr = &AppError{
			Code:    ErrInternal,
			Message: err.Error(),
			Err:     err,
		}
	}

	traced := &TracedError{
		AppError:  appErr,
		Labels:    make(map[string]string),
		Timestamp: time.Now(),
		Context:   ctx,
	}
	// 只有内部错误需要堆栈
	if IsTransient(appErr) {
		traced.Stack = string(debug.Stack())
	}
	return traced
}

// AddLabel 添加标签
func (e *TracedError) AddLabel(key, value string) *TracedError {
	e.Labels[key] = value
	return e
}
