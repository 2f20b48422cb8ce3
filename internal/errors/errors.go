package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode 定义错误码类型
type ErrorCode int

// 定义系统级错误码 (1000-1999)
const (
	ErrInternal ErrorCode = 1000 + iota
	ErrDatabase
	ErrUnavailable
	ErrTimeout
)

// 定义认证相关错误码 (2000-2999)
const (
	ErrUnauthorized ErrorCode = 2000 + iota
	ErrForbidden
	ErrInvalidToken
	ErrTokenExpired
	ErrInvalidCredentials
)

// 定义请求相关错误码 (3000-3999)
const (
	ErrBadRequest ErrorCode = 3000 + iota
	ErrValidation
	ErrResourceNotFound
	ErrResourceExists
	ErrResourceConflict
)

// 定义业务相关错误码 (4000-4999)
const (
	ErrUserExists ErrorCode = 4000 + iota
	ErrAlreadyVoted
	ErrAlreadyAnswered
	ErrStoryTurn
	ErrStoryRace
	ErrEditWindowClosed
	ErrExpired
	ErrNotMember
)

// 冲突类错误对用户展示的固定文案
const (
	MsgAlreadyVoted    = "You have already voted on this poll."
	MsgAlreadyAnswered = "You have already answered this question."
	MsgStoryTurn       = "Wait for someone else to add the next sentence."
	MsgStoryRace       = "Someone just added a sentence — try again."
	MsgEditWindow      = "The edit window for this content has closed."
	MsgGeneric         = "Something went wrong. Please try again."
)

// AppError 定义应用错误结构
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New 创建新的应用错误
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装已有错误
func Wrap(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// As 从错误链中取出 AppError
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// CodeOf 获取错误码，非 AppError 一律视为内部错误
func CodeOf(err error) ErrorCode {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return ErrInternal
}

// Is 判断错误链中是否包含指定错误码
func Is(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// IsConflict 唯一约束冲突类错误
func IsConflict(err error) bool {
	switch CodeOf(err) {
	case ErrAlreadyVoted, ErrAlreadyAnswered, ErrStoryRace, ErrResourceExists, ErrResourceConflict, ErrUserExists:
		return true
	}
	return false
}

// IsTransient 网络或服务端故障，可由用户手动重试
func IsTransient(err error) bool {
	switch CodeOf(err) {
	case ErrInternal, ErrDatabase, ErrUnavailable, ErrTimeout:
		return true
	}
	return false
}

// UserMessage 把任意错误转换成可以直接展示给用户的文案
func UserMessage(err error) string {
	appErr, ok := As(err)
	if !ok {
		return MsgGeneric
	}
	switch appErr.Code {
	case ErrAlreadyVoted:
		return MsgAlreadyVoted
	case ErrAlreadyAnswered:
		return MsgAlreadyAnswered
	case ErrStoryRace:
		return MsgStoryRace
	case ErrStoryTurn:
		return MsgStoryTurn
	case ErrEditWindowClosed:
		return MsgEditWindow
	case ErrUnauthorized, ErrForbidden, ErrInvalidToken, ErrTokenExpired:
		return "Unauthorized"
	}
	if IsTransient(appErr) || appErr.Message == "" {
		return MsgGeneric
	}
	return appErr.Message
}
