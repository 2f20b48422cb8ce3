package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorBody 统一的错误结构 {"error": {"code", "message"}}
type ErrorBody struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// ErrorResponse 定义错误响应结构
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// SuccessResponse 定义成功响应结构
type SuccessResponse struct {
	Data    interface{} `json:"data"`
	Message string      `json:"message,omitempty"`
}

// 错误码与HTTP状态码映射
var errorStatusMap = map[ErrorCode]int{
	// 系统错误 (1000-1999)
	ErrInternal:    http.StatusInternalServerError,
	ErrDatabase:    http.StatusInternalServerError,
	ErrUnavailable: http.StatusServiceUnavailable,
	ErrTimeout:     http.StatusRequestTimeout,

	// 认证错误 (2000-2999)
	ErrUnauthorized:       http.StatusUnauthorized,
	ErrForbidden:          http.StatusForbidden,
	ErrInvalidToken:       http.StatusUnauthorized,
	ErrTokenExpired:       http.StatusUnauthorized,
	ErrInvalidCredentials: http.StatusUnauthorized,

	// 请求错误 (3000-3999)
	ErrBadRequest:       http.StatusBadRequest,
	ErrValidation:       http.StatusBadRequest,
	ErrResourceNotFound: http.StatusNotFound,
	ErrResourceExists:   http.StatusConflict,
	ErrResourceConflict: http.StatusConflict,

	// 业务错误 (4000-4999)
	ErrUserExists:       http.StatusConflict,
	ErrAlreadyVoted:     http.StatusConflict,
	ErrAlreadyAnswered:  http.StatusConflict,
	ErrStoryTurn:        http.StatusConflict,
	ErrStoryRace:        http.StatusConflict,
	ErrEditWindowClosed: http.StatusForbidden,
	ErrExpired:          http.StatusNotFound,
	ErrNotMember:        http.StatusForbidden,
}

// StatusOf 错误码对应的HTTP状态码
func StatusOf(code ErrorCode) int {
	if status, ok := errorStatusMap[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// HandleError 统一处理错误响应
// 内部错误的细节只记录在日志中，不返回给客户端
func HandleError(c *gin.Context, err error) {
	_ = c.Error(err)

	appErr, ok := As(err)
	if !ok {
		appErr = Wrap(ErrInternal, MsgGeneric, err)
	}

	message := appErr.Message
	if IsTransient(appErr) {
		message = MsgGeneric
	}

	c.JSON(StatusOf(appErr.Code), ErrorResponse{
		Error: ErrorBody{
			Code:    appErr.Code,
			Message: message,
		},
	})
}

// HandleSuccess 统一处理成功响应
func HandleSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, SuccessResponse{Data: data})
}
