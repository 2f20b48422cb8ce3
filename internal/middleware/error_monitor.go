package middleware

import (
	"ankahee-backend/internal/errors"
	"ankahee-backend/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ErrorMonitor struct {
	analytics *errors.ErrorAnalytics
}

func NewErrorMonitor() *ErrorMonitor {
	return &ErrorMonitor{analytics: errors.NewErrorAnalytics()}
}

func (m *ErrorMonitor) Stats() map[string]interface{} {
	return m.analytics.GetStats()
}

func ErrorMonitorMiddleware(monitor *ErrorMonitor) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		for _, e := range c.Errors {
			traced := errors.NewTracedError(e.Err, errors.ErrorContext{
				RequestID: c.GetString(ContextRequestID),
				UserID:    c.GetString(ContextUserID),
				Path:      c.FullPath(),
				Method:    c.Request.Method,
			})
			monitor.analytics.Record(traced)

			fields := []zap.Field{
				zap.Int("error_code", int(traced.Code)),
				zap.String("error_message", traced.Message),
				zap.String("request_id", traced.Context.RequestID),
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
			}
			if errors.IsTransient(traced.AppError) {
				util.Logger.Error("请求处理错误", append(fields, zap.Error(traced.Err), zap.String("stack", traced.Stack))...)
			} else {
				util.Logger.Info("请求被拒绝", fields...)
			}
		}
	}
}
