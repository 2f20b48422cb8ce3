package middleware

import (
	"context"
	"strings"
	"time"

	"ankahee-backend/internal/errors"
	"ankahee-backend/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// ContextUserID 认证后写入 gin.Context 的用户ID
	ContextUserID = "user_id"
	// ContextToken 当前请求使用的令牌，注销时加入黑名单
	ContextToken = "token"
)

// TokenBlacklist 已注销的令牌
type TokenBlacklist interface {
	IsTokenBlacklisted(token string) bool
}

// bearerToken 优先读取 Authorization 头；浏览器无法给 websocket 设置请求头，
// 升级请求允许使用 ?token= 参数
func bearerToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
			if token := c.Query("token"); token != "" {
				return token, nil
			}
		}
		return "", errors.New(errors.ErrUnauthorized, "authentication required")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if !(len(parts) == 2 && parts[0] == "Bearer") {
		return "", errors.New(errors.ErrUnauthorized, "invalid authorization header")
	}
	return parts[1], nil
}

func AuthMiddleware(tokens *util.TokenIssuer, blacklist TokenBlacklist) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c)
		if err != nil {
			errors.HandleError(c, err)
			c.Abort()
			return
		}

		if blacklist != nil && blacklist.IsTokenBlacklisted(token) {
			errors.HandleError(c, errors.New(errors.ErrInvalidToken, "token has been revoked"))
			c.Abort()
			return
		}

		userID, err := tokens.ValidateToken(token)
		if err != nil {
			util.Logger.Debug("令牌校验失败", zap.Error(err), zap.String("path", c.Request.URL.Path))
			errors.HandleError(c, errors.Wrap(errors.ErrInvalidToken, "invalid or expired token", err))
			c.Abort()
			return
		}

		c.Set(ContextUserID, userID)
		c.Set(ContextToken, token)
		c.Next()
	}
}

// CurrentUser 返回认证中间件写入的用户ID
func CurrentUser(c *gin.Context) string {
	return c.GetString(ContextUserID)
}

// TimeoutMiddleware 给普通请求加上超时，实时长连接不使用
func TimeoutMiddleware(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		if ctx.Err() == context.DeadlineExceeded && !c.Writer.Written() {
			errors.HandleError(c, errors.New(errors.ErrTimeout, "request timed out"))
		}
	}
}
