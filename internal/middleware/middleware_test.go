package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"ankahee-backend/internal/errors"
	"ankahee-backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticBlacklist map[string]bool

func (b staticBlacklist) IsTokenBlacklisted(token string) bool { return b[token] }

func setupRouter(tokens *util.TokenIssuer, blacklist TokenBlacklist, monitor *ErrorMonitor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware(), ErrorMonitorMiddleware(monitor), RecoveryMiddleware())
	auth := r.Group("/", AuthMiddleware(tokens, blacklist))
	auth.GET("/me", func(c *gin.Context) {
		c.String(http.StatusOK, CurrentUser(c))
	})
	auth.GET("/ws", func(c *gin.Context) {
		c.String(http.StatusOK, CurrentUser(c))
	})
	r.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	tokens := util.NewTokenIssuer("secret")
	good, err := tokens.GenerateToken("u1")
	require.NoError(t, err)
	revoked, err := tokens.GenerateToken("u2")
	require.NoError(t, err)
	foreign, err := util.NewTokenIssuer("other").GenerateToken("u1")
	require.NoError(t, err)

	router := setupRouter(tokens, staticBlacklist{revoked: true}, NewErrorMonitor())

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"valid token", "Bearer " + good, http.StatusOK, "u1"},
		{"missing header", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic " + good, http.StatusUnauthorized, ""},
		{"revoked token", "Bearer " + revoked, http.StatusUnauthorized, ""},
		{"foreign signature", "Bearer " + foreign, http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, w.Body.String())
			} else {
				assert.Contains(t, w.Body.String(), `"error"`)
			}
		})
	}
}

func TestAuthMiddlewareQueryTokenOnlyForUpgrade(t *testing.T) {
	tokens := util.NewTokenIssuer("secret")
	good, err := tokens.GenerateToken("u1")
	require.NoError(t, err)
	router := setupRouter(tokens, nil, NewErrorMonitor())

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/ws?token="+good, nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/ws?token="+good, nil)
	req.Header.Set("Upgrade", "websocket")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", w.Body.String())
}

func TestErrorMonitorRecordsRejections(t *testing.T) {
	monitor := NewErrorMonitor()
	router := setupRouter(util.NewTokenIssuer("secret"), nil, monitor)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/me", nil)
		router.ServeHTTP(w, req)
		assert.NotEmpty(t, w.Header().Get(HeaderRequestID))
	}

	stats := monitor.Stats()
	assert.Equal(t, 2, stats["total_errors"])
	assert.Equal(t, 2, stats["errors_by_code"].(map[errors.ErrorCode]int)[errors.ErrUnauthorized])
	assert.Equal(t, 2, stats["error_patterns"].(map[string]int)["authorization"])
}

func TestRecoveryMiddleware(t *testing.T) {
	router := setupRouter(util.NewTokenIssuer("secret"), nil, NewErrorMonitor())

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/panic", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), errors.MsgGeneric)
}

func TestRequestIDIsPropagated(t *testing.T) {
	router := setupRouter(util.NewTokenIssuer("secret"), nil, NewErrorMonitor())

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(HeaderRequestID, "req-42")
	router.ServeHTTP(w, req)
	assert.Equal(t, "req-42", w.Header().Get(HeaderRequestID))
}
