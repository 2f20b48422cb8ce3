package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "")
	t.Setenv("DB_PASSWORD", "")
	t.Setenv("SMTP_HOST", "")
	t.Setenv("DB_USER", "ankahee")
	t.Setenv("DB_NAME", "ankahee")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("SMTP_PORT", "587")
	t.Setenv("SHUTDOWN_TIMEOUT", "12s")
	t.Setenv("DEBUG", "true")

	cfg := Load()
	assert.Equal(t, "db", cfg.DBHost)
	assert.Equal(t, "3306", cfg.DBPort)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.Equal(t, 12*time.Second, cfg.ShutdownTimeout)
	assert.True(t, cfg.Debug)
	assert.NoError(t, cfg.Validate())
	assert.False(t, cfg.SMTPEnabled())
	assert.Equal(t, "ankahee:@tcp(db:3306)/ankahee?parseTime=true&loc=UTC&charset=utf8mb4", cfg.DSN())
}

func TestLoadFallsBackOnMalformedValues(t *testing.T) {
	t.Setenv("SMTP_PORT", "not-a-number")
	t.Setenv("SHUTDOWN_TIMEOUT", "soon")
	t.Setenv("DEBUG", "maybe")

	cfg := Load()
	assert.Equal(t, 465, cfg.SMTPPort)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.Debug)
}

func TestValidateRequiresDatabaseAndSecret(t *testing.T) {
	cfg := Config{DBHost: "db", DBPort: "3306", DBUser: "u", DBName: "n"}
	assert.Error(t, cfg.Validate())

	cfg.JWTSecret = "secret"
	assert.NoError(t, cfg.Validate())

	cfg.DBHost = ""
	assert.Error(t, cfg.Validate())
}
