package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "msgly.db", cfg.DBPath)
	assert.Equal(t, "jwt", cfg.CookieName)
	assert.Equal(t, 7*24*time.Hour, cfg.JWTTTL)
	assert.Empty(t, cfg.RedisURL)
	assert.False(t, cfg.CookieSecure)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PORT", "9090")
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("REDIS_URL", "redis://localhost:6379/1")

	cfg, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 2*time.Hour, cfg.JWTTTL)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, "redis://localhost:6379/1", cfg.RedisURL)
}

func TestLoad_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load(New())
	assert.Error(t, err)
}
