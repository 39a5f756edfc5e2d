package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.True(t, cfg.AllowAllOrigins())
	assert.Equal(t, int64(4096), cfg.MaxMessageSize)
	assert.Equal(t, 256, cfg.SendBuffer)
	assert.Equal(t, StartingPosition, cfg.InitialPosition)
	assert.Equal(t, 64, cfg.MaxRoomIDLength)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 20, cfg.RateLimit.Burst)
	assert.Equal(t, 10.0, cfg.RateLimit.PerSecond)
	assert.False(t, cfg.Ngrok.Enabled)
	assert.Equal(t, "localhost:8080", cfg.Addr())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("HOST", "0.0.0.0")
	t.Setenv("PORT", "9090")
	t.Setenv("ALLOWED_ORIGINS", "https://Chess.Example, http://localhost:3000/path,not-an-origin")
	t.Setenv("MAX_MESSAGE_SIZE", "1024")
	t.Setenv("INITIAL_POSITION", "8/8/8/8/8/8/8/8 w - - 0 1")
	t.Setenv("RATE_LIMIT_BURST", "5")
	t.Setenv("RATE_LIMIT_PER_SECOND", "2.5")
	t.Setenv("NGROK_ENABLED", "true")
	t.Setenv("NGROK_AUTH_TOKEN", "token-from-alias")
	t.Setenv("DEBUG", "true")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9090", cfg.Addr())
	assert.Equal(t, []string{"https://chess.example", "http://localhost:3000"}, cfg.AllowedOrigins)
	assert.False(t, cfg.AllowAllOrigins())
	assert.Equal(t, int64(1024), cfg.MaxMessageSize)
	assert.Equal(t, "8/8/8/8/8/8/8/8 w - - 0 1", cfg.InitialPosition)
	assert.Equal(t, 5, cfg.RateLimit.Burst)
	assert.Equal(t, 2.5, cfg.RateLimit.PerSecond)
	assert.True(t, cfg.Ngrok.Enabled)
	assert.Equal(t, "token-from-alias", cfg.Ngrok.AuthToken)
	assert.True(t, cfg.Debug)
}

func TestFromEnv_Invalid(t *testing.T) {
	t.Run("unparseable", func(t *testing.T) {
		t.Setenv("PORT", "eighty")
		_, err := FromEnv()
		assert.Error(t, err)
	})

	t.Run("out of range", func(t *testing.T) {
		t.Setenv("PORT", "70000")
		t.Setenv("SEND_BUFFER", "0")
		_, err := FromEnv()
		assert.ErrorIs(t, err, ErrInvalidConfig)
		assert.Contains(t, err.Error(), "port 70000")
		assert.Contains(t, err.Error(), "send buffer")
	})
}

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestNormalizeOrigin(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"https://Example.COM", "https://example.com", true},
		{"http://localhost:8080/some/path", "http://localhost:8080", true},
		{"example.com", "", false},
		{"", "", false},
		{"://bad", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := NormalizeOrigin(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
