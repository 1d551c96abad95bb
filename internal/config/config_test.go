package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBase(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("USE_MOCK_DB", "true")
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	setBase(t)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Empty(t, cfg.AllowedUserIDs)
	assert.False(t, cfg.WebhookMode)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 10*time.Second, cfg.GitHubTimeout)
	assert.Equal(t, 2, cfg.GitHubMaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.AnimationCadence)
	assert.Equal(t, 3000, cfg.PageSize)
	assert.Equal(t, 6*time.Hour, cfg.StateTTL)
	assert.True(t, cfg.UseMockDB)
	assert.Empty(t, cfg.ClickHouseHost)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	setBase(t)
	t.Setenv("ALLOWED_USER_IDS", "1, 2,,3")
	t.Setenv("WEBHOOK_MODE", "true")
	t.Setenv("WEBHOOK_URL", "https://bot.example.com/")
	t.Setenv("GITHUB_TOKEN", "ghp_x")
	t.Setenv("GITHUB_RATE_PER_SECOND", "2.5")
	t.Setenv("ANIMATION_STYLE", "pulse")
	t.Setenv("ANIMATION_CADENCE_MS", "250")
	t.Setenv("PAGE_SIZE", "1200")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 2, 3}, cfg.AllowedUserIDs)
	assert.Equal(t, "https://bot.example.com", cfg.WebhookURL)
	assert.Equal(t, "ghp_x", cfg.GitHubToken)
	assert.Equal(t, 2.5, cfg.GitHubRatePerSecond)
	assert.Equal(t, "pulse", cfg.AnimationStyle)
	assert.Equal(t, 250*time.Millisecond, cfg.AnimationCadence)
	assert.Equal(t, 1200, cfg.PageSize)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadFromEnv_ClickHouse(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("USE_MOCK_DB", "false")
	t.Setenv("CLICKHOUSE_HOST", "ch.local")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.ClickHousePort)
	assert.Equal(t, "default", cfg.ClickHouseDatabase)
	assert.Equal(t, "default", cfg.ClickHouseUser)
}

func TestLoadFromEnv_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing token", map[string]string{"TELEGRAM_BOT_TOKEN": ""}, "TELEGRAM_BOT_TOKEN"},
		{"bad user id", map[string]string{"ALLOWED_USER_IDS": "1,abc"}, "ALLOWED_USER_IDS"},
		{"webhook without url", map[string]string{"WEBHOOK_MODE": "true", "WEBHOOK_URL": ""}, "WEBHOOK_URL"},
		{"cadence too fast", map[string]string{"ANIMATION_CADENCE_MS": "10"}, "ANIMATION_CADENCE_MS"},
		{"bad page size", map[string]string{"PAGE_SIZE": "big"}, "PAGE_SIZE"},
		{"negative rate", map[string]string{"GITHUB_RATE_PER_SECOND": "-1"}, "GITHUB_RATE_PER_SECOND"},
		{"missing clickhouse host", map[string]string{"USE_MOCK_DB": "false", "CLICKHOUSE_HOST": ""}, "CLICKHOUSE_HOST"},
		{"bad clickhouse port", map[string]string{"USE_MOCK_DB": "false", "CLICKHOUSE_HOST": "h", "CLICKHOUSE_PORT": "x"}, "CLICKHOUSE_PORT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBase(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadFromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
