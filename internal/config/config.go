package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration
type Config struct {
	TelegramToken  string
	AllowedUserIDs []int64 // Empty means everyone may use the bot

	// Bot mode configuration
	WebhookMode bool   // If true, use webhook mode; if false, use polling mode
	WebhookURL  string // URL for webhook (required if WebhookMode is true)
	Port        string
	LogLevel    string

	// GitHub API
	GitHubToken         string
	GitHubTimeout       time.Duration
	GitHubMaxRetries    int
	GitHubRatePerSecond float64
	AdminGitHubUsername string // Gets the admin badge on profile and repository views

	// Views
	AnimationStyle   string
	AnimationCadence time.Duration
	PageSize         int
	StateMaxConvs    int
	StateTTL         time.Duration

	// Admin HTTP API
	AdminAPIToken string

	// ClickHouse configuration
	ClickHouseHost     string
	ClickHousePort     int
	ClickHouseDatabase string
	ClickHouseUser     string
	ClickHousePassword string
	ClickHouseUseTLS   bool

	UseMockDB bool
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	config := &Config{}

	// Telegram Bot Token (required)
	config.TelegramToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	if config.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	// Allowed User IDs (optional)
	if allowedIDsStr := os.Getenv("ALLOWED_USER_IDS"); allowedIDsStr != "" {
		for _, idStr := range strings.Split(allowedIDsStr, ",") {
			idStr = strings.TrimSpace(idStr)
			if idStr == "" {
				continue
			}
			id, err := strconv.ParseInt(idStr, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid user ID in ALLOWED_USER_IDS: %s", idStr)
			}
			config.AllowedUserIDs = append(config.AllowedUserIDs, id)
		}
	}

	// Bot mode configuration
	config.WebhookMode = os.Getenv("WEBHOOK_MODE") == "true"
	if config.WebhookMode {
		config.WebhookURL = strings.TrimRight(os.Getenv("WEBHOOK_URL"), "/")
		if config.WebhookURL == "" {
			return nil, fmt.Errorf("WEBHOOK_URL is required when WEBHOOK_MODE is true")
		}
	}
	config.Port = getEnv("PORT", "8080")
	config.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", "info"))

	var err error

	// GitHub API
	config.GitHubToken = os.Getenv("GITHUB_TOKEN")
	config.AdminGitHubUsername = os.Getenv("ADMIN_GITHUB_USERNAME")
	timeoutSecs, err := intEnv("GITHUB_TIMEOUT_SECONDS", 10, 1)
	if err != nil {
		return nil, err
	}
	config.GitHubTimeout = time.Duration(timeoutSecs) * time.Second
	if config.GitHubMaxRetries, err = intEnv("GITHUB_MAX_RETRIES", 2, 0); err != nil {
		return nil, err
	}
	if config.GitHubRatePerSecond, err = floatEnv("GITHUB_RATE_PER_SECOND", 10); err != nil {
		return nil, err
	}

	// Views
	config.AnimationStyle = os.Getenv("ANIMATION_STYLE")
	cadenceMs, err := intEnv("ANIMATION_CADENCE_MS", 500, 50)
	if err != nil {
		return nil, err
	}
	config.AnimationCadence = time.Duration(cadenceMs) * time.Millisecond
	if config.PageSize, err = intEnv("PAGE_SIZE", 3000, 100); err != nil {
		return nil, err
	}
	if config.StateMaxConvs, err = intEnv("STATE_MAX_CONVERSATIONS", 10000, 1); err != nil {
		return nil, err
	}
	ttlMinutes, err := intEnv("STATE_TTL_MINUTES", 6*60, 1)
	if err != nil {
		return nil, err
	}
	config.StateTTL = time.Duration(ttlMinutes) * time.Minute

	config.AdminAPIToken = os.Getenv("ADMIN_API_TOKEN")

	// Use Mock DB (default: false)
	config.UseMockDB = os.Getenv("USE_MOCK_DB") == "true"

	// ClickHouse configuration (required if not using mock)
	if !config.UseMockDB {
		config.ClickHouseHost = os.Getenv("CLICKHOUSE_HOST")
		if config.ClickHouseHost == "" {
			return nil, fmt.Errorf("CLICKHOUSE_HOST is required when USE_MOCK_DB is not set")
		}

		portStr := os.Getenv("CLICKHOUSE_PORT")
		if portStr == "" {
			config.ClickHousePort = 9000 // Default ClickHouse native port
		} else {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return nil, fmt.Errorf("invalid CLICKHOUSE_PORT: %w", err)
			}
			config.ClickHousePort = port
		}

		config.ClickHouseDatabase = getEnv("CLICKHOUSE_DATABASE", "default")
		config.ClickHouseUser = getEnv("CLICKHOUSE_USER", "default")
		config.ClickHousePassword = os.Getenv("CLICKHOUSE_PASSWORD")
		config.ClickHouseUseTLS = os.Getenv("CLICKHOUSE_USE_TLS") == "true"
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// intEnv reads an integer variable that must be at least floor
func intEnv(key string, defaultValue, floor int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if n < floor {
		return 0, fmt.Errorf("invalid %s: must be at least %d", key, floor)
	}
	return n, nil
}

func floatEnv(key string, defaultValue float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return f, nil
}
