// Package config loads server configuration from environment variables.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/platform"
)

// Config holds all runtime configuration for hoopserve.
type Config struct {
	Port         string
	WorkDir      string
	DBPath       string
	ClassifyPath string

	// Pagination and budget caps for the tool-response layer.
	PageSize         int
	MaxRows          int
	MaxTokens        int
	BatchConcurrency int
	ItemTimeout      time.Duration

	AdminKeyName string
	AdminAPIKey  string

	TelegramToken  string
	TelegramChatID int64
}

// Load reads environment variables and returns a Config.
// Uses sensible defaults for optional fields.
func Load() *Config {
	workDir := getEnv("WORK_DIR", platform.DefaultWorkDir())

	chatID, _ := strconv.ParseInt(os.Getenv("TELEGRAM_CHAT_ID"), 10, 64)

	return &Config{
		Port:         getEnv("PORT", "8080"),
		WorkDir:      workDir,
		DBPath:       getEnv("DB_PATH", filepath.Join(workDir, "hoopserve.db")),
		ClassifyPath: getEnv("CLASSIFY_PATH", filepath.Join(workDir, "classify.yaml")),

		PageSize:         getEnvInt("PAGE_SIZE", 2000),
		MaxRows:          getEnvInt("MAX_ROWS", 2000),
		MaxTokens:        getEnvInt("MAX_TOKENS", 8000),
		BatchConcurrency: getEnvInt("BATCH_CONCURRENCY", 8),
		ItemTimeout:      time.Duration(getEnvInt("ITEM_TIMEOUT_SECONDS", 30)) * time.Second,

		AdminKeyName: getEnv("ADMIN_KEY_NAME", "admin"),
		AdminAPIKey:  getEnv("ADMIN_API_KEY", "changeme"),

		TelegramToken:  os.Getenv("TELEGRAM_TOKEN"),
		TelegramChatID: chatID,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
