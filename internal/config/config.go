// File: internal/config/config.go
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort string
	DBPath     string
	APIKey     string

	// OwnerName is the account's display name as the remote client
	// renders it; messages from this sender are archived with role "me".
	OwnerName string

	// Browser-automation sidecar that drives the remote web client.
	BridgeURL string

	OpenAIAPIKey string
	ReplyModel   string
	SystemPrompt string

	DownloadDir string

	WebhookSecret string

	SyncInterval  time.Duration
	ReplyInterval time.Duration
	// ReplyMaxAge bounds how stale an unreplied conversation may be and
	// still receive an auto-reply.
	ReplyMaxAge time.Duration

	// ReplyBlacklist lists conversation titles that never receive
	// generated replies.
	ReplyBlacklist []string

	Environment string
}

// Load reads configuration from environment variables or a .env file.
func Load() *Config {
	env := os.Getenv("ENV")
	if strings.ToLower(env) != "production" {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found; continuing with environment variables")
		}
	}

	cfg := &Config{
		ServerPort:    getEnv("SERVER_PORT", "8000"),
		DBPath:        getEnv("DB_PATH", "whatsapp_archive.db"),
		APIKey:        getEnv("API_KEY", ""),
		OwnerName:     getEnv("OWNER_NAME", "Me"),
		BridgeURL:     getEnv("BRIDGE_URL", "http://127.0.0.1:5001"),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		ReplyModel:    getEnv("REPLY_MODEL", "gpt-4o-mini"),
		SystemPrompt:  getEnv("SYSTEM_PROMPT", ""),
		DownloadDir:   getEnv("DOWNLOAD_DIR", "downloads"),
		WebhookSecret: getEnv("WEBHOOK_SECRET", ""),
		SyncInterval:  time.Duration(getEnvAsInt("SYNC_INTERVAL_SECONDS", 60)) * time.Second,
		ReplyInterval: time.Duration(getEnvAsInt("REPLY_INTERVAL_SECONDS", 180)) * time.Second,
		ReplyMaxAge:   time.Duration(getEnvAsInt("REPLY_MAX_AGE_DAYS", 3)) * 24 * time.Hour,
		Environment:   env,
	}

	if raw := getEnv("REPLY_BLACKLIST", ""); raw != "" {
		for _, title := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(title); trimmed != "" {
				cfg.ReplyBlacklist = append(cfg.ReplyBlacklist, trimmed)
			}
		}
	}

	// Validation for production environments
	if strings.ToLower(env) == "production" {
		missing := []string{}
		if cfg.APIKey == "" {
			missing = append(missing, "API_KEY")
		}
		if cfg.OpenAIAPIKey == "" {
			missing = append(missing, "OPENAI_API_KEY")
		}
		if cfg.WebhookSecret == "" {
			missing = append(missing, "WEBHOOK_SECRET")
		}
		if len(missing) > 0 {
			log.Fatalf("Missing required production environment variables: %v", missing)
		}
	}

	return cfg
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an env var as an integer, with a fallback.
func getEnvAsInt(key string, defaultValue int) int {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(strValue)
	if err != nil {
		log.Printf("Warning: could not parse env var %s as integer. Using default value.", key)
		return defaultValue
	}
	return intValue
}
