package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
	DatabaseURL   string
	BoltPath      string
	NatsURL       string
	NatsToken     string
	LogLevel      string
	TypingDelayMS int
	BulkMessages  int
}

func Load() Config {
	// Best effort; absence of a .env file is the normal case.
	_ = godotenv.Load()

	return Config{
		OpenAIAPIKey:  envStr("OPENAI_API_KEY", ""),
		OpenAIModel:   envStr("REHEARSE_MODEL", "gpt-4o"),
		OpenAIBaseURL: envStr("OPENAI_BASE_URL", ""),
		DatabaseURL:   envStr("DATABASE_URL", ""),
		BoltPath:      envStr("REHEARSE_BOLT_PATH", "data/sessions.bolt"),
		NatsURL:       envStr("NATS_URL", ""),
		NatsToken:     envStr("NATS_TOKEN", ""),
		LogLevel:      envStr("LOG_LEVEL", "info"),
		TypingDelayMS: envInt("REHEARSE_TYPING_DELAY_MS", 500),
		BulkMessages:  envInt("REHEARSE_BULK_MESSAGES", 15),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
