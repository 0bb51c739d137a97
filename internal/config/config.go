package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	SourcePath    string
	OutputPath    string
	StrictPairing bool
	StatePath     string
	SQLitePath    string
	DatabaseURL   string
	NatsURL       string
	NatsToken     string
	Port          int
	APIToken      string
	LogLevel      string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real env vars win over it.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		SourcePath:    envStr("SAMPLES_SOURCE", "Dont Delete/Sample.txt"),
		OutputPath:    envStr("SAMPLES_OUTPUT", "samples.jsonl"),
		StrictPairing: envBool("SAMPLES_STRICT_PAIRING", false),
		StatePath:     envStr("SAMPLES_STATE_PATH", "~/.textcad/import-state.json"),
		SQLitePath:    envStr("SQLITE_PATH", "data/samples.db"),
		DatabaseURL:   envStr("DATABASE_URL", ""),
		NatsURL:       envStr("NATS_URL", ""),
		NatsToken:     envStr("NATS_TOKEN", ""),
		Port:          envInt("SAMPLESD_PORT", 8760),
		APIToken:      envStr("SAMPLESD_API_TOKEN", ""),
		LogLevel:      envStr("LOG_LEVEL", "info"),
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

func envBool(key string, fallback bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return fallback
}
