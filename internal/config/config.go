package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds runtime settings loaded from the environment.
type Config struct {
	Addr           string
	AllowedOrigins []string
	PublicURL      string
	LogLevel       string
	LogFormat      string // "console" or "json"
	StaticDir      string
}

// Load reads .env if present and builds the config from the environment.
func Load() *Config {
	// A missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	return &Config{
		Addr:           getEnv("ADDR", ":8080"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "*")),
		PublicURL:      strings.TrimSuffix(os.Getenv("PUBLIC_URL"), "/"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "console"),
		StaticDir:      getEnv("STATIC_DIR", "web/public"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
