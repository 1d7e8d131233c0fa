package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultJWTSecret is the well-known development fallback. Running with
// it is a startup warning condition; deployments must set JWT_SECRET.
const DefaultJWTSecret = "your-secret-key-change-in-production"

type Config struct {
	Port               string
	DBPath             string
	JWTSecret          string
	BackupsPath        string
	UploadsPath        string
	CorsAllowedOrigins []string
}

func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:               getEnv("PORT", "3001"),
		DBPath:             getEnv("DB_PATH", "data/blog.db"),
		JWTSecret:          getEnv("JWT_SECRET", DefaultJWTSecret),
		BackupsPath:        getEnv("BACKUPS_PATH", "backups"),
		UploadsPath:        getEnv("UPLOADS_PATH", "uploads"),
		CorsAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
	}
}

// UsingDefaultSecret reports whether the insecure fallback signing
// secret is in effect.
func (c Config) UsingDefaultSecret() bool {
	return c.JWTSecret == DefaultJWTSecret
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
