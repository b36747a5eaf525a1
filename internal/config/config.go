package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env  string
	Port int

	StoreBackend string // mongo | postgres | memory
	MongoURL     string
	DBURL        string

	JWTSecret     string
	JWTTTLMinutes int
	BcryptCost    int

	CORSAllowedOrigins []string
	MaxBodyBytes       int64

	OTLPEndpoint string
}

// Load reads configuration from the environment. JWT_SECRET has no default:
// a missing signing secret is a startup-time misconfiguration.
func Load() (Config, error) {
	cfg := Config{
		Env:  getEnv("APP_ENV", "dev"),
		Port: getEnvInt("PORT", 8080),

		StoreBackend: getEnv("STORE_BACKEND", "mongo"),
		MongoURL:     getEnv("MONGO_URL", "mongodb://127.0.0.1:27017/accounthub"),
		DBURL:        buildDBURL(),

		JWTSecret:     os.Getenv("JWT_SECRET"),
		JWTTTLMinutes: getEnvInt("JWT_TTL_MINUTES", 60),
		BcryptCost:    getEnvInt("BCRYPT_COST", 0), // 0 lets security pick the bcrypt default

		CORSAllowedOrigins: splitEnv("CORS_ALLOWED_ORIGINS"),
		MaxBodyBytes:       int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),

		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}

	switch cfg.StoreBackend {
	case "mongo", "postgres", "memory":
	default:
		return Config{}, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	return cfg, nil
}

func (c Config) JWTTTL() time.Duration {
	return time.Duration(c.JWTTTLMinutes) * time.Minute
}

func buildDBURL() string {
	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "accounthub")
	pass := getEnv("DB_PASSWORD", "accounthub")
	name := getEnv("DB_NAME", "accounthub")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			return fallback
		}

		return num
	}
	return fallback
}

func splitEnv(key string) []string {
	raw := os.Getenv(key)

	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}

	return out
}
