package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    string

	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	SQLitePath string

	JWTSecret string
	JWTTTL    time.Duration

	// Empty disables the redis-backed rate limiter and logout denylist.
	RedisURL string

	StorageRoot     string
	QRScale         int
	QRTimeout       time.Duration
	StorageTimeout  time.Duration
	QRRetryAttempts int
	QRRegenInterval time.Duration

	LoginRateLimit int
	EnableMetrics  bool
}

func LoadConfig() (*Config, error) {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		SQLitePath: getEnv("SQLITE_PATH", "eventease.db"),

		JWTSecret: os.Getenv("JWT_SECRET"),
		JWTTTL:    getEnvAsDuration("JWT_TTL", "2h"),

		RedisURL: os.Getenv("REDIS_URL"),

		StorageRoot:     getEnv("STORAGE_ROOT", "./storage"),
		QRScale:         getEnvAsInt("QR_SCALE", 20),
		QRTimeout:       getEnvAsDuration("QR_TIMEOUT", "2s"),
		StorageTimeout:  getEnvAsDuration("STORAGE_TIMEOUT", "5s"),
		QRRetryAttempts: getEnvAsInt("QR_RETRY_ATTEMPTS", 3),
		QRRegenInterval: getEnvAsDuration("QR_REGEN_INTERVAL", "1m"),

		LoginRateLimit: getEnvAsInt("LOGIN_RATE_LIMIT", 10),
		EnableMetrics:  getEnvAsBool("ENABLE_METRICS", true),
	}, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	if duration, err := time.ParseDuration(getEnv(key, defaultValue)); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
