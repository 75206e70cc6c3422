package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string
	SeedFile   string
	JWTSecret  string
	ServerPort string

	MediaBaseURL      string
	MediaCacheEntries int
	MediaFetchTimeout time.Duration

	ResultSubmitURL  string
	SubmitTimeout    time.Duration
	AutoAdvanceDelay time.Duration

	DefaultDurationMinutes int
	SessionRetention       time.Duration

	LogFormat string
	LogColors bool
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file, using environment variables")
	}

	return &Config{
		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "practice_test"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		SQLitePath: getEnv("SQLITE_PATH", "practice_test.db"),
		SeedFile:   getEnv("SEED_FILE", ""),
		JWTSecret:  getEnv("JWT_SECRET", "secret"),
		ServerPort: getEnv("SERVER_PORT", "8080"),

		MediaBaseURL:      getEnv("MEDIA_BASE_URL", "http://localhost:8080"),
		MediaCacheEntries: getEnvInt("MEDIA_CACHE_ENTRIES", 256),
		MediaFetchTimeout: getEnvDuration("MEDIA_FETCH_TIMEOUT", 20*time.Second),

		ResultSubmitURL:  getEnv("RESULT_SUBMIT_URL", ""),
		SubmitTimeout:    getEnvDuration("SUBMIT_TIMEOUT", 15*time.Second),
		AutoAdvanceDelay: getEnvDuration("AUTO_ADVANCE_DELAY", 2*time.Second),

		DefaultDurationMinutes: getEnvInt("DEFAULT_DURATION_MINUTES", 120),
		SessionRetention:       getEnvDuration("SESSION_RETENTION", 30*time.Minute),

		LogFormat: getEnv("LOG_FORMAT", "text"),
		LogColors: getEnvBool("LOG_COLORS", true),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Invalid %s=%q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Invalid %s=%q, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}

func getEnvBool(key string, defaultValue bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}
