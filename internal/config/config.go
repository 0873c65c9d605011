package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config carries everything the process needs at startup. Built once in
// main and passed down; nothing in this package holds global state.
type Config struct {
	ListenAddr string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	DBTimezone string

	// Empty disables the latest-score cache.
	RedisAddr string

	JWTSecret string
	LogFile   string
}

// Load reads .env (if present) and the environment, with defaults matching
// a local development setup.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found – relying on env vars")
	}

	return &Config{
		ListenAddr: getEnv("LISTEN_ADDR", "0.0.0.0:8080"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "driveassist"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		DBTimezone: getEnv("DB_TIMEZONE", "UTC"),

		RedisAddr: getEnv("REDIS_ADDR", ""),

		JWTSecret: getEnv("JWT_SECRET", "supersecret"),
		LogFile:   getEnv("LOG_FILE", "./logs/app.log"),
	}
}

// getEnv reads an environment variable or returns the provided default
func getEnv(key, defaultValue string) string {
	if v, exists := os.LookupEnv(key); exists {
		return v
	}
	return defaultValue
}
