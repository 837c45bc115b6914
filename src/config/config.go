package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the client and the dev backend.
// The values are loaded from environment variables.
type AppConfig struct {
	LogLevel string

	// API client settings
	APIBaseURL       string
	APIToken         string
	APITokenFile     string
	PageSize         int
	RequestTimeout   time.Duration // zero means no timeout
	RequestRate      float64       // requests per second, zero disables limiting
	RequestBurst     int
	NotificationTTL  time.Duration
	UnauthorizedHint string

	// Dev backend settings
	Port         string
	DatabasePath string
	JWTSecret    string
	TokenExpiry  time.Duration
	ServerRate   float64
	ServerBurst  int
}

// Cfg is the global configuration instance.
var Cfg *AppConfig

// Defaults used when a variable is unset.
const (
	DefaultPageSize        = 10
	DefaultNotificationTTL = 3 * time.Second
)

// LoadConfig loads configuration from environment variables or a .env file.
func LoadConfig() *AppConfig {
	errEnv := godotenv.Load()
	if errEnv != nil {
		errEnv = godotenv.Load("../.env")
	}
	if errEnv != nil {
		if os.IsNotExist(errEnv) {
			log.Println("Info: No .env file found in current or parent directory. Relying on OS environment variables.")
		} else {
			log.Printf("Warning: Error loading .env file: %v. Relying on OS environment variables.", errEnv)
		}
	}

	Cfg = FromEnv()
	log.Printf("Configuration loaded: API=%s, PageSize=%d, LogLevel=%s, Port=%s, DBPath=%s",
		Cfg.APIBaseURL, Cfg.PageSize, Cfg.LogLevel, Cfg.Port, Cfg.DatabasePath)
	return Cfg
}

// FromEnv builds an AppConfig from the current process environment only.
func FromEnv() *AppConfig {
	pageSize := getEnvAsInt("PAGE_SIZE", DefaultPageSize)
	if pageSize <= 0 {
		log.Printf("WARNING: PAGE_SIZE must be positive, got %d. Using default %d.", pageSize, DefaultPageSize)
		pageSize = DefaultPageSize
	}

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		log.Println("WARNING: JWT_SECRET not set. The dev backend will refuse to start.")
	}

	return &AppConfig{
		LogLevel: getEnv("LOG_LEVEL", "info"),

		APIBaseURL:       strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:8080/api"), "/"),
		APIToken:         getEnv("API_TOKEN", ""),
		APITokenFile:     getEnv("API_TOKEN_FILE", ""),
		PageSize:         pageSize,
		RequestTimeout:   getEnvAsDuration("REQUEST_TIMEOUT", 0),
		RequestRate:      getEnvAsFloat("REQUEST_RATE_PER_SECOND", 10),
		RequestBurst:     getEnvAsInt("REQUEST_BURST", 20),
		NotificationTTL:  getEnvAsDuration("NOTIFICATION_TTL", DefaultNotificationTTL),
		UnauthorizedHint: getEnv("UNAUTHORIZED_HINT", "Session expired. Run `xpensemate token` to sign in again."),

		Port:         getEnv("PORT", "8080"),
		DatabasePath: getEnv("DATABASE_PATH", "./xpensemate.db"),
		JWTSecret:    jwtSecret,
		TokenExpiry:  getEnvAsDuration("TOKEN_EXPIRY", 24*time.Hour),
		ServerRate:   getEnvAsFloat("SERVER_RATE_PER_SECOND", 10),
		ServerBurst:  getEnvAsInt("SERVER_BURST", 30),
	}
}

// getEnv retrieves an environment variable or returns a fallback value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvAsInt retrieves an environment variable as an integer or returns a fallback.
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	log.Printf("Invalid float value for %s ('%s'), using default: %g", key, valueStr, fallback)
	return fallback
}

// getEnvAsDuration retrieves an environment variable as a time.Duration or returns a fallback.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}
