package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"fitquest/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort       string
	DatabaseURL   string
	JWTSecret     string
	AllowedOrigin string
	AdminToken    string

	// Logging
	LogLevel      string
	LogJSON       bool
	LogDir        string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int

	// Redis rate limiting, disabled when RedisAddr is empty
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	APIRateLimit   int
	APIRateWindow  int
	SpinRateLimit  int
	SpinRateWindow int

	// Engine
	EconomyFile string
	Timezone    *time.Location

	// Background sweeps
	SweepEnabled  bool
	SweepInterval time.Duration
}

// Load reads the config from env. DATABASE_URL and JWT_SECRET are required.
func Load() *Config {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal("DATABASE_URL is not set")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	cfg := LoadOptional()
	cfg.DatabaseURL = dbURL
	cfg.JWTSecret = jwtSecret
	return cfg
}

// LoadOptional reads everything except the required secrets. The CLI uses it
// for commands that only need some of the settings.
func LoadOptional() *Config {
	_ = godotenv.Load()

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	tzName := getEnv("TIMEZONE", "UTC")
	tz, err := time.LoadLocation(tzName)
	if err != nil {
		logger.Warn("unknown TIMEZONE, falling back to UTC", "timezone", tzName, "error", err)
		tz = time.UTC
	}

	return &Config{
		AppPort:       port,
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		AllowedOrigin: os.Getenv("ALLOWED_ORIGIN"),
		AdminToken:    os.Getenv("ADMIN_API_TOKEN"),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogJSON:       os.Getenv("LOG_JSON") == "true",
		LogDir:        os.Getenv("LOG_DIR"),
		LogMaxSizeMB:  getInt("LOG_MAX_SIZE_MB", 50),
		LogMaxBackups: getInt("LOG_MAX_BACKUPS", 5),
		LogMaxAgeDays: getInt("LOG_MAX_AGE_DAYS", 14),

		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        getInt("REDIS_DB", 0),
		APIRateLimit:   getInt("API_RATE_LIMIT", 120),
		APIRateWindow:  getInt("API_RATE_WINDOW", 60),
		SpinRateLimit:  getInt("SPIN_RATE_LIMIT", 10),
		SpinRateWindow: getInt("SPIN_RATE_WINDOW", 60),

		EconomyFile: os.Getenv("ECONOMY_FILE"),
		Timezone:    tz,

		SweepEnabled:  os.Getenv("SWEEP_ENABLED") == "true",
		SweepInterval: time.Duration(getInt("SWEEP_INTERVAL_MINUTES", 15)) * time.Minute,
	}
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// getInt returns a positive int from env or def.
func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}
