package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIBaseURL  string
	HTTPTimeout time.Duration // 0 means no timeout
	LogLevel    slog.Level

	StorageDriver    string // file, memory, redis or postgres
	StoragePath      string
	StorageNamespace string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string

	PollInterval    time.Duration
	PollMaxAttempts int

	// Fake backend (cmd/mockjudge)
	MockAPIPort       string
	JWTKey            []byte
	JWTExp            time.Duration
	MockJudgeDelay    time.Duration
	MockAdminUsername string
	MockAdminPassword string
}

var AppConfig *Config

// Load reads .env (if present) and the environment into AppConfig.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, relying on environment variables")
	}

	AppConfig = &Config{
		APIBaseURL:  strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:8001/api/v1"), "/"),
		HTTPTimeout: time.Duration(getEnvAsInt("HTTP_TIMEOUT_SECONDS", 0)) * time.Second,
		LogLevel:    parseLevel(getEnv("LOG_LEVEL", "info")),

		StorageDriver:    getEnv("STORAGE_DRIVER", "file"),
		StoragePath:      getEnv("STORAGE_PATH", defaultStoragePath()),
		StorageNamespace: getEnv("STORAGE_NAMESPACE", "default"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "user"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "njoj_client"),
		DBSslMode:  getEnv("DB_SSLMODE", "disable"),

		PollInterval:    time.Duration(getEnvAsInt("POLL_INTERVAL_MS", 2000)) * time.Millisecond,
		PollMaxAttempts: getEnvAsInt("POLL_MAX_ATTEMPTS", 30),

		MockAPIPort:       getEnv("MOCK_API_PORT", "8001"),
		JWTKey:            []byte(getEnv("JWT_SECRET", "defaultsecret")),
		JWTExp:            time.Duration(getEnvAsInt("JWT_EXPIRATION_MINUTES", 60*24*8)) * time.Minute,
		MockJudgeDelay:    time.Duration(getEnvAsInt("MOCK_JUDGE_DELAY_MS", 1500)) * time.Millisecond,
		MockAdminUsername: getEnv("MOCK_ADMIN_USERNAME", "admin"),
		MockAdminPassword: getEnv("MOCK_ADMIN_PASSWORD", "admin"),
	}

	AppConfig.DBConnStr = "host=" + AppConfig.DBHost +
		" port=" + AppConfig.DBPort +
		" user=" + AppConfig.DBUser +
		" password=" + AppConfig.DBPassword +
		" dbname=" + AppConfig.DBName +
		" sslmode=" + AppConfig.DBSslMode

	return AppConfig
}

func defaultStoragePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".njoj", "session.json")
	}
	return filepath.Join(home, ".njoj", "session.json")
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}
