package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds kiosk configuration loaded from environment.
type Config struct {
	Server  ServerConfig
	API     APIConfig
	Scanner ScannerConfig
	Manual  ManualConfig
	Redis   RedisConfig
	Auth    AuthConfig
	Worker  WorkerConfig
	Log     LogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*"
}

// APIConfig points at the attendance backend.
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// ScannerConfig drives the camera check-in flow.
type ScannerConfig struct {
	EventID        int64
	CameraURL      string // HTTP still-image endpoint
	CameraFile     string // image replayed as every frame; used when CameraURL is empty
	Width          int
	Height         int
	FacingMode     string
	Interval       time.Duration
	ErrorCooldown  time.Duration
	SuccessDisplay time.Duration
	PayloadPrefix  string
}

// ManualConfig drives organizer code entry.
type ManualConfig struct {
	CodeLength   int
	PopupDismiss time.Duration
}

// RedisConfig holds Redis connection settings. An empty Addr disables the journal.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Enabled reports whether a Redis address is configured.
func (c RedisConfig) Enabled() bool { return c.Addr != "" }

// AuthConfig holds organizer token settings.
type AuthConfig struct {
	Leeway time.Duration
}

// WorkerConfig holds journal worker settings.
type WorkerConfig struct {
	PollTimeout time.Duration
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()      // .env
	_ = godotenv.Load("env") // env (no leading dot)

	eventID, err := getEnvInt64("EVENT_ID", 0)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8090"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 30),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
		},
		API: APIConfig{
			BaseURL: strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:8080/api"), "/"),
			Timeout: getEnvDuration("API_TIMEOUT", 10*time.Second),
		},
		Scanner: ScannerConfig{
			EventID:        eventID,
			CameraURL:      getEnv("CAMERA_URL", ""),
			CameraFile:     getEnv("CAMERA_FILE", ""),
			Width:          getEnvInt("CAMERA_WIDTH", 1280),
			Height:         getEnvInt("CAMERA_HEIGHT", 720),
			FacingMode:     getEnv("CAMERA_FACING", "environment"),
			Interval:       getEnvDuration("SCAN_INTERVAL", 500*time.Millisecond),
			ErrorCooldown:  getEnvDuration("ERROR_COOLDOWN", 3*time.Second),
			SuccessDisplay: getEnvDuration("SUCCESS_DISPLAY", 3*time.Second),
			PayloadPrefix:  getEnv("PAYLOAD_PREFIX", "EVT-"),
		},
		Manual: ManualConfig{
			CodeLength:   getEnvInt("MANUAL_CODE_LENGTH", 6),
			PopupDismiss: getEnvDuration("POPUP_DISMISS", 5*time.Second),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			Leeway: getEnvDuration("TOKEN_LEEWAY", 30*time.Second),
		},
		Worker: WorkerConfig{
			PollTimeout: getEnvDuration("WORKER_POLL_TIMEOUT", 5*time.Second),
		},
		Log: LogConfig{
			Level: strings.ToLower(getEnv("LOG_LEVEL", "info")),
		},
	}
	return cfg, nil
}

func getEnvInt64(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s: invalid id %q", key, v)
	}
	return n, nil
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
