package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTP         HTTPConfig
	DatabaseURL  string
	Auth         AuthConfig
	Suggest      SuggestConfig
	CatalogFile  string
	AuditLogFile string
	LogLevel     string
}

type HTTPConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type AuthConfig struct {
	BootstrapName     string
	BootstrapEmail    string
	BootstrapPassword string
	BcryptCost        int
	SessionTTL        time.Duration
}

type SuggestConfig struct {
	// APIKey empty means the smart features are disabled for the whole run.
	APIKey   string
	Model    string
	Endpoint string
	Timeout  time.Duration
}

func Load() (Config, error) {
	cfg := Config{
		HTTP: HTTPConfig{
			Addr:            getEnv("HTTP_ADDR", ":8080"),
			ReadTimeout:     time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SEC", 10)) * time.Second,
			WriteTimeout:    time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SEC", 60)) * time.Second,
			ShutdownTimeout: time.Duration(getEnvInt("HTTP_SHUTDOWN_TIMEOUT_SEC", 20)) * time.Second,
		},
		DatabaseURL: getEnv("DATABASE_URL", ""),
		Auth: AuthConfig{
			BootstrapName:     getEnv("AUTH_BOOTSTRAP_NAME", "Content Creator"),
			BootstrapEmail:    getEnv("AUTH_BOOTSTRAP_EMAIL", "creator@example.com"),
			BootstrapPassword: getEnv("AUTH_BOOTSTRAP_PASSWORD", "creator123"),
			BcryptCost:        getEnvInt("AUTH_BCRYPT_COST", 10),
			SessionTTL:        time.Duration(getEnvInt("AUTH_SESSION_TTL_SEC", 43200)) * time.Second,
		},
		Suggest: SuggestConfig{
			APIKey:   getEnv("GEMINI_API_KEY", getEnv("API_KEY", "")),
			Model:    getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			Endpoint: getEnv("GEMINI_ENDPOINT", ""),
			Timeout:  time.Duration(getEnvInt("GEMINI_TIMEOUT_SEC", 30)) * time.Second,
		},
		CatalogFile:  getEnv("CATALOG_FILE", ""),
		AuditLogFile: getEnv("AUDIT_LOG_FILE", "./data/audit.log"),
		LogLevel:     strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}

	if cfg.HTTP.Addr == "" {
		return Config{}, fmt.Errorf("HTTP_ADDR must not be empty")
	}
	if cfg.HTTP.ShutdownTimeout <= 0 {
		return Config{}, fmt.Errorf("HTTP_SHUTDOWN_TIMEOUT_SEC must be > 0")
	}
	if cfg.Auth.BootstrapEmail == "" {
		return Config{}, fmt.Errorf("AUTH_BOOTSTRAP_EMAIL must not be empty")
	}
	if len(cfg.Auth.BootstrapPassword) < 6 {
		return Config{}, fmt.Errorf("AUTH_BOOTSTRAP_PASSWORD must be at least 6 characters")
	}
	if cfg.Auth.BcryptCost < 4 || cfg.Auth.BcryptCost > 31 {
		return Config{}, fmt.Errorf("AUTH_BCRYPT_COST must be between 4 and 31")
	}
	if cfg.Auth.SessionTTL <= 0 {
		return Config{}, fmt.Errorf("AUTH_SESSION_TTL_SEC must be > 0")
	}
	if cfg.Suggest.Timeout <= 0 {
		return Config{}, fmt.Errorf("GEMINI_TIMEOUT_SEC must be > 0")
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return Config{}, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	return val
}

func getEnvInt(key string, fallback int) int {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return n
}
