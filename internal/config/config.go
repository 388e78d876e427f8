package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const defaultMaxUploadBytes = 2 << 20 // 2 MiB

// Config holds all environment-sourced settings.
type Config struct {
	// HTTP server
	Port string

	// SecretKey signs session and flash cookies.
	SecretKey string

	// Database
	DatabasePath string

	// ReadOnly disables disk-writing side effects (avatar uploads).
	// Database writes stay enabled.
	ReadOnly bool

	// Uploads
	UploadDir      string
	MaxUploadBytes int64

	// SecureCookies marks cookies Secure; enable behind TLS.
	SecureCookies bool
}

// Load reads configuration from the environment, applying defaults.
func Load() *Config {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		SecretKey:      getEnv("SECRET_KEY", "dev-secret-change-me"),
		DatabasePath:   getEnv("DATABASE_PATH", ""),
		ReadOnly:       getEnvBool("READ_ONLY", true),
		UploadDir:      getEnv("UPLOAD_DIR", "./data/uploads"),
		MaxUploadBytes: getEnvInt64("MAX_UPLOAD_BYTES", defaultMaxUploadBytes),
		SecureCookies:  getEnvBool("SECURE_COOKIES", false),
	}

	// Without an explicit database path, read-only deployments run fully
	// in memory and writable ones persist next to the binary.
	if cfg.DatabasePath == "" {
		if cfg.ReadOnly {
			cfg.DatabasePath = ":memory:"
		} else {
			cfg.DatabasePath = "./data/outlay.db"
		}
	}

	return cfg
}

// Validate checks the configuration and returns an error listing every problem.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if strings.TrimSpace(c.SecretKey) == "" {
		errs = append(errs, "secret key cannot be empty")
	}

	if c.DatabasePath == "" {
		errs = append(errs, "database path cannot be empty")
	} else if c.DatabasePath != ":memory:" {
		dir := filepath.Dir(c.DatabasePath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errs = append(errs, fmt.Sprintf("cannot create database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.MaxUploadBytes < 1024 {
		errs = append(errs, fmt.Sprintf("invalid max upload size %d: must be at least 1024 bytes", c.MaxUploadBytes))
	} else if c.MaxUploadBytes > 64<<20 {
		errs = append(errs, fmt.Sprintf("invalid max upload size %d: must be at most 64 MiB", c.MaxUploadBytes))
	}

	if !c.ReadOnly {
		if c.UploadDir == "" {
			errs = append(errs, "upload directory cannot be empty when uploads are enabled")
		} else if err := os.MkdirAll(c.UploadDir, 0755); err != nil {
			errs = append(errs, fmt.Sprintf("cannot create upload directory '%s': %v", c.UploadDir, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}

	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	switch strings.ToLower(value) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}
