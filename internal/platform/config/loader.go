package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"artifact-server-go/internal/platform/errors"
)

const configFileName = ".config.yaml"

// Loader reads configuration from defaults, an optional yaml file, and
// environment variables (highest precedence).
type Loader struct {
	useDotEnv bool
	path      string
}

// NewLoader creates a loader that reads .config.yaml from the working directory.
func NewLoader() *Loader {
	return &Loader{
		useDotEnv: true,
		path:      configFileName,
	}
}

// WithDotEnv toggles loading variables from a .env file before reading config.
func (l *Loader) WithDotEnv(enabled bool) *Loader {
	l.useDotEnv = enabled
	return l
}

// WithPath overrides the configuration file location (useful for tests).
func (l *Loader) WithPath(path string) *Loader {
	if path != "" {
		l.path = path
	}
	return l
}

// Load retrieves the effective configuration.
func (l *Loader) Load() (*Config, error) {
	if l.useDotEnv {
		if err := godotenv.Load(); err != nil {
			fmt.Println("no .env file found, using process environment")
		}
	}

	cfg := DefaultConfig()

	if data, err := os.ReadFile(l.path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(errors.KindConfig, "config.load", "failed to parse config file", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrap(errors.KindConfig, "config.load", "failed to read config file", err)
	}

	l.applyEnv(cfg)

	if err := l.validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (l *Loader) applyEnv(cfg *Config) {
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.Server.Auth.Secret = secret
	}
	if port := os.Getenv("HTTP_PORT"); port != "" {
		if parsed, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = parsed
		}
	}
	if path := os.Getenv("DATABASE_PATH"); path != "" {
		cfg.Database.Path = path
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if ttl := os.Getenv("TOKEN_TTL"); ttl != "" {
		if parsed, err := time.ParseDuration(ttl); err == nil && parsed > 0 {
			cfg.Server.Auth.TokenTTL = parsed
		}
	}
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		parts := strings.Split(origins, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		cfg.CORS.AllowOrigins = parts
	}
}

func (l *Loader) validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return errors.New(errors.KindConfig, "config.validate",
			fmt.Sprintf("invalid server port %d", cfg.Server.Port))
	}
	if strings.TrimSpace(cfg.Server.Auth.Secret) == "" {
		return errors.New(errors.KindConfig, "config.validate",
			"JWT_SECRET is required and must not be empty")
	}
	if strings.TrimSpace(cfg.Database.Path) == "" {
		return errors.New(errors.KindConfig, "config.validate",
			"database path must not be empty")
	}
	return nil
}
