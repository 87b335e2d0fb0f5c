package config

import (
	"time"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	CORS     CORSConfig     `yaml:"cors"`
}

type ServerConfig struct {
	IP   string     `yaml:"ip"`
	Port int        `yaml:"port"`
	Auth AuthConfig `yaml:"auth"`
}

// AuthConfig holds the session token settings. Secret is never stored in
// the yaml file; it comes from the environment (JWT_SECRET).
type AuthConfig struct {
	Secret   string        `yaml:"-"`
	TokenTTL time.Duration `yaml:"token_ttl"`
}

type LogConfig struct {
	Level string `yaml:"log_level"`
	Dir   string `yaml:"log_dir"`
	File  string `yaml:"log_file"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type CORSConfig struct {
	AllowOrigins []string `yaml:"allow_origins"`
}
