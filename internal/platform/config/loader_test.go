package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoader_Load(t *testing.T) {
	tempDir := t.TempDir()
	configFile := filepath.Join(tempDir, ".config.yaml")

	configContent := `
server:
  ip: "127.0.0.1"
  port: 8080
log:
  log_level: "debug"
  log_dir: "/tmp/logs"
  log_file: "test.log"
database:
  path: "/tmp/test.db"
`

	if err := os.WriteFile(configFile, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	t.Setenv("JWT_SECRET", "test-secret")

	loader := NewLoader().WithDotEnv(false).WithPath(configFile)
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.IP != "127.0.0.1" {
		t.Errorf("expected server IP 127.0.0.1, got %s", cfg.Server.IP)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected server port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.Log.Level)
	}
	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("expected database path /tmp/test.db, got %s", cfg.Database.Path)
	}
	if cfg.Server.Auth.Secret != "test-secret" {
		t.Errorf("expected secret from environment, got %q", cfg.Server.Auth.Secret)
	}
}

func TestLoader_EnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_PATH", "/tmp/override.db")
	t.Setenv("TOKEN_TTL", "720h")

	loader := NewLoader().WithDotEnv(false).WithPath(filepath.Join(t.TempDir(), "missing.yaml"))
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("expected port override 9090, got %d", cfg.Server.Port)
	}
	if cfg.Database.Path != "/tmp/override.db" {
		t.Errorf("expected database path override, got %s", cfg.Database.Path)
	}
	if cfg.Server.Auth.TokenTTL != 720*time.Hour {
		t.Errorf("expected token ttl override, got %v", cfg.Server.Auth.TokenTTL)
	}
}

func TestLoader_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	loader := NewLoader().WithDotEnv(false).WithPath(filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := loader.Load(); err == nil {
		t.Fatal("expected error for missing JWT_SECRET")
	}
}

func TestLoader_Validate(t *testing.T) {
	loader := NewLoader()

	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{
			name: "valid config",
			config: &Config{
				Server:   ServerConfig{Port: 8080, Auth: AuthConfig{Secret: "s"}},
				Database: DatabaseConfig{Path: "/tmp/db"},
			},
			wantErr: false,
		},
		{
			name: "invalid server port",
			config: &Config{
				Server:   ServerConfig{Port: 70000, Auth: AuthConfig{Secret: "s"}},
				Database: DatabaseConfig{Path: "/tmp/db"},
			},
			wantErr: true,
		},
		{
			name: "empty database path",
			config: &Config{
				Server: ServerConfig{Port: 8080, Auth: AuthConfig{Secret: "s"}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := loader.validate(tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
