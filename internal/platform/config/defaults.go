package config

import "time"

// DefaultConfig returns the baseline configuration applied before the yaml
// file and environment overrides.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			IP:   "0.0.0.0",
			Port: 5000,
			Auth: AuthConfig{
				// Sessions are stateless; the long expiry mirrors the
				// cookie lifetime handed to clients.
				TokenTTL: 365 * 24 * time.Hour,
			},
		},
		Log: LogConfig{
			Level: "info",
			Dir:   "data/logs",
			File:  "server.log",
		},
		Database: DatabaseConfig{
			Path: "data/artifacts.db",
		},
		CORS: CORSConfig{
			AllowOrigins: []string{"*"},
		},
	}
}
