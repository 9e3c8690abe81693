// Package config defines the recordkv server configuration and loads it
// from a YAML file and RECORDKV_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/loganszeto/recordkv/internal/protocol"
)

// Default configuration values.
const (
	DefaultAddr            = "127.0.0.1:8080"
	DefaultHTTPAddr        = "127.0.0.1:8081"
	DefaultMaxConns        = 256
	DefaultMaxRequestBytes = protocol.DefaultMaxRequestBytes
	DefaultIdleTimeout     = 5 * time.Minute
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second

	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Config is the root configuration for kv-server.
type Config struct {
	Server ServerSection `koanf:"server"`
	HTTP   HTTPSection   `koanf:"http"`
	Log    LogSection    `koanf:"log"`
}

// ServerSection configures the command listener.
type ServerSection struct {
	Addr string `koanf:"addr"`
	// MaxConns caps connections served at once. Further clients wait in
	// the accept backlog.
	MaxConns        int           `koanf:"max_conns"`
	MaxRequestBytes int           `koanf:"max_request_bytes"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	// RateLimit is commands per second per connection; 0 disables it.
	RateLimit int `koanf:"rate_limit"`
}

// HTTPSection configures the status listener serving /healthz, /metrics
// and /ws. An empty Addr disables it.
type HTTPSection struct {
	Addr string `koanf:"addr"`
}

type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

func Default() *Config {
	return &Config{
		Server: ServerSection{
			Addr:            DefaultAddr,
			MaxConns:        DefaultMaxConns,
			MaxRequestBytes: DefaultMaxRequestBytes,
			IdleTimeout:     DefaultIdleTimeout,
			ReadTimeout:     DefaultReadTimeout,
			WriteTimeout:    DefaultWriteTimeout,
		},
		HTTP: HTTPSection{
			Addr: DefaultHTTPAddr,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// Verify validates the configuration.
func Verify(cfg *Config) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if cfg.HTTP.Addr != "" {
		if _, _, err := net.SplitHostPort(cfg.HTTP.Addr); err != nil {
			return fmt.Errorf("http.addr: %w", err)
		}
		if cfg.HTTP.Addr == cfg.Server.Addr {
			return errors.New("http.addr must differ from server.addr")
		}
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "", "text", "console", "json":
	default:
		return fmt.Errorf("log.format: unknown format %q", cfg.Log.Format)
	}
	return nil
}

func verifyServer(cfg *ServerSection) error {
	if cfg.Addr == "" {
		return errors.New("server.addr is required")
	}
	if _, _, err := net.SplitHostPort(cfg.Addr); err != nil {
		return fmt.Errorf("server.addr: %w", err)
	}
	if cfg.MaxConns < 1 {
		return errors.New("server.max_conns must be at least 1")
	}
	if cfg.MaxRequestBytes < 1 {
		return errors.New("server.max_request_bytes must be at least 1")
	}
	if cfg.IdleTimeout < 0 || cfg.ReadTimeout < 0 || cfg.WriteTimeout < 0 {
		return errors.New("server timeouts must not be negative")
	}
	if cfg.RateLimit < 0 {
		return errors.New("server.rate_limit must not be negative")
	}
	return nil
}
