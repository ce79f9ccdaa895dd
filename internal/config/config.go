package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr            string        `mapstructure:"addr" yaml:"addr"`
	HTTPAddr        string        `mapstructure:"http_addr" yaml:"http_addr"`
	MaxClients      int           `mapstructure:"max_clients" yaml:"max_clients"`
	MaxNameLen      int           `mapstructure:"max_name_len" yaml:"max_name_len"`
	MaxLineLen      int           `mapstructure:"max_line_len" yaml:"max_line_len"`
	ReadSize        int           `mapstructure:"read_size" yaml:"read_size"`
	OutboxBytes     int           `mapstructure:"outbox_bytes" yaml:"outbox_bytes"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	Tick            time.Duration `mapstructure:"tick" yaml:"tick"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	DatabasePath    string        `mapstructure:"database_path" yaml:"database_path"`
	LogLevel        string        `mapstructure:"log_level" yaml:"log_level"`
}

// Default returns configuration with reasonable starter defaults.
// The HTTP surface (admin API and WebSocket bridge) and the session journal stay off
// until an address or database path is set.
func Default() Config {
	return Config{
		Addr:            ":5555",
		MaxClients:      1024,
		MaxNameLen:      32,
		MaxLineLen:      1024,
		ReadSize:        1024,
		OutboxBytes:     256 << 10,
		WriteTimeout:    5 * time.Second,
		Tick:            time.Second,
		ShutdownTimeout: 5 * time.Second,
		LogLevel:        "info",
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.HTTPAddr != "" {
		c.HTTPAddr = other.HTTPAddr
	}
	if other.MaxClients != 0 {
		c.MaxClients = other.MaxClients
	}
	if other.MaxNameLen != 0 {
		c.MaxNameLen = other.MaxNameLen
	}
	if other.MaxLineLen != 0 {
		c.MaxLineLen = other.MaxLineLen
	}
	if other.ReadSize != 0 {
		c.ReadSize = other.ReadSize
	}
	if other.OutboxBytes != 0 {
		c.OutboxBytes = other.OutboxBytes
	}
	if other.WriteTimeout != 0 {
		c.WriteTimeout = other.WriteTimeout
	}
	if other.Tick != 0 {
		c.Tick = other.Tick
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
}
