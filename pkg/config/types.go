package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent memline configuration stored as
// config.toml in the .memline/ directory. The TOML layout uses sections for
// logical grouping.
type Config struct {
	Version int           `toml:"version"`
	Storage StorageConfig `toml:"storage"`
	API     APIConfig     `toml:"api"`
	MCP     MCPConfig     `toml:"mcp"`
	Ingest  IngestConfig  `toml:"ingest"`
}

// StorageConfig selects and configures the backing store.
type StorageConfig struct {
	// Provider is one of "memory", "sqlite", "postgres".
	Provider    string `toml:"provider,omitempty"`
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// MCPConfig controls the MCP tool surface mounted on the API server.
type MCPConfig struct {
	Enabled bool `toml:"enabled,omitempty"`
}

// IngestConfig holds settings for the conversation-closed event consumer.
// Brokers is a comma-separated list of Kafka bootstrap addresses.
type IngestConfig struct {
	Enabled bool   `toml:"enabled,omitempty"`
	Brokers string `toml:"brokers,omitempty"`
	Topic   string `toml:"topic,omitempty"`
	GroupID string `toml:"group_id,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"storage.provider": {
		get: func(c *Config) string { return c.Storage.Provider },
		set: func(c *Config, v string) error { c.Storage.Provider = v; return nil },
	},
	"storage.sqlite_path": {
		get: func(c *Config) string { return c.Storage.SQLitePath },
		set: func(c *Config, v string) error { c.Storage.SQLitePath = v; return nil },
	},
	"storage.postgres_dsn": {
		get: func(c *Config) string { return c.Storage.PostgresDSN },
		set: func(c *Config, v string) error { c.Storage.PostgresDSN = v; return nil },
	},
	"api.listen": {
		get: func(c *Config) string { return c.API.Listen },
		set: func(c *Config, v string) error { c.API.Listen = v; return nil },
	},
	"mcp.enabled": {
		get: func(c *Config) string { return strconv.FormatBool(c.MCP.Enabled) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("mcp.enabled must be a boolean, got %q", v)
			}
			c.MCP.Enabled = b
			return nil
		},
	},
	"ingest.enabled": {
		get: func(c *Config) string { return strconv.FormatBool(c.Ingest.Enabled) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("ingest.enabled must be a boolean, got %q", v)
			}
			c.Ingest.Enabled = b
			return nil
		},
	},
	"ingest.brokers": {
		get: func(c *Config) string { return c.Ingest.Brokers },
		set: func(c *Config, v string) error { c.Ingest.Brokers = v; return nil },
	},
	"ingest.topic": {
		get: func(c *Config) string { return c.Ingest.Topic },
		set: func(c *Config, v string) error { c.Ingest.Topic = v; return nil },
	},
	"ingest.group_id": {
		get: func(c *Config) string { return c.Ingest.GroupID },
		set: func(c *Config, v string) error { c.Ingest.GroupID = v; return nil },
	},
}
