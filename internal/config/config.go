package config

import (
	"path/filepath"
	"time"
)

// Config is the complete dutchd node configuration, loaded from
// dutchd.toml with DUTCHD_ environment overrides.
type Config struct {
	// Server section
	Server ServerConfig `toml:"server" mapstructure:"server"`

	// Chain section
	Chain ChainConfig `toml:"chain" mapstructure:"chain"`

	// Snapshot database
	NodeDB NodeDBConfig `toml:"node_db" mapstructure:"node_db"`

	// Audit trail database
	HistoryDB HistoryDBConfig `toml:"history_db" mapstructure:"history_db"`

	// AuctionCacheSize bounds the hot-instance cache.
	AuctionCacheSize int `toml:"auction_cache_size" mapstructure:"auction_cache_size"`

	DebugLogfile string `toml:"debug_logfile" mapstructure:"debug_logfile"`

	configPath string `toml:"-" mapstructure:"-"`
}

// ServerConfig holds the RPC and WebSocket listener settings.
type ServerConfig struct {
	RPCHost string `toml:"rpc_host" mapstructure:"rpc_host"`
	RPCPort int    `toml:"rpc_port" mapstructure:"rpc_port"`
	WSHost  string `toml:"ws_host" mapstructure:"ws_host"`
	WSPort  int    `toml:"ws_port" mapstructure:"ws_port"`

	// RPCTimeoutSeconds bounds a single method execution.
	RPCTimeoutSeconds int `toml:"rpc_timeout_seconds" mapstructure:"rpc_timeout_seconds"`
}

// RPCTimeout returns the method execution bound as a duration.
func (s ServerConfig) RPCTimeout() time.Duration {
	return time.Duration(s.RPCTimeoutSeconds) * time.Second
}

// ChainConfig describes the block clock.
type ChainConfig struct {
	NetworkID uint32 `toml:"network_id" mapstructure:"network_id"`

	// BlockIntervalSeconds is how often the chain advances. Ignored in
	// standalone mode, where blocks advance only via the advance method.
	BlockIntervalSeconds int `toml:"block_interval_seconds" mapstructure:"block_interval_seconds"`

	Standalone bool `toml:"standalone" mapstructure:"standalone"`
}

// BlockInterval returns the block cadence as a duration.
func (c ChainConfig) BlockInterval() time.Duration {
	return time.Duration(c.BlockIntervalSeconds) * time.Second
}

// NodeDBConfig selects the snapshot key-value store.
type NodeDBConfig struct {
	// Type is one of "memory", "pebble", "leveldb".
	Type string `toml:"type" mapstructure:"type"`
	Path string `toml:"path" mapstructure:"path"`
}

// HistoryDBConfig selects the relational audit store.
type HistoryDBConfig struct {
	// Driver is one of "", "sqlite", "postgres". Empty disables history.
	Driver string `toml:"driver" mapstructure:"driver"`
	DSN    string `toml:"dsn" mapstructure:"dsn"`
}

// ConfigPath returns the path of the loaded configuration file, or ""
// when running on defaults only.
func (c *Config) ConfigPath() string {
	return c.configPath
}

// DefaultConfigPath returns the conventional config file location.
func DefaultConfigPath() string {
	return "dutchd.toml"
}

// ConfigPathFromDir returns the config file location under configDir.
func ConfigPathFromDir(configDir string) string {
	return filepath.Join(configDir, "dutchd.toml")
}
