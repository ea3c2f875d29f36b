package config

import (
	"fmt"
)

// ValidateConfig checks the complete configuration for contradictions.
func ValidateConfig(config *Config) error {
	if err := config.Server.Validate(); err != nil {
		return fmt.Errorf("server validation failed: %w", err)
	}
	if err := config.Chain.Validate(); err != nil {
		return fmt.Errorf("chain validation failed: %w", err)
	}
	if err := config.NodeDB.Validate(); err != nil {
		return fmt.Errorf("node_db validation failed: %w", err)
	}
	if err := config.HistoryDB.Validate(); err != nil {
		return fmt.Errorf("history_db validation failed: %w", err)
	}
	if config.AuctionCacheSize < 0 {
		return fmt.Errorf("auction_cache_size cannot be negative: %d", config.AuctionCacheSize)
	}
	return nil
}

// Validate checks listener settings.
func (s ServerConfig) Validate() error {
	if s.RPCPort < 1 || s.RPCPort > 65535 {
		return fmt.Errorf("invalid rpc_port: %d", s.RPCPort)
	}
	if s.WSPort < 1 || s.WSPort > 65535 {
		return fmt.Errorf("invalid ws_port: %d", s.WSPort)
	}
	if s.RPCPort == s.WSPort && s.RPCHost == s.WSHost {
		return fmt.Errorf("rpc and ws listeners collide on %s:%d", s.RPCHost, s.RPCPort)
	}
	if s.RPCTimeoutSeconds <= 0 {
		return fmt.Errorf("rpc_timeout_seconds must be positive: %d", s.RPCTimeoutSeconds)
	}
	return nil
}

// Validate checks the block clock settings.
func (c ChainConfig) Validate() error {
	if !c.Standalone && c.BlockIntervalSeconds <= 0 {
		return fmt.Errorf("block_interval_seconds must be positive: %d", c.BlockIntervalSeconds)
	}
	return nil
}

// Validate checks the snapshot store selection.
func (n NodeDBConfig) Validate() error {
	switch n.Type {
	case "memory":
		return nil
	case "pebble", "leveldb":
		if n.Path == "" {
			return fmt.Errorf("node_db type %q requires a path", n.Type)
		}
		return nil
	default:
		return fmt.Errorf("unknown node_db type: %q", n.Type)
	}
}

// Validate checks the audit store selection.
func (h HistoryDBConfig) Validate() error {
	switch h.Driver {
	case "":
		return nil
	case "sqlite", "postgres":
		if h.DSN == "" {
			return fmt.Errorf("history_db driver %q requires a dsn", h.Driver)
		}
		return nil
	default:
		return fmt.Errorf("unknown history_db driver: %q", h.Driver)
	}
}
