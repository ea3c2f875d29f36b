package config

import "github.com/spf13/viper"

// setDefaults sets the built-in defaults for a standalone node.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.rpc_host", "127.0.0.1")
	v.SetDefault("server.rpc_port", 5005)
	v.SetDefault("server.ws_host", "127.0.0.1")
	v.SetDefault("server.ws_port", 6006)
	v.SetDefault("server.rpc_timeout_seconds", 30)

	// Chain defaults
	v.SetDefault("chain.network_id", 1)
	v.SetDefault("chain.block_interval_seconds", 4)
	v.SetDefault("chain.standalone", true)

	// Snapshot database defaults
	v.SetDefault("node_db.type", "memory")
	v.SetDefault("node_db.path", "")

	// History defaults; empty driver disables the audit trail
	v.SetDefault("history_db.driver", "")
	v.SetDefault("history_db.dsn", "")

	v.SetDefault("auction_cache_size", 1024)
}
