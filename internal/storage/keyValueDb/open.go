package keyValueDb

// Driver names accepted by node configuration. The node wiring maps them
// to concrete backends, so importing a backend stays an explicit choice.
const (
	DriverMemory  = "memory"
	DriverPebble  = "pebble"
	DriverLevelDB = "leveldb"
)
