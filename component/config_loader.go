package component

// ConfigLoader configuration loader interface
//
// Components read their own section through it instead of depending on an app-wide config struct.
type ConfigLoader interface {
	// Get configuration item (e.g., "event.pool_size")
	Get(key string) interface{}

	// Unmarshal deserializes a configuration section into a struct
	//
	// Example:
	//   var cfg event.Config
	//   if err := loader.Unmarshal("event", &cfg); err != nil {
	//       return err
	//   }
	Unmarshal(key string, v interface{}) error

	// GetString Get string configuration
	GetString(key string) string

	// GetInt Get integer configuration
	GetInt(key string) int

	// GetBool Get boolean configuration
	GetBool(key string) bool

	// IsSet Check if the configuration item exists
	IsSet(key string) bool
}
