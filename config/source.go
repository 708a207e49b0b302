// Package config merges layered configuration sources into one viper-backed Loader.
package config

// ConfigSource a source of configuration values (file, environment, flags)
type ConfigSource interface {
	// Name used in errors and logs
	Name() string

	// Priority; higher values override lower ones.
	// Conventional values: config.yaml 10, <env>.yaml 20, environment 50, flags 100
	Priority() int

	// Load returns flat, dot-separated keys such as "event.pool_size"
	Load() (map[string]interface{}, error)
}
