package config

import (
	"fmt"
	"sort"

	"github.com/spf13/viper"
)

// Loader merges its sources by priority into a viper instance.
// It satisfies component.ConfigLoader.
type Loader struct {
	sources     []ConfigSource
	merged      map[string]interface{} // flat keys after merging
	v           *viper.Viper
	loadedFiles []string
}

// NewLoader creates an empty loader
func NewLoader() *Loader {
	return &Loader{
		merged: make(map[string]interface{}),
		v:      viper.New(),
	}
}

// AddSource adds a source; takes effect on the next Load
func (l *Loader) AddSource(source ConfigSource) {
	l.sources = append(l.sources, source)
}

// Load reads every source, lowest priority first, so later ones override
func (l *Loader) Load() error {
	sort.SliceStable(l.sources, func(i, j int) bool {
		return l.sources[i].Priority() < l.sources[j].Priority()
	})

	merged := make(map[string]interface{})
	var files []string
	for _, source := range l.sources {
		data, err := source.Load()
		if err != nil {
			return fmt.Errorf("load config source %s: %w", source.Name(), err)
		}
		if fileSource, ok := source.(*FileSource); ok && len(data) > 0 {
			files = append(files, fileSource.Path())
		}
		for key, value := range data {
			merged[key] = value
		}
	}

	v := viper.New()
	for key, value := range merged {
		v.Set(key, value)
	}

	l.merged = merged
	l.loadedFiles = files
	l.v = v
	return nil
}

// Reload re-reads all sources
func (l *Loader) Reload() error {
	return l.Load()
}

// Unmarshal decodes the section at key into v; an empty key decodes everything
func (l *Loader) Unmarshal(key string, v interface{}) error {
	if key == "" {
		return l.v.Unmarshal(v)
	}
	return l.v.UnmarshalKey(key, v)
}

// Get returns the raw value at key
func (l *Loader) Get(key string) interface{} {
	return l.v.Get(key)
}

// GetString returns the value at key as a string
func (l *Loader) GetString(key string) string {
	return l.v.GetString(key)
}

// GetInt returns the value at key as an int
func (l *Loader) GetInt(key string) int {
	return l.v.GetInt(key)
}

// GetBool returns the value at key as a bool
func (l *Loader) GetBool(key string) bool {
	return l.v.GetBool(key)
}

// IsSet reports whether any source set key or a key below it
func (l *Loader) IsSet(key string) bool {
	return l.v.IsSet(key)
}

// Set overrides a single key in memory until the next Load
func (l *Loader) Set(key string, value interface{}) {
	l.merged[key] = value
	l.v.Set(key, value)
}

// AllSettings returns the nested settings
func (l *Loader) AllSettings() map[string]interface{} {
	return l.v.AllSettings()
}

// GetLoadedFiles lists files that contributed values
func (l *Loader) GetLoadedFiles() []string {
	return l.loadedFiles
}
