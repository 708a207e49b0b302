package config

import (
	"os"
	"strings"
)

// EnvSource reads environment variables.
//
// Without explicit bindings every PREFIX_SECTION_KEY variable maps to
// "section.key": only the first underscore after the prefix nests, so
// EVENTBUS_EVENT_POOL_SIZE becomes "event.pool_size".
type EnvSource struct {
	prefix   string
	priority int
	bindings map[string]string // config key -> env var (prefix optional)
}

// NewEnvSource creates an environment source
func NewEnvSource(prefix string, priority int) *EnvSource {
	return &EnvSource{
		prefix:   prefix,
		priority: priority,
		bindings: make(map[string]string),
	}
}

// AddBinding maps a config key to one variable, e.g. ("logger.level", "LOG_LEVEL")
func (s *EnvSource) AddBinding(key, envKey string) {
	s.bindings[key] = envKey
}

// Name source name
func (s *EnvSource) Name() string {
	return "env:" + s.prefix
}

// Priority source priority
func (s *EnvSource) Priority() int {
	return s.priority
}

// Load collects bound or prefixed variables
func (s *EnvSource) Load() (map[string]interface{}, error) {
	result := make(map[string]interface{})

	if len(s.bindings) > 0 {
		for key, envKey := range s.bindings {
			if s.prefix != "" && !strings.HasPrefix(envKey, s.prefix+"_") {
				envKey = s.prefix + "_" + envKey
			}
			if value, ok := os.LookupEnv(envKey); ok && value != "" {
				result[key] = value
			}
		}
		return result, nil
	}

	if s.prefix == "" {
		return result, nil
	}

	prefix := s.prefix + "_"
	for _, env := range os.Environ() {
		name, value, ok := strings.Cut(env, "=")
		if !ok || !strings.HasPrefix(name, prefix) {
			continue
		}
		if key := envKeyToConfigKey(strings.TrimPrefix(name, prefix)); key != "" {
			result[key] = value
		}
	}
	return result, nil
}

// envKeyToConfigKey EVENT_POOL_SIZE -> event.pool_size
func envKeyToConfigKey(name string) string {
	name = strings.ToLower(name)
	section, rest, ok := strings.Cut(name, "_")
	if !ok || section == "" || rest == "" {
		return name
	}
	return section + "." + rest
}
