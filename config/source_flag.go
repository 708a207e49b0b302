package config

import (
	"fmt"
	"reflect"
	"strings"
)

// FlagSource maps a parsed flag struct onto config keys through `config` tags.
// Zero-valued fields are skipped so unset flags never mask lower sources.
//
//	type Flags struct {
//	    PoolSize int    `config:"event.pool_size"`
//	    LogLevel string `config:"logger.level"`
//	}
type FlagSource struct {
	flags    interface{}
	priority int
}

// NewFlagSource creates a flag source
func NewFlagSource(flags interface{}, priority int) *FlagSource {
	return &FlagSource{flags: flags, priority: priority}
}

// Name source name
func (s *FlagSource) Name() string {
	return "flags"
}

// Priority source priority
func (s *FlagSource) Priority() int {
	return s.priority
}

// Load reads tagged, non-zero fields
func (s *FlagSource) Load() (map[string]interface{}, error) {
	result := make(map[string]interface{})
	if s.flags == nil {
		return result, nil
	}

	v := reflect.ValueOf(s.flags)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return result, nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, fmt.Errorf("flags must be a struct or pointer to struct, got %T", s.flags)
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		if !field.CanInterface() || field.IsZero() {
			continue
		}

		// a field may feed several keys: `config:"a.b,c.d"`
		for _, key := range strings.Split(t.Field(i).Tag.Get("config"), ",") {
			key = strings.TrimSpace(key)
			if key == "" || key == "-" {
				continue
			}
			result[key] = field.Interface()
		}
	}
	return result, nil
}
