// Package flagx registers cobra/pflag flags straight from struct tags.
package flagx

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// Bind registers one flag per `flag`-tagged field of target and binds it to the field.
// The field's current value is the default unless a `default` tag overrides it.
//
//	type benchOptions struct {
//	    Workers int           `flag:"workers,w" usage:"firing goroutines" default:"4"`
//	    Warmup  time.Duration `flag:"warmup" usage:"fire before measuring"`
//	}
//	_ = flagx.Bind(cmd.Flags(), &opts)
func Bind(fs *pflag.FlagSet, target interface{}) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("target must be a pointer to struct, got %T", target)
	}
	v = v.Elem()
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag := sf.Tag.Get("flag")
		if tag == "" || tag == "-" || !sf.IsExported() {
			continue
		}
		name, short, _ := strings.Cut(tag, ",")

		if def, ok := sf.Tag.Lookup("default"); ok {
			if err := setDefault(v.Field(i), def); err != nil {
				return fmt.Errorf("field %s: bad default %q: %w", sf.Name, def, err)
			}
		}
		if err := bind(fs, v.Field(i), name, short, sf.Tag.Get("usage")); err != nil {
			return fmt.Errorf("field %s: %w", sf.Name, err)
		}
	}
	return nil
}

func bind(fs *pflag.FlagSet, field reflect.Value, name, short, usage string) error {
	switch p := field.Addr().Interface().(type) {
	case *string:
		fs.StringVarP(p, name, short, *p, usage)
	case *int:
		fs.IntVarP(p, name, short, *p, usage)
	case *int64:
		fs.Int64VarP(p, name, short, *p, usage)
	case *bool:
		fs.BoolVarP(p, name, short, *p, usage)
	case *float64:
		fs.Float64VarP(p, name, short, *p, usage)
	case *time.Duration:
		fs.DurationVarP(p, name, short, *p, usage)
	case *[]string:
		fs.StringSliceVarP(p, name, short, *p, usage)
	default:
		return fmt.Errorf("unsupported flag type %s", field.Type())
	}
	return nil
}

func setDefault(field reflect.Value, raw string) error {
	switch p := field.Addr().Interface().(type) {
	case *string:
		*p = raw
	case *int:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return err
		}
		*p = n
	case *int64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return err
		}
		*p = n
	case *bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		*p = b
	case *float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return err
		}
		*p = f
	case *time.Duration:
		d, err := time.ParseDuration(raw)
		if err != nil {
			return err
		}
		*p = d
	case *[]string:
		*p = strings.Split(raw, ",")
	default:
		return fmt.Errorf("unsupported flag type %s", field.Type())
	}
	return nil
}
