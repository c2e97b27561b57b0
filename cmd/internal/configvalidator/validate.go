// Package configvalidator detects configuration keys that are not known to
// the application.
package configvalidator

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrUnknownField is returned when the configuration has a key that does not
// correspond to any field of the configuration structure.
var ErrUnknownField = errors.New("unknown field")

// CheckForUnknownFields matches configMap against fields of the config
// structure named by `mapstructure` tags. Nested maps are checked against
// nested structures.
func CheckForUnknownFields(configMap map[string]any, config any) error {
	return check(configMap, reflect.TypeOf(config), "")
}

func check(m map[string]any, t reflect.Type, path string) error {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	fields := make(map[string]reflect.Type, t.NumField())
	for i := range t.NumField() {
		f := t.Field(i)
		name := f.Tag.Get("mapstructure")
		if name == "" {
			name = f.Name
		}
		fields[name] = f.Type
	}

	for key, val := range m {
		fullPath := key
		if path != "" {
			fullPath = path + "." + key
		}

		ft, ok := fields[key]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownField, fullPath)
		}

		nested, isMap := val.(map[string]any)
		isStruct := ft.Kind() == reflect.Struct
		switch {
		case isMap && isStruct:
			if err := check(nested, ft, fullPath); err != nil {
				return err
			}
		case isMap != isStruct:
			return fmt.Errorf("%w: %s", ErrUnknownField, fullPath)
		}
	}

	return nil
}
