// SPDX-License-Identifier: MPL-2.0

package outpath

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// ErrInvalidOptions is returned when a configuration value cannot be decoded
// into Options.
var ErrInvalidOptions = errors.New("invalid out option")

// FromValue decodes a configuration value into Options:
//
//	nil, false        -> Disabled
//	true              -> Default
//	"" (empty string) -> Disabled
//	"<dir>"           -> Dir
//	{dir?, name?}     -> Layout
//
// Values that already are Options are returned unchanged.
func FromValue(raw any) (Options, error) {
	switch v := raw.(type) {
	case nil:
		return Disabled{}, nil
	case Options:
		return v, nil
	case bool:
		if v {
			return Default{}, nil
		}
		return Disabled{}, nil
	case string:
		if v == "" {
			return Disabled{}, nil
		}
		return Dir(v), nil
	case map[string]any:
		return decodeLayout(v)
	case map[any]any:
		converted := make(map[string]any, len(v))
		for k, val := range v {
			key, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("%w: non-string key %v", ErrInvalidOptions, k)
			}
			converted[key] = val
		}
		return decodeLayout(converted)
	default:
		return nil, fmt.Errorf("%w: unsupported type %T", ErrInvalidOptions, raw)
	}
}

// ParseFlag decodes the value of a command line flag. The boolean is false
// when the flag was left empty, meaning "not set". "true" and "false" are
// matched case-insensitively; any other value is a directory.
func ParseFlag(value string) (Options, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return nil, false
	case "true":
		return Default{}, true
	case "false":
		return Disabled{}, true
	default:
		return Dir(value), true
	}
}

// ToValue is the inverse of FromValue for the configuration-expressible
// variants. Func has no configuration form and yields an error.
func ToValue(opts Options) (any, error) {
	switch o := opts.(type) {
	case nil, Disabled:
		return false, nil
	case Default:
		return true, nil
	case Dir:
		if o == "" {
			return false, nil
		}
		return string(o), nil
	case Layout:
		m := make(map[string]any, 2)
		if o.Dir != "" {
			m["dir"] = o.Dir
		}
		if o.Name != "" {
			m["name"] = o.Name
		}
		return m, nil
	default:
		return nil, fmt.Errorf("%w: %T cannot be expressed in configuration", ErrInvalidOptions, opts)
	}
}

func decodeLayout(m map[string]any) (Options, error) {
	var layout Layout
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &layout,
		ErrorUnused: true,
		TagName:     "mapstructure",
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	return layout, nil
}
