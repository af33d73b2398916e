// SPDX-License-Identifier: MPL-2.0

package config

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// GenerateCUE renders cfg as a CUE document accepted by the schema.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// i18nbundle configuration\n\n")
	fmt.Fprintf(&sb, "path: %q\n", cfg.Path)

	if out := cueOut(cfg.Out); out != "" {
		fmt.Fprintf(&sb, "out:  %s\n", out)
	}

	sb.WriteString("\ndev: {\n")
	fmt.Fprintf(&sb, "\taddr:     %q\n", cfg.Dev.Addr)
	fmt.Fprintf(&sb, "\tdebounce: %q\n", cfg.Dev.Debounce)
	fmt.Fprintf(&sb, "\ttopic:    %q\n", cfg.Dev.Topic)
	if len(cfg.Dev.Ignore) > 0 {
		fmt.Fprintf(&sb, "\tignore: %s\n", cueList(cfg.Dev.Ignore))
	}
	if len(cfg.Dev.AllowOrigins) > 0 {
		fmt.Fprintf(&sb, "\tallow_origins: %s\n", cueList(cfg.Dev.AllowOrigins))
	}
	sb.WriteString("}\n")

	sb.WriteString("\nlog: {\n")
	fmt.Fprintf(&sb, "\tlevel: %q\n", cfg.Log.Level)
	if cfg.Log.File != "" {
		fmt.Fprintf(&sb, "\tfile:  %q\n", cfg.Log.File)
	}
	fmt.Fprintf(&sb, "\tmax_size_mb:  %d\n", cfg.Log.MaxSizeMB)
	fmt.Fprintf(&sb, "\tmax_backups:  %d\n", cfg.Log.MaxBackups)
	fmt.Fprintf(&sb, "\tmax_age_days: %d\n", cfg.Log.MaxAgeDays)
	fmt.Fprintf(&sb, "\tcompress:     %v\n", cfg.Log.Compress)
	sb.WriteString("}\n")

	return sb.String()
}

// MarshalTOML renders cfg as TOML.
func MarshalTOML(cfg *Config) ([]byte, error) {
	b, err := toml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encode config as TOML: %w", err)
	}
	return b, nil
}

func cueOut(out any) string {
	switch v := out.(type) {
	case nil:
		return ""
	case bool:
		return fmt.Sprintf("%v", v)
	case string:
		return fmt.Sprintf("%q", v)
	case map[string]any:
		fields := make([]string, 0, len(v))
		for _, k := range slices.Sorted(maps.Keys(v)) {
			fields = append(fields, fmt.Sprintf("%s: %q", k, fmt.Sprint(v[k])))
		}
		return "{" + strings.Join(fields, ", ") + "}"
	default:
		return ""
	}
}

func cueList(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = fmt.Sprintf("%q", item)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
