// SPDX-License-Identifier: MPL-2.0

package config

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

// maxConfigFileSize bounds the config file read into memory.
const maxConfigFileSize int64 = 1 << 20

//go:embed config_schema.cue
var configSchema string

// Schema returns the embedded CUE schema source.
func Schema() string {
	return configSchema
}

// decodeCUE compiles data, validates it against #Config and returns the
// decoded map for merging into Viper.
func decodeCUE(data []byte, path string) (map[string]any, error) {
	if err := checkFileSize(data, maxConfigFileSize, path); err != nil {
		return nil, err
	}
	ctx := cuecontext.New()
	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return nil, formatCUEError(userValue.Err(), path)
	}
	return validateValue(ctx, userValue, path)
}

// validateGoValue validates an already decoded document (TOML) against
// #Config.
func validateGoValue(raw map[string]any, path string) (map[string]any, error) {
	ctx := cuecontext.New()
	userValue := ctx.Encode(raw)
	if userValue.Err() != nil {
		return nil, formatCUEError(userValue.Err(), path)
	}
	return validateValue(ctx, userValue, path)
}

// validateValue unifies the user value with #Config. Concrete(false) is used
// because every field is optional.
func validateValue(ctx *cue.Context, userValue cue.Value, path string) (map[string]any, error) {
	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return nil, fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return nil, formatCUEError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return nil, formatCUEError(err, path)
	}
	return configMap, nil
}

// formatCUEError renders CUE errors as "<file>: <json.path>: <message>", one
// line per error.
func formatCUEError(err error, filePath string) error {
	if err == nil {
		return nil
	}

	list := cueerrors.Errors(err)
	if len(list) == 0 {
		return fmt.Errorf("%s: %w", filePath, err)
	}

	lines := make([]string, 0, len(list))
	for _, e := range list {
		pathStr := formatPath(cueerrors.Path(e))
		msg := e.Error()

		// CUE sometimes repeats the path inside the message.
		if pathStr != "" && strings.HasPrefix(msg, pathStr) {
			msg = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(msg, pathStr), ":"))
		}

		if pathStr != "" {
			lines = append(lines, pathStr+": "+msg)
		} else {
			lines = append(lines, msg)
		}
	}

	if len(lines) == 1 {
		return fmt.Errorf("%s: %s", filePath, lines[0])
	}
	return fmt.Errorf("%s: validation failed:\n  %s", filePath, strings.Join(lines, "\n  "))
}

// formatPath turns ["dev", "ignore", "0"] into "dev.ignore[0]".
func formatPath(path []string) string {
	var sb strings.Builder
	for i, part := range path {
		switch {
		case i > 0 && isIndex(part):
			sb.WriteString("[" + part + "]")
		case i > 0:
			sb.WriteString("." + part)
		default:
			sb.WriteString(part)
		}
	}
	return sb.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func checkFileSize(data []byte, maxSize int64, filename string) error {
	if int64(len(data)) > maxSize {
		return fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes", filename, len(data), maxSize)
	}
	return nil
}
