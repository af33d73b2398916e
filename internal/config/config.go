// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/dvcol/i18nbundle/internal/issue"
)

const (
	// AppName is the application name.
	AppName = "i18nbundle"
	// ConfigFileName is the config file name without extension.
	ConfigFileName = AppName
	// ExtCUE is the preferred config file extension.
	ExtCUE = "cue"
	// ExtTOML is the alternative config file extension.
	ExtTOML = "toml"
	// EnvPrefix prefixes environment overrides, e.g. I18NBUNDLE_DEV_ADDR.
	EnvPrefix = "I18NBUNDLE"
	// DotEnvFile is read from the config directory when present.
	DotEnvFile = ".env"
)

// ErrConfigNotFound is returned when an explicit config file does not exist.
var ErrConfigNotFound = errors.New("config file not found")

// envKeys are the viper keys that may be overridden from the environment.
// out is handled separately because it is a union of shapes.
var envKeys = []string{
	"path",
	"dev.addr",
	"dev.debounce",
	"dev.topic",
	"dev.ignore",
	"dev.allow_origins",
	"log.level",
	"log.file",
	"log.max_size_mb",
	"log.max_backups",
	"log.max_age_days",
	"log.compress",
}

// EnvName returns the environment variable overriding key.
func EnvName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Locate returns the config file loadWithOptions would read, or "" when none
// exists.
func Locate(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", fmt.Errorf("%w: %s", ErrConfigNotFound, opts.ConfigFilePath)
		}
		return opts.ConfigFilePath, nil
	}
	dir, err := opts.dir()
	if err != nil {
		return "", err
	}
	for _, ext := range []string{ExtCUE, ExtTOML} {
		candidate := filepath.Join(dir, ConfigFileName+"."+ext)
		if fileExists(candidate) {
			return candidate, nil
		}
	}
	return "", nil
}

// loadWithOptions loads configuration without touching package state.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	setDefaults(v)

	resolvedPath, err := Locate(opts)
	if err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("load configuration").
			WithResource(opts.ConfigFilePath).
			WithSuggestion("Verify the file path is correct").
			WithSuggestion("Run 'i18nbundle config init' to create a project config").
			Wrap(err).
			BuildError()
	}

	if resolvedPath != "" {
		if err := loadFileIntoViper(v, resolvedPath); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(resolvedPath).
				WithSuggestion("Check that the file contains valid CUE or TOML syntax").
				WithSuggestion("Run 'i18nbundle config schema' to see the accepted fields").
				Wrap(err).
				BuildError()
		}
	}

	env, err := readDotEnv(opts, resolvedPath)
	if err != nil {
		return nil, "", err
	}
	applyEnv(v, env)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	if raw, ok := env(EnvName("out")); ok {
		cfg.Out = raw
	}
	cfg.Path = resolvePath(cfg.Path, resolvedPath)

	return &cfg, resolvedPath, nil
}

func setDefaults(v *viper.Viper) {
	defaults := DefaultConfig()
	v.SetDefault("path", defaults.Path)
	v.SetDefault("dev.addr", defaults.Dev.Addr)
	v.SetDefault("dev.debounce", defaults.Dev.Debounce)
	v.SetDefault("dev.topic", defaults.Dev.Topic)
	v.SetDefault("dev.ignore", defaults.Dev.Ignore)
	v.SetDefault("dev.allow_origins", defaults.Dev.AllowOrigins)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.file", defaults.Log.File)
	v.SetDefault("log.max_size_mb", defaults.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", defaults.Log.MaxBackups)
	v.SetDefault("log.max_age_days", defaults.Log.MaxAgeDays)
	v.SetDefault("log.compress", defaults.Log.Compress)
}

// loadFileIntoViper validates the file against #Config and merges it.
func loadFileIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var configMap map[string]any
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case ExtTOML:
		if err := checkFileSize(data, maxConfigFileSize, path); err != nil {
			return err
		}
		var raw map[string]any
		if err := toml.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		configMap, err = validateGoValue(raw, path)
	default:
		configMap, err = decodeCUE(data, path)
	}
	if err != nil {
		return err
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

// envLookup reports an environment value. The process environment wins over
// the .env file.
type envLookup func(name string) (string, bool)

func readDotEnv(opts LoadOptions, resolvedPath string) (envLookup, error) {
	if opts.SkipDotEnv {
		return os.LookupEnv, nil
	}

	dir := filepath.Dir(resolvedPath)
	if resolvedPath == "" {
		var err error
		if dir, err = opts.dir(); err != nil {
			return nil, err
		}
	}

	path := filepath.Join(dir, DotEnvFile)
	if !fileExists(path) {
		return os.LookupEnv, nil
	}
	values, err := godotenv.Read(path)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("read environment file").
			WithResource(path).
			WithSuggestion("Use KEY=value lines; quote values containing spaces").
			Wrap(err).
			BuildError()
	}
	return func(name string) (string, bool) {
		if val, ok := os.LookupEnv(name); ok {
			return val, true
		}
		val, ok := values[name]
		return val, ok
	}, nil
}

// applyEnv sets every overridden key explicitly so environment values take
// precedence over the file.
func applyEnv(v *viper.Viper, env envLookup) {
	for _, key := range envKeys {
		if val, ok := env(EnvName(key)); ok {
			v.Set(key, val)
		}
	}
}

// resolvePath makes a relative translation root relative to the config
// file's directory. Without a config file it is left as given.
func resolvePath(path, configFile string) string {
	if path == "" || configFile == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(filepath.Dir(configFile), path)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// WriteDefault writes a starter CUE config into dir. It returns the path and
// whether the file was created; an existing file is left untouched unless
// force is set.
func WriteDefault(dir string, force bool) (string, bool, error) {
	path := filepath.Join(dir, ConfigFileName+"."+ExtCUE)
	if !force && fileExists(path) {
		return path, false, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", false, fmt.Errorf("failed to create config directory: %w", err)
	}

	cfg := DefaultConfig()
	cfg.Path = "src/locales"
	cfg.Out = true
	if err := os.WriteFile(path, []byte(GenerateCUE(cfg)), 0o644); err != nil {
		return "", false, fmt.Errorf("failed to write config file: %w", err)
	}
	return path, true, nil
}
