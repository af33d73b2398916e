// SPDX-License-Identifier: MPL-2.0

// Package config loads the project configuration using Viper.
//
// The file is looked up in the working directory as i18nbundle.cue, then
// i18nbundle.toml; --config selects one explicitly. Both formats are
// validated against the embedded CUE schema (config_schema.cue) before being
// merged into Viper. A .env file next to the config is read with godotenv and
// acts like the process environment, which overrides file values through the
// I18NBUNDLE_ prefix.
package config
