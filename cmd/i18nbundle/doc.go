// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for i18nbundle.
//
// The root command carries the flags shared by every subcommand (--config,
// --path, --out, --verbose). build writes bundles, dev serves the virtual
// module and pushes live updates, show/check/lookup inspect the aggregated
// map and config manages the project configuration file.
package cmd
