// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the command tree bound to app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "i18nbundle",
		Short: "Aggregate translation files into per-language bundles",
		Long: TitleStyle.Render("i18nbundle") + SubtitleStyle.Render(" - Aggregate translation files into per-language bundles") + `

i18nbundle scans a directory tree for translation files named
<section>.<lang>.json, merges them into one map keyed by language and
section, and writes one <lang>.json bundle per language.

During development it serves the map as a virtual module and pushes
updates to connected clients whenever a translation file changes.

` + SubtitleStyle.Render("Examples:") + `
  i18nbundle build                       Write bundles next to the sources
  i18nbundle build --out dist/locales    Write bundles into a directory
  i18nbundle dev                         Serve and watch translations
  i18nbundle check                       Report catalog problems
  i18nbundle lookup fr common.greeting   Render one message
  i18nbundle config init                 Create i18nbundle.cue`,
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose output")
	pf.StringVar(&flags.configPath, "config", "", "config file (default is ./i18nbundle.cue or ./i18nbundle.toml)")
	pf.StringVar(&flags.path, "path", "", "translation root directory (overrides config)")
	pf.StringVar(&flags.out, "out", "", `bundle output: "true", "false" or a directory (overrides config)`)

	rootCmd.AddCommand(
		newBuildCommand(app, flags),
		newDevCommand(app, flags),
		newShowCommand(app, flags),
		newCheckCommand(app, flags),
		newLookupCommand(app, flags),
		newConfigCommand(app, flags),
	)
	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version != "dev" {
		return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev (built from source)"
}

// Execute runs the root command. It is called by main.main.
func Execute() {
	app, err := NewApp(Dependencies{})
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+err.Error())
		os.Exit(1)
	}

	// fang overrides rootCmd.Version, so the version goes through WithVersion.
	err = fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	)
	if code := exitCode(err); code != 0 {
		os.Exit(code)
	}
}
