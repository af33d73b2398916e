// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/dvcol/i18nbundle/internal/config"
	"github.com/dvcol/i18nbundle/pkg/outpath"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `i18nbundle config` command tree.
func newConfigCommand(app *App, flags *rootFlags) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage i18nbundle configuration",
		Long: `Manage i18nbundle configuration.

Configuration is read from ./` + config.ConfigFileName + `.` + config.ExtCUE + ` or ./` + config.ConfigFileName + `.` + config.ExtTOML + `.
Every key can be overridden by an ` + config.EnvPrefix + `_* environment variable,
also read from a ./` + config.DotEnvFile + ` file.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.report(showConfig(cmd.Context(), app, flags), flags.verbose)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := config.Locate(config.LoadOptions{ConfigFilePath: flags.configPath})
			if err != nil {
				return app.report(err, flags.verbose)
			}
			if path == "" {
				fmt.Fprintln(app.stdout, SubtitleStyle.Render("(no config file, using defaults)"))
				return nil
			}
			fmt.Fprintln(app.stdout, path)
			return nil
		},
	})

	var (
		initDir   string
		initForce bool
	)
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create a starter " + config.ConfigFileName + "." + config.ExtCUE,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			dir := initDir
			if dir == "" {
				dir = "."
			}
			path, created, err := config.WriteDefault(dir, initForce)
			if err != nil {
				return app.report(err, flags.verbose)
			}
			if !created {
				fmt.Fprintf(app.stdout, "%s %s already exists (use --force to overwrite)\n", WarningStyle.Render(warnMark), KeyStyle.Render(path))
				return nil
			}
			fmt.Fprintf(app.stdout, "%s Created %s\n", SuccessStyle.Render(checkMark), KeyStyle.Render(path))
			return nil
		},
	}
	initCmd.Flags().StringVar(&initDir, "dir", "", "directory to write the config into (default is the working directory)")
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")
	cfgCmd.AddCommand(initCmd)

	var format string
	dumpCmd := &cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE or TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.report(dumpConfig(cmd.Context(), app, flags, format), flags.verbose)
		},
	}
	dumpCmd.Flags().StringVar(&format, "format", config.ExtCUE, "output format: cue or toml")
	cfgCmd.AddCommand(dumpCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "schema",
		Short: "Print the CUE schema configuration files are validated against",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			fmt.Fprint(app.stdout, config.Schema())
			return nil
		},
	})

	return cfgCmd
}

func showConfig(ctx context.Context, app *App, flags *rootFlags) error {
	cfg, err := app.loadConfig(ctx, flags)
	if err != nil {
		return err
	}
	path, err := config.Locate(config.LoadOptions{ConfigFilePath: flags.configPath})
	if err != nil {
		return err
	}

	w := app.stdout
	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)
	if path == "" {
		fmt.Fprintf(w, "%s: %s\n", KeyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	} else {
		fmt.Fprintf(w, "%s: %s\n", KeyStyle.Render("Config file"), path)
	}
	fmt.Fprintln(w)

	out, err := cfg.OutOptions()
	if err != nil {
		return err
	}
	outDesc := "disabled"
	if outpath.Enabled(out) {
		outDesc = outpath.Pattern(out)
	}

	value := SuccessStyle.Render
	fmt.Fprintf(w, "%s: %s\n", KeyStyle.Render("path"), value(cfg.Path))
	fmt.Fprintf(w, "%s: %s\n", KeyStyle.Render("out"), value(outDesc))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", KeyStyle.Render("dev"))
	fmt.Fprintf(w, "  addr: %s\n", value(cfg.Dev.Addr))
	fmt.Fprintf(w, "  debounce: %s\n", value(cfg.Dev.Debounce))
	fmt.Fprintf(w, "  topic: %s\n", value(cfg.Dev.Topic))
	fmt.Fprintf(w, "  ignore: %s\n", value(listOrNone(cfg.Dev.Ignore)))
	fmt.Fprintf(w, "  allow_origins: %s\n", value(listOrNone(cfg.Dev.AllowOrigins)))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", KeyStyle.Render("log"))
	fmt.Fprintf(w, "  level: %s\n", value(cfg.Log.Level))
	if cfg.Log.File != "" {
		fmt.Fprintf(w, "  file: %s\n", value(cfg.Log.File))
		fmt.Fprintf(w, "  rotation: %s\n", value(fmt.Sprintf("%d MB, %d backups, %d days, compress=%t",
			cfg.Log.MaxSizeMB, cfg.Log.MaxBackups, cfg.Log.MaxAgeDays, cfg.Log.Compress)))
	}
	return nil
}

func dumpConfig(ctx context.Context, app *App, flags *rootFlags, format string) error {
	cfg, err := app.loadConfig(ctx, flags)
	if err != nil {
		return err
	}
	switch strings.ToLower(format) {
	case config.ExtCUE:
		fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
	case config.ExtTOML:
		data, err := config.MarshalTOML(cfg)
		if err != nil {
			return err
		}
		fmt.Fprint(app.stdout, string(data))
	default:
		return fmt.Errorf("unknown format %q (want %s or %s)", format, config.ExtCUE, config.ExtTOML)
	}
	return nil
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}
