// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvcol/i18nbundle/internal/virtualmod"
	"github.com/dvcol/i18nbundle/pkg/locale"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

var errShowModes = errors.New("--module, --dts and --files are mutually exclusive")

type showOptions struct {
	module    bool
	dts       bool
	files     bool
	socketURL string
}

func newShowCommand(app *App, flags *rootFlags) *cobra.Command {
	opts := &showOptions{}

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the aggregated locale map",
		Long: `Print the aggregated locale map as JSON.

With --module the rendered ` + virtualmod.ID + ` source is printed instead,
with --dts its type declaration and with --files the discovered
translation files.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.report(runShow(cmd.Context(), app, flags, opts), flags.verbose)
		},
	}
	cmd.Flags().BoolVar(&opts.module, "module", false, "print the virtual module source")
	cmd.Flags().BoolVar(&opts.dts, "dts", false, "print the virtual module type declaration")
	cmd.Flags().BoolVar(&opts.files, "files", false, "print the discovered translation files")
	cmd.Flags().StringVar(&opts.socketURL, "socket-url", "", "WebSocket URL embedded in the module (with --module)")
	cmd.MarkFlagsMutuallyExclusive("module", "dts", "files")
	return cmd
}

func runShow(ctx context.Context, app *App, flags *rootFlags, opts *showOptions) error {
	if countTrue(opts.module, opts.dts, opts.files) > 1 {
		return errShowModes
	}
	if opts.dts {
		fmt.Fprint(app.stdout, virtualmod.Declaration())
		return nil
	}

	cfg, err := app.loadConfig(ctx, flags)
	if err != nil {
		return err
	}
	logger, closer, err := app.newLogger(cfg, flags.verbose)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	p, err := app.newPlugin(cfg, logger, nil, virtualmod.Options{SocketURL: opts.socketURL})
	if err != nil {
		return err
	}

	switch {
	case opts.files:
		for _, f := range p.Files() {
			fmt.Fprintln(app.stdout, f)
		}
		return nil
	case opts.module:
		src, _, err := p.Load(virtualmod.ID)
		if err != nil {
			return fmt.Errorf("render virtual module: %w", err)
		}
		fmt.Fprint(app.stdout, src)
		return nil
	default:
		return printLocales(app, p.Locales())
	}
}

func printLocales(app *App, m locale.Map) error {
	if m == nil {
		m = locale.Map{}
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode locale map: %w", err)
	}
	fmt.Fprintln(app.stdout, string(data))
	return nil
}

func countTrue(values ...bool) int {
	n := 0
	for _, v := range values {
		if v {
			n++
		}
	}
	return n
}
