// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/dvcol/i18nbundle/internal/devserver"
	"github.com/dvcol/i18nbundle/internal/issue"
	"github.com/dvcol/i18nbundle/internal/liveupdate"
	"github.com/dvcol/i18nbundle/internal/virtualmod"
	"github.com/dvcol/i18nbundle/internal/watch"
	"github.com/dvcol/i18nbundle/pkg/outpath"

	"github.com/spf13/cobra"
)

// devStopTimeout bounds the graceful shutdown of the dev server.
const devStopTimeout = 5 * time.Second

type devOptions struct {
	addr     string
	noBundle bool
	// ready is called once the server listens and the watcher is set up.
	ready func(*devserver.Server)
}

func newDevCommand(app *App, flags *rootFlags) *cobra.Command {
	opts := &devOptions{}

	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Serve translations and push updates on change",
		Long: `Start the development server, serve the aggregated translations as the
` + virtualmod.ID + ` module and watch the translation root.

Every relevant change re-scans the root and pushes the full map to
connected clients. A failed re-scan keeps the previous map.

Bundles are written on exit unless --no-bundle is set or output is
disabled.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.report(runDev(cmd.Context(), app, flags, opts), flags.verbose)
		},
	}
	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (overrides dev.addr)")
	cmd.Flags().BoolVar(&opts.noBundle, "no-bundle", false, "do not write bundles on exit")
	return cmd
}

func runDev(ctx context.Context, app *App, flags *rootFlags, opts *devOptions) error {
	cfg, err := app.loadConfig(ctx, flags)
	if err != nil {
		return err
	}
	if opts.addr != "" {
		cfg.Dev.Addr = opts.addr
	}
	debounce, err := cfg.DebounceDuration()
	if err != nil {
		return newServiceError(err, issue.ConfigLoadFailedId)
	}

	logger, closer, err := app.newLogger(cfg, flags.verbose)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	updates, err := liveupdate.Open(ctx, cfg.Dev.Topic, liveupdate.WithLogger(logger))
	if err != nil {
		return newServiceError(err, issue.DevServerStartFailedId)
	}
	defer func() {
		if closeErr := updates.Close(context.WithoutCancel(ctx)); closeErr != nil {
			logger.Warn("failed to close live-update channel", "error", closeErr)
		}
	}()

	p, err := app.newPlugin(cfg, logger, updates, virtualmod.Options{})
	if err != nil {
		return err
	}
	printScanSummary(app.stdout, p)

	srv, err := devserver.New(devserver.Config{
		Addr:         cfg.Dev.Addr,
		Source:       p,
		Updates:      updates,
		AllowOrigins: cfg.Dev.AllowOrigins,
		Logger:       logger,
	})
	if err != nil {
		return newServiceError(err, issue.DevServerStartFailedId)
	}
	if err := srv.Start(ctx); err != nil {
		return newServiceError(fmt.Errorf("start dev server: %w", err), issue.DevServerStartFailedId)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), devStopTimeout)
		defer cancel()
		if stopErr := srv.Stop(stopCtx); stopErr != nil {
			logger.Warn("failed to stop dev server", "error", stopErr)
		}
	}()

	w, err := watch.New(watch.Config{
		Root:     p.Root(),
		Ignore:   cfg.Dev.Ignore,
		Debounce: debounce,
		Logger:   logger,
		OnChange: func(ctx context.Context, changed []string) error {
			relevant, rescanErr := p.HandleHotUpdates(ctx, changed)
			switch {
			case rescanErr != nil:
				fmt.Fprintf(app.stderr, "%s %s\n", WarningStyle.Render(warnMark), formatErrorForDisplay(rescanErr, flags.verbose))
			case relevant:
				fmt.Fprintf(app.stdout, "%s reloaded %d languages, %d clients notified\n",
					SuccessStyle.Render(checkMark), len(p.Locales()), srv.Clients())
			}
			return rescanErr
		},
	})
	if err != nil {
		return newServiceError(err, issue.WatcherFailedId)
	}

	fmt.Fprintf(app.stdout, "\n  %s %s\n  %s %s\n  %s %s\n\n%s\n",
		SubtitleStyle.Render("module "), KeyStyle.Render(srv.URL()+devserver.ModulePath),
		SubtitleStyle.Render("socket "), KeyStyle.Render(srv.SocketURL()),
		SubtitleStyle.Render("watching"), KeyStyle.Render(p.Root()),
		SubtitleStyle.Render("Press Ctrl+C to stop."),
	)

	watchCtx, cancelWatch := context.WithCancel(ctx)
	defer cancelWatch()
	watchErr := make(chan error, 1)
	go func() { watchErr <- w.Run(watchCtx) }()

	if opts.ready != nil {
		opts.ready(srv)
	}

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-watchErr:
		if err != nil {
			runErr = newServiceError(fmt.Errorf("watch translations: %w", err), issue.WatcherFailedId)
		}
	case err := <-srv.Err():
		runErr = newServiceError(err, issue.DevServerStartFailedId)
	}
	cancelWatch()

	if runErr == nil && !opts.noBundle && outpath.Enabled(p.Out()) {
		results, failures := p.CloseBundle(context.WithoutCancel(ctx)).Wait()
		printBundleResults(app.stdout, app.stderr, results, failures)
	}
	return runErr
}
