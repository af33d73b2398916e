// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/dvcol/i18nbundle/internal/config"
	"github.com/dvcol/i18nbundle/internal/issue"
	"github.com/dvcol/i18nbundle/internal/logging"
	"github.com/dvcol/i18nbundle/internal/plugin"
	"github.com/dvcol/i18nbundle/internal/virtualmod"
	"github.com/dvcol/i18nbundle/pkg/outpath"
)

// defaultIssueStyle is the glamour style used for help pages.
const defaultIssueStyle = "dark"

type (
	// App wires CLI services and shared dependencies. Every command handler
	// receives the App and reads configuration through it.
	App struct {
		Config     ConfigProvider
		stdout     io.Writer
		stderr     io.Writer
		issueStyle string
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config ConfigProvider
		Stdout io.Writer
		Stderr io.Writer
		// IssueStyle is the glamour style for help pages; tests use "notty".
		IssueStyle string
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// rootFlags holds the persistent flags shared by every command.
	rootFlags struct {
		configPath string
		path       string
		out        string
		verbose    bool
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) (*App, error) {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.IssueStyle == "" {
		deps.IssueStyle = defaultIssueStyle
	}
	return &App{
		Config:     deps.Config,
		stdout:     deps.Stdout,
		stderr:     deps.Stderr,
		issueStyle: deps.IssueStyle,
	}, nil
}

// loadConfig loads the project config, applies flag overrides and validates
// the result.
func (a *App) loadConfig(ctx context.Context, flags *rootFlags) (*config.Config, error) {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: flags.configPath})
	if err != nil {
		return nil, newServiceError(err, issue.ConfigLoadFailedId)
	}

	if strings.TrimSpace(flags.path) != "" {
		cfg.Path = flags.path
	}
	if _, set := outpath.ParseFlag(flags.out); set {
		cfg.Out = flags.out
	}

	if err := cfg.Validate(); err != nil {
		if errors.Is(err, outpath.ErrInvalidOptions) {
			return nil, newServiceError(err, issue.InvalidOutOptionsId)
		}
		return nil, newServiceError(err, issue.ConfigLoadFailedId)
	}
	return cfg, nil
}

// newLogger builds the logger for one command run. Console output goes to
// the App's stderr.
func (a *App) newLogger(cfg *config.Config, verbose bool) (*slog.Logger, io.Closer, error) {
	logger, closer, err := logging.New(logging.Options{
		Level:      cfg.Log.Level,
		Verbose:    verbose,
		Console:    a.stderr,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
	if err != nil {
		return nil, nil, newServiceError(fmt.Errorf("configure logging: %w", err), issue.ConfigLoadFailedId)
	}
	return logger, closer, nil
}

// newPlugin runs the initial scan for cfg.
func (a *App) newPlugin(cfg *config.Config, logger *slog.Logger, updates plugin.Updates, module virtualmod.Options) (*plugin.Plugin, error) {
	out, err := cfg.OutOptions()
	if err != nil {
		return nil, classifyLoadError(err)
	}
	p, err := plugin.New(plugin.Options{
		Path:    cfg.Path,
		Out:     out,
		Updates: updates,
		Logger:  logger,
		Module:  module,
	})
	if err != nil {
		return nil, classifyLoadError(err)
	}
	return p, nil
}

// report prints suggestions and issue help for err before Cobra prints the
// error itself.
func (a *App) report(err error, verbose bool) error {
	if err == nil {
		return nil
	}

	var ae *issue.ActionableError
	if errors.As(err, &ae) && (ae.HasSuggestions() || verbose) {
		formatted := ae.Format(verbose)
		// The first line repeats err.Error(); Cobra prints that one.
		if _, rest, ok := strings.Cut(formatted, "\n"); ok {
			fmt.Fprintln(a.stderr, WarningStyle.Render(strings.TrimLeft(rest, "\n")))
		}
	}

	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		renderServiceError(a.stderr, svcErr, a.issueStyle)
	}
	return err
}

// formatErrorForDisplay uses ActionableError formatting when available.
func formatErrorForDisplay(err error, verbose bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	return err.Error()
}
