// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvcol/i18nbundle/internal/virtualmod"
	"github.com/dvcol/i18nbundle/pkg/catalog"

	"github.com/spf13/cobra"
)

// errCatalogProblems is returned by check --strict when a language was
// reported.
var errCatalogProblems = errors.New("translation catalog has problems")

func newCheckCommand(app *App, flags *rootFlags) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate languages and count messages",
		Long: `Load every translation into a message catalog and report, per language,
the number of messages. Language identifiers that are not valid BCP 47
tags, are not canonical or have no known plural rules are listed as
problems.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.report(runCheck(cmd.Context(), app, flags, strict), flags.verbose)
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when any problem is reported")
	return cmd
}

func runCheck(ctx context.Context, app *App, flags *rootFlags, strict bool) error {
	cfg, err := app.loadConfig(ctx, flags)
	if err != nil {
		return err
	}
	logger, closer, err := app.newLogger(cfg, flags.verbose)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	p, err := app.newPlugin(cfg, logger, nil, virtualmod.Options{})
	if err != nil {
		return err
	}
	printScanSummary(app.stdout, p)

	cat := catalog.New(p.Locales())
	for _, lang := range cat.Languages() {
		tag, _ := cat.Tag(lang)
		fmt.Fprintf(app.stdout, "  %s %s %s\n",
			SuccessStyle.Render(checkMark),
			KeyStyle.Render(lang),
			SubtitleStyle.Render(fmt.Sprintf("(%s, %d messages)", tag, cat.Count(lang))))
	}

	problems := cat.Problems()
	for _, pr := range problems {
		fmt.Fprintf(app.stderr, "  %s %s\n", WarningStyle.Render(warnMark), pr)
	}
	if len(problems) > 0 && strict {
		return &ExitError{Code: 1, Err: fmt.Errorf("%w: %d reported", errCatalogProblems, len(problems))}
	}
	return nil
}
