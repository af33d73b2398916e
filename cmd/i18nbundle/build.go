// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/dvcol/i18nbundle/internal/issue"
	"github.com/dvcol/i18nbundle/internal/plugin"
	"github.com/dvcol/i18nbundle/internal/virtualmod"
	"github.com/dvcol/i18nbundle/pkg/bundle"
	"github.com/dvcol/i18nbundle/pkg/outpath"

	"github.com/spf13/cobra"
)

// errBundleWrite is returned by build --strict when a bundle failed.
var errBundleWrite = errors.New("one or more bundles could not be written")

func newBuildCommand(app *App, flags *rootFlags) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Write one bundle per language",
		Long: `Scan the translation root, aggregate every translation file and write
one <lang>.json bundle per language according to the out setting.

A failed bundle is reported and the remaining bundles are still written.
Use --strict to exit non-zero when any bundle fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.report(runBuild(cmd.Context(), app, flags, strict), flags.verbose)
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when a bundle cannot be written")
	return cmd
}

func runBuild(ctx context.Context, app *App, flags *rootFlags, strict bool) error {
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

	if !outpath.Enabled(p.Out()) {
		fmt.Fprintln(app.stdout, SubtitleStyle.Render("Bundle output is disabled; nothing written."))
		return nil
	}

	results, failures := p.CloseBundle(ctx).Wait()
	printBundleResults(app.stdout, app.stderr, results, failures)

	if len(failures) > 0 && strict {
		errs := []error{errBundleWrite}
		for _, f := range failures {
			errs = append(errs, f)
		}
		return newServiceError(errors.Join(errs...), issue.BundleWriteFailedId)
	}
	return nil
}

func printScanSummary(w io.Writer, p *plugin.Plugin) {
	fmt.Fprintf(w, "%s %s: %d files, %d languages\n",
		TitleStyle.Render("i18nbundle"),
		KeyStyle.Render(p.Path()),
		len(p.Files()),
		len(p.Locales()),
	)
}

// printBundleResults lists written bundles on stdout and failures on stderr,
// both ordered by locale.
func printBundleResults(stdout, stderr io.Writer, results []bundle.Result, failures []*bundle.WriteError) {
	slices.SortFunc(results, func(a, b bundle.Result) int { return cmp.Compare(a.Locale, b.Locale) })
	slices.SortFunc(failures, func(a, b *bundle.WriteError) int { return cmp.Compare(a.Locale, b.Locale) })

	for _, r := range results {
		fmt.Fprintf(stdout, "  %s %s %s\n",
			SuccessStyle.Render(checkMark),
			KeyStyle.Render(r.Path),
			SubtitleStyle.Render(fmt.Sprintf("(%s, %d bytes)", r.Locale, r.Bytes)))
	}
	for _, f := range failures {
		fmt.Fprintf(stderr, "  %s %s\n", ErrorStyle.Render(crossMark), f.Error())
	}
	if len(failures) > 0 {
		fmt.Fprintf(stderr, "%s %d of %d bundles failed\n",
			WarningStyle.Render(warnMark), len(failures), len(failures)+len(results))
	}
}
