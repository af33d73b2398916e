// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/dvcol/i18nbundle/internal/virtualmod"
	"github.com/dvcol/i18nbundle/pkg/catalog"

	"github.com/spf13/cobra"
)

type lookupOptions struct {
	count    int
	countSet bool
	data     map[string]string
}

func newLookupCommand(app *App, flags *rootFlags) *cobra.Command {
	opts := &lookupOptions{}

	cmd := &cobra.Command{
		Use:   "lookup <lang> <id>",
		Short: "Render one message",
		Long: `Render the message <id> of language <lang>. Message ids join the section
name and the nested keys with dots, e.g. "common.greeting".

Values wrapped in {{ }} are Go templates; --data supplies their fields.
Plural messages (objects with one/other/... keys) need --count.`,
		Example: `  i18nbundle lookup en common.greeting --data Name=Ada
  i18nbundle lookup fr cart.items --count 3`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.countSet = cmd.Flags().Changed("count")
			return app.report(runLookup(cmd.Context(), app, flags, opts, args[0], args[1]), flags.verbose)
		},
	}
	cmd.Flags().IntVar(&opts.count, "count", 0, "plural count")
	cmd.Flags().StringToStringVar(&opts.data, "data", nil, "template data as key=value pairs")
	return cmd
}

func runLookup(ctx context.Context, app *App, flags *rootFlags, opts *lookupOptions, lang, id string) error {
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

	data := make(map[string]any, len(opts.data))
	for k, v := range opts.data {
		data[k] = v
	}

	cat := catalog.New(p.Locales())
	var out string
	if opts.countSet {
		out, err = cat.LocalizeCount(lang, id, opts.count, data)
	} else {
		out, err = cat.Localize(lang, id, data)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(app.stdout, out)
	return nil
}
