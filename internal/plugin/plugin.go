// SPDX-License-Identifier: MPL-2.0

// Package plugin ties locale discovery, bundle writing, the virtual module and
// live updates together behind the lifecycle hooks a host build tool calls:
//
//   - New: scan and aggregate the translation root
//   - ResolveID / Load: serve the virtual module
//   - CloseBundle: write per-language bundles at build completion
//   - HandleHotUpdate / HandleHotUpdates: re-scan on change and push the
//     new map to live-update listeners
//
// The current scan result is held behind an atomic pointer and replaced
// wholesale on every successful re-scan.
package plugin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/dvcol/i18nbundle/internal/liveupdate"
	"github.com/dvcol/i18nbundle/internal/virtualmod"
	"github.com/dvcol/i18nbundle/pkg/bundle"
	"github.com/dvcol/i18nbundle/pkg/locale"
	"github.com/dvcol/i18nbundle/pkg/outpath"
)

// Name identifies the plugin in logs.
const Name = "i18nbundle"

var (
	// ErrNoRoot is returned by New when no translation root is configured.
	ErrNoRoot = errors.New("translation root path is required")
	// ErrNoUpdates is returned by WatchLocales when the plugin has no
	// live-update channel.
	ErrNoUpdates = errors.New("live updates are not enabled")
)

type (
	// Updates is the live-update channel the plugin publishes re-scanned maps
	// on. *liveupdate.Channel implements it.
	Updates interface {
		Publish(ctx context.Context, m locale.Map) error
		Subscribe(ctx context.Context, fn func(locale.Map)) (liveupdate.StopFunc, error)
	}

	// Options configures a Plugin.
	Options struct {
		// Path is the translation root directory. Required.
		Path string
		// Out selects bundle output. Nil means disabled.
		Out outpath.Options
		// Updates receives re-scanned maps. Nil disables live updates.
		Updates Updates
		// Writer writes bundles. Defaults to a bundle.Writer using Logger.
		Writer *bundle.Writer
		// Logger defaults to slog.Default().
		Logger *slog.Logger
		// Module configures the rendered virtual module.
		Module virtualmod.Options
	}

	// Plugin is one configured instance. It is safe for concurrent use.
	Plugin struct {
		path     string
		root     string
		out      outpath.Options
		resolver outpath.Resolver
		updates  Updates
		writer   *bundle.Writer
		logger   *slog.Logger
		module   virtualmod.Options

		state    atomic.Pointer[locale.ScanResult]
		rescanMu sync.Mutex
	}
)

// New creates a Plugin and performs the initial scan. A discovery or parse
// failure is returned as-is (*locale.DiscoveryError, *locale.ParseError).
func New(opts Options) (*Plugin, error) {
	if strings.TrimSpace(opts.Path) == "" {
		return nil, ErrNoRoot
	}

	root, err := filepath.Abs(opts.Path)
	if err != nil {
		return nil, fmt.Errorf("resolve translation root %s: %w", opts.Path, err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	writer := opts.Writer
	if writer == nil {
		writer = bundle.NewWriter(bundle.WithLogger(logger))
	}
	out := opts.Out
	if out == nil {
		out = outpath.Disabled{}
	}
	resolver, _ := outpath.NewResolver(out)

	p := &Plugin{
		path:     opts.Path,
		root:     root,
		out:      out,
		resolver: resolver,
		updates:  opts.Updates,
		writer:   writer,
		logger:   logger,
		module:   opts.Module,
	}

	result, err := locale.Load(p.path)
	if err != nil {
		return nil, err
	}
	p.state.Store(&result)
	logger.Debug("loaded translations", "root", p.path, "files", len(result.Files), "locales", len(result.Locales))

	return p, nil
}

// Path returns the translation root as configured.
func (p *Plugin) Path() string {
	return p.path
}

// Root returns the absolute translation root.
func (p *Plugin) Root() string {
	return p.root
}

// Out returns the configured output options.
func (p *Plugin) Out() outpath.Options {
	return p.out
}

// Resolver returns the bundle path resolver, or false when output is
// disabled.
func (p *Plugin) Resolver() (outpath.Resolver, bool) {
	return p.resolver, p.resolver != nil
}

// Snapshot returns the current scan result. Callers must not mutate it.
func (p *Plugin) Snapshot() locale.ScanResult {
	return *p.state.Load()
}

// Locales returns the current locale map. Callers must not mutate it.
func (p *Plugin) Locales() locale.Map {
	return p.state.Load().Locales
}

// Files returns the files discovered by the last successful scan.
func (p *Plugin) Files() []string {
	return p.state.Load().Files
}

// ResolveID claims the virtual module id.
func (p *Plugin) ResolveID(id string) (string, bool) {
	return virtualmod.Resolve(id)
}

// Load returns the virtual module source when id names it. The boolean is
// false for any other id.
func (p *Plugin) Load(id string) (string, bool, error) {
	if _, ok := virtualmod.Resolve(id); !ok {
		return "", false, nil
	}
	src, err := virtualmod.Source(p.Locales(), p.module)
	if err != nil {
		return "", true, err
	}
	return src, true, nil
}

// CloseBundle writes one bundle per language of the current map. It returns
// without waiting; the batch is empty when output is disabled.
func (p *Plugin) CloseBundle(ctx context.Context) *bundle.Batch {
	return p.writer.Write(ctx, p.Locales(), p.resolver)
}

// IsRelevant reports whether a change to file should trigger a re-scan: it
// must live under the root, end in ".json" and match the filename grammar.
func (p *Plugin) IsRelevant(file string) bool {
	if file == "" || !locale.HasExtension(file, locale.DefaultExtension) {
		return false
	}
	if _, ok := locale.ParseFilename(file); !ok {
		return false
	}
	return p.contains(file)
}

func (p *Plugin) contains(file string) bool {
	abs, err := filepath.Abs(file)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(p.root, abs)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// HandleHotUpdate re-scans the root and pushes the new map when file is
// relevant. The boolean reports whether file was relevant. On a failed
// re-scan the previous map is kept, nothing is pushed and the error is
// returned.
func (p *Plugin) HandleHotUpdate(ctx context.Context, file string) (bool, error) {
	return p.HandleHotUpdates(ctx, []string{file})
}

// HandleHotUpdates is HandleHotUpdate for a batch of changed files: at most
// one re-scan happens, when at least one file is relevant.
func (p *Plugin) HandleHotUpdates(ctx context.Context, files []string) (bool, error) {
	var relevant []string
	for _, f := range files {
		if p.IsRelevant(f) {
			relevant = append(relevant, f)
		}
	}
	if len(relevant) == 0 {
		return false, nil
	}

	p.logger.Debug("translation change detected", "files", relevant)
	return true, p.Rescan(ctx)
}

// Rescan scans and aggregates the root, replaces the current map and
// publishes it. Concurrent calls are serialized so the last scan wins.
func (p *Plugin) Rescan(ctx context.Context) error {
	p.rescanMu.Lock()
	defer p.rescanMu.Unlock()

	result, err := locale.Load(p.path)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to reload translations", "root", p.path, "error", err)
		return err
	}
	p.state.Store(&result)
	p.logger.InfoContext(ctx, "translations reloaded", "files", len(result.Files), "locales", len(result.Locales))

	if p.updates == nil {
		return nil
	}
	if err := p.updates.Publish(ctx, result.Locales); err != nil {
		p.logger.ErrorContext(ctx, "failed to publish locale update", "error", err)
		return err
	}
	return nil
}

// WatchLocales calls cb with the full map after every successful re-scan
// until ctx ends or the returned stop function is called.
func (p *Plugin) WatchLocales(ctx context.Context, cb func(locale.Map)) (liveupdate.StopFunc, error) {
	if p.updates == nil {
		return nil, ErrNoUpdates
	}
	return p.updates.Subscribe(ctx, cb)
}
