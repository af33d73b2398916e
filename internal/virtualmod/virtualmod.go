// SPDX-License-Identifier: MPL-2.0

// Package virtualmod renders the importable ES module that exposes the locale
// map to application code.
//
// The module exports:
//   - locales: the full locale map as a JSON literal
//   - watchLocales(cb): subscribes cb to live updates and returns an
//     unsubscribe function
//   - default: the same value as locales
//
// watchLocales listens through import.meta.hot when the host bundler provides
// it, and otherwise through the dev server WebSocket when a socket URL is
// configured.
package virtualmod

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/goccy/go-json"

	"github.com/dvcol/i18nbundle/pkg/locale"
)

const (
	// ID is the import specifier of the virtual module.
	ID = "virtual:i18nbundle"
	// Event is the custom event name carrying locale updates.
	Event = "locales-update"
)

var (
	//go:embed module.js.tmpl
	moduleTemplateText string

	//go:embed module.d.ts.tmpl
	declarationTemplateText string

	moduleTemplate      = template.Must(template.New("module.js").Parse(moduleTemplateText))
	declarationTemplate = template.Must(template.New("module.d.ts").Parse(declarationTemplateText))
)

// Options controls module rendering.
type Options struct {
	// SocketURL is the WebSocket endpoint used by watchLocales when
	// import.meta.hot is unavailable. Empty disables the fallback.
	SocketURL string
}

// moduleData holds JS-ready literals; every field is already encoded.
type moduleData struct {
	Locales   string
	Event     string
	SocketURL string
	ID        string
}

// Resolve returns the canonical module id when id names the virtual module.
func Resolve(id string) (string, bool) {
	if strings.TrimPrefix(id, "/@id/") == ID {
		return ID, true
	}
	return "", false
}

// Source renders the module source for m.
func Source(m locale.Map, opts Options) (string, error) {
	if m == nil {
		m = locale.Map{}
	}
	locales, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encode locales: %w", err)
	}

	data := moduleData{
		Locales: string(locales),
		Event:   quote(Event),
	}
	if opts.SocketURL != "" {
		data.SocketURL = quote(opts.SocketURL)
	}

	var sb strings.Builder
	if err := moduleTemplate.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render virtual module: %w", err)
	}
	return sb.String(), nil
}

// Declaration renders a TypeScript ambient declaration for the module.
func Declaration() string {
	var sb strings.Builder
	// The template has no failure paths beyond writer errors, which a
	// strings.Builder never returns.
	_ = declarationTemplate.Execute(&sb, moduleData{ID: quote(ID)})
	return sb.String()
}

// quote encodes s as a JSON string, which is also a valid JS string literal.
func quote(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(b)
}
