// SPDX-License-Identifier: MPL-2.0

// Package outpath computes where per-language bundles are written.
//
// The configuration accepts several shapes (false, true, a directory string,
// a {dir, name} table) and Go callers may also supply a function. Each shape
// is a distinct Options type; NewResolver dispatches on it once and returns a
// Resolver that is called for every language.
//
//	out: true                           -> dist/locales/fr.json
//	out: "build/i18n"                   -> build/i18n/de.json
//	out: {dir: "out", name: "bundle"}   -> out/bundle.es.json
//	out: {name: "bundle"}               -> dist/locales/bundle.it.json
package outpath
