// SPDX-License-Identifier: MPL-2.0

// Package locale discovers per-section translation files and aggregates them
// into a single in-memory locale table.
//
// Translation files are named <section>.<language>.json and may live at any
// depth under a root directory. Each file contributes one section to one
// language:
//
//	locales/
//	  en/home.en.json    -> Map["en"]["home"]
//	  en/common.en.json  -> Map["en"]["common"]
//	  fr/home.fr.json    -> Map["fr"]["home"]
//
// File organization:
//   - types.go: Map, Sections and ScanResult
//   - filename.go: filename grammar (ParseFilename)
//   - scan.go: recursive file listing (Scan)
//   - aggregate.go: folding files into a Map (AddFile, Aggregate, Load)
//   - errors.go: DiscoveryError and ParseError
package locale
