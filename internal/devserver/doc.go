// SPDX-License-Identifier: MPL-2.0

// Package devserver serves the virtual locale module to a browser during
// development and forwards live updates to connected clients over a
// WebSocket.
//
// Routes:
//
//	GET /@id/<id>              virtual module source when <id> resolves
//	GET /__i18n/module.js      virtual module source
//	GET /__i18n/module.d.ts    type declarations for the virtual module
//	GET /__i18n/locales.json   current locale map
//	GET /__i18n/locales/:lang  sections of one language
//	GET /__i18n/ws             live-update socket
//	GET /health                liveness probe
//
// Every socket first receives {"type":"connected"}; afterwards it receives
// each live-update envelope verbatim.
package devserver
