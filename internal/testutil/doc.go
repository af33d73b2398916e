// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that handle errors
// appropriately, reducing boilerplate and ensuring consistent error handling.
//
// Common helpers include fixture trees of translation files (WriteTree),
// directory operations (MustMkdirAll, MustWriteFile), and resource cleanup
// (MustClose, MustStop).
package testutil
