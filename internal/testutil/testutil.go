// Package testutil provides shared test helpers:
//   - Miniredis helpers for cache and scheduler tests (miniredis.go)
//   - A fleet analytics catalog fixture shared across packages (catalog.go)
//
// No helper here requires Docker; everything runs in-process.
package testutil
