// Package testutil provides test helpers for mediaview tests.
//
// The package is organized into focused files:
//   - assert.go: assertion helpers (MustNoErr, AssertStrings, etc.)
//   - mediatest/: an in-process fake media server
package testutil
