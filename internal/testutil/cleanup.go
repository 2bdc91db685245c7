// Package testutil provides helpers for examples and tests.
package testutil

import (
	"os"
	"path/filepath"
)

// RemoveAll removes the path and any children. Errors are ignored.
// Use for defer cleanup in examples.
//
// Usage:
//
//	defer testutil.RemoveAll(tmpDir)
func RemoveAll(path string) { _ = os.RemoveAll(path) }

// MustWriteFile writes a file, creating parent directories, and panics
// on failure. For seeding example dataset trees only.
func MustWriteFile(path string, data []byte) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		panic(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		panic(err)
	}
}
