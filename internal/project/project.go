// Package project locates the root of a gbasm project: the innermost
// directory containing a go.mod file, the Go analogue of the original
// Cargo.toml walk (rom_builder.rs's root_dir).
package project

import (
	"fmt"
	"os"
	"path/filepath"
)

// FindRoot searches upward from dir (and its parents) for the nearest
// go.mod file and returns the directory containing it. Pass "" to start
// from the current working directory.
func FindRoot(dir string) (string, error) {
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		dir = cwd
	}
	current := dir
	for {
		candidate := filepath.Join(current, "go.mod")
		if _, err := os.Stat(candidate); err == nil {
			return current, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", fmt.Errorf("project: cannot find a go.mod in %q or any parent directory", dir)
		}
		current = parent
	}
}
