package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetPagecatHome returns the pagecat home directory
// Priority order:
//  1. PAGECAT_HOME environment variable (if set)
//  2. Nearest ancestor directory carrying a .pagecat-root marker
//  3. Current working directory (fallback)
//
// The directory is created if it doesn't exist. Callers on the read-only
// path (plain locate runs with history disabled) must not call this, since
// it creates the directory.
func GetPagecatHome() (string, error) {
	// Try env var first
	if home := os.Getenv("PAGECAT_HOME"); home != "" {
		return home, nil
	}

	// Try to find a marked project root
	if root, err := findMarkedRoot(); err == nil && root != "" {
		pagecatHome := filepath.Join(root, ".pagecat")
		if err := os.MkdirAll(pagecatHome, 0755); err != nil {
			return "", fmt.Errorf("create pagecat home directory: %w", err)
		}
		return pagecatHome, nil
	}

	// Fallback to current working directory
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	pagecatHome := filepath.Join(cwd, ".pagecat")
	if err := os.MkdirAll(pagecatHome, 0755); err != nil {
		return "", fmt.Errorf("create pagecat home directory: %w", err)
	}

	return pagecatHome, nil
}

// findMarkedRoot walks up from the working directory looking for a
// .pagecat-root marker file.
func findMarkedRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	current := cwd
	for {
		markerPath := filepath.Join(current, ".pagecat-root")
		if _, err := os.Stat(markerPath); err == nil {
			return current, nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			// Reached filesystem root
			break
		}
		current = parent
	}

	return "", fmt.Errorf("no .pagecat-root marker found above %s", cwd)
}

// GetHistoryDBPath returns the absolute path to the history database
// Always returns: $PAGECAT_HOME/history.db
func GetHistoryDBPath() (string, error) {
	home, err := GetPagecatHome()
	if err != nil {
		return "", err
	}

	return filepath.Join(home, "history.db"), nil
}
