// Package locator expands the built-in route patterns against a project
// tree and filters the candidates down to the orders page files.
package locator

import (
	"fmt"
	"os"
	"strings"
)

// The filter literals every reported path must satisfy. These are fixed
// alongside the built-in patterns; the tool is not a general file finder.
const (
	requiredSubstring = "orders"
	requiredSuffix    = ".tsx"
)

// DefaultPatterns returns the built-in glob patterns in match order.
// The first form targets the app-router dynamic segments directly; the
// bracketed segments keep glob character-class semantics, so the second,
// wildcard form is what matches real locale and id directories.
func DefaultPatterns() []string {
	return []string{
		"src/app/[locale]/account/orders/[id]/page.tsx",
		"src/app/*/account/orders/*/page.tsx",
	}
}

// Options configures a locate pass
type Options struct {
	// Root is the directory patterns expand against ("." when empty)
	Root string
	// Patterns are the glob patterns to expand, in order
	// (DefaultPatterns() when empty)
	Patterns []string
}

// Match is one accepted candidate path
type Match struct {
	// Pattern is the glob pattern that produced the path
	Pattern string
	// Path is relative to the root, slash-separated
	Path string
}

// Logger is the subset of logging the locator needs.
type Logger interface {
	LogDebug(message string)
}

// Locator expands patterns and filters candidates.
type Locator struct {
	globber Globber
	logger  Logger
}

// New creates a Locator. A nil logger disables diagnostics.
func New(globber Globber, logger Logger) *Locator {
	return &Locator{
		globber: globber,
		logger:  logger,
	}
}

// Locate expands each pattern in order against the root and returns the
// candidates that contain "orders" and end in ".tsx", preserving the order
// the glob expansion produced. A path reachable through several patterns is
// returned once per pattern; no deduplication happens. A failed expansion
// aborts the whole pass.
func (l *Locator) Locate(opts Options) ([]Match, error) {
	root := opts.Root
	if root == "" {
		root = "."
	}
	patterns := opts.Patterns
	if len(patterns) == 0 {
		patterns = DefaultPatterns()
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to access directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", root)
	}

	fsys := os.DirFS(root)
	matches := make([]Match, 0)

	for _, pattern := range patterns {
		paths, err := l.globber.Glob(fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to expand pattern %q: %w", pattern, err)
		}

		accepted := 0
		for _, path := range paths {
			if !strings.Contains(path, requiredSubstring) {
				continue
			}
			if !strings.HasSuffix(path, requiredSuffix) {
				continue
			}
			matches = append(matches, Match{Pattern: pattern, Path: path})
			accepted++
		}

		if l.logger != nil {
			l.logger.LogDebug(fmt.Sprintf("pattern %q matched %d path(s), accepted %d", pattern, len(paths), accepted))
		}
	}

	return matches, nil
}
