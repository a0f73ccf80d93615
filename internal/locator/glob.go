package locator

import (
	"io/fs"

	"github.com/bmatcuk/doublestar/v4"
)

// Globber expands glob patterns against a filesystem.
type Globber interface {
	// Glob returns the paths under fsys matching pattern, relative to the
	// filesystem root and slash-separated.
	Glob(fsys fs.FS, pattern string) ([]string, error)
}

// doublestarGlobber implements Globber with default options (case-sensitive).
type doublestarGlobber struct{}

// NewGlobber creates the doublestar-backed Globber used by pagecat.
func NewGlobber() Globber {
	return &doublestarGlobber{}
}

func (g *doublestarGlobber) Glob(fsys fs.FS, pattern string) ([]string, error) {
	return doublestar.Glob(fsys, pattern)
}
