// Package report prints located page files to the output stream: a Found
// line per candidate, then the file content behind a separator, or an error
// line when the file cannot be read as text.
package report

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
)

// separatorWidth is the length of the "=" rule printed before each file body.
const separatorWidth = 80

// Result records what happened to one reported path.
type Result struct {
	// Path is the path as it was reported
	Path string
	// ReadErr holds the failure message when the content could not be
	// printed; empty on success
	ReadErr string
}

// Reporter writes the report stream for a sequence of located paths.
type Reporter struct {
	out         io.Writer
	root        string
	colorOutput bool
}

// NewReporter creates a Reporter writing to out. Paths are resolved against
// root when reading ("." when empty); the printed lines keep the paths as
// given. colorOutput turns on accent colors and should only be set when out
// is a terminal.
func NewReporter(out io.Writer, root string, colorOutput bool) *Reporter {
	if root == "" {
		root = "."
	}
	return &Reporter{
		out:         out,
		root:        root,
		colorOutput: colorOutput,
	}
}

// Report processes paths in order: for each it prints "Found: <path>", then
// either the separator and the full content, or "Error reading <path>:
// <message>" when the file cannot be read or is not valid UTF-8. A failed
// read never stops the sequence. The returned results mirror the printed
// lines one to one.
func (r *Reporter) Report(paths []string) []Result {
	results := make([]Result, 0, len(paths))
	for _, path := range paths {
		results = append(results, r.reportOne(path))
	}
	return results
}

func (r *Reporter) reportOne(path string) Result {
	if r.colorOutput {
		color.New(color.FgGreen).Fprintf(r.out, "Found: %s\n", path)
	} else {
		fmt.Fprintf(r.out, "Found: %s\n", path)
	}

	content, err := r.readText(path)
	if err != nil {
		message := readErrMessage(err)
		if r.colorOutput {
			color.New(color.FgRed).Fprintf(r.out, "Error reading %s: %s\n", path, message)
		} else {
			fmt.Fprintf(r.out, "Error reading %s: %s\n", path, message)
		}
		return Result{Path: path, ReadErr: message}
	}

	fmt.Fprintln(r.out, strings.Repeat("=", separatorWidth))
	fmt.Fprintln(r.out, content)
	return Result{Path: path}
}

// errNotUTF8 marks content that came off disk but is not decodable as text.
var errNotUTF8 = errors.New("invalid UTF-8 encoding")

// readText reads the file at path (relative to the root) fully into memory
// and verifies it decodes as UTF-8 text. The file handle is closed before
// readText returns.
func (r *Reporter) readText(path string) (string, error) {
	data, err := os.ReadFile(filepath.Join(r.root, filepath.FromSlash(path)))
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", errNotUTF8
	}
	return string(data), nil
}

// readErrMessage reduces a read failure to the message printed after the
// path. PathError wrappers are stripped so the line does not repeat the
// path.
func readErrMessage(err error) string {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return pathErr.Err.Error()
	}
	return err.Error()
}
