package locator

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

// writeTree creates the given relative paths under dir with stub content.
func writeTree(t *testing.T, dir string, paths []string) {
	t.Helper()
	for _, p := range paths {
		full := filepath.Join(dir, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatalf("failed to create directory: %v", err)
		}
		if err := os.WriteFile(full, []byte("export default function Page() {}\n"), 0644); err != nil {
			t.Fatalf("failed to create file: %v", err)
		}
	}
}

func TestDefaultPatterns(t *testing.T) {
	want := []string{
		"src/app/[locale]/account/orders/[id]/page.tsx",
		"src/app/*/account/orders/*/page.tsx",
	}
	if got := DefaultPatterns(); !reflect.DeepEqual(got, want) {
		t.Errorf("DefaultPatterns() = %v, want %v", got, want)
	}
}

func TestLocate(t *testing.T) {
	tests := []struct {
		name  string
		files []string
		opts  Options
		want  []Match
	}{
		{
			name:  "wildcard pattern matches real locale and id directories",
			files: []string{"src/app/en/account/orders/42/page.tsx"},
			want: []Match{
				{Pattern: "src/app/*/account/orders/*/page.tsx", Path: "src/app/en/account/orders/42/page.tsx"},
			},
		},
		{
			name: "multiple ids under one locale",
			files: []string{
				"src/app/en/account/orders/1/page.tsx",
				"src/app/en/account/orders/2/page.tsx",
			},
			want: []Match{
				{Pattern: "src/app/*/account/orders/*/page.tsx", Path: "src/app/en/account/orders/1/page.tsx"},
				{Pattern: "src/app/*/account/orders/*/page.tsx", Path: "src/app/en/account/orders/2/page.tsx"},
			},
		},
		{
			name:  "single-letter segments satisfy both patterns and repeat",
			files: []string{"src/app/l/account/orders/d/page.tsx"},
			want: []Match{
				{Pattern: "src/app/[locale]/account/orders/[id]/page.tsx", Path: "src/app/l/account/orders/d/page.tsx"},
				{Pattern: "src/app/*/account/orders/*/page.tsx", Path: "src/app/l/account/orders/d/page.tsx"},
			},
		},
		{
			name: "literal bracket directories match only the wildcard form",
			// A real app-router tree keeps the brackets in the directory
			// names; the bracketed pattern is a character class and cannot
			// match them.
			files: []string{"src/app/[locale]/account/orders/[id]/page.tsx"},
			want: []Match{
				{Pattern: "src/app/*/account/orders/*/page.tsx", Path: "src/app/[locale]/account/orders/[id]/page.tsx"},
			},
		},
		{
			name: "unrelated pages are not candidates",
			files: []string{
				"src/app/en/account/profile/page.tsx",
				"src/app/en/account/orders/page.tsx",
				"src/pages/orders.tsx",
			},
			want: []Match{},
		},
		{
			name:  "empty tree yields no matches",
			files: []string{},
			want:  []Match{},
		},
		{
			name: "filter drops candidates without the orders segment",
			files: []string{
				"src/app/en/account/invoices/7/page.tsx",
				"src/app/en/account/orders/7/page.tsx",
			},
			opts: Options{Patterns: []string{"src/app/*/account/*/*/page.tsx"}},
			want: []Match{
				{Pattern: "src/app/*/account/*/*/page.tsx", Path: "src/app/en/account/orders/7/page.tsx"},
			},
		},
		{
			name: "filter drops candidates without the tsx suffix",
			files: []string{
				"src/app/en/account/orders/7/page.ts",
				"src/app/en/account/orders/7/page.tsx",
			},
			opts: Options{Patterns: []string{"src/app/*/account/orders/*/page.ts*"}},
			want: []Match{
				{Pattern: "src/app/*/account/orders/*/page.ts*", Path: "src/app/en/account/orders/7/page.tsx"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			writeTree(t, tmpDir, tt.files)

			tt.opts.Root = tmpDir
			loc := New(NewGlobber(), nil)

			got, err := loc.Locate(tt.opts)
			if err != nil {
				t.Fatalf("Locate() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Locate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLocateDefaultsRootToCwd(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, []string{"src/app/de/account/orders/9/page.tsx"})

	origDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	defer os.Chdir(origDir)
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("chdir: %v", err)
	}

	loc := New(NewGlobber(), nil)
	got, err := loc.Locate(Options{})
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}

	want := []Match{
		{Pattern: "src/app/*/account/orders/*/page.tsx", Path: "src/app/de/account/orders/9/page.tsx"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Locate() = %v, want %v", got, want)
	}
}

func TestLocateRootValidation(t *testing.T) {
	loc := New(NewGlobber(), nil)

	t.Run("missing root", func(t *testing.T) {
		_, err := loc.Locate(Options{Root: filepath.Join(t.TempDir(), "gone")})
		if err == nil {
			t.Error("Locate() expected error for missing root, got nil")
		}
	})

	t.Run("root is a file", func(t *testing.T) {
		rootFile := filepath.Join(t.TempDir(), "root.txt")
		if err := os.WriteFile(rootFile, []byte("not a dir"), 0644); err != nil {
			t.Fatalf("write file: %v", err)
		}
		_, err := loc.Locate(Options{Root: rootFile})
		if err == nil {
			t.Error("Locate() expected error for file root, got nil")
		}
	})
}

// failingGlobber always fails, standing in for a malformed pattern.
type failingGlobber struct {
	err error
}

func (g *failingGlobber) Glob(fsys fs.FS, pattern string) ([]string, error) {
	return nil, g.err
}

func TestLocateGlobFailureIsFatal(t *testing.T) {
	globErr := errors.New("syntax error in pattern")
	loc := New(&failingGlobber{err: globErr}, nil)

	matches, err := loc.Locate(Options{Root: t.TempDir()})
	if err == nil {
		t.Fatal("Locate() expected error from failing globber, got nil")
	}
	if !errors.Is(err, globErr) {
		t.Errorf("Locate() error = %v, want wrapped %v", err, globErr)
	}
	if matches != nil {
		t.Errorf("Locate() matches = %v, want nil on failure", matches)
	}
}

// recordingLogger captures debug messages for assertions.
type recordingLogger struct {
	messages []string
}

func (l *recordingLogger) LogDebug(message string) {
	l.messages = append(l.messages, message)
}

func TestLocateLogsPerPattern(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, []string{"src/app/en/account/orders/42/page.tsx"})

	logger := &recordingLogger{}
	loc := New(NewGlobber(), logger)

	if _, err := loc.Locate(Options{Root: tmpDir}); err != nil {
		t.Fatalf("Locate() error = %v", err)
	}

	if len(logger.messages) != len(DefaultPatterns()) {
		t.Errorf("logged %d debug lines, want %d", len(logger.messages), len(DefaultPatterns()))
	}
}
