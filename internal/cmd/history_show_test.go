package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harrison/pagecat/internal/history"
)

// seedHistoryRun records one run with the given finds into the database at
// dbPath, creating it when missing.
func seedHistoryRun(t *testing.T, dbPath string, durationMs int64, finds []history.Find) {
	t.Helper()
	store, err := history.NewStore(dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()
	if _, err := store.RecordRun(context.Background(), "/work/shop", durationMs, finds, 0); err != nil {
		t.Fatalf("record run: %v", err)
	}
}

func TestHistoryShowCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	seedHistoryRun(t, dbPath, 12, []history.Find{
		{Pattern: "src/app/*/account/orders/*/page.tsx", Path: "src/app/en/account/orders/1/page.tsx"},
		{Pattern: "src/app/*/account/orders/*/page.tsx", Path: "src/app/en/account/orders/2/page.tsx"},
	})

	cmd := NewRootCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"history", "show", "--db-path", dbPath})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Command failed: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "=== Find History ===") {
		t.Errorf("Expected header in output, got: %q", output)
	}
	if !strings.Contains(output, "Showing 2 find(s), most recent first") {
		t.Errorf("Expected count line in output, got: %q", output)
	}

	first := strings.Index(output, "orders/2/page.tsx")
	second := strings.Index(output, "orders/1/page.tsx")
	if first == -1 || second == -1 {
		t.Fatalf("Expected both paths in output, got: %q", output)
	}
	if first > second {
		t.Errorf("Expected most recent find first, got: %q", output)
	}
}

func TestHistoryShowReadErrors(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	seedHistoryRun(t, dbPath, 5, []history.Find{
		{
			Pattern:   "src/app/*/account/orders/*/page.tsx",
			Path:      "src/app/en/account/orders/42/page.tsx",
			ReadError: "permission denied",
		},
	})

	cmd := NewRootCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"history", "show", "--db-path", dbPath})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Command failed: %v", err)
	}

	if !strings.Contains(buf.String(), "read error: permission denied") {
		t.Errorf("Expected the read error shown, got: %q", buf.String())
	}
}

func TestHistoryShowLimit(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	seedHistoryRun(t, dbPath, 7, []history.Find{
		{Pattern: "src/app/*/account/orders/*/page.tsx", Path: "src/app/en/account/orders/1/page.tsx"},
		{Pattern: "src/app/*/account/orders/*/page.tsx", Path: "src/app/en/account/orders/2/page.tsx"},
		{Pattern: "src/app/*/account/orders/*/page.tsx", Path: "src/app/en/account/orders/3/page.tsx"},
	})

	cmd := NewRootCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"history", "show", "--limit", "2", "--db-path", dbPath})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Command failed: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "Showing 2 find(s)") {
		t.Errorf("Expected the limit applied, got: %q", output)
	}
	if got := strings.Count(output, ", pattern "); got != 2 {
		t.Errorf("Expected 2 find entries, got %d in: %q", got, output)
	}
}

func TestHistoryShowNoDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "missing.db")

	cmd := NewRootCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"history", "show", "--db-path", dbPath})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Command failed: %v", err)
	}

	if !strings.Contains(buf.String(), "No find history recorded yet.") {
		t.Errorf("Expected the empty message, got: %q", buf.String())
	}
}

func TestHistoryShowEmptyDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	store, err := history.NewStore(dbPath)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	store.Close()

	cmd := NewRootCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"history", "show", "--db-path", dbPath})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Command failed: %v", err)
	}

	if !strings.Contains(buf.String(), "No find history recorded yet.") {
		t.Errorf("Expected the empty message, got: %q", buf.String())
	}
}

func TestHistoryShowUsesConfiguredDBPath(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "configured.db")
	seedHistoryRun(t, dbPath, 3, []history.Find{
		{Pattern: "src/app/*/account/orders/*/page.tsx", Path: "src/app/en/account/orders/9/page.tsx"},
	})
	writePage(t, tmpDir, ".pagecat/config.yaml", "history:\n  db_path: "+dbPath+"\n")
	chdir(t, tmpDir)

	cmd := NewRootCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"history", "show"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Command failed: %v", err)
	}

	if !strings.Contains(buf.String(), "orders/9/page.tsx") {
		t.Errorf("Expected the find from the configured database, got: %q", buf.String())
	}
}
