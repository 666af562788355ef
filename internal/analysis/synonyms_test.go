package analysis

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadTablesReadsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "synonyms.yaml")
	content := `synonyms:
  given_name:
    - firstName
    - fname
  postal_code:
    - zip
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	tables, err := LoadTables(path)
	if err != nil {
		t.Fatalf("load tables: %v", err)
	}
	if got := tables.Normalize("fname"); got != "given_name" {
		t.Fatalf("Normalize(fname) = %q, want given_name", got)
	}
	if got := tables.Normalize("zip"); got != "postal_code" {
		t.Fatalf("Normalize(zip) = %q, want postal_code", got)
	}
}

func TestLoadTablesRejectsMissingFile(t *testing.T) {
	if _, err := LoadTables(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadTablesRejectsEmptyTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "synonyms.yaml")
	if err := os.WriteFile(path, []byte("synonyms: {}\n"), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := LoadTables(path); err == nil {
		t.Fatalf("expected error for empty table")
	}
}
