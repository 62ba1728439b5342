package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeTempJSON(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "transactions.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}
	return path
}

func TestFileSource_BareArray(t *testing.T) {
	path := writeTempJSON(t, `[{"uuid":"tx-1"},{"uuid":"tx-2"}]`)

	records, err := NewFileSource(path).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[0]["uuid"] != "tx-1" {
		t.Errorf("Expected first record tx-1, got %v", records[0]["uuid"])
	}
}

func TestFileSource_WrappedDump(t *testing.T) {
	path := writeTempJSON(t, `{"data":[{"uuid":"tx-1"}],"current_page":1,"last_page":1}`)

	records, err := NewFileSource(path).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("Expected 1 record from wrapped dump, got %d", len(records))
	}
}

func TestFileSource_MissingFile(t *testing.T) {
	src := NewFileSource(filepath.Join(t.TempDir(), "absent.json"))
	if _, err := src.Fetch(context.Background()); err == nil {
		t.Fatal("Expected error for missing file")
	}
}

func TestFileSource_InvalidJSON(t *testing.T) {
	path := writeTempJSON(t, `not json at all`)
	if _, err := NewFileSource(path).Fetch(context.Background()); err == nil {
		t.Fatal("Expected error for invalid JSON")
	}
}
