package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// FileSource reads pre-fetched transaction records from a JSON file.
// Accepts either a bare array of records or an API dump wrapped in a
// top-level "data" array.
type FileSource struct {
	path string
}

// NewFileSource creates a source for the given file path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Fetch implements TransactionSource.
func (s *FileSource) Fetch(_ context.Context) ([]map[string]any, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	var records []map[string]any
	if err := json.Unmarshal(data, &records); err == nil {
		return records, nil
	}

	var wrapped struct {
		Data []map[string]any `json:"data"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}

	return wrapped.Data, nil
}
