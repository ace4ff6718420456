// Package file persists the object store as one JSON document.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"hbnb_api/internal/domain"
)

// Current document version for migration support
const dataVersion = 1

type document struct {
	Version int `json:"version"`
	*domain.Snapshot
}

type Engine struct{ path string }

func New(path string) *Engine { return &Engine{path: path} }

func (e *Engine) Load(ctx context.Context) (*domain.Snapshot, error) {
	b, err := os.ReadFile(e.path)
	if errors.Is(err, fs.ErrNotExist) {
		return &domain.Snapshot{}, nil
	}
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return &domain.Snapshot{}, nil
	}
	doc := document{Snapshot: &domain.Snapshot{}}
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", e.path, err)
	}
	if doc.Version > dataVersion {
		return nil, fmt.Errorf("decode %s: unsupported version %d", e.path, doc.Version)
	}
	return doc.Snapshot, nil
}

// Store writes to a temp file in the target directory, syncs it and renames
// it over the target, so readers see either the old or the new document.
func (e *Engine) Store(ctx context.Context, s *domain.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(document{Version: dataVersion, Snapshot: s}, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(e.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(e.path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, e.path)
}

func (e *Engine) Close() error { return nil }
