// Package geojsonfile writes alert snapshots to disk for static map hosting.
package geojsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/nws-alert-map/internal/domain"
)

// Writer replaces the file at path with each published snapshot. Readers
// never observe a partially written file.
type Writer struct {
	path   string
	logger *slog.Logger
}

// NewWriter creates a Writer for path. The parent directory must exist.
func NewWriter(path string, logger *slog.Logger) *Writer {
	return &Writer{path: path, logger: logger}
}

// Publish encodes snap and atomically renames it over the output file.
func (w *Writer) Publish(_ context.Context, snap domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(w.path), "."+filepath.Base(w.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // no-op once renamed

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, w.path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}

	w.logger.Info("snapshot written",
		"path", w.path,
		"stage", snap.Stage,
		"run_id", snap.RunID,
		"features", len(snap.Alerts),
	)
	return nil
}
