package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	logger "gitlab.com/maplesense1/mdc.dashboard_client/src/production/MDC.Logger"
	"go.uber.org/multierr"
)

const (
	// Directories
	DirPermsDefault os.FileMode = 0o755 // rwxr-xr-x

	// Files
	FilePermsDefault os.FileMode = 0o644 // rw-r--r--
)

// JSONWriter writes report data as pretty printed JSON files
type JSONWriter struct {
	dir    string
	logger *logger.Logger
}

// NewJSONWriter creates a writer that resolves relative file names against dir.
func NewJSONWriter(dir string, log *logger.Logger) *JSONWriter {
	if dir == "" {
		dir = "."
	}
	return &JSONWriter{
		dir:    dir,
		logger: log.WithComponent("storage"),
	}
}

// Path returns where filename will be written.
func (w *JSONWriter) Path(filename string) string {
	if filepath.IsAbs(filename) {
		return filename
	}
	return filepath.Join(w.dir, filename)
}

// WriteJSON encodes data with two-space indentation and overwrites filename.
func (w *JSONWriter) WriteJSON(data interface{}, filename string) (err error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("failed to encode %s: %w", filename, err)
	}

	path := w.Path(filename)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, FilePermsDefault)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer multierr.AppendInvoke(&err, multierr.Close(f))

	if _, err := f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Save writes data to filename and reports whether it succeeded. Failures are
// logged, never returned.
func (w *JSONWriter) Save(data interface{}, filename string) bool {
	if err := w.WriteJSON(data, filename); err != nil {
		w.logger.WithField("file", filename).ErrorWithError(err, "Error saving file")
		return false
	}
	w.logger.WithField("file", w.Path(filename)).Debug("Data saved")
	return true
}

// EnsureDir creates the output directory if it does not exist yet.
func (w *JSONWriter) EnsureDir() error {
	if err := os.MkdirAll(w.dir, DirPermsDefault); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}
