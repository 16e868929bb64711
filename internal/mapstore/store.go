// Package mapstore keeps .slmap files on disk: the maps directory, atomic
// writes and a watcher that notices when the directory changes.
package mapstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"SLClient/internal/mapping"
)

// ErrEmptyName is returned when a map is saved or loaded without a name.
var ErrEmptyName = errors.New("map name is empty")

// IOError reports a file system failure while reading or writing a map.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// SaveFile writes g to path through a temporary file in the same directory
// and marks g saved once the rename succeeds.
func SaveFile(g *mapping.Graph, path string) error {
	if strings.TrimSpace(path) == "" {
		return ErrEmptyName
	}
	data, err := g.Serialize()
	if err != nil {
		return err
	}
	if err := WriteFile(path, data); err != nil {
		return err
	}
	g.MarkSaved(path)
	return nil
}

// WriteFile atomically replaces path with data.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &IOError{Op: "create map directory", Path: dir, Err: err}
	}
	tmp, err := os.CreateTemp(dir, "map-*.tmp")
	if err != nil {
		return &IOError{Op: "create temp map file", Path: dir, Err: err}
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return &IOError{Op: "write map file", Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return &IOError{Op: "close temp map file", Path: path, Err: err}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return &IOError{Op: "replace map file", Path: path, Err: err}
	}
	return nil
}

// LoadFile reads path into g. g is left untouched when the file cannot be
// read or decoded.
func LoadFile(g *mapping.Graph, path string) error {
	if strings.TrimSpace(path) == "" {
		return ErrEmptyName
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return &IOError{Op: "read map file", Path: path, Err: err}
	}
	return g.Load(data, path)
}

// ReadSnapshot decodes the map stored at path without touching any graph.
func ReadSnapshot(path string) (mapping.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return mapping.Snapshot{}, &IOError{Op: "read map file", Path: path, Err: err}
	}
	return mapping.Unmarshal(data)
}

// IsFormatError reports whether err came from undecodable map data rather
// than the file system.
func IsFormatError(err error) bool {
	var formatErr *mapping.FormatError
	return errors.As(err, &formatErr)
}
