package mapstore

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"SLClient/internal/mapping"
)

// userConfigDir is swapped in tests.
var userConfigDir = os.UserConfigDir

// DefaultDir returns <user config dir>/SLClient/Maps.
func DefaultDir() (string, error) {
	base, err := userConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config directory: %w", err)
	}
	return filepath.Join(base, "SLClient", "Maps"), nil
}

// Entry describes one saved map.
type Entry struct {
	Name    string
	Path    string
	Size    int64
	ModTime time.Time
}

// Catalog is the maps directory.
type Catalog struct {
	dir string
}

// NewCatalog returns a catalog rooted at dir, or at DefaultDir when dir is
// empty.
func NewCatalog(dir string) (*Catalog, error) {
	if strings.TrimSpace(dir) == "" {
		def, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = def
	}
	return &Catalog{dir: filepath.Clean(dir)}, nil
}

// Dir returns the directory the catalog manages.
func (c *Catalog) Dir() string {
	return c.dir
}

// EnsureDir creates the maps directory when it is missing.
func (c *Catalog) EnsureDir() error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return &IOError{Op: "create maps directory", Path: c.dir, Err: err}
	}
	return nil
}

// Path resolves a map name to a file in the catalog. Names that already carry
// the extension are kept, absolute or relative paths containing a separator
// are used as given.
func (c *Catalog) Path(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	if !strings.EqualFold(filepath.Ext(name), mapping.FileExtension) {
		name += mapping.FileExtension
	}
	if filepath.IsAbs(name) || strings.ContainsRune(name, filepath.Separator) || strings.ContainsRune(name, '/') {
		return filepath.Clean(name), nil
	}
	return filepath.Join(c.dir, name), nil
}

// List returns the saved maps sorted by name. A missing directory is an
// empty catalog.
func (c *Catalog) List() ([]Entry, error) {
	dirEntries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &IOError{Op: "list maps", Path: c.dir, Err: err}
	}
	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if de.IsDir() || !strings.EqualFold(filepath.Ext(de.Name()), mapping.FileExtension) {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{
			Name:    strings.TrimSuffix(de.Name(), filepath.Ext(de.Name())),
			Path:    filepath.Join(c.dir, de.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})
	return entries, nil
}

// Save writes g under name in the catalog and returns the resolved path.
func (c *Catalog) Save(g *mapping.Graph, name string) (string, error) {
	path, err := c.Path(name)
	if err != nil {
		return "", err
	}
	return path, SaveFile(g, path)
}

// Load reads the map called name into g and returns the resolved path.
func (c *Catalog) Load(g *mapping.Graph, name string) (string, error) {
	path, err := c.Path(name)
	if err != nil {
		return "", err
	}
	return path, LoadFile(g, path)
}
