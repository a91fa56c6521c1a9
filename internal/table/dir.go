package table

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrTableNotFound is returned when no persisted table exists for a country.
var ErrTableNotFound = errors.New("table: not found")

// Dir locates per-country tables inside one directory.
type Dir struct {
	root string
}

// NewDir returns a Dir rooted at path. An empty path means the working
// directory.
func NewDir(path string) *Dir {
	if path == "" {
		path = "."
	}
	return &Dir{root: path}
}

// Root returns the directory path.
func (d *Dir) Root() string { return d.root }

// FileName returns the table file name for a country.
func FileName(country string) string {
	return "wine_data_" + strings.ToLower(country) + ".csv"
}

// Path returns the full table path for a country.
func (d *Dir) Path(country string) string {
	return filepath.Join(d.root, FileName(country))
}

// Load reads the table for a country.
func (d *Dir) Load(ctx context.Context, country string) (*Table, error) {
	data, err := d.Raw(country)
	if err != nil {
		return nil, err
	}
	t, err := Read(ctx, bytes.NewReader(data))
	if err != nil {
		return nil, eris.Wrapf(err, "table: load %s", country)
	}
	return t, nil
}

// Raw returns the stored bytes of a country's table.
func (d *Dir) Raw(country string) ([]byte, error) {
	path := d.Path(country)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, eris.Wrapf(ErrTableNotFound, "table: %s", path)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "table: read %s", path)
	}
	return data, nil
}

// Save writes the table for a country, replacing any previous file.
func (d *Dir) Save(country string, t *Table) (string, error) {
	if err := os.MkdirAll(d.root, 0o755); err != nil {
		return "", eris.Wrapf(err, "table: create dir %s", d.root)
	}

	path := d.Path(country)
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return "", eris.Wrapf(err, "table: create %s", tmp)
	}
	if err := Write(f, t); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return "", eris.Wrapf(err, "table: close %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", eris.Wrapf(err, "table: rename %s", tmp)
	}
	return path, nil
}
