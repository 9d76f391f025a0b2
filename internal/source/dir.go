package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// Dir serves CSV files from a local directory.
type Dir struct {
	Path string
}

// NewDir returns a Dir rooted at path.
func NewDir(path string) *Dir {
	return &Dir{Path: filepath.Clean(path)}
}

// List returns the regular *.csv files in the directory, sorted by name.
// A directory that does not exist yields an empty list.
func (d *Dir) List(_ context.Context) ([]File, error) {
	entries, err := os.ReadDir(d.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return []File{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read dir %q: %w", d.Path, err)
	}

	out := make([]File, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || !isCSV(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue // removed between ReadDir and Info
		}
		out = append(out, File{Name: e.Name(), Size: info.Size()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Fetch reads one file. name must be a bare file name inside the directory.
func (d *Dir) Fetch(_ context.Context, name string) (string, error) {
	if name != filepath.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	data, err := os.ReadFile(filepath.Join(d.Path, name))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
