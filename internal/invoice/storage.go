package invoice

import (
	"fmt"
	"os"
	"path/filepath"
)

// Storage defines the interface for export file storage
type Storage interface {
	// Save saves a file and returns its full path
	Save(filename string, data []byte) (string, error)
}

// LocalStorage implements the Storage interface using local filesystem
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new LocalStorage instance
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}

	return &LocalStorage{
		basePath: basePath,
	}, nil
}

// Save writes a file under the base directory. Directory parts of the name are dropped.
func (l *LocalStorage) Save(filename string, data []byte) (string, error) {
	path := filepath.Join(l.basePath, filepath.Base(filename))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}
	return path, nil
}

// SaveExport renders a table and writes it under the format's file name
func SaveExport(store Storage, t *Table, format Format, opts ExportOptions) (string, error) {
	data, err := Export(t, format, opts)
	if err != nil {
		return "", fmt.Errorf("exporting table: %w", err)
	}
	path, err := store.Save(format.Filename(), data)
	if err != nil {
		return "", fmt.Errorf("saving export: %w", err)
	}
	return path, nil
}
