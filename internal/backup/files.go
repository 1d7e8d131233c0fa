package backup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrNoSuchBackup marks a filename that does not resolve to an
// existing backup file.
var ErrNoSuchBackup = errors.New("backup file not found")

// FileInfo describes one stored backup file.
type FileInfo struct {
	Filename   string `json:"filename"`
	Size       int64  `json:"size"`
	CreatedAt  string `json:"created_at"`
	ModifiedAt string `json:"modified_at"`
}

// FileManager stores snapshot documents as JSON files under one
// directory. Filenames are always flattened to their base name so
// clients cannot traverse outside the directory.
type FileManager struct {
	dir string
}

func NewFileManager(dir string) *FileManager {
	return &FileManager{dir: dir}
}

// NewFilename derives a backup filename from a timestamp the same way
// the download header names it.
func NewFilename(now time.Time) string {
	stamp := now.UTC().Format("2006-01-02T15-04-05Z")
	return "backup_" + stamp + ".json"
}

func (m *FileManager) path(filename string) (string, error) {
	name := filepath.Base(strings.TrimSpace(filename))
	if name == "" || name == "." || name == string(filepath.Separator) || !strings.HasSuffix(name, ".json") {
		return "", ErrNoSuchBackup
	}
	return filepath.Join(m.dir, name), nil
}

// Save writes the raw snapshot document under the given name, creating
// the backup directory on first use.
func (m *FileManager) Save(filename string, raw []byte) error {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return fmt.Errorf("create backup directory: %w", err)
	}
	path, err := m.path(filename)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write backup file: %w", err)
	}
	return nil
}

// List returns every stored .json backup, newest first. A missing
// directory is an empty list, not an error.
func (m *FileManager) List() ([]FileInfo, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []FileInfo{}, nil
		}
		return nil, fmt.Errorf("read backup directory: %w", err)
	}

	out := []FileInfo{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("stat backup file: %w", err)
		}
		out = append(out, FileInfo{
			Filename:   entry.Name(),
			Size:       info.Size(),
			CreatedAt:  info.ModTime().UTC().Format(time.RFC3339),
			ModifiedAt: info.ModTime().UTC().Format(time.RFC3339),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ModifiedAt != out[j].ModifiedAt {
			return out[i].ModifiedAt > out[j].ModifiedAt
		}
		return out[i].Filename > out[j].Filename
	})
	return out, nil
}

// Read returns the raw contents of a stored backup.
func (m *FileManager) Read(filename string) ([]byte, error) {
	path, err := m.path(filename)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoSuchBackup
		}
		return nil, fmt.Errorf("read backup file: %w", err)
	}
	return raw, nil
}

// Delete removes a stored backup.
func (m *FileManager) Delete(filename string) error {
	path, err := m.path(filename)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNoSuchBackup
		}
		return fmt.Errorf("delete backup file: %w", err)
	}
	return nil
}
