package backup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFilename(t *testing.T) {
	stamp := time.Date(2024, 3, 15, 9, 30, 45, 0, time.UTC)
	assert.Equal(t, "backup_2024-03-15T09-30-45Z.json", NewFilename(stamp))

	// Non-UTC input is normalized.
	est := time.FixedZone("EST", -5*3600)
	assert.Equal(t, "backup_2024-03-15T14-30-45Z.json", NewFilename(stamp.In(est)))
}

func TestFileManagerSaveReadDelete(t *testing.T) {
	m := NewFileManager(filepath.Join(t.TempDir(), "backups"))
	payload := []byte(`{"version":"1.0.0"}`)

	require.NoError(t, m.Save("backup_2024-03-15T09-30-45Z.json", payload))

	got, err := m.Read("backup_2024-03-15T09-30-45Z.json")
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	require.NoError(t, m.Delete("backup_2024-03-15T09-30-45Z.json"))

	_, err = m.Read("backup_2024-03-15T09-30-45Z.json")
	assert.ErrorIs(t, err, ErrNoSuchBackup)
	assert.ErrorIs(t, m.Delete("backup_2024-03-15T09-30-45Z.json"), ErrNoSuchBackup)
}

func TestFileManagerList(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "backups")
	m := NewFileManager(dir)

	t.Run("missing directory is empty, not an error", func(t *testing.T) {
		files, err := m.List()
		require.NoError(t, err)
		assert.Empty(t, files)
	})

	require.NoError(t, m.Save("backup_a.json", []byte("{}")))
	require.NoError(t, m.Save("backup_b.json", []byte("{}")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip me"), 0o644))

	files, err := m.List()
	require.NoError(t, err)
	require.Len(t, files, 2, "non-json files are not backups")
	for _, f := range files {
		assert.NotEmpty(t, f.CreatedAt)
		assert.Positive(t, f.Size)
	}
}

func TestFileManagerRejectsTraversal(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "backups")
	m := NewFileManager(dir)

	outside := filepath.Join(dir, "..", "escape.json")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(outside, []byte("secret"), 0o644))

	// Path components are flattened to the base name, so a traversal
	// attempt resolves inside the directory and simply misses.
	_, err := m.Read("../escape.json")
	assert.ErrorIs(t, err, ErrNoSuchBackup)

	for _, name := range []string{"", "   ", "backup.txt", "..", "."} {
		_, err := m.Read(name)
		assert.ErrorIs(t, err, ErrNoSuchBackup, "name %q", name)
	}

	assert.ErrorIs(t, m.Delete("../escape.json"), ErrNoSuchBackup)
	_, statErr := os.Stat(outside)
	assert.NoError(t, statErr, "file outside the backup directory must be untouched")
}
