package diskio

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupRestore(t *testing.T) {
	content := []byte(strings.Repeat(`{"k":"a","v":{"n":1}}`+"   \n", 200))

	for _, c := range []Compression{NoCompression, Zstd, LZ4} {
		t.Run(c.String(), func(t *testing.T) {
			dir := t.TempDir()
			src := filepath.Join(dir, "x.db")
			require.NoError(t, os.WriteFile(src, content, 0o666))

			bak := BackupPath(src, c)
			require.NoError(t, Backup(src, bak, c))
			assert.NoFileExists(t, bak+".tmp")

			raw, err := os.ReadFile(bak)
			require.NoError(t, err)
			if c == NoCompression {
				assert.Equal(t, content, raw)
			} else {
				assert.Less(t, len(raw), len(content))
			}

			dst := filepath.Join(dir, "restored.db")
			require.NoError(t, Restore(bak, dst))
			got, err := os.ReadFile(dst)
			require.NoError(t, err)
			assert.Equal(t, content, got)
		})
	}
}

func TestBackupReplacesPrevious(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "x.db")
	bak := BackupPath(src, NoCompression)

	require.NoError(t, os.WriteFile(src, []byte("first\n"), 0o666))
	require.NoError(t, Backup(src, bak, NoCompression))
	require.NoError(t, os.WriteFile(src, []byte("second\n"), 0o666))
	require.NoError(t, Backup(src, bak, NoCompression))

	got, err := os.ReadFile(bak)
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(got))
}

func TestBackupMissingSource(t *testing.T) {
	dir := t.TempDir()
	err := Backup(filepath.Join(dir, "none.db"), filepath.Join(dir, "none.db.bak"), NoCompression)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestBackupPath(t *testing.T) {
	assert.Equal(t, "a.db.bak", BackupPath("a.db", NoCompression))
	assert.Equal(t, "a.db.bak.zst", BackupPath("a.db", Zstd))
	assert.Equal(t, "a.db.bak.lz4", BackupPath("a.db", LZ4))
}

func TestParseCompression(t *testing.T) {
	tests := []struct {
		in   string
		want Compression
	}{
		{"", NoCompression},
		{"none", NoCompression},
		{"ZSTD", Zstd},
		{"zst", Zstd},
		{"lz4", LZ4},
	}
	for _, tt := range tests {
		c, err := ParseCompression(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, c, tt.in)
	}

	_, err := ParseCompression("gzip")
	assert.Error(t, err)
}
