// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
		want  map[string]string
	}{
		{
			name: "reads key files and trims whitespace",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "scopus-api-key", "  0123abcd  \n")
				writeFile(t, dir, "scopus-insttoken", "tok")
				return dir
			},
			want: map[string]string{
				"scopus-api-key":   "0123abcd",
				"scopus-insttoken": "tok",
			},
		},
		{
			name: "returns empty map for nonexistent directory",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "does-not-exist")
			},
			want: map[string]string{},
		},
		{
			name: "skips empty files and dotfiles",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "scopus-api-key", "valid")
				writeFile(t, dir, "empty-key", "   \n\t")
				writeFile(t, dir, ".gitkeep", "")
				return dir
			},
			want: map[string]string{"scopus-api-key": "valid"},
		},
		{
			name: "skips subdirectories",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "scopus-api-key", "k")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))
				return dir
			},
			want: map[string]string{"scopus-api-key": "k"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.setup(t), zerolog.Nop())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadLegacyKey(t *testing.T) {
	dir := t.TempDir()

	got, err := ReadLegacyKey(filepath.Join(dir, LegacyKeyFile))
	require.NoError(t, err)
	assert.Empty(t, got)

	writeFile(t, dir, LegacyKeyFile, "abc123\nsecond line ignored\n")
	got, err = ReadLegacyKey(filepath.Join(dir, LegacyKeyFile))
	require.NoError(t, err)
	assert.Equal(t, "abc123", got)
}

func TestResolveScopusKey(t *testing.T) {
	dir := t.TempDir()
	legacy := filepath.Join(dir, LegacyKeyFile)

	key, err := ResolveScopusKey("from-env", map[string]string{ScopusKey: "from-dir"}, legacy)
	require.NoError(t, err)
	assert.Equal(t, "from-env", key)

	key, err = ResolveScopusKey("", map[string]string{ScopusKey: "from-dir"}, legacy)
	require.NoError(t, err)
	assert.Equal(t, "from-dir", key)

	_, err = ResolveScopusKey("", nil, legacy)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no Scopus API key")

	writeFile(t, dir, LegacyKeyFile, "legacy\n")
	key, err = ResolveScopusKey("", nil, legacy)
	require.NoError(t, err)
	assert.Equal(t, "legacy", key)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
