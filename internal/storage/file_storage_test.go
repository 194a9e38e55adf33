package storage

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTemplateStore_Save(t *testing.T) {
	tempDir := t.TempDir()
	logger, _ := zap.NewDevelopment()
	store := NewTemplateStore(tempDir, logger)

	t.Run("saves file successfully", func(t *testing.T) {
		path, err := store.Save("a.xlsx", []byte("xlsx bytes"))
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(tempDir, "a.xlsx"), path)

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, []byte("xlsx bytes"), content)
	})

	t.Run("creates parent directories", func(t *testing.T) {
		path, err := store.Save(filepath.Join("2024", "b.xlsx"), []byte("content"))
		require.NoError(t, err)
		assert.FileExists(t, path)
	})

	t.Run("overwrites existing file", func(t *testing.T) {
		_, err := store.Save("c.xlsx", []byte("original"))
		require.NoError(t, err)
		path, err := store.Save("c.xlsx", []byte("updated"))
		require.NoError(t, err)

		content, _ := os.ReadFile(path)
		assert.Equal(t, []byte("updated"), content)
	})

	t.Run("rejects traversal", func(t *testing.T) {
		_, err := store.Save(filepath.Join("..", "escape.xlsx"), []byte("x"))
		assert.ErrorIs(t, err, ErrPathEscape)
	})
}

func TestTemplateStore_Open(t *testing.T) {
	tempDir := t.TempDir()
	store := NewTemplateStore(tempDir, zap.NewNop())

	path, err := store.Save("run.xlsx", []byte("payload"))
	require.NoError(t, err)

	f, err := store.Open(path)
	require.NoError(t, err)
	defer f.Close()
	content, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(content))

	_, err = store.Open(filepath.Join(t.TempDir(), "elsewhere.xlsx"))
	assert.ErrorIs(t, err, ErrPathEscape)

	_, err = store.Open(tempDir)
	assert.ErrorIs(t, err, ErrPathEscape, "the base directory itself is not a template")
}

func TestFileName(t *testing.T) {
	store := NewTemplateStore(t.TempDir(), zap.NewNop())

	tests := []struct {
		name  string
		parts []string
		want  string
	}{
		{"joins parts", []string{"BA1234567", "2024-01 to 2024-06", "abc123"}, "BA1234567_2024-01-to-2024-06_abc123.xlsx"},
		{"strips traversal", []string{"../../etc", "passwd"}, "etc_passwd.xlsx"},
		{"skips empty parts", []string{"", "run"}, "run.xlsx"},
		{"falls back", []string{"///"}, "template.xlsx"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, store.FileName(tt.parts...))
		})
	}
}
