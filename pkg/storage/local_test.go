package storage_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"plugin-endpoints/pkg/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("read failed") }

func TestLocalProviderLifecycle(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	p, err := storage.NewLocalProvider(dir, "http://example.test/download/")
	require.NoError(t, err)

	require.NoError(t, p.Save("plugin-1-abc.zip", strings.NewReader("data")))

	files, err := p.ListFiles()
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "plugin-1-abc.zip", files[0].Name)
	assert.Equal(t, int64(4), files[0].Size)

	u, err := p.GetDownloadURL("plugin-1-abc.zip")
	require.NoError(t, err)
	assert.Equal(t, "http://example.test/download/plugin-1-abc.zip", u)

	require.NoError(t, p.Delete("plugin-1-abc.zip"))
	// 重复删除视为成功
	assert.NoError(t, p.Delete("plugin-1-abc.zip"))

	files, err = p.ListFiles()
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestLocalProviderSaveFailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	p, err := storage.NewLocalProvider(dir, "http://example.test/download")
	require.NoError(t, err)

	err = p.Save("plugin-2-def.zip", failingReader{})
	assert.Error(t, err)

	_, statErr := os.Stat(filepath.Join(dir, "plugin-2-def.zip"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestLocalProviderListSkipsDirs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0755))
	p, err := storage.NewLocalProvider(dir, "http://example.test/download")
	require.NoError(t, err)

	files, err := p.ListFiles()
	require.NoError(t, err)
	assert.Empty(t, files)
}
