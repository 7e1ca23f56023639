package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageStoreSaveAndRemove(t *testing.T) {
	t.Parallel()
	store, err := NewImageStore(filepath.Join(t.TempDir(), "dishes"))
	require.NoError(t, err)

	path, err := store.Save("dish_1.jpg", strings.NewReader("jpegbytes"))
	require.NoError(t, err)
	assert.Equal(t, "dish_1.jpg", path, "the stored path must be relative")

	data, err := os.ReadFile(filepath.Join(store.Dir, path))
	require.NoError(t, err)
	assert.Equal(t, "jpegbytes", string(data))

	require.NoError(t, store.Remove(path))
	_, err = os.Stat(filepath.Join(store.Dir, path))
	assert.True(t, os.IsNotExist(err))
}

func TestImageStoreRemoveMissingIsSuccess(t *testing.T) {
	t.Parallel()
	store, err := NewImageStore(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, store.Remove("never-existed.jpg"))
	assert.NoError(t, store.Remove(""))
}
