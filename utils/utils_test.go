package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadFileTail(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "test.log")
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0644))

	// maxLen 0 reads the whole file
	data, err := ReadFileTail(path, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte("0123456789"), data)

	// maxLen smaller than the file returns the last maxLen bytes
	data, err = ReadFileTail(path, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte("6789"), data)

	// maxLen larger than the file returns everything
	data, err = ReadFileTail(path, 100)
	require.NoError(t, err)
	assert.Equal(t, []byte("0123456789"), data)
}

func TestReadFileTail_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := ReadFileTail(filepath.Join(t.TempDir(), "missing.log"), 10)
	assert.Error(t, err)
}
