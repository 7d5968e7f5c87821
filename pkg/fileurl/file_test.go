package fileurl

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePathAndIsExist(t *testing.T) {
	root := t.TempDir()
	dst := filepath.Join(root, "storage", "database", "db.sqlite3")

	assert.False(t, IsExist(dst))
	require.NoError(t, CreatePath(dst, os.ModePerm))
	assert.True(t, IsDir(filepath.Dir(dst)))
	assert.False(t, IsExist(dst))

	require.NoError(t, os.WriteFile(dst, nil, 0644))
	assert.True(t, IsExist(dst))
	assert.False(t, IsDir(dst))
}
