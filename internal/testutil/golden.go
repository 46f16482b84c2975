package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// UpdateGoldenEnv rewrites golden files from the current output when set.
const UpdateGoldenEnv = "TODO_UPDATE_GOLDEN"

// Golden compares got against testdata/<name>.golden in the calling
// package's directory.
func Golden(t *testing.T, name string, got []byte) {
	t.Helper()

	path := filepath.Join("testdata", name+".golden")

	if os.Getenv(UpdateGoldenEnv) != "" {
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, got, 0644))
		return
	}

	want, err := os.ReadFile(path)
	require.NoError(t, err, "missing golden file %s (rerun with %s=1)", path, UpdateGoldenEnv)
	assert.Equal(t, string(want), string(got), "output mismatch for %s", name)
}
