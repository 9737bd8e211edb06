// Package testutil provides shared test helpers used across e2e and
// unit test packages.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"pkgsmith/internal/types"
)

// RepoRoot returns the absolute path to the repository root by walking
// up from the current working directory. It fails the test if the
// working directory cannot be determined.
func RepoRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Clean(filepath.Join(dir, "..", ".."))
}

// WriteManifest serializes a manifest as a JSON document into dir,
// named after the package.
func WriteManifest(t *testing.T, dir string, manifest types.Manifest) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	data, err := json.MarshalIndent(manifest, "", "  ")
	require.NoError(t, err)
	path := filepath.Join(dir, manifest.Name+".json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// WriteSourceTree materializes a file tree under root, creating parent
// directories as needed.
func WriteSourceTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}
