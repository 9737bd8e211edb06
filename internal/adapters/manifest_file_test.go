package adapters

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/stretchr/testify/require"

	"pkgsmith/internal/types"
)

func writeManifestFile(t *testing.T, dir string, name string, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const zlibJSON = `{
  "name": "zlib",
  "version": "1.3.1",
  "description": "compression library",
  "source": {"type": "tarball", "url": "https://example.com/zlib-1.3.1.tar.gz"},
  "build_system": "autotools",
  "configure_args": ["--static"]
}`

const curlYAML = `name: curl
versions:
  - version: "8.5.0"
    description: transfer tool
    source:
      type: git
      url: https://example.com/curl.git
      tag: curl-8_5_0
    dependencies: [zlib]
    build_dependencies: [pkg-config]
    build_system: cmake
  - version: "8.4.0"
    source:
      type: tarball
      url: https://example.com/curl-8.4.0.tar.gz
    build_system: autotools
`

func TestRepositoryLoadsJSONAndYAML(t *testing.T) {
	dir := t.TempDir()
	writeManifestFile(t, dir, "zlib.json", zlibJSON)
	writeManifestFile(t, dir, "curl.yaml", curlYAML)

	repo := NewManifestRepository(dir)
	require.NoError(t, repo.Load())
	require.Equal(t, []string{"curl", "zlib"}, repo.List())

	zlib, err := repo.Find("zlib")
	require.NoError(t, err)
	require.Len(t, zlib.Versions, 1, "single-version document normalizes to one entry")
	require.Equal(t, "1.3.1", zlib.Versions[0].Version)
	require.Equal(t, types.BuildSystemAutotools, zlib.Versions[0].BuildSystem)
	require.Equal(t, []string{"--static"}, zlib.Versions[0].ConfigureArgs)

	curl, err := repo.Find("curl")
	require.NoError(t, err)
	require.Len(t, curl.Versions, 2)
	require.Equal(t, "curl-8_5_0", curl.Versions[0].Source.Tag)
}

func TestRepositoryLoadFailsFastOnMalformedDocument(t *testing.T) {
	dir := t.TempDir()
	writeManifestFile(t, dir, "zlib.json", zlibJSON)
	bad := writeManifestFile(t, dir, "bad.json", `{"name": "bad", "version": "1.0"`)

	repo := NewManifestRepository(dir)
	err := repo.Load()
	require.Error(t, err)
	require.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
	require.Contains(t, err.Error(), bad, "error names the offending file")

	// Nothing from the failed load is served.
	_, err = repo.Find("zlib")
	require.Error(t, err)
}

func TestRepositoryLoadRejectsInvalidFields(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{name: "unknown source type", content: `{"name":"x","version":"1","source":{"type":"ftp","url":"ftp://x"},"build_system":"make"}`},
		{name: "unknown build system", content: `{"name":"x","version":"1","source":{"type":"local","path":"/src"},"build_system":"scons"}`},
		{name: "missing name", content: `{"version":"1","source":{"type":"local","path":"/src"},"build_system":"make"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			writeManifestFile(t, dir, "x.json", tc.content)
			repo := NewManifestRepository(dir)
			require.Error(t, repo.Load())
		})
	}
}

func TestRepositoryResolveVersion(t *testing.T) {
	dir := t.TempDir()
	writeManifestFile(t, dir, "curl.yaml", curlYAML)
	repo := NewManifestRepository(dir)
	require.NoError(t, repo.Load())

	latest, err := repo.ResolveVersion("curl", "")
	require.NoError(t, err)
	require.Equal(t, "8.5.0", latest.Version, "empty constraint selects the first entry")

	exact, err := repo.ResolveVersion("curl", "8.4.0")
	require.NoError(t, err)
	require.Equal(t, "8.4.0", exact.Version)

	_, err = repo.ResolveVersion("curl", "7.0.0")
	require.Error(t, err)
	require.Equal(t, errbuilder.CodeNotFound, errbuilder.CodeOf(err))
	require.Contains(t, err.Error(), "version not found")

	_, err = repo.ResolveVersion("nope", "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "package not found")
}

func mergeEntry(version string) types.VersionEntry {
	return types.VersionEntry{
		Version:     version,
		Source:      types.SourceSpec{Type: types.SourceTypeTarball, URL: "https://example.com/curl-" + version + ".tar.gz"},
		BuildSystem: types.BuildSystemAutotools,
	}
}

func TestRepositoryMergePrependsNewVersion(t *testing.T) {
	dir := t.TempDir()
	writeManifestFile(t, dir, "curl.yaml", curlYAML)
	repo := NewManifestRepository(dir)
	require.NoError(t, repo.Load())

	require.NoError(t, repo.Merge(types.Manifest{
		Name:     "curl",
		Versions: []types.VersionEntry{mergeEntry("8.6.0")},
	}))

	curl, err := repo.Find("curl")
	require.NoError(t, err)
	versions := make([]string, 0, len(curl.Versions))
	for _, entry := range curl.Versions {
		versions = append(versions, entry.Version)
	}
	require.Equal(t, []string{"8.6.0", "8.5.0", "8.4.0"}, versions)

	// The merge persisted; a fresh load sees the same history.
	reloaded := NewManifestRepository(dir)
	require.NoError(t, reloaded.Load())
	curl, err = reloaded.Find("curl")
	require.NoError(t, err)
	require.Len(t, curl.Versions, 3)
	require.Equal(t, "8.6.0", curl.Versions[0].Version)
}

func TestRepositoryMergeReplacesInPlace(t *testing.T) {
	dir := t.TempDir()
	writeManifestFile(t, dir, "curl.yaml", curlYAML)
	repo := NewManifestRepository(dir)
	require.NoError(t, repo.Load())

	updated := mergeEntry("8.4.0")
	updated.Description = "refreshed"
	require.NoError(t, repo.Merge(types.Manifest{Name: "curl", Versions: []types.VersionEntry{updated}}))

	curl, err := repo.Find("curl")
	require.NoError(t, err)
	require.Len(t, curl.Versions, 2, "replacement does not change entry count")
	require.Equal(t, "8.5.0", curl.Versions[0].Version)
	require.Equal(t, "refreshed", curl.Versions[1].Description)
}

func TestRepositoryMergeAddsNewPackage(t *testing.T) {
	dir := t.TempDir()
	repo := NewManifestRepository(dir)
	require.NoError(t, repo.Load())

	require.NoError(t, repo.Merge(types.Manifest{
		Name:     "jq",
		Versions: []types.VersionEntry{mergeEntry("1.7.1")},
	}))
	_, err := repo.Find("jq")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "jq.yaml"))
	require.NoError(t, err)
}

func TestRepositoryMergeKeepsJSONFormat(t *testing.T) {
	dir := t.TempDir()
	path := writeManifestFile(t, dir, "zlib.json", zlibJSON)
	repo := NewManifestRepository(dir)
	require.NoError(t, repo.Load())

	require.NoError(t, repo.Merge(types.Manifest{
		Name:     "zlib",
		Versions: []types.VersionEntry{mergeEntry("1.3.2")},
	}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, json.Valid(data), "json documents stay json after merge")
}

func TestRepositorySearch(t *testing.T) {
	dir := t.TempDir()
	writeManifestFile(t, dir, "zlib.json", zlibJSON)
	writeManifestFile(t, dir, "curl.yaml", curlYAML)
	repo := NewManifestRepository(dir)
	require.NoError(t, repo.Load())

	hits := repo.Search("compression")
	require.Len(t, hits, 1)
	require.Equal(t, "zlib", hits[0].Name)
	require.Len(t, repo.Search("zzz"), 0)
}
