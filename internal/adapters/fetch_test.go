package adapters

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/stretchr/testify/require"

	"pkgsmith/internal/ports"
	"pkgsmith/internal/types"
)

// fakeRunner records every command it is asked to run and answers from a
// scripted result table.
type fakeRunner struct {
	commands []ports.Command
	missing  map[string]bool
	results  map[string]error
	outputs  map[string][]byte

	// script, when set, answers instead of the result tables.
	script func(cmd ports.Command) ([]byte, error)
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		missing: map[string]bool{},
		results: map[string]error{},
		outputs: map[string][]byte{},
	}
}

func (r *fakeRunner) Run(_ context.Context, cmd ports.Command) ([]byte, error) {
	r.commands = append(r.commands, cmd)
	if r.script != nil {
		return r.script(cmd)
	}
	return r.outputs[cmd.Name], r.results[cmd.Name]
}

func (r *fakeRunner) LookPath(name string) bool {
	return !r.missing[name]
}

var _ ports.RunnerPort = (*fakeRunner)(nil)

func writeTarGz(t *testing.T, path string, files map[string]string) {
	t.Helper()
	out, err := os.Create(path)
	require.NoError(t, err)
	defer out.Close()
	gz := gzip.NewWriter(out)
	tw := tar.NewWriter(gz)
	for name, content := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name: name,
			Mode: 0o644,
			Size: int64(len(content)),
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
}

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	out, err := os.Create(path)
	require.NoError(t, err)
	defer out.Close()
	zw := zip.NewWriter(out)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}

// stubTransport returns a transport that copies a prepared archive to the
// requested destination and counts its invocations.
func stubTransport(t *testing.T, name string, archive string, calls *int, fail error) transport {
	return transport{
		name: name,
		download: func(_ context.Context, _ string, dest string) error {
			*calls++
			if fail != nil {
				return fail
			}
			data, err := os.ReadFile(archive)
			require.NoError(t, err)
			return os.WriteFile(dest, data, 0o644)
		},
	}
}

func TestDownloadFallsThroughFailedTransports(t *testing.T) {
	dir := t.TempDir()
	payload := filepath.Join(dir, "payload")
	require.NoError(t, os.WriteFile(payload, []byte("data"), 0o644))

	var first, second int
	f := &SourceFetcher{Runner: newFakeRunner()}
	f.transports = []transport{
		stubTransport(t, "broken", payload, &first, fmt.Errorf("no route to host")),
		stubTransport(t, "working", payload, &second, nil),
	}

	dest := filepath.Join(dir, "out")
	require.NoError(t, f.Download(context.Background(), "https://example.com/x", dest))
	require.Equal(t, 1, first)
	require.Equal(t, 1, second)
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, "data", string(data))
}

func TestDownloadTreatsEmptyFileAsFailure(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	payload := filepath.Join(dir, "payload")
	require.NoError(t, os.WriteFile(payload, []byte("data"), 0o644))

	var first, second int
	f := &SourceFetcher{Runner: newFakeRunner()}
	f.transports = []transport{
		stubTransport(t, "empty", empty, &first, nil),
		stubTransport(t, "working", payload, &second, nil),
	}

	dest := filepath.Join(dir, "out")
	require.NoError(t, f.Download(context.Background(), "https://example.com/x", dest))
	require.Equal(t, 1, second, "empty result moves on to the next transport")
}

func TestDownloadReportsAllTransportsExhausted(t *testing.T) {
	var calls int
	f := &SourceFetcher{Runner: newFakeRunner()}
	f.transports = []transport{
		stubTransport(t, "a", "", &calls, fmt.Errorf("timeout")),
		stubTransport(t, "b", "", &calls, fmt.Errorf("dns failure")),
	}

	err := f.Download(context.Background(), "https://example.com/x", filepath.Join(t.TempDir(), "out"))
	require.Error(t, err)
	require.Equal(t, errbuilder.CodeInternal, errbuilder.CodeOf(err))
	require.Contains(t, err.Error(), "download failed: https://example.com/x")
	require.Equal(t, 2, calls)
}

func TestFetchRejectsUnsupportedSourceType(t *testing.T) {
	f := NewSourceFetcher(newFakeRunner())
	_, err := f.Fetch(context.Background(), types.SourceSpec{Type: "ftp"}, t.TempDir(), false)
	require.Error(t, err)
	require.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
}

func TestFetchArchiveExtractsAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "zlib-1.3.1.tar.gz")
	writeTarGz(t, archive, map[string]string{
		"zlib-1.3.1/configure": "#!/bin/sh\n",
		"zlib-1.3.1/zlib.h":    "/* header */\n",
	})

	var calls int
	f := &SourceFetcher{Runner: newFakeRunner()}
	f.transports = []transport{stubTransport(t, "stub", archive, &calls, nil)}

	dest := filepath.Join(dir, "sources", "zlib")
	got, err := f.Fetch(context.Background(), types.SourceSpec{
		Type: types.SourceTypeTarball,
		URL:  "https://example.com/zlib-1.3.1.tar.gz",
	}, dest, false)
	require.NoError(t, err)
	require.Equal(t, dest, got, "archive top directory renames to the destination")
	_, err = os.Stat(filepath.Join(dest, "configure"))
	require.NoError(t, err)

	// A repeated fetch without force reuses the tree.
	_, err = f.Fetch(context.Background(), types.SourceSpec{
		Type: types.SourceTypeTarball,
		URL:  "https://example.com/zlib-1.3.1.tar.gz",
	}, dest, false)
	require.NoError(t, err)
	require.Equal(t, 1, calls)

	// Force re-downloads.
	_, err = f.Fetch(context.Background(), types.SourceSpec{
		Type: types.SourceTypeTarball,
		URL:  "https://example.com/zlib-1.3.1.tar.gz",
	}, dest, true)
	require.NoError(t, err)
	require.Equal(t, 2, calls)
}

func TestFetchZipArchive(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "tool.zip")
	writeZip(t, archive, map[string]string{
		"tool-main/CMakeLists.txt": "project(tool)\n",
		"tool-main/main.c":         "int main(void){return 0;}\n",
	})

	var calls int
	f := &SourceFetcher{Runner: newFakeRunner()}
	f.transports = []transport{stubTransport(t, "stub", archive, &calls, nil)}

	dest := filepath.Join(dir, "sources", "tool")
	_, err := f.Fetch(context.Background(), types.SourceSpec{
		Type: types.SourceTypeZip,
		URL:  "https://example.com/tool.zip",
	}, dest, false)
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dest, "CMakeLists.txt"))
	require.NoError(t, err)
}

func TestExtractTarRejectsPathTraversal(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "evil.tar.gz")
	writeTarGz(t, archive, map[string]string{
		"../evil.txt": "gotcha",
	})

	err := extractTar(archive, filepath.Join(dir, "out"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "extract failed")
}

func TestArchiveFileName(t *testing.T) {
	cases := []struct {
		url  string
		typ  types.SourceType
		want string
	}{
		{url: "https://example.com/dl/zlib-1.3.1.tar.gz", typ: types.SourceTypeTarball, want: "zlib-1.3.1.tar.gz"},
		{url: "https://example.com/dl/tool.zip?token=abc", typ: types.SourceTypeZip, want: "tool.zip"},
		{url: "https://example.com/", typ: types.SourceTypeZip, want: "source.zip"},
		{url: "https://example.com", typ: types.SourceTypeTarball, want: "source.tar.gz"},
	}
	for _, tc := range cases {
		got := archiveFileName(types.SourceSpec{Type: tc.typ, URL: tc.url})
		require.Equal(t, tc.want, got, tc.url)
	}
}

func TestLocateSourceRoot(t *testing.T) {
	t.Run("marker at top", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "Makefile"), []byte("all:\n"), 0o644))
		require.NoError(t, os.Mkdir(filepath.Join(dir, "src"), 0o755))
		root, err := locateSourceRoot(dir)
		require.NoError(t, err)
		require.Equal(t, dir, root)
	})
	t.Run("sole subdirectory", func(t *testing.T) {
		dir := t.TempDir()
		sub := filepath.Join(dir, "pkg-1.0")
		require.NoError(t, os.Mkdir(sub, 0o755))
		root, err := locateSourceRoot(dir)
		require.NoError(t, err)
		require.Equal(t, sub, root)
	})
	t.Run("loose files count as a tree", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "main.c"), []byte("x"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "util.c"), []byte("y"), 0o644))
		root, err := locateSourceRoot(dir)
		require.NoError(t, err)
		require.Equal(t, dir, root)
	})
	t.Run("empty extraction fails", func(t *testing.T) {
		_, err := locateSourceRoot(t.TempDir())
		require.Error(t, err)
		require.Contains(t, err.Error(), "extract failed")
	})
	t.Run("multiple bare directories fail", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(dir, "a"), 0o755))
		require.NoError(t, os.Mkdir(filepath.Join(dir, "b"), 0o755))
		_, err := locateSourceRoot(dir)
		require.Error(t, err)
	})
}

func TestFetchLocalCopiesTree(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "Makefile"), []byte("all:\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "sub", "util.c"), []byte("x"), 0o644))

	f := NewSourceFetcher(newFakeRunner())
	dest := filepath.Join(t.TempDir(), "pkg")
	got, err := f.Fetch(context.Background(), types.SourceSpec{
		Type: types.SourceTypeLocal,
		Path: src,
	}, dest, false)
	require.NoError(t, err)
	require.Equal(t, dest, got)
	_, err = os.Stat(filepath.Join(dest, "sub", "util.c"))
	require.NoError(t, err)
}

func TestFetchLocalRejectsMissingPath(t *testing.T) {
	f := NewSourceFetcher(newFakeRunner())
	_, err := f.Fetch(context.Background(), types.SourceSpec{
		Type: types.SourceTypeLocal,
		Path: filepath.Join(t.TempDir(), "nope"),
	}, filepath.Join(t.TempDir(), "pkg"), false)
	require.Error(t, err)
}
