package adapters

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"pkgsmith/internal/types"
)

// sourceRootMarkers identify the top of a source tree inside an
// extracted archive.
var sourceRootMarkers = []string{
	"configure",
	"configure.ac",
	"configure.in",
	"CMakeLists.txt",
	"meson.build",
	"Makefile",
	"makefile",
	"Cargo.toml",
}

func (f *SourceFetcher) fetchArchive(ctx context.Context, spec types.SourceSpec, destDir string, force bool) (string, error) {
	if reuseExisting(ctx, destDir, force) {
		return destDir, nil
	}
	if err := os.RemoveAll(destDir); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to clear source directory").
			WithCause(err)
	}
	if err := os.MkdirAll(filepath.Dir(destDir), 0o755); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create source directory").
			WithCause(err)
	}

	archivePath := filepath.Join(filepath.Dir(destDir), archiveFileName(spec))
	if err := f.Download(ctx, spec.URL, archivePath); err != nil {
		return "", err
	}
	defer os.Remove(archivePath)

	staging := destDir + ".extract"
	if err := os.RemoveAll(staging); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to clear extraction directory").
			WithCause(err)
	}
	defer os.RemoveAll(staging)

	var err error
	switch spec.Type {
	case types.SourceTypeZip:
		err = extractZip(archivePath, staging)
	default:
		err = extractTar(archivePath, staging)
	}
	if err != nil {
		return "", err
	}

	root, err := locateSourceRoot(staging)
	if err != nil {
		return "", err
	}
	// Normalize whatever the archive expanded into to the predictable
	// destination, whether or not its directory name matches the package.
	if err := os.Rename(root, destDir); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to move extracted source").
			WithCause(err)
	}
	log.Ctx(ctx).Debug().Str("dir", destDir).Msg("archive extracted")
	return destDir, nil
}

// archiveFileName derives a scratch file name from the URL path,
// falling back to a generic name when the URL has none.
func archiveFileName(spec types.SourceSpec) string {
	if parsed, err := url.Parse(spec.URL); err == nil {
		if name := path.Base(parsed.Path); name != "" && name != "/" && name != "." {
			return name
		}
	}
	if spec.Type == types.SourceTypeZip {
		return "source.zip"
	}
	return "source.tar.gz"
}

// locateSourceRoot finds the actual source tree inside an extraction
// directory: either the directory itself when a marker file sits at the
// top, or the sole top-level directory.
func locateSourceRoot(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("extract failed: cannot read extraction directory").
			WithCause(err)
	}
	if len(entries) == 0 {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("extract failed: archive is empty")
	}
	for _, marker := range sourceRootMarkers {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			return dir, nil
		}
	}
	if len(entries) == 1 && entries[0].IsDir() {
		return filepath.Join(dir, entries[0].Name()), nil
	}
	// Multiple top-level entries without a marker still count as a
	// source tree rooted at the extraction directory.
	for _, entry := range entries {
		if !entry.IsDir() {
			return dir, nil
		}
	}
	return "", errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg(fmt.Sprintf("extract failed: no recognizable source root under %s", dir))
}
