package adapters

import (
	"archive/tar"
	"archive/zip"
	"compress/bzip2"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
)

func extractError(cause error) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg("extract failed: archive is corrupt or unreadable").
		WithCause(cause)
}

// safeJoin resolves an archive member path under dir, rejecting absolute
// paths and traversal outside the extraction root.
func safeJoin(dir string, name string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", extractError(os.ErrInvalid)
	}
	return filepath.Join(dir, cleaned), nil
}

func extractTar(archivePath string, destDir string) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return extractError(err)
	}
	defer file.Close()

	var reader io.Reader = file
	switch {
	case strings.HasSuffix(archivePath, ".gz"), strings.HasSuffix(archivePath, ".tgz"):
		gz, err := gzip.NewReader(file)
		if err != nil {
			return extractError(err)
		}
		defer gz.Close()
		reader = gz
	case strings.HasSuffix(archivePath, ".bz2"), strings.HasSuffix(archivePath, ".tbz2"):
		reader = bzip2.NewReader(file)
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return extractError(err)
	}
	tr := tar.NewReader(reader)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return extractError(err)
		}
		target, err := safeJoin(destDir, header.Name)
		if err != nil {
			return err
		}
		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, os.FileMode(header.Mode)|0o700); err != nil {
				return extractError(err)
			}
		case tar.TypeReg:
			if err := writeExtracted(target, tr, os.FileMode(header.Mode)); err != nil {
				return err
			}
		case tar.TypeSymlink:
			os.MkdirAll(filepath.Dir(target), 0o755)
			os.Remove(target)
			if err := os.Symlink(header.Linkname, target); err != nil {
				return extractError(err)
			}
		}
	}
}

func extractZip(archivePath string, destDir string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return extractError(err)
	}
	defer reader.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return extractError(err)
	}
	for _, member := range reader.File {
		target, err := safeJoin(destDir, member.Name)
		if err != nil {
			return err
		}
		if member.FileInfo().IsDir() {
			if err := os.MkdirAll(target, member.Mode()|0o700); err != nil {
				return extractError(err)
			}
			continue
		}
		src, err := member.Open()
		if err != nil {
			return extractError(err)
		}
		err = writeExtracted(target, src, member.Mode())
		src.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func writeExtracted(target string, src io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return extractError(err)
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode|0o600)
	if err != nil {
		return extractError(err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return extractError(err)
	}
	return out.Close()
}
