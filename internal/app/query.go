package app

import (
	"context"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"pkgsmith/internal/types"
)

// PackageInfo pairs a package's manifest with its install state.
// Installed is nil when the package is not installed.
type PackageInfo struct {
	Manifest  types.Manifest
	Installed *types.InstalledRecord
}

// List returns the installed packages sorted by name.
func (s *Service) List(ctx context.Context) ([]types.InstalledRecord, error) {
	return s.DB.List()
}

// Available returns every package name the repository knows about.
func (s *Service) Available(ctx context.Context) ([]string, error) {
	if err := s.Repo.Load(); err != nil {
		return nil, err
	}
	return s.Repo.List(), nil
}

// Info returns the manifest and install state for one package.
func (s *Service) Info(ctx context.Context, name string) (PackageInfo, error) {
	if err := s.Repo.Load(); err != nil {
		return PackageInfo{}, err
	}
	manifest, err := s.Repo.Find(name)
	if err != nil {
		return PackageInfo{}, err
	}
	info := PackageInfo{Manifest: manifest}
	record, err := s.DB.Query(name)
	if err == nil {
		info.Installed = &record
	} else if errbuilder.CodeOf(err) != errbuilder.CodeNotFound {
		return PackageInfo{}, err
	}
	return info, nil
}

// Search matches a query against package names and descriptions.
func (s *Service) Search(ctx context.Context, query string) ([]types.Manifest, error) {
	if err := s.Repo.Load(); err != nil {
		return nil, err
	}
	return s.Repo.Search(query), nil
}
