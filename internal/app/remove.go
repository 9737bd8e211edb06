package app

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog/log"

	"pkgsmith/internal/shared"
	"pkgsmith/internal/types"
)

// Remove deletes an installed package's files and its database record.
// Installed packages that depend on it are reported as a warning but do
// not block the removal; the caller asked, the caller gets.
func (s *Service) Remove(ctx context.Context, name string) error {
	record, err := s.DB.Query(name)
	if err != nil {
		return err
	}

	if dependents, err := s.dependentsOf(name); err != nil {
		return err
	} else if len(dependents) > 0 {
		log.Ctx(ctx).Warn().
			Str("package", name).
			Strs("dependents", dependents).
			Msg("removing a package other installed packages depend on")
	}

	s.removeOwnedFiles(ctx, record)
	if err := s.DB.Remove(name); err != nil {
		return err
	}
	log.Ctx(ctx).Info().
		Str("package", name).
		Str("version", record.Version).
		Msg("removed")
	return nil
}

// dependentsOf lists installed packages whose recorded dependencies
// include the named package, at any version.
func (s *Service) dependentsOf(name string) ([]string, error) {
	records, err := s.DB.List()
	if err != nil {
		return nil, err
	}
	var dependents []string
	for _, record := range records {
		for _, ref := range record.Dependencies {
			depName, _ := shared.SplitNameVersion(ref)
			if depName == name {
				dependents = append(dependents, record.Name)
				break
			}
		}
	}
	sort.Strings(dependents)
	return dependents, nil
}

// removeOwnedFiles deletes the files the record claims, then prunes any
// directories that became empty. A path that is already gone is fine; a
// path that will not delete is logged and skipped rather than aborting
// the removal.
func (s *Service) removeOwnedFiles(ctx context.Context, record types.InstalledRecord) {
	parents := map[string]struct{}{}
	for _, rel := range record.Files {
		path := filepath.Join(record.InstallDir, rel)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Ctx(ctx).Warn().Err(err).Str("path", path).Msg("could not delete file")
			continue
		}
		parents[filepath.Dir(path)] = struct{}{}
	}
	pruneEmptyDirs(parents, record.InstallDir)
}

// pruneEmptyDirs removes now-empty directories from the deepest up,
// stopping at the prefix root. os.Remove refuses non-empty directories,
// which is exactly the guard needed.
func pruneEmptyDirs(dirs map[string]struct{}, root string) {
	ordered := make([]string, 0, len(dirs))
	for dir := range dirs {
		ordered = append(ordered, dir)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(ordered)))
	for _, dir := range ordered {
		for dir != root && len(dir) > len(root) {
			if err := os.Remove(dir); err != nil {
				break
			}
			dir = filepath.Dir(dir)
		}
	}
}
