package app

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"pkgsmith/internal/types"
)

// manifestStageDir is where git-hosted manifest collections are checked
// out before staging, relative to the sources directory.
const manifestStageDir = "_manifests"

// Update folds manifests from another location into the repository. The
// source is either a local directory of manifest documents or a git URL
// holding one; merged versions are prepended, existing history is never
// dropped. Returns the names of the packages that were merged.
func (s *Service) Update(ctx context.Context, source string) ([]string, error) {
	if strings.TrimSpace(source) == "" {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("update source is required")
	}
	if err := s.Repo.Load(); err != nil {
		return nil, err
	}

	dir := source
	if isGitSource(source) {
		stage := filepath.Join(s.Paths.Sources, manifestStageDir)
		checkout, err := s.Fetcher.Fetch(ctx, types.SourceSpec{
			Type: types.SourceTypeGit,
			URL:  source,
		}, stage, true)
		if err != nil {
			return nil, err
		}
		dir = checkout
	}

	staged, err := s.StageRepo(dir)
	if err != nil {
		return nil, err
	}
	names := staged.List()
	for _, name := range names {
		manifest, err := staged.Find(name)
		if err != nil {
			return nil, err
		}
		if err := s.Repo.Merge(manifest); err != nil {
			return nil, err
		}
		log.Ctx(ctx).Debug().Str("package", name).Msg("manifest merged")
	}
	log.Ctx(ctx).Info().
		Str("source", source).
		Int("packages", len(names)).
		Msg("repository updated")
	return names, nil
}

func isGitSource(source string) bool {
	return strings.HasSuffix(source, ".git") ||
		strings.HasPrefix(source, "git://") ||
		strings.HasPrefix(source, "git@")
}
