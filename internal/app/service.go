package app

import (
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"pkgsmith/internal/adapters"
	"pkgsmith/internal/core"
	"pkgsmith/internal/ports"
	"pkgsmith/internal/types"
)

// Service wires the manifest repository, resolver, fetcher, builder and
// database together behind the user-facing operations. All state lives
// under a single install prefix.
type Service struct {
	Paths    types.Paths
	Repo     ports.RepositoryPort
	Resolver core.Resolver
	Fetcher  ports.FetcherPort
	Builder  ports.BuilderPort
	DB       ports.DatabasePort

	// StageRepo opens a manifest repository over an arbitrary directory,
	// used to stage incoming manifests during an update.
	StageRepo func(dir string) (ports.RepositoryPort, error)

	Clock func() time.Time
}

// NewService assembles a Service over the given prefix with the real
// adapters.
func NewService(prefix string) (*Service, error) {
	if strings.TrimSpace(prefix) == "" {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("install prefix is required")
	}
	paths := types.NewPaths(prefix)
	runner := adapters.ExecRunner{}
	fetcher := adapters.NewSourceFetcher(runner)
	repo := adapters.NewManifestRepository(paths.Manifests)
	return &Service{
		Paths:     paths,
		Repo:      repo,
		Resolver:  core.NewResolver(repo),
		Fetcher:   fetcher,
		Builder:   adapters.NewPackageBuilder(runner, fetcher),
		DB:        adapters.NewFileDatabase(paths.DB),
		StageRepo: openStagingRepo,
		Clock:     time.Now,
	}, nil
}

func openStagingRepo(dir string) (ports.RepositoryPort, error) {
	repo := adapters.NewManifestRepository(dir)
	if err := repo.Load(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock()
}

// installedByName loads the database into a name-keyed map for the
// resolver.
func (s *Service) installedByName() (map[string]types.InstalledRecord, error) {
	records, err := s.DB.List()
	if err != nil {
		return nil, err
	}
	installed := make(map[string]types.InstalledRecord, len(records))
	for _, record := range records {
		installed[record.Name] = record
	}
	return installed, nil
}
