package app

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"pkgsmith/internal/core"
	"pkgsmith/internal/ports"
	"pkgsmith/internal/types"
)

// InstallRequest asks for one package, with an optional exact version.
// Force re-fetches sources and rebuilds even when the same version is
// already installed.
type InstallRequest struct {
	Name    string
	Version string
	Force   bool
}

// Install resolves the request into a plan and executes it node by node
// in dependency order. The first failing node stops the session; nodes
// already installed stay installed and their database records stand, so
// a later retry resumes where this one stopped. The report is returned
// alongside the error so callers can show partial progress.
func (s *Service) Install(ctx context.Context, req InstallRequest) (types.ExecutionReport, error) {
	session := uuid.NewString()
	logger := log.Ctx(ctx).With().Str("session", session).Logger()
	ctx = logger.WithContext(ctx)
	report := types.ExecutionReport{SessionID: session}

	if err := s.Repo.Load(); err != nil {
		return report, err
	}
	installed, err := s.installedByName()
	if err != nil {
		return report, err
	}
	plan, err := s.Resolver.Resolve(ctx, core.ResolveRequest{
		Name:    req.Name,
		Version: req.Version,
		Force:   req.Force,
	}, installed)
	if err != nil {
		return report, err
	}
	logger.Info().
		Str("package", req.Name).
		Strs("plan", plan.Names()).
		Msg("install plan resolved")

	for i := range plan.Nodes {
		node := &plan.Nodes[i]
		if node.State == types.NodeStateSkipped {
			logger.Debug().Str("package", node.ID()).Msg("already installed, skipping")
			report.Skipped = append(report.Skipped, node.ID())
			continue
		}
		if err := s.executeNode(ctx, plan, node, req.Force, installed); err != nil {
			report.Failed = node.ID()
			report.FailedPhase = phaseOf(node.State)
			report.FailureOutput = err.Error()
			node.State = types.NodeStateFailed
			for _, rest := range plan.Nodes[i+1:] {
				switch rest.State {
				case types.NodeStateSkipped:
					report.Skipped = append(report.Skipped, rest.ID())
				case types.NodeStatePending:
					report.NotAttempted = append(report.NotAttempted, rest.ID())
				}
			}
			logger.Error().
				Err(err).
				Str("package", node.ID()).
				Str("phase", string(report.FailedPhase)).
				Msg("install failed")
			return report, err
		}
		report.Completed = append(report.Completed, node.ID())
	}
	logger.Info().
		Int("completed", len(report.Completed)).
		Int("skipped", len(report.Skipped)).
		Msg("install finished")
	return report, nil
}

// executeNode drives one plan node through fetch, patch, build and
// install, advancing node.State as it goes. On error the state is left
// at the phase that failed, then marked failed by the caller's report.
func (s *Service) executeNode(ctx context.Context, plan types.Plan, node *types.PlanNode, force bool, installed map[string]types.InstalledRecord) error {
	logger := log.Ctx(ctx).With().Str("package", node.ID()).Logger()

	node.State = types.NodeStateFetching
	logger.Info().Msg("fetching source")
	sourceDir := filepath.Join(s.Paths.Sources, node.Name)
	sourceRoot, err := s.Fetcher.Fetch(ctx, node.Entry.Source, sourceDir, force)
	if err != nil {
		return err
	}

	node.State = types.NodeStatePatching
	if len(node.Entry.Patches) > 0 {
		logger.Info().Int("patches", len(node.Entry.Patches)).Msg("applying patches")
	}
	if err := s.Builder.Patch(ctx, sourceRoot, node.Entry); err != nil {
		return err
	}

	buildReq := ports.BuildRequest{
		SourceDir:   sourceRoot,
		BuildDir:    filepath.Join(s.Paths.Build, node.Name),
		Entry:       node.Entry,
		Prefix:      s.Paths.Prefix,
		DepPrefixes: s.depPrefixes(plan, node, installed),
	}

	// Custom packages place artifacts during their build commands, so
	// the ownership snapshot starts before the build phase, not just
	// before the install step.
	before, err := s.snapshotPrefix()
	if err != nil {
		return err
	}

	node.State = types.NodeStateBuilding
	logger.Info().Str("build_system", string(node.Entry.BuildSystem)).Msg("building")
	if err := s.Builder.Build(ctx, buildReq); err != nil {
		return err
	}

	node.State = types.NodeStateInstalling
	logger.Info().Msg("installing")
	if err := s.Builder.Install(ctx, buildReq); err != nil {
		return err
	}
	after, err := s.snapshotPrefix()
	if err != nil {
		return err
	}

	record := types.InstalledRecord{
		Name:         node.Name,
		Version:      node.Version,
		Prefix:       s.Paths.Prefix,
		InstallDir:   s.Paths.Prefix,
		InstalledAt:  s.now(),
		Dependencies: dependencyIDs(plan, node),
		Files:        diffSnapshots(before, after),
	}
	if err := s.DB.Record(record); err != nil {
		return err
	}
	installed[node.Name] = record
	node.State = types.NodeStateInstalled
	logger.Info().Str("version", node.Version).Msg("installed")
	return nil
}

// depPrefixes collects the install prefixes of a node's dependencies.
// Dependencies installed in an earlier session may live under a
// different prefix; ones from this session share ours.
func (s *Service) depPrefixes(plan types.Plan, node *types.PlanNode, installed map[string]types.InstalledRecord) []string {
	var prefixes []string
	for _, dep := range node.Deps {
		depName := plan.Nodes[dep].Name
		if record, ok := installed[depName]; ok && record.Prefix != "" {
			prefixes = append(prefixes, record.Prefix)
			continue
		}
		prefixes = append(prefixes, s.Paths.Prefix)
	}
	return prefixes
}

func dependencyIDs(plan types.Plan, node *types.PlanNode) []string {
	var ids []string
	for _, dep := range node.Deps {
		ids = append(ids, plan.Nodes[dep].ID())
	}
	return ids
}

// snapshotPrefix lists every file under the prefix, relative to it,
// excluding the tool's own working directories. The before/after diff
// around a node's build and install steps is what its record claims
// ownership of.
func (s *Service) snapshotPrefix() (map[string]struct{}, error) {
	skip := map[string]struct{}{
		s.Paths.Manifests: {},
		s.Paths.DB:        {},
		s.Paths.Sources:   {},
		s.Paths.Build:     {},
	}
	files := map[string]struct{}{}
	err := filepath.WalkDir(s.Paths.Prefix, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if _, skipped := skip[path]; skipped {
			return fs.SkipDir
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.Paths.Prefix, path)
		if err != nil {
			return err
		}
		files[rel] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func diffSnapshots(before map[string]struct{}, after map[string]struct{}) []string {
	var added []string
	for path := range after {
		if _, ok := before[path]; !ok {
			added = append(added, path)
		}
	}
	sort.Strings(added)
	return added
}

// phaseOf maps an in-flight node state to the phase name reported on
// failure.
func phaseOf(state types.NodeState) types.Phase {
	switch state {
	case types.NodeStateFetching:
		return types.PhaseFetch
	case types.NodeStatePatching:
		return types.PhasePatch
	case types.NodeStateBuilding:
		return types.PhaseBuild
	default:
		return types.PhaseInstall
	}
}
