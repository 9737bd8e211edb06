package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"pkgsmith/internal/core"
	"pkgsmith/internal/ports"
	"pkgsmith/internal/types"
)

// Build fetches, patches and compiles one package without installing it
// or touching the database. Its dependencies must already be installed
// so the build can see their headers and libraries.
func (s *Service) Build(ctx context.Context, req InstallRequest) (types.ExecutionReport, error) {
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

	target := &plan.Nodes[len(plan.Nodes)-1]
	var missing []string
	for _, dep := range target.Deps {
		depNode := plan.Nodes[dep]
		if _, ok := installed[depNode.Name]; !ok {
			missing = append(missing, depNode.ID())
		}
	}
	if len(missing) > 0 {
		return report, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("build requires installed dependencies: missing %s", strings.Join(missing, ", ")))
	}

	target.State = types.NodeStateFetching
	logger.Info().Str("package", target.ID()).Msg("fetching source")
	sourceDir := filepath.Join(s.Paths.Sources, target.Name)
	sourceRoot, err := s.Fetcher.Fetch(ctx, target.Entry.Source, sourceDir, req.Force)
	if err != nil {
		return failedReport(report, target, err), err
	}

	target.State = types.NodeStatePatching
	if err := s.Builder.Patch(ctx, sourceRoot, target.Entry); err != nil {
		return failedReport(report, target, err), err
	}

	target.State = types.NodeStateBuilding
	if err := s.Builder.Build(ctx, ports.BuildRequest{
		SourceDir:   sourceRoot,
		BuildDir:    filepath.Join(s.Paths.Build, target.Name),
		Entry:       target.Entry,
		Prefix:      s.Paths.Prefix,
		DepPrefixes: s.depPrefixes(plan, target, installed),
	}); err != nil {
		return failedReport(report, target, err), err
	}

	target.State = types.NodeStateInstalled
	report.Completed = append(report.Completed, target.ID())
	logger.Info().Str("package", target.ID()).Msg("build finished")
	return report, nil
}

func failedReport(report types.ExecutionReport, node *types.PlanNode, err error) types.ExecutionReport {
	report.Failed = node.ID()
	report.FailedPhase = phaseOf(node.State)
	report.FailureOutput = err.Error()
	node.State = types.NodeStateFailed
	return report
}
